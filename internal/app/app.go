package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"autoseq/internal/auto"
	"autoseq/internal/config"
	"autoseq/internal/eventbus"
	"autoseq/internal/journal"
	"autoseq/internal/robot"
	"autoseq/internal/runner"
	"autoseq/internal/runtime/supervisor"
	"autoseq/internal/script"
	logx "autoseq/pkg/logx"
)

// Options override config values from the command line. Zero values keep
// the config.
type Options struct {
	ConfigPath   string
	ScriptPath   string
	Period       time.Duration
	ExitOnFinish bool
}

type App struct {
	opts Options

	cfgm *config.ConfigManager // nil without a config file
	cfg  *config.Config

	log  logx.Logger
	logs *logx.Service
	bus  eventbus.Bus

	store journal.Store

	mgr *auto.Manager
	act *robot.SimActuators
	run *runner.Runner

	sup  *supervisor.Supervisor
	trig *runner.Trigger

	stopOnce sync.Once
}

func New(opts Options) (*App, error) {
	cfg := config.Default()
	var cfgm *config.ConfigManager
	if strings.TrimSpace(opts.ConfigPath) != "" {
		cfgm = config.NewConfigManager(opts.ConfigPath)
		loaded, err := cfgm.Load()
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
	}
	if opts.ScriptPath != "" {
		cfg.Script.Path = opts.ScriptPath
	}
	if opts.ExitOnFinish {
		cfg.Runner.ExitOnFinish = true
	}
	period, err := cfg.TickPeriod()
	if err != nil {
		return nil, err
	}
	if opts.Period > 0 {
		period = opts.Period
	}

	logs, root := logx.New(logConfig(cfg))
	log := root.With(logx.String("comp", "app"))

	var store journal.Store
	if jc, ok, err := journalConfig(cfg); err != nil {
		return nil, err
	} else if ok {
		if store, err = journal.Open(jc, root); err != nil {
			return nil, fmt.Errorf("open journal: %w", err)
		}
		log.Info("journal enabled", logx.String("driver", jc.Driver), logx.String("path", jc.Path))
	}

	bus := eventbus.New()
	mgr := auto.NewManager(
		auto.WithLogger(root.With(logx.String("comp", "auto"))),
		auto.WithBus(bus),
	)
	act := robot.NewSim(root)
	if err := robot.Register(mgr, act, root); err != nil {
		return nil, err
	}
	run := runner.New(mgr,
		runner.WithLogger(root.With(logx.String("comp", "runner"))),
		runner.WithPeriod(period),
		runner.WithExitOnFinish(cfg.Runner.ExitOnFinish),
	)

	return &App{
		opts:  opts,
		cfgm:  cfgm,
		cfg:   cfg,
		log:   log,
		logs:  logs,
		bus:   bus,
		store: store,
		mgr:   mgr,
		act:   act,
		run:   run,
	}, nil
}

// Done is closed once the app stops on its own (finished script with
// exit-on-finish, or a fatal error) or after Stop.
func (a *App) Done() <-chan struct{} {
	if a.sup == nil {
		ch := make(chan struct{})
		close(ch)
		return ch
	}
	return a.sup.Context().Done()
}

func (a *App) Err() error {
	if a.sup == nil {
		return nil
	}
	return a.sup.Err()
}

func (a *App) scriptPath() string { return strings.TrimSpace(a.cfg.Script.Path) }

// Start loads the script and launches every background loop. The Manager
// is only touched directly before the runner goroutine starts. After a
// failed Start, Stop still releases what was opened.
func (a *App) Start(ctx context.Context) error {
	a.sup = supervisor.New(ctx,
		supervisor.WithLogger(a.log.With(logx.String("comp", "supervisor"))),
		supervisor.WithCancelOnError(true),
	)

	// Subscribe before the runner starts so no event is missed.
	if a.store != nil {
		rec := journal.NewRecorder(a.store, a.log.With(logx.String("comp", "journal")))
		events, unsub := a.bus.Subscribe(rec.Buffer, auto.EventTopic)
		a.sup.GoRestart("journal", func(c context.Context) error { return rec.Consume(c, events) })
		context.AfterFunc(a.sup.Context(), unsub)
	}
	events, unsub := a.bus.Subscribe(128)
	a.sup.Go("eventbus.log", func(c context.Context) error {
		defer unsub()
		return a.logEvents(c, events)
	})

	if path := a.scriptPath(); path != "" {
		if err := a.mgr.LoadScript(script.File(path)); err != nil {
			a.sup.Cancel()
			return err
		}
		a.log.Info("script loaded", logx.String("path", path), logx.Int("entries", a.mgr.Len()))
	} else {
		a.log.Warn("no script configured; only background tasks will run")
	}

	a.sup.Go("runner", func(c context.Context) error {
		err := a.run.Run(c)
		// The runner only returns early when exit-on-finish fired.
		a.sup.Cancel()
		return err
	})

	if a.cfgm != nil {
		a.cfgm.SetLogger(a.log.With(logx.String("comp", "config")))
		a.cfgm.SetValidator(validate)
		a.sup.GoRestart("config.watch", a.cfgm.Watch)
		sub := a.cfgm.Subscribe(4)
		a.sup.Go("config.reload", func(c context.Context) error {
			defer a.cfgm.Unsubscribe(sub)
			a.applyConfigLoop(c, sub)
			return nil
		})
	}

	if path := a.scriptPath(); path != "" && a.cfg.Script.Watch {
		a.sup.GoRestart("script.watch", func(c context.Context) error {
			return config.WatchFile(c, path, config.DefaultDebounce, a.log.With(logx.String("comp", "script")), func() {
				a.reloadScript(c, "file changed")
			})
		})
	}

	if spec := strings.TrimSpace(a.cfg.Runner.Schedule); spec != "" {
		if a.scriptPath() == "" {
			return errors.New("runner.schedule needs script.path")
		}
		c := a.sup.Context()
		trig, err := runner.NewTrigger(spec, time.Local, a.log.With(logx.String("comp", "schedule")), func() {
			a.reloadScript(c, "schedule")
		})
		if err != nil {
			a.sup.Cancel()
			return fmt.Errorf("runner.schedule: %w", err)
		}
		trig.Start()
		a.trig = trig
		a.log.Info("schedule armed", logx.String("spec", spec), logx.Any("next", trig.Next()))
	}

	if every, _ := config.ParseDurationField("runner.status_every", a.cfg.Runner.StatusEvery); every > 0 {
		a.sup.Go("status", func(c context.Context) error { return a.statusLoop(c, every) })
	}

	a.sup.Go("systemd", a.notifySystemd)
	a.log.Info("autoseq started",
		logx.Duration("period", a.run.Period()),
		logx.Bool("exit_on_finish", a.cfg.Runner.ExitOnFinish),
		logx.Bool("journal", a.store != nil),
	)
	return nil
}

// Stop cancels every loop, waits for them and closes the journal.
func (a *App) Stop(ctx context.Context) error {
	var err error
	a.stopOnce.Do(func() {
		if a.trig != nil {
			a.trig.Stop(ctx)
		}
		if a.sup != nil {
			err = a.sup.Stop(ctx)
		}
		if a.store != nil {
			if cerr := a.store.Close(); cerr != nil {
				err = errors.Join(err, cerr)
			}
		}
		a.log.Info("autoseq stopped", logx.Uint64("ticks", a.run.Ticks()))
		_ = a.logs.Close()
	})
	return err
}

// Snapshot asks the runner for the manager state.
func (a *App) Snapshot(ctx context.Context) (auto.Snapshot, error) { return a.run.Snapshot(ctx) }

func (a *App) reloadScript(ctx context.Context, reason string) {
	path := a.scriptPath()
	deferred, err := a.run.Reload(ctx, script.File(path))
	switch {
	case errors.Is(err, runner.ErrStopped), errors.Is(err, context.Canceled):
	case err != nil:
		a.log.Warn("script reload failed", logx.String("path", path), logx.String("reason", reason), logx.Err(err))
	case deferred:
		a.log.Info("script reload queued until the current run finishes", logx.String("reason", reason))
	default:
		a.log.Info("script reloaded", logx.String("path", path), logx.String("reason", reason))
	}
}

func (a *App) statusLoop(ctx context.Context, every time.Duration) error {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
		}
		s, err := a.run.Snapshot(ctx)
		if err != nil {
			return nil
		}
		fields := []logx.Field{
			logx.Int("next", s.Next),
			logx.Int("entries", s.Entries),
			logx.Bool("finished", s.Finished),
			logx.Uint64("ticks", a.run.Ticks()),
		}
		if s.Current != nil {
			fields = append(fields, logx.String("current", s.Current.Name), logx.Duration("elapsed", s.Current.Elapsed))
		}
		var running []string
		for _, b := range s.Background {
			if b.ShouldRun {
				running = append(running, b.Kind)
			}
		}
		fields = append(fields, logx.Strings("background", running))
		if bs := eventbus.StatsOf(a.bus); bs.Dropped > 0 {
			fields = append(fields, logx.Uint64("events_dropped", bs.Dropped))
		}
		a.log.Info("status", fields...)
	}
}

func (a *App) logEvents(ctx context.Context, events <-chan eventbus.Event) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case e, ok := <-events:
			if !ok {
				return nil
			}
			a.log.Trace("event", logx.String("type", e.Type), logx.Any("data", e.Data))
		}
	}
}
