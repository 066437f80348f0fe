package app

import (
	"context"
	"strings"

	"autoseq/internal/config"
	"autoseq/internal/runner"
	logx "autoseq/pkg/logx"
)

// validate rejects a reloaded config before it is committed.
func validate(_ context.Context, cfg *config.Config) error {
	if s := strings.TrimSpace(cfg.Runner.Schedule); s != "" {
		if _, err := runner.ParseSchedule(s); err != nil {
			return err
		}
	}
	_, _, err := journalConfig(cfg)
	return err
}

// applyConfigLoop applies hot-reloadable settings: logging, tick period and
// exit-on-finish. Everything else is logged as needing a restart.
func (a *App) applyConfigLoop(ctx context.Context, sub <-chan *config.Config) {
	last := a.cfgm.Get()
	for {
		var cfg *config.Config
		select {
		case <-ctx.Done():
			return
		case c, ok := <-sub:
			if !ok {
				return
			}
			cfg = c
		}
		// Coalesce bursts.
	drain:
		for {
			select {
			case newer := <-sub:
				if newer != nil {
					cfg = newer
				}
			default:
				break drain
			}
		}

		changes := config.SummarizeConfigChange(last, cfg)
		if len(changes) == 0 {
			a.log.Debug("config reload received, but no effective changes detected")
			continue
		}
		a.log.Info("config changed", logx.Strings("changes", changes))
		a.applyConfig(last, cfg)
		last = cfg
	}
}

func (a *App) applyConfig(old, cfg *config.Config) {
	a.logs.Apply(logConfig(cfg))

	if a.opts.Period <= 0 {
		if d, err := cfg.TickPeriod(); err == nil {
			a.run.SetPeriod(d)
		}
	}
	if !a.opts.ExitOnFinish {
		a.run.SetExitOnFinish(cfg.Runner.ExitOnFinish)
	}

	var restart []string
	if old.Runner.Schedule != cfg.Runner.Schedule {
		restart = append(restart, "runner.schedule")
	}
	if old.Runner.StatusEvery != cfg.Runner.StatusEvery {
		restart = append(restart, "runner.status_every")
	}
	if a.opts.ScriptPath == "" && old.Script != cfg.Script {
		restart = append(restart, "script")
	}
	if old.Journal != nil || cfg.Journal != nil {
		oj, _, _ := journalConfig(old)
		nj, _, _ := journalConfig(cfg)
		if oj != nj {
			restart = append(restart, "journal")
		}
	}
	if len(restart) > 0 {
		a.log.Warn("config changes need a restart to take effect", logx.Strings("sections", restart))
	}
}
