package runner

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"autoseq/internal/auto"
	logx "autoseq/pkg/logx"
)

var ErrStopped = errors.New("runner: stopped")

const DefaultPeriod = 50 * time.Millisecond

// Runner owns an auto.Manager and ticks it from a single goroutine at a
// fixed rate. Other goroutines reach the Manager only through requests that
// run between ticks.
type Runner struct {
	m   *auto.Manager
	log logx.Logger

	reqs chan func()
	done chan struct{}

	period       atomic.Int64
	exitOnFinish atomic.Bool
	ticks        atomic.Uint64

	// pending is owned by the loop goroutine.
	pending auto.Source
}

type Option func(*Runner)

func WithLogger(log logx.Logger) Option { return func(r *Runner) { r.log = log } }

func WithPeriod(d time.Duration) Option { return func(r *Runner) { r.SetPeriod(d) } }

// WithExitOnFinish makes Run return once the script is finished and no
// background task wants to run.
func WithExitOnFinish(v bool) Option { return func(r *Runner) { r.exitOnFinish.Store(v) } }

func New(m *auto.Manager, opts ...Option) *Runner {
	r := &Runner{
		m:    m,
		log:  logx.Nop(),
		reqs: make(chan func()),
		done: make(chan struct{}),
	}
	r.period.Store(int64(DefaultPeriod))
	for _, o := range opts {
		o(r)
	}
	if r.log.IsZero() {
		r.log = logx.Nop()
	}
	return r
}

// SetPeriod changes the tick period; it applies from the next tick.
// Non-positive values are ignored.
func (r *Runner) SetPeriod(d time.Duration) {
	if d > 0 {
		r.period.Store(int64(d))
	}
}

func (r *Runner) Period() time.Duration { return time.Duration(r.period.Load()) }

func (r *Runner) SetExitOnFinish(v bool) { r.exitOnFinish.Store(v) }

// Ticks is the number of Process calls so far.
func (r *Runner) Ticks() uint64 { return r.ticks.Load() }

// Done is closed when Run returns.
func (r *Runner) Done() <-chan struct{} { return r.done }

// Run ticks the Manager until ctx is cancelled, which kills it, or until the
// work is finished with exit-on-finish set. Run must be called once.
func (r *Runner) Run(ctx context.Context) error {
	defer close(r.done)

	period := r.Period()
	lim := rate.NewLimiter(rate.Every(period), 1)
	timer := time.NewTimer(0)
	defer timer.Stop()

	r.log.Info("runner started", logx.Duration("period", period))
	for {
		if p := r.Period(); p != period {
			period = p
			lim.SetLimit(rate.Every(period))
			r.log.Info("tick period changed", logx.Duration("period", period))
		}

		res := lim.Reserve()
		timer.Reset(res.Delay())
		select {
		case <-ctx.Done():
			res.Cancel()
			r.m.Kill()
			r.log.Info("runner stopped", logx.Uint64("ticks", r.Ticks()))
			return nil
		case fn := <-r.reqs:
			res.Cancel()
			fn()
			continue
		case <-timer.C:
		}

		busy := r.m.Process()
		r.ticks.Add(1)
		if busy {
			continue
		}
		if r.pending != nil {
			r.apply(r.pending)
			continue
		}
		if r.exitOnFinish.Load() && !r.m.Running() {
			r.log.Info("script finished; exiting", logx.Uint64("ticks", r.Ticks()))
			return nil
		}
	}
}

func (r *Runner) apply(src auto.Source) {
	r.pending = nil
	if err := r.m.LoadScript(src); err != nil {
		r.log.Warn("script reload failed", logx.Err(err))
		return
	}
	r.log.Info("script reloaded", logx.Int("entries", r.m.Len()))
}

// Do runs fn on the loop goroutine between ticks and waits for it.
func (r *Runner) Do(ctx context.Context, fn func(m *auto.Manager)) error {
	finished := make(chan struct{})
	req := func() {
		defer close(finished)
		fn(r.m)
	}
	select {
	case r.reqs <- req:
	case <-r.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
	<-finished
	return nil
}

// Load replaces the script immediately, abandoning the current command.
func (r *Runner) Load(ctx context.Context, src auto.Source) error {
	var err error
	if derr := r.Do(ctx, func(*auto.Manager) {
		r.pending = nil
		err = r.m.LoadScript(src)
	}); derr != nil {
		return derr
	}
	return err
}

// Reload replaces the script once the current one has finished. Only the
// last pending reload is kept. It reports whether the reload was deferred.
func (r *Runner) Reload(ctx context.Context, src auto.Source) (deferred bool, err error) {
	derr := r.Do(ctx, func(*auto.Manager) {
		if !r.m.Snapshot().Finished {
			r.pending = src
			deferred = true
			return
		}
		r.pending = nil
		err = r.m.LoadScript(src)
	})
	if derr != nil {
		return false, derr
	}
	return deferred, err
}

// Kill stops the current command and every background task and drops any
// pending reload.
func (r *Runner) Kill(ctx context.Context) error {
	return r.Do(ctx, func(m *auto.Manager) {
		r.pending = nil
		m.Kill()
	})
}

func (r *Runner) Snapshot(ctx context.Context) (auto.Snapshot, error) {
	var s auto.Snapshot
	err := r.Do(ctx, func(m *auto.Manager) { s = m.Snapshot() })
	return s, err
}
