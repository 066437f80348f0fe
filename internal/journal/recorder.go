package journal

import (
	"context"
	"time"

	"autoseq/internal/auto"
	"autoseq/internal/eventbus"
	logx "autoseq/pkg/logx"
)

// FromEvent converts an auto.* bus event. Other events report false.
func FromEvent(e eventbus.Event) (Record, bool) {
	if !eventbus.Match(e.Type, auto.EventTopic) {
		return Record{}, false
	}
	r := Record{At: e.Time, Type: e.Type}
	if lc, ok := e.Data.(auto.Lifecycle); ok {
		r.Name = lc.Name
		r.Args = lc.Args
		r.Index = lc.Index
		r.Kind = lc.Kind
		r.Reason = string(lc.Reason)
		r.Elapsed = lc.Elapsed
		r.Count = lc.Count
	}
	return r, true
}

// Recorder copies lifecycle events from a bus into a Store.
type Recorder struct {
	store Store
	log   logx.Logger

	// Buffer is the bus subscription size. Events beyond it are dropped by
	// the bus rather than blocking the tick loop.
	Buffer int
	// WriteTimeout bounds each Append.
	WriteTimeout time.Duration
}

func NewRecorder(store Store, log logx.Logger) *Recorder {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Recorder{store: store, log: log, Buffer: 256, WriteTimeout: 2 * time.Second}
}

// Run subscribes to bus and consumes until ctx is cancelled.
func (r *Recorder) Run(ctx context.Context, bus eventbus.Bus) error {
	ch, unsub := bus.Subscribe(r.Buffer, auto.EventTopic)
	defer unsub()
	return r.Consume(ctx, ch)
}

// Consume appends events from ch until ctx is cancelled or ch is closed.
// On cancel it drains what is already queued.
func (r *Recorder) Consume(ctx context.Context, ch <-chan eventbus.Event) error {
	failures := 0
	write := func(e eventbus.Event) {
		rec, ok := FromEvent(e)
		if !ok {
			return
		}
		wctx, cancel := context.WithTimeout(context.Background(), r.WriteTimeout)
		err := r.store.Append(wctx, rec)
		cancel()
		if err != nil {
			failures++
			// Log the first failure and then every hundredth.
			if failures%100 == 1 {
				r.log.Warn("journal append failed", logx.String("type", rec.Type), logx.Int("failures", failures), logx.Err(err))
			}
		}
	}

	for {
		select {
		case e, ok := <-ch:
			if !ok {
				return nil
			}
			write(e)
		case <-ctx.Done():
			for {
				select {
				case e, ok := <-ch:
					if !ok {
						return nil
					}
					write(e)
				default:
					return nil
				}
			}
		}
	}
}
