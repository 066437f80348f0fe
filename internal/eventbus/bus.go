// Package eventbus fans scheduler lifecycle events out to observers such as
// the journal recorder and the trace logger.
package eventbus

import (
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Event is one published signal. Type is a dotted topic, e.g.
// "auto.command.start".
type Event struct {
	Type string
	Time time.Time
	Data any
}

// Bus delivers events without ever blocking the publisher. Publish runs
// inside the tick loop, so a full subscriber loses the event instead.
type Bus interface {
	Publish(e Event)
	// Subscribe returns a channel of events whose type matches one of
	// topics (see Match). No topics means every event.
	Subscribe(buffer int, topics ...string) (ch <-chan Event, unsubscribe func())
}

// Match reports whether typ falls under topic. Topics match whole dotted
// segments: "auto.command" matches "auto.command.start" but not
// "auto.commander". "" and "*" match everything.
func Match(typ, topic string) bool {
	if topic == "" || topic == "*" || typ == topic {
		return true
	}
	topic = strings.TrimSuffix(topic, ".*")
	return strings.HasPrefix(typ, topic) && len(typ) > len(topic) && typ[len(topic)] == '.'
}

// Stats counts deliveries since the bus was created.
type Stats struct {
	Published   uint64
	Delivered   uint64
	Dropped     uint64
	Subscribers int
}

func New() Bus {
	return &memBus{subs: map[uint64]*sub{}}
}

type sub struct {
	ch     chan Event
	topics []string
}

func (s *sub) wants(typ string) bool {
	if len(s.topics) == 0 {
		return true
	}
	for _, t := range s.topics {
		if Match(typ, t) {
			return true
		}
	}
	return false
}

type memBus struct {
	mu   sync.RWMutex
	subs map[uint64]*sub
	seq  atomic.Uint64

	published atomic.Uint64
	delivered atomic.Uint64
	dropped   atomic.Uint64
}

func (b *memBus) Publish(e Event) {
	if e.Time.IsZero() {
		e.Time = time.Now()
	}
	b.published.Add(1)

	// Sends happen under the read lock so unsubscribe cannot close a channel
	// mid-send.
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, s := range b.subs {
		if !s.wants(e.Type) {
			continue
		}
		select {
		case s.ch <- e:
			b.delivered.Add(1)
		default:
			b.dropped.Add(1)
		}
	}
}

func (b *memBus) Subscribe(buffer int, topics ...string) (<-chan Event, func()) {
	if buffer <= 0 {
		buffer = 8
	}
	s := &sub{ch: make(chan Event, buffer), topics: append([]string(nil), topics...)}
	id := b.seq.Add(1)

	b.mu.Lock()
	b.subs[id] = s
	b.mu.Unlock()

	var once sync.Once
	return s.ch, func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			close(s.ch)
			b.mu.Unlock()
		})
	}
}

// StatsOf reads the counters of a bus created by New. Other implementations
// report zero.
func StatsOf(b Bus) Stats {
	mb, ok := b.(*memBus)
	if !ok {
		return Stats{}
	}
	mb.mu.RLock()
	n := len(mb.subs)
	mb.mu.RUnlock()
	return Stats{
		Published:   mb.published.Load(),
		Delivered:   mb.delivered.Load(),
		Dropped:     mb.dropped.Load(),
		Subscribers: n,
	}
}
