package auto

import (
	"time"

	"autoseq/internal/eventbus"
)

// EventTopic is the bus topic covering every event below.
const EventTopic = "auto"

// Event types published on the bus.
const (
	EventCommandStart     = "auto.command.start"
	EventCommandComplete  = "auto.command.complete"
	EventCommandSkip      = "auto.command.skip"
	EventBackgroundUpdate = "auto.background.update"
	EventBackgroundKill   = "auto.background.kill"
	EventScriptLoad       = "auto.script.load"
	EventScriptEnd        = "auto.script.end"
	EventKill             = "auto.kill"
)

// Lifecycle is the Data payload of every auto.* event.
type Lifecycle struct {
	Name    string         `json:"name,omitempty"`
	Args    []string       `json:"args,omitempty"`
	Index   int            `json:"index"`
	Kind    string         `json:"kind,omitempty"`
	Reason  CompleteReason `json:"reason,omitempty"`
	Elapsed time.Duration  `json:"elapsed,omitempty"`
	Count   int            `json:"count,omitempty"`
}

func (m *Manager) publish(typ string, data Lifecycle) {
	if m.bus == nil {
		return
	}
	m.bus.Publish(eventbus.Event{Type: typ, Time: m.now(), Data: data})
}
