package auto

import "time"

type CommandInfo struct {
	Name     string        `json:"name"`
	Args     []string      `json:"args,omitempty"`
	Index    int           `json:"index"`
	Started  bool          `json:"started"`
	Complete bool          `json:"complete"`
	Elapsed  time.Duration `json:"elapsed"`
	Timeout  time.Duration `json:"timeout"`
}

type BackgroundInfo struct {
	Kind      string   `json:"kind"`
	Aliases   []string `json:"aliases"`
	ShouldRun bool     `json:"should_run"`
}

// Snapshot is a point-in-time view of a Manager, for logs and status output.
type Snapshot struct {
	Entries    int              `json:"entries"`
	Next       int              `json:"next"`
	Finished   bool             `json:"finished"`
	Current    *CommandInfo     `json:"current,omitempty"`
	Background []BackgroundInfo `json:"background"`
	Commands   int              `json:"commands"`
}

func (m *Manager) Snapshot() Snapshot {
	s := Snapshot{
		Entries:  len(m.entries),
		Next:     m.next,
		Finished: len(m.entries) == 0 || (m.next >= len(m.entries) && (m.cur == nil || m.cur.IsComplete())),
		Commands: len(m.commands),
	}
	if c := m.cur; c != nil {
		e := m.entries[m.curIndex]
		s.Current = &CommandInfo{
			Name:     normalizeName(e.Name),
			Args:     append([]string(nil), e.Args...),
			Index:    m.curIndex,
			Started:  c.HasStarted(),
			Complete: c.IsComplete(),
			Elapsed:  c.Elapsed(),
			Timeout:  c.Timeout(),
		}
	}
	s.Background = make([]BackgroundInfo, 0, len(m.bg))
	for _, b := range m.bg {
		s.Background = append(s.Background, BackgroundInfo{
			Kind:      b.kind,
			Aliases:   append([]string(nil), b.aliases...),
			ShouldRun: b.task.ShouldRun(),
		})
	}
	return s
}
