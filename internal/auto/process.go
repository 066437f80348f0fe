package auto

import (
	logx "autoseq/pkg/logx"
)

// Process runs one scheduling tick and reports whether foreground work
// remains. Background tasks keep running on later ticks even after Process
// has returned false.
func (m *Manager) Process() bool {
	if len(m.entries) == 0 {
		return false
	}

	more := true
	if m.cur == nil || m.cur.IsComplete() {
		m.cur = nil
		m.drainBackground()
		if m.next >= len(m.entries) {
			more = false
			m.reportEnd()
		} else {
			m.dispatch()
		}
	}

	if c := m.cur; c != nil {
		if !c.HasStarted() {
			e := m.entries[m.curIndex]
			c.Start(normalizeName(e.Name), e.Args)
			m.log.Debug("command started", logx.String("name", c.Name()), logx.Int("index", m.curIndex), logx.Strings("args", c.Args()))
			m.publish(EventCommandStart, Lifecycle{Name: c.Name(), Args: c.Args(), Index: m.curIndex})
		}
		c.Tick()
		m.reportComplete()
	}

	for i := range m.bg {
		if t := m.bg[i].task; t.ShouldRun() {
			t.Process()
		}
	}
	return more
}

// drainBackground applies every consecutive background entry at the cursor
// within this tick, so a run of them never delays the next foreground command.
func (m *Manager) drainBackground() {
	for m.next < len(m.entries) {
		e := m.entries[m.next]
		key := normalizeName(e.Name)
		idx, ok := m.bgNames[key]
		if !ok {
			return
		}
		slot := &m.bg[idx]
		slot.task.UpdateArgs(key, e.Args)
		m.log.Debug("background updated", logx.String("name", key), logx.String("kind", slot.kind), logx.Int("index", m.next))
		m.publish(EventBackgroundUpdate, Lifecycle{Name: key, Args: e.Args, Index: m.next, Kind: slot.kind})
		m.next++
	}
}

// dispatch instantiates the entry at the cursor. Unknown names leave the slot
// empty, which the next tick treats like a completed command.
func (m *Manager) dispatch() {
	idx := m.next
	e := m.entries[idx]
	m.next++
	key := normalizeName(e.Name)
	f, ok := m.commands[key]
	if !ok {
		m.log.Warn("no command registered for name; skipping", logx.String("name", key), logx.Int("index", idx))
		m.publish(EventCommandSkip, Lifecycle{Name: key, Args: e.Args, Index: idx})
		return
	}
	m.cur = NewCommand(f(), m.now)
	m.curIndex = idx
	m.curReported = false
}

func (m *Manager) reportComplete() {
	c := m.cur
	if c == nil || m.curReported || !c.IsComplete() {
		return
	}
	m.curReported = true
	m.log.Debug("command complete",
		logx.String("name", c.Name()),
		logx.String("reason", string(c.Reason())),
		logx.Duration("elapsed", c.Elapsed()),
	)
	m.publish(EventCommandComplete, Lifecycle{
		Name:    c.Name(),
		Index:   m.curIndex,
		Reason:  c.Reason(),
		Elapsed: c.Elapsed(),
	})
}

func (m *Manager) reportEnd() {
	if m.endReported {
		return
	}
	m.endReported = true
	m.log.Info("script finished", logx.Int("entries", len(m.entries)))
	m.publish(EventScriptEnd, Lifecycle{Index: len(m.entries), Count: len(m.entries)})
}

// Kill aborts the run: the active command completes with ReasonKilled, the
// cursor moves past the end and every distinct background task is killed.
// Calling it on an idle manager is safe. The EventKill index is the active
// command's, or -1 when nothing was active. Entries appended afterwards are
// played on the next tick.
func (m *Manager) Kill() {
	killed := -1
	if c := m.cur; c != nil {
		if !c.IsComplete() {
			killed = m.curIndex
		}
		c.completeWith(ReasonKilled)
		m.reportComplete()
	}
	m.cur = nil
	m.next = len(m.entries)
	m.endReported = true

	for i := range m.bg {
		m.bg[i].task.Kill()
		m.publish(EventBackgroundKill, Lifecycle{Kind: m.bg[i].kind, Index: -1})
	}
	m.publish(EventKill, Lifecycle{Index: killed})
}

// Running reports whether any background task currently wants to run.
func (m *Manager) Running() bool {
	for i := range m.bg {
		if m.bg[i].task.ShouldRun() {
			return true
		}
	}
	return false
}
