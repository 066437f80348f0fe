package auto

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"autoseq/internal/eventbus"
	logx "autoseq/pkg/logx"
)

// Entry is one script line: a command name and its positional args.
type Entry struct {
	Name string
	Args []string
}

// Source supplies script entries. How they are produced is up to the source.
type Source interface {
	Entries() ([]Entry, error)
}

// Manager owns the script, the registry, the active foreground command and
// the background task instances. It is not safe for concurrent use; a single
// driver goroutine calls Process and every other method.
type Manager struct {
	log logx.Logger
	now func() time.Time
	bus eventbus.Bus

	// registry
	commands map[string]Factory
	bgNames  map[string]int // name -> index in bg
	bgKinds  map[string]int // kind -> index in bg
	bg       []bgSlot

	// script
	entries []Entry
	next    int // index of the next entry to dispatch

	cur         *Command
	curIndex    int
	curReported bool
	endReported bool
}

type Option func(*Manager)

func WithLogger(log logx.Logger) Option { return func(m *Manager) { m.log = log } }

// WithClock replaces time.Now for command timeouts and event stamps.
func WithClock(now func() time.Time) Option { return func(m *Manager) { m.now = now } }

// WithBus publishes lifecycle events to bus.
func WithBus(bus eventbus.Bus) Option { return func(m *Manager) { m.bus = bus } }

func NewManager(opts ...Option) *Manager {
	m := &Manager{
		commands: map[string]Factory{},
		bgNames:  map[string]int{},
		bgKinds:  map[string]int{},
		curIndex: -1,
	}
	for _, o := range opts {
		o(m)
	}
	if m.log.IsZero() {
		m.log = logx.Nop()
	}
	if m.now == nil {
		m.now = time.Now
	}
	return m
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func (m *Manager) claimed(key string) bool {
	if _, ok := m.commands[key]; ok {
		return true
	}
	_, ok := m.bgNames[key]
	return ok
}

func (m *Manager) checkName(name string) (string, error) {
	key := normalizeName(name)
	if key == "" {
		m.log.Warn("cannot register command with empty name")
		return "", ErrInvalidName
	}
	if m.claimed(key) {
		m.log.Warn("cannot register command; name already registered", logx.String("name", key))
		return "", fmt.Errorf("%q: %w", key, ErrNameTaken)
	}
	return key, nil
}

// RegisterCommand binds each name to f. Names are case-insensitive. A name
// already claimed by a command or a background task is rejected and the
// original registration kept; the remaining names still register.
func (m *Manager) RegisterCommand(f Factory, names ...string) error {
	if f == nil {
		return ErrNilFactory
	}
	var errs []error
	for _, n := range names {
		key, err := m.checkName(n)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		m.commands[key] = f
	}
	return errors.Join(errs...)
}

// RegisterBackground binds each name to the single task instance of kind.
// The instance is built by newTask the first time kind is registered; later
// registrations of the same kind alias the existing instance so every alias
// shares its state.
func (m *Manager) RegisterBackground(kind string, newTask func() BackgroundTask, names ...string) error {
	if newTask == nil {
		return ErrNilFactory
	}
	kind = strings.TrimSpace(kind)
	if kind == "" {
		return fmt.Errorf("background kind: %w", ErrInvalidName)
	}
	var errs []error
	for _, n := range names {
		key, err := m.checkName(n)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		idx, ok := m.bgKinds[kind]
		if !ok {
			m.bg = append(m.bg, bgSlot{kind: kind, task: newTask()})
			idx = len(m.bg) - 1
			m.bgKinds[kind] = idx
		}
		m.bg[idx].aliases = append(m.bg[idx].aliases, key)
		m.bgNames[key] = idx
	}
	return errors.Join(errs...)
}

// UnregisterAll clears both registries and drops every background task
// instance. An in-flight foreground command is not affected; callers that
// want a clean slate should also ClearCommands.
func (m *Manager) UnregisterAll() {
	m.commands = map[string]Factory{}
	m.bgNames = map[string]int{}
	m.bgKinds = map[string]int{}
	m.bg = nil
}

// IsRegistered reports whether name resolves to a command or background task.
func (m *Manager) IsRegistered(name string) bool {
	return m.claimed(normalizeName(name))
}

// LoadScript aborts any run in progress, clears the script and replaces it
// with the entries of src. When src fails the script stays empty.
func (m *Manager) LoadScript(src Source) error {
	m.ClearCommands()
	if src == nil {
		return fmt.Errorf("nil source: %w", ErrScriptUnavailable)
	}
	entries, err := src.Entries()
	if err != nil {
		m.log.Error("script load failed", logx.Err(err))
		return fmt.Errorf("%w: %w", ErrScriptUnavailable, err)
	}
	m.entries = make([]Entry, 0, len(entries))
	for _, e := range entries {
		m.entries = append(m.entries, cloneEntry(e.Name, e.Args))
	}
	m.resetCursor()
	m.log.Info("script loaded", logx.Int("entries", len(m.entries)))
	m.publish(EventScriptLoad, Lifecycle{Index: -1, Count: len(m.entries)})
	return nil
}

// AddCommand inserts an entry at pos. Any pos outside [0, Len()] appends.
// Entries not yet reached shift; the active command is unaffected.
func (m *Manager) AddCommand(name string, args []string, pos int) {
	e := cloneEntry(name, args)
	pos = m.insertPos(pos)
	m.entries = append(m.entries, Entry{})
	copy(m.entries[pos+1:], m.entries[pos:])
	m.entries[pos] = e
	m.shiftCursor(pos, 1)
}

// AddCommands inserts names with matching args at pos as one batch. Mismatched
// lengths are rejected without inserting anything.
func (m *Manager) AddCommands(names []string, args [][]string, pos int) error {
	if len(names) != len(args) {
		m.log.Error("add commands rejected", logx.Int("names", len(names)), logx.Int("args", len(args)))
		return fmt.Errorf("add commands: %d names, %d argument lists: %w", len(names), len(args), ErrLengthMismatch)
	}
	batch := make([]Entry, len(names))
	for i := range names {
		batch[i] = cloneEntry(names[i], args[i])
	}
	pos = m.insertPos(pos)
	tail := append([]Entry(nil), m.entries[pos:]...)
	m.entries = append(append(m.entries[:pos], batch...), tail...)
	m.shiftCursor(pos, len(batch))
	return nil
}

// ClearCommands aborts the run, then drops every entry and resets the cursor.
func (m *Manager) ClearCommands() {
	m.Kill()
	m.entries = nil
	m.resetCursor()
}

// Len is the number of loaded (and added) entries.
func (m *Manager) Len() int { return len(m.entries) }

// Entries returns a copy of the loaded script.
func (m *Manager) Entries() []Entry {
	out := make([]Entry, len(m.entries))
	for i, e := range m.entries {
		out[i] = cloneEntry(e.Name, e.Args)
	}
	return out
}

func (m *Manager) insertPos(pos int) int {
	if pos < 0 || pos > len(m.entries) {
		return len(m.entries)
	}
	return pos
}

// shiftCursor keeps next pointing at the same not-yet-dispatched entry after
// n entries were inserted at pos. Inserting exactly at next places the new
// entries ahead of it so they run next.
func (m *Manager) shiftCursor(pos, n int) {
	if pos < m.next {
		m.next += n
		if m.curIndex >= pos {
			m.curIndex += n
		}
	}
	if n > 0 {
		m.endReported = false
	}
}

func (m *Manager) resetCursor() {
	m.next = 0
	m.cur = nil
	m.curIndex = -1
	m.curReported = false
	m.endReported = false
}

func cloneEntry(name string, args []string) Entry {
	return Entry{Name: name, Args: append([]string(nil), args...)}
}
