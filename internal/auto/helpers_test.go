package auto

import (
	"errors"
	"strconv"
	"time"
)

type fakeClock struct{ t time.Time }

func newFakeClock() *fakeClock { return &fakeClock{t: time.Unix(1_700_000_000, 0)} }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

// trace collects hook calls across handlers and tasks in order.
type trace struct{ calls []string }

func (t *trace) add(s string) { t.calls = append(t.calls, s) }

// recorder is a foreground handler that counts hook calls.
type recorder struct {
	tr        *trace
	starts    int
	processes int
	completes int

	// timeoutFromArg sets the timeout to args[0] seconds; a missing arg
	// completes the command from OnStart.
	timeoutFromArg bool
	// doneAfter self-completes after this many OnProcess calls (0 = never).
	doneAfter int
}

func (r *recorder) OnStart(c *Command, name string, args []string) {
	r.starts++
	if r.tr != nil {
		r.tr.add("start:" + name)
	}
	if r.timeoutFromArg {
		if len(args) < 1 {
			c.Complete()
			return
		}
		secs, err := strconv.ParseFloat(args[0], 64)
		if err != nil {
			c.Complete()
			return
		}
		c.SetTimeout(time.Duration(secs * float64(time.Second)))
	}
}

func (r *recorder) OnProcess(c *Command) {
	r.processes++
	if r.tr != nil {
		r.tr.add("process:" + c.Name())
	}
	if r.doneAfter > 0 && r.processes >= r.doneAfter {
		c.Complete()
	}
}

func (r *recorder) OnComplete(c *Command) {
	r.completes++
	if r.tr != nil {
		r.tr.add("complete:" + c.Name())
	}
}

// factoryFor returns a factory plus the list of handlers it produced.
func factoryFor(tmpl recorder) (Factory, *[]*recorder) {
	made := &[]*recorder{}
	return func() Handler {
		r := tmpl
		*made = append(*made, &r)
		return &r
	}, made
}

// speedTask mimics an intake: aliases set a speed and it runs while non-zero.
type speedTask struct {
	tr        *trace
	speed     int
	updates   []string
	processes int
	kills     int
}

func (s *speedTask) UpdateArgs(name string, args []string) {
	s.updates = append(s.updates, name)
	if s.tr != nil {
		s.tr.add("update:" + name)
	}
	switch name {
	case "intake_in":
		s.speed = 1
	case "intake_out":
		s.speed = -1
	case "intake_stop":
		s.speed = 0
	}
}

func (s *speedTask) Process() {
	s.processes++
	if s.tr != nil {
		s.tr.add("bg:process")
	}
}
func (s *speedTask) ShouldRun() bool { return s.speed != 0 }
func (s *speedTask) Kill() {
	s.kills++
	s.speed = 0
}

type sliceSource []Entry

func (s sliceSource) Entries() ([]Entry, error) { return s, nil }

type failingSource struct{}

func (failingSource) Entries() ([]Entry, error) { return nil, errors.New("file not found") }

func e(name string, args ...string) Entry { return Entry{Name: name, Args: args} }
