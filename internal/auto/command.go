package auto

import "time"

// Handler is the domain side of a foreground command.
//
// OnStart runs once when the script reaches the command. A handler that finds
// its args unusable calls c.Complete() from OnStart to skip without side
// effects. OnProcess runs on every tick until the command completes or times
// out. OnComplete runs exactly once, whatever caused completion.
type Handler interface {
	OnStart(c *Command, name string, args []string)
	OnProcess(c *Command)
	OnComplete(c *Command)
}

// Factory builds a fresh Handler for each script slot that names it.
type Factory func() Handler

// CompleteReason records what ended a command.
type CompleteReason string

const (
	ReasonNone    CompleteReason = ""
	ReasonDone    CompleteReason = "done"
	ReasonTimeout CompleteReason = "timeout"
	ReasonKilled  CompleteReason = "killed"
)

// Command is one foreground script step and its lifecycle state.
//
// complete is monotonic. OnProcess is never called before Start nor after
// completion.
type Command struct {
	h   Handler
	now func() time.Time

	started   bool
	complete  bool
	reason    CompleteReason
	timeout   time.Duration
	startedAt time.Time

	name string
	args []string
}

// NewCommand wraps h. now supplies the clock; nil means time.Now.
func NewCommand(h Handler, now func() time.Time) *Command {
	if now == nil {
		now = time.Now
	}
	return &Command{h: h, now: now}
}

// Start records name and args, captures the start time and runs OnStart.
// It must be called exactly once.
func (c *Command) Start(name string, args []string) {
	c.name = name
	c.args = args
	c.startedAt = c.now()
	c.started = true
	c.h.OnStart(c, name, args)
}

// Tick runs one unit of work. An expired timeout completes the command before
// anything else happens in this tick.
func (c *Command) Tick() {
	if c.timedOut() {
		c.completeWith(ReasonTimeout)
	}
	if c.complete || !c.started {
		return
	}
	c.h.OnProcess(c)
}

// Complete marks the command finished. Only the first call has an effect.
func (c *Command) Complete() { c.completeWith(ReasonDone) }

func (c *Command) completeWith(reason CompleteReason) {
	if c.complete {
		return
	}
	c.complete = true
	c.reason = reason
	c.h.OnComplete(c)
}

func (c *Command) timedOut() bool {
	return c.started && c.timeout > 0 && c.now().Sub(c.startedAt) >= c.timeout
}

func (c *Command) HasStarted() bool { return c.started }
func (c *Command) IsComplete() bool { return c.complete }

// SetTimeout sets the timeout measured from Start. Zero disables it.
func (c *Command) SetTimeout(d time.Duration) {
	if d < 0 {
		d = 0
	}
	c.timeout = d
}

func (c *Command) Timeout() time.Duration { return c.timeout }

func (c *Command) Name() string           { return c.name }
func (c *Command) Args() []string         { return c.args }
func (c *Command) Reason() CompleteReason { return c.reason }

// Elapsed is the time since Start, or zero before Start.
func (c *Command) Elapsed() time.Duration {
	if !c.started {
		return 0
	}
	return c.now().Sub(c.startedAt)
}
