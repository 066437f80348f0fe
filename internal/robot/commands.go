package robot

import (
	"math"
	"strconv"
	"strings"
	"time"

	"autoseq/internal/auto"
	logx "autoseq/pkg/logx"
)

// timed runs an actuator for arg0 seconds. A missing or unparsable duration
// completes the command from OnStart without touching the hardware.
type timed struct {
	act   Actuators
	log   logx.Logger
	power float64
	run   func(a Actuators, power float64)
}

// maxSeconds is the longest duration time.Duration can hold.
const maxSeconds = float64(math.MaxInt64) / float64(time.Second)

// seconds parses args[index] as a finite, non-negative number of seconds.
func seconds(args []string, index int) (time.Duration, bool) {
	if len(args) <= index {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(args[index]), 64)
	if err != nil || math.IsNaN(v) || v < 0 || v >= maxSeconds {
		return 0, false
	}
	return time.Duration(v * float64(time.Second)), true
}

// power parses the optional args[index] in [-1, 1], defaulting to def.
func power(args []string, index int, def float64) float64 {
	if len(args) <= index {
		return def
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(args[index]), 64)
	if err != nil {
		return def
	}
	return min(1, max(-1, v))
}

func (t *timed) OnStart(c *auto.Command, name string, args []string) {
	d, ok := seconds(args, 0)
	if !ok {
		t.log.Warn("not enough arguments; skipping", logx.String("cmd", name), logx.Strings("args", args))
		c.Complete()
		return
	}
	if d == 0 {
		c.Complete()
		return
	}
	t.power = power(args, 1, 1)
	c.SetTimeout(d)
	t.log.Info("command started", logx.String("cmd", name), logx.Duration("for", d), logx.Float64("power", t.power))
}

func (t *timed) OnProcess(c *auto.Command) { t.run(t.act, t.power) }

func (t *timed) OnComplete(c *auto.Command) {
	if c.HasStarted() && c.Timeout() > 0 {
		t.act.StopDrive()
	}
	t.log.Info("command complete", logx.String("cmd", c.Name()), logx.String("reason", string(c.Reason())))
}

// NewDrive returns a factory for "drive,<seconds>[,<power>]".
func NewDrive(act Actuators, log logx.Logger) auto.Factory {
	return func() auto.Handler {
		return &timed{act: act, log: log, run: func(a Actuators, p float64) { a.Drive(p) }}
	}
}

// NewRotate returns a factory for "rotate,<seconds>[,<power>]".
func NewRotate(act Actuators, log logx.Logger) auto.Factory {
	return func() auto.Handler {
		return &timed{act: act, log: log, run: func(a Actuators, p float64) { a.Rotate(p) }}
	}
}

// wait holds the script for arg0 seconds without moving anything.
type wait struct{ log logx.Logger }

func (w *wait) OnStart(c *auto.Command, name string, args []string) {
	d, ok := seconds(args, 0)
	if !ok {
		w.log.Warn("not enough arguments; skipping", logx.String("cmd", name))
		c.Complete()
		return
	}
	if d == 0 {
		c.Complete()
		return
	}
	c.SetTimeout(d)
}

func (w *wait) OnProcess(*auto.Command)  {}
func (w *wait) OnComplete(*auto.Command) {}

func NewWait(log logx.Logger) auto.Factory {
	return func() auto.Handler { return &wait{log: log} }
}
