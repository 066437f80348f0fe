package robot

import (
	"errors"
	"strconv"
	"strings"

	"autoseq/internal/auto"
	logx "autoseq/pkg/logx"
)

// Intake spins the intake rollers until told to stop.
//
//	intake_in[,speed]   speed defaults to 1
//	intake_out[,speed]  speed defaults to 1, applied reversed
//	intake_stop
type Intake struct {
	act   Actuators
	log   logx.Logger
	speed float64
}

func NewIntake(act Actuators, log logx.Logger) *Intake {
	return &Intake{act: act, log: log}
}

func (i *Intake) UpdateArgs(name string, args []string) {
	switch name {
	case "intake_in":
		i.speed = power(args, 0, 1)
	case "intake_out":
		i.speed = -power(args, 0, 1)
	case "intake_stop":
		i.Kill()
		return
	}
	i.log.Debug("intake updated", logx.String("cmd", name), logx.Float64("speed", i.speed))
}

func (i *Intake) Process()        { i.act.Intake(i.speed) }
func (i *Intake) ShouldRun() bool { return i.speed != 0 }

func (i *Intake) Kill() {
	i.speed = 0
	i.act.Intake(0)
}

func (i *Intake) Speed() float64 { return i.speed }

// Lifter moves one step per tick toward the target set by
// "move_lifter,<position>".
type Lifter struct {
	act     Actuators
	log     logx.Logger
	target  int
	current int
}

func NewLifter(act Actuators, log logx.Logger) *Lifter {
	return &Lifter{act: act, log: log}
}

func (l *Lifter) UpdateArgs(name string, args []string) {
	if len(args) < 1 {
		l.log.Warn("not enough arguments; lifter target unchanged", logx.String("cmd", name))
		return
	}
	target, err := strconv.Atoi(strings.TrimSpace(args[0]))
	if err != nil {
		l.log.Warn("invalid lifter target", logx.String("cmd", name), logx.String("arg", args[0]))
		return
	}
	l.target = target
	l.log.Debug("lifter target", logx.Int("target", target), logx.Int("current", l.current))
}

func (l *Lifter) Process() {
	step := 1
	if l.target < l.current {
		step = -1
	}
	l.current += step
	l.act.Lifter(step)
}

func (l *Lifter) ShouldRun() bool { return l.target != l.current }

func (l *Lifter) Kill() {
	l.target = l.current
	l.act.StopLifter()
}

func (l *Lifter) Position() (current, target int) { return l.current, l.target }

// Register wires the demo command set into m.
func Register(m *auto.Manager, act Actuators, log logx.Logger) error {
	if log.IsZero() {
		log = logx.Nop()
	}
	log = log.With(logx.String("comp", "robot"))
	return errors.Join(
		m.RegisterCommand(NewDrive(act, log), "drive", "forward"),
		m.RegisterCommand(NewRotate(act, log), "rotate", "turn"),
		m.RegisterCommand(NewWait(log), "wait", "sleep"),
		m.RegisterBackground("intake", func() auto.BackgroundTask { return NewIntake(act, log) }, "intake_in", "intake_out", "intake_stop"),
		m.RegisterBackground("lifter", func() auto.BackgroundTask { return NewLifter(act, log) }, "move_lifter"),
	)
}
