package robot

import (
	"errors"
	"testing"
	"time"

	"autoseq/internal/auto"
	"autoseq/internal/script"
	logx "autoseq/pkg/logx"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func newManager(t *testing.T) (*auto.Manager, *SimActuators, *clock) {
	t.Helper()
	clk := &clock{t: time.Unix(0, 0)}
	m := auto.NewManager(auto.WithClock(clk.now))
	sim := NewSim(logx.Nop())
	if err := Register(m, sim, logx.Nop()); err != nil {
		t.Fatalf("Register: %v", err)
	}
	return m, sim, clk
}

func TestRegisterTwiceRejected(t *testing.T) {
	t.Parallel()
	m, sim, _ := newManager(t)
	if err := Register(m, sim, logx.Nop()); !errors.Is(err, auto.ErrNameTaken) {
		t.Fatalf("err = %v, want ErrNameTaken", err)
	}
}

func TestDriveIntakeRotateScript(t *testing.T) {
	t.Parallel()
	m, sim, clk := newManager(t)
	if err := m.LoadScript(script.Text("drive,2\nintake_in\nrotate,1")); err != nil {
		t.Fatal(err)
	}

	ticks := 0
	for m.Process() {
		ticks++
		clk.t = clk.t.Add(50 * time.Millisecond)
		if ticks > 1000 {
			t.Fatal("script never finished")
		}
	}
	// 2s of drive and 1s of rotate at 50ms per tick, plus the advancing ticks.
	if ticks < 60 || ticks > 63 {
		t.Fatalf("ticks = %d", ticks)
	}
	if sim.IntakeSpeed != 1 {
		t.Fatalf("intake speed = %v, want 1", sim.IntakeSpeed)
	}
	if sim.DrivePower != 0 || sim.RotatePower != 0 {
		t.Fatal("drivetrain should be stopped after timed commands")
	}
	if !m.Running() {
		t.Fatal("intake keeps running after the script")
	}

	m.Kill()
	if sim.IntakeSpeed != 0 || m.Running() {
		t.Fatal("kill should stop the intake")
	}
}

func TestDriveMissingArgsSkips(t *testing.T) {
	t.Parallel()
	tests := map[string]string{
		"missing":  "drive\nrotate\nwait",
		"garbage":  "drive,abc\nrotate,abc\nwait,abc",
		"negative": "drive,-1\nrotate,-2\nwait,-3",
		"zero":     "drive,0\nrotate,0\nwait,0",
		"inf":      "drive,inf\nrotate,+Inf\nwait,inf",
		"nan":      "drive,NaN\nrotate,nan\nwait,NaN",
		"huge":     "drive,1e300\nrotate,1e300\nwait,1e300",
	}
	for name, text := range tests {
		text := text
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			m, sim, clk := newManager(t)
			if err := m.LoadScript(script.Text(text)); err != nil {
				t.Fatal(err)
			}
			// Each invalid command completes in OnStart, one per tick.
			for i := 0; i < 3; i++ {
				m.Process()
				if sim.DrivePower != 0 || sim.RotatePower != 0 {
					t.Fatalf("tick %d moved the robot: drive=%v rotate=%v", i, sim.DrivePower, sim.RotatePower)
				}
			}
			clk.t = clk.t.Add(24 * time.Hour)
			if m.Process() {
				t.Fatal("invalid commands should complete immediately")
			}
			if snap := m.Snapshot(); !snap.Finished {
				t.Fatalf("snapshot = %+v, want finished", snap)
			}
		})
	}
}

func TestDrivePowerArg(t *testing.T) {
	t.Parallel()
	m, sim, _ := newManager(t)
	_ = m.LoadScript(script.Text("forward,1,-3"))
	m.Process()
	if sim.DrivePower != -1 {
		t.Fatalf("power = %v, want clamped -1", sim.DrivePower)
	}
}

func TestLifterMovesToTarget(t *testing.T) {
	t.Parallel()
	m, sim, _ := newManager(t)
	_ = m.LoadScript(script.Text("move_lifter,3\nwait,10\nmove_lifter,1"))

	for i := 0; i < 5; i++ {
		m.Process()
	}
	if sim.LifterPos != 3 {
		t.Fatalf("lifter pos = %d, want 3", sim.LifterPos)
	}
	if m.Running() {
		t.Fatal("lifter at target should not run")
	}
}

func TestLifterDirectUse(t *testing.T) {
	t.Parallel()
	sim := NewSim(logx.Nop())
	l := NewLifter(sim, logx.Nop())
	l.UpdateArgs("move_lifter", []string{"-2"})
	for l.ShouldRun() {
		l.Process()
	}
	if cur, target := l.Position(); cur != -2 || target != -2 {
		t.Fatalf("position = %d/%d", cur, target)
	}

	l.UpdateArgs("move_lifter", []string{"5"})
	l.Process()
	l.Kill()
	if l.ShouldRun() {
		t.Fatal("kill should settle the lifter")
	}
	if cur, target := l.Position(); cur != -1 || target != -1 {
		t.Fatalf("after kill position = %d/%d", cur, target)
	}

	l.UpdateArgs("move_lifter", nil)
	l.UpdateArgs("move_lifter", []string{"x"})
	if l.ShouldRun() {
		t.Fatal("bad args must leave the target unchanged")
	}
}

func TestIntakeAliases(t *testing.T) {
	t.Parallel()
	sim := NewSim(logx.Nop())
	in := NewIntake(sim, logx.Nop())

	in.UpdateArgs("intake_out", []string{"0.5"})
	if in.Speed() != -0.5 || !in.ShouldRun() {
		t.Fatalf("speed = %v", in.Speed())
	}
	in.Process()
	if sim.IntakeSpeed != -0.5 {
		t.Fatalf("actuator speed = %v", sim.IntakeSpeed)
	}
	in.UpdateArgs("intake_stop", nil)
	if in.ShouldRun() || sim.IntakeSpeed != 0 {
		t.Fatal("intake_stop should stop the rollers")
	}
}
