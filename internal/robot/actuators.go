package robot

import (
	logx "autoseq/pkg/logx"
)

// Actuators is the hardware surface the commands drive.
type Actuators interface {
	Drive(power float64)
	Rotate(power float64)
	StopDrive()
	Intake(speed float64)
	Lifter(step int)
	StopLifter()
}

// SimActuators logs every actuator call and keeps the last values for tests
// and dry runs.
type SimActuators struct {
	Log logx.Logger

	DrivePower  float64
	RotatePower float64
	IntakeSpeed float64
	LifterPos   int
	Calls       int
}

func NewSim(log logx.Logger) *SimActuators {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &SimActuators{Log: log.With(logx.String("comp", "robot"))}
}

func (s *SimActuators) Drive(power float64) {
	s.Calls++
	s.DrivePower = power
	s.Log.Debug("drive", logx.Float64("power", power))
}

func (s *SimActuators) Rotate(power float64) {
	s.Calls++
	s.RotatePower = power
	s.Log.Debug("rotate", logx.Float64("power", power))
}

func (s *SimActuators) StopDrive() {
	s.Calls++
	s.DrivePower, s.RotatePower = 0, 0
	s.Log.Debug("drive stopped")
}

func (s *SimActuators) Intake(speed float64) {
	s.Calls++
	s.IntakeSpeed = speed
	s.Log.Debug("intake", logx.Float64("speed", speed))
}

func (s *SimActuators) Lifter(step int) {
	s.Calls++
	s.LifterPos += step
	s.Log.Debug("lifter", logx.Int("step", step), logx.Int("pos", s.LifterPos))
}

func (s *SimActuators) StopLifter() {
	s.Calls++
	s.Log.Debug("lifter stopped", logx.Int("pos", s.LifterPos))
}
