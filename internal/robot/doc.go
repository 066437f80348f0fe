// Package robot provides the demo drivetrain and mechanism commands.
//
// drive and rotate are timed foreground commands. The intake and the lifter
// are background tasks that keep running across foreground steps. All
// hardware access goes through Actuators; SimActuators logs instead of moving.
package robot
