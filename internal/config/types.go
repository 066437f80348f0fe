package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	DefaultTickPeriod = 50 * time.Millisecond
)

type Config struct {
	Logging LoggingConfig `json:"logging"`
	Runner  RunnerConfig  `json:"runner"`
	Script  ScriptConfig  `json:"script"`

	// Journal records lifecycle events. Nil or driver "none" disables it.
	Journal *JournalConfig `json:"journal,omitempty"`
}

type LoggingConfig struct {
	Level   string      `json:"level"`
	Console bool        `json:"console"`
	File    LoggingFile `json:"file"`
}

type LoggingFile struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

// RunnerConfig controls the tick loop.
//
// All durations are Go duration strings (e.g. "20ms", "1s").
//
// Defaults (when fields are omitted/zero):
//   - tick_period: "50ms"
//   - exit_on_finish: false (keep ticking background tasks)
//   - schedule: "" (load the script once)
//   - status_every: "0s" (no periodic status line)
type RunnerConfig struct {
	TickPeriod   string `json:"tick_period,omitempty"`
	ExitOnFinish bool   `json:"exit_on_finish,omitempty"`

	// Schedule re-loads the script on a cron expression ("*/5 * * * *"),
	// a Go duration ("30s") or an HH:MM interval ("00:05").
	Schedule string `json:"schedule,omitempty"`

	StatusEvery string `json:"status_every,omitempty"`
}

// ScriptConfig points at the script to play.
//
// Watch reloads the script when the file changes. A change observed while
// foreground work remains is applied once the current run finishes.
type ScriptConfig struct {
	Path  string `json:"path"`
	Watch bool   `json:"watch,omitempty"`
}

// JournalConfig controls the optional lifecycle journal.
//
// Example:
//
//	"journal": { "driver": "sqlite", "path": "./autoseq.db" }
type JournalConfig struct {
	Driver      string `json:"driver"`
	Path        string `json:"path"`
	BusyTimeout string `json:"busy_timeout,omitempty"` // sqlite only
}

// Default returns the config used when no file is given.
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{Level: "info", Console: true},
		Runner:  RunnerConfig{TickPeriod: DefaultTickPeriod.String()},
	}
}

// TickPeriod resolves runner.tick_period with its default.
func (c *Config) TickPeriod() (time.Duration, error) {
	return ParseDurationOrDefault("runner.tick_period", c.Runner.TickPeriod, DefaultTickPeriod)
}

// Validate checks every field that can be checked without side effects.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	var errs []error
	if _, err := c.TickPeriod(); err != nil {
		errs = append(errs, err)
	}
	if _, err := ParseDurationField("runner.status_every", c.Runner.StatusEvery); err != nil {
		errs = append(errs, err)
	}
	if j := c.Journal; j != nil {
		switch strings.ToLower(strings.TrimSpace(j.Driver)) {
		case "", "none":
		case "file", "sqlite", "sqlite3":
			if strings.TrimSpace(j.Path) == "" {
				errs = append(errs, fmt.Errorf("journal.path is required for driver %q", j.Driver))
			}
		default:
			errs = append(errs, fmt.Errorf("journal.driver: unknown driver %q", j.Driver))
		}
		if _, err := ParseDurationField("journal.busy_timeout", j.BusyTimeout); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
