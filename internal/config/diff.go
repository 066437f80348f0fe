package config

import (
	"fmt"
	"strings"
)

// SummarizeConfigChange lists what changed between two configs, one short
// phrase per change, for the reload log line.
func SummarizeConfigChange(old, cur *Config) []string {
	if old == nil || cur == nil {
		return nil
	}
	var out []string
	add := func(format string, args ...any) { out = append(out, fmt.Sprintf(format, args...)) }

	if old.Logging.Level != cur.Logging.Level {
		add("logging.level %s->%s", orDash(old.Logging.Level), orDash(cur.Logging.Level))
	}
	if old.Logging.Console != cur.Logging.Console {
		add("logging.console %t->%t", old.Logging.Console, cur.Logging.Console)
	}
	if old.Logging.File != cur.Logging.File {
		add("logging.file changed")
	}

	if old.Runner.TickPeriod != cur.Runner.TickPeriod {
		add("runner.tick_period %s->%s", orDash(old.Runner.TickPeriod), orDash(cur.Runner.TickPeriod))
	}
	if old.Runner.ExitOnFinish != cur.Runner.ExitOnFinish {
		add("runner.exit_on_finish %t->%t", old.Runner.ExitOnFinish, cur.Runner.ExitOnFinish)
	}
	if old.Runner.Schedule != cur.Runner.Schedule {
		add("runner.schedule %s->%s", orDash(old.Runner.Schedule), orDash(cur.Runner.Schedule))
	}
	if old.Runner.StatusEvery != cur.Runner.StatusEvery {
		add("runner.status_every %s->%s", orDash(old.Runner.StatusEvery), orDash(cur.Runner.StatusEvery))
	}

	if old.Script != cur.Script {
		add("script %s->%s", orDash(old.Script.Path), orDash(cur.Script.Path))
	}
	if journalKey(old.Journal) != journalKey(cur.Journal) {
		add("journal %s->%s (restart required)", journalKey(old.Journal), journalKey(cur.Journal))
	}
	return out
}

func journalKey(j *JournalConfig) string {
	if j == nil || strings.TrimSpace(j.Driver) == "" || strings.EqualFold(j.Driver, "none") {
		return "none"
	}
	return strings.ToLower(j.Driver) + ":" + j.Path
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
