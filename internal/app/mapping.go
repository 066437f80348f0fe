package app

import (
	"strings"
	"time"

	"autoseq/internal/config"
	"autoseq/internal/journal"
	logx "autoseq/pkg/logx"
)

func logConfig(cfg *config.Config) logx.Config {
	return logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
	}
}

// journalConfig maps the journal section. ok is false when it is disabled.
func journalConfig(cfg *config.Config) (jc journal.Config, ok bool, err error) {
	if cfg == nil || cfg.Journal == nil {
		return journal.Config{}, false, nil
	}
	driver := strings.ToLower(strings.TrimSpace(cfg.Journal.Driver))
	if driver == "" || driver == "none" {
		return journal.Config{}, false, nil
	}
	busy, err := config.ParseDurationOrDefault("journal.busy_timeout", cfg.Journal.BusyTimeout, time.Second)
	if err != nil {
		return journal.Config{}, false, err
	}
	return journal.Config{Driver: driver, Path: strings.TrimSpace(cfg.Journal.Path), BusyTimeout: busy}, true, nil
}

// OpenJournal opens the journal configured in cfgPath; an empty path or a
// disabled journal returns (nil, nil).
func OpenJournal(cfgPath string, log logx.Logger) (journal.Store, error) {
	if strings.TrimSpace(cfgPath) == "" {
		return nil, nil
	}
	cfg, err := config.NewConfigManager(cfgPath).Parse()
	if err != nil {
		return nil, err
	}
	jc, ok, err := journalConfig(cfg)
	if err != nil || !ok {
		return nil, err
	}
	return journal.Open(jc, log)
}
