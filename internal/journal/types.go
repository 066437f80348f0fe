package journal

import (
	"context"
	"errors"
	"time"
)

var ErrClosed = errors.New("journal closed")

// Config selects the driver. An empty Driver or "none" disables the journal.
type Config struct {
	Driver      string
	Path        string
	BusyTimeout time.Duration // sqlite only; 0 means default
}

// Record is one journaled lifecycle event.
type Record struct {
	At      time.Time     `json:"at"`
	Type    string        `json:"type"`
	Name    string        `json:"name,omitempty"`
	Args    []string      `json:"args,omitempty"`
	Index   int           `json:"index"`
	Kind    string        `json:"kind,omitempty"`
	Reason  string        `json:"reason,omitempty"`
	Elapsed time.Duration `json:"elapsed,omitempty"`
	Count   int           `json:"count,omitempty"`
}

type Store interface {
	Append(ctx context.Context, r Record) error
	// Recent returns up to n records, oldest first.
	Recent(ctx context.Context, n int) ([]Record, error)
	Close() error
}
