package journal

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	logx "autoseq/pkg/logx"
)

//go:embed migrations.sql
var migrations string

const defaultBusyTimeout = 5 * time.Second

type sqliteStore struct {
	db  *sql.DB
	log logx.Logger
}

func openSQLite(cfg Config, log logx.Logger) (Store, error) {
	path := strings.TrimSpace(cfg.Path)
	if path == "" {
		return nil, errors.New("journal.path is required for sqlite driver")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// One writer; the tick loop never waits on the database.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	busy := cfg.BusyTimeout
	if busy <= 0 {
		busy = defaultBusyTimeout
	}
	for _, pragma := range []string{
		fmt.Sprintf("PRAGMA busy_timeout = %d", busy.Milliseconds()),
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			log.Debug("pragma failed", logx.String("pragma", pragma), logx.Err(err))
		}
	}
	if _, err := db.Exec(migrations); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("journal migrate: %w", err)
	}
	log.Debug("journal opened", logx.String("path", path))
	return &sqliteStore{db: db, log: log}, nil
}

func (s *sqliteStore) Append(ctx context.Context, r Record) error {
	if s.db == nil {
		return ErrClosed
	}
	if r.At.IsZero() {
		r.At = time.Now()
	}
	var args any
	if len(r.Args) > 0 {
		b, err := json.Marshal(r.Args)
		if err != nil {
			return err
		}
		args = string(b)
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO events(at, type, name, args, idx, kind, reason, elapsed_ns, count)
		 VALUES(?,?,?,?,?,?,?,?,?)`,
		r.At.UTC().Format(time.RFC3339Nano), r.Type, nullStr(r.Name), args, r.Index,
		nullStr(r.Kind), nullStr(r.Reason), int64(r.Elapsed), r.Count,
	)
	return err
}

func (s *sqliteStore) Recent(ctx context.Context, n int) ([]Record, error) {
	if s.db == nil {
		return nil, ErrClosed
	}
	if n <= 0 {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT at, type, name, args, idx, kind, reason, elapsed_ns, count
		 FROM events ORDER BY id DESC LIMIT ?`, n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var (
		out      []Record
		badAt    int
		badArgs  int
		firstErr error
	)
	for rows.Next() {
		var (
			r                        Record
			at                       string
			name, args, kind, reason sql.NullString
			elapsed                  int64
		)
		if err := rows.Scan(&at, &r.Type, &name, &args, &r.Index, &kind, &reason, &elapsed, &r.Count); err != nil {
			return nil, err
		}
		if r.At, err = time.Parse(time.RFC3339Nano, at); err != nil {
			badAt++
			if firstErr == nil {
				firstErr = err
			}
		}
		r.Name, r.Kind, r.Reason = name.String, kind.String, reason.String
		r.Elapsed = time.Duration(elapsed)
		if args.Valid {
			if err := json.Unmarshal([]byte(args.String), &r.Args); err != nil {
				badArgs++
				if firstErr == nil {
					firstErr = err
				}
			}
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if firstErr != nil {
		s.log.Debug("journal rows partly unreadable",
			logx.Int("bad_time", badAt),
			logx.Int("bad_args", badArgs),
			logx.Err(firstErr),
		)
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

func (s *sqliteStore) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func nullStr(v string) any {
	if strings.TrimSpace(v) == "" {
		return nil
	}
	return v
}
