// Package journal persists auto.* lifecycle events so past runs can be
// inspected with "autoseq journal". It is an observability sink only; a
// restart never resumes a script from the journal.
//
// Drivers:
//   - "file": append-only JSON Lines
//   - "sqlite": SQLite database file (modernc.org/sqlite, no cgo)
package journal
