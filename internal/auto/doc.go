// Package auto sequences scripted robot commands.
//
// A Manager holds an ordered script of (name, args) entries, a registry
// mapping names to foreground command factories or background tasks, the
// single active foreground Command and the deduplicated background tasks.
//
// The Manager is driven by calling Process once per tick from a single
// goroutine. Nothing in this package blocks or locks: foreground commands and
// background tasks express long-running work as state observed across many
// short ticks. Timeouts are evaluated only when a command is ticked, so a
// stalled driver pauses them too.
package auto
