package auto

// BackgroundTask is work that persists across foreground commands.
//
// UpdateArgs is called whenever playback reaches any name aliased to the task.
// Process is called on every tick for which ShouldRun reports true. Kill
// quiesces the task (for example target := current) on abort; afterwards the
// task must be safe to no longer be processed. There is no completion state.
type BackgroundTask interface {
	UpdateArgs(name string, args []string)
	Process()
	ShouldRun() bool
	Kill()
}

// bgSlot is one deduplicated task instance. kind is the explicit per-type
// key: every name registered with the same kind shares this instance.
type bgSlot struct {
	kind    string
	task    BackgroundTask
	aliases []string
}
