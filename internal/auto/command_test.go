package auto

import (
	"testing"
	"time"
)

func TestCommandTimeoutCompletesBeforeProcess(t *testing.T) {
	t.Parallel()
	clk := newFakeClock()
	tr := &trace{}
	r := &recorder{tr: tr}
	c := NewCommand(r, clk.Now)
	c.SetTimeout(500 * time.Millisecond)

	c.Start("drive", nil)
	c.Tick()
	clk.Advance(499 * time.Millisecond)
	c.Tick()
	if c.IsComplete() {
		t.Fatal("completed before timeout elapsed")
	}
	clk.Advance(time.Millisecond)
	c.Tick()

	if !c.IsComplete() || c.Reason() != ReasonTimeout {
		t.Fatalf("complete=%v reason=%q, want timeout", c.IsComplete(), c.Reason())
	}
	if r.processes != 2 {
		t.Fatalf("processes = %d, want 2 (timed-out tick must not process)", r.processes)
	}
	if last := tr.calls[len(tr.calls)-1]; last != "complete:drive" {
		t.Fatalf("last call = %q", last)
	}
}

func TestCommandCompleteIsIdempotent(t *testing.T) {
	t.Parallel()
	r := &recorder{}
	c := NewCommand(r, nil)
	c.Start("x", nil)
	c.Complete()
	c.Complete()
	c.completeWith(ReasonKilled)
	if r.completes != 1 {
		t.Fatalf("completes = %d, want 1", r.completes)
	}
	if c.Reason() != ReasonDone {
		t.Fatalf("reason = %q, want first reason kept", c.Reason())
	}
	c.Tick()
	if r.processes != 0 {
		t.Fatal("process ran after completion")
	}
}

func TestCommandTickBeforeStartIsNoop(t *testing.T) {
	t.Parallel()
	r := &recorder{}
	c := NewCommand(r, nil)
	c.SetTimeout(time.Nanosecond)
	c.Tick()
	if r.processes != 0 || c.IsComplete() {
		t.Fatal("unstarted command must not process or time out")
	}
	if c.Elapsed() != 0 {
		t.Fatal("elapsed before start should be zero")
	}
}

func TestCommandZeroTimeoutDisabled(t *testing.T) {
	t.Parallel()
	clk := newFakeClock()
	r := &recorder{}
	c := NewCommand(r, clk.Now)
	c.SetTimeout(-time.Second)
	if c.Timeout() != 0 {
		t.Fatalf("negative timeout should clamp to 0, got %v", c.Timeout())
	}
	c.Start("hold", []string{"a"})
	clk.Advance(time.Hour)
	c.Tick()
	if c.IsComplete() {
		t.Fatal("zero timeout must never expire")
	}
	if c.Elapsed() != time.Hour {
		t.Fatalf("elapsed = %v", c.Elapsed())
	}
	if got := c.Args(); len(got) != 1 || got[0] != "a" {
		t.Fatalf("args = %v", got)
	}
}
