package eventbus

import "testing"

func TestPublishFanout(t *testing.T) {
	t.Parallel()
	b := New()
	a, unsubA := b.Subscribe(4)
	c, unsubC := b.Subscribe(4)
	defer unsubA()
	defer unsubC()

	b.Publish(Event{Type: "auto.kill"})

	for _, ch := range []<-chan Event{a, c} {
		e := <-ch
		if e.Type != "auto.kill" {
			t.Fatalf("type = %q", e.Type)
		}
		if e.Time.IsZero() {
			t.Fatal("publish should stamp time")
		}
	}
}

func TestMatch(t *testing.T) {
	t.Parallel()
	tests := []struct {
		typ, topic string
		want       bool
	}{
		{"auto.command.start", "", true},
		{"auto.command.start", "*", true},
		{"auto.command.start", "auto", true},
		{"auto.command.start", "auto.*", true},
		{"auto.command.start", "auto.command", true},
		{"auto.command.start", "auto.command.start", true},
		{"auto.commander", "auto.command", false},
		{"auto.kill", "auto.command", false},
		{"autox.kill", "auto", false},
		{"auto", "auto.command", false},
	}
	for _, tt := range tests {
		if got := Match(tt.typ, tt.topic); got != tt.want {
			t.Errorf("Match(%q, %q) = %v, want %v", tt.typ, tt.topic, got, tt.want)
		}
	}
}

func TestSubscribeTopics(t *testing.T) {
	t.Parallel()
	b := New()
	cmds, unsub := b.Subscribe(8, "auto.command", "auto.kill")
	defer unsub()

	for _, typ := range []string{"auto.command.start", "auto.script.load", "config.reload", "auto.kill", "auto.command.complete"} {
		b.Publish(Event{Type: typ})
	}

	var got []string
	for len(cmds) > 0 {
		got = append(got, (<-cmds).Type)
	}
	want := []string{"auto.command.start", "auto.kill", "auto.command.complete"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
	if s := StatsOf(b); s.Published != 5 || s.Delivered != 3 || s.Dropped != 0 {
		t.Fatalf("stats = %+v", s)
	}
}

func TestPublishDropsWhenFull(t *testing.T) {
	t.Parallel()
	b := New()
	_, unsub := b.Subscribe(1)
	defer unsub()

	b.Publish(Event{Type: "a"})
	b.Publish(Event{Type: "b"})

	if s := StatsOf(b); s.Dropped != 1 || s.Delivered != 1 || s.Subscribers != 1 {
		t.Fatalf("stats = %+v", s)
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	t.Parallel()
	b := New()
	ch, unsub := b.Subscribe(1)
	unsub()
	unsub()
	if _, ok := <-ch; ok {
		t.Fatal("channel should be closed")
	}
	b.Publish(Event{Type: "after"})
	if s := StatsOf(b); s.Subscribers != 0 {
		t.Fatalf("subscribers = %d", s.Subscribers)
	}
}
