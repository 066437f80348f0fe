package config

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	logx "autoseq/pkg/logx"
)

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestDecodeYAMLAndJSONAgree(t *testing.T) {
	t.Parallel()
	y := `
logging:
  level: debug
  console: true
runner:
  tick_period: 20ms
  exit_on_finish: true
script:
  path: auto.csv
journal:
  driver: file
  path: ./journal.jsonl
`
	j := `{"logging":{"level":"debug","console":true},
"runner":{"tick_period":"20ms","exit_on_finish":true},
"script":{"path":"auto.csv"},
"journal":{"driver":"file","path":"./journal.jsonl"}}`

	a, err := Decode("c.yaml", []byte(y))
	if err != nil {
		t.Fatalf("yaml: %v", err)
	}
	b, err := Decode("c.json", []byte(j))
	if err != nil {
		t.Fatalf("json: %v", err)
	}
	if hashConfig(a) != hashConfig(b) {
		t.Fatalf("yaml %+v != json %+v", a, b)
	}
	if d, _ := a.TickPeriod(); d != 20*time.Millisecond {
		t.Fatalf("tick period = %v", d)
	}
}

func TestDecodeDefaults(t *testing.T) {
	t.Parallel()
	cfg, err := Decode("c.yml", []byte(""))
	if err != nil {
		t.Fatal(err)
	}
	if d, _ := cfg.TickPeriod(); d != DefaultTickPeriod {
		t.Fatalf("tick period = %v", d)
	}
	if cfg.Logging.Level != "info" || !cfg.Logging.Console {
		t.Fatalf("logging defaults lost: %+v", cfg.Logging)
	}
}

func TestDecodeRejects(t *testing.T) {
	t.Parallel()
	tests := map[string]string{
		"unknown field":   `{"runner":{"tick":"1s"}}`,
		"trailing data":   `{} {}`,
		"bad duration":    `{"runner":{"tick_period":"fast"}}`,
		"negative":        `{"runner":{"status_every":"-1s"}}`,
		"bad driver":      `{"journal":{"driver":"mongo","path":"x"}}`,
		"missing path":    `{"journal":{"driver":"sqlite"}}`,
		"bad busytimeout": `{"journal":{"driver":"sqlite","path":"x","busy_timeout":"soon"}}`,
	}
	for name, in := range tests {
		in := in
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			if _, err := Decode("c.json", []byte(in)); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestJournalNoneNeedsNoPath(t *testing.T) {
	t.Parallel()
	if _, err := Decode("c.json", []byte(`{"journal":{"driver":"none"}}`)); err != nil {
		t.Fatal(err)
	}
}

func TestReloadPublishesOnlyChanges(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	p := writeFile(t, dir, "autoseq.json", `{"runner":{"tick_period":"10ms"}}`)

	m := NewConfigManager(p)
	if _, err := m.Load(); err != nil {
		t.Fatal(err)
	}
	ch := m.Subscribe(1)
	defer m.Unsubscribe(ch)

	ok, err := m.Reload(context.Background())
	if err != nil || ok {
		t.Fatalf("unchanged reload = %v, %v", ok, err)
	}

	writeFile(t, dir, "autoseq.json", `{"runner":{"tick_period":"30ms"}}`)
	ok, err = m.Reload(context.Background())
	if err != nil || !ok {
		t.Fatalf("changed reload = %v, %v", ok, err)
	}
	select {
	case cfg := <-ch:
		if cfg.Runner.TickPeriod != "30ms" {
			t.Fatalf("published %+v", cfg.Runner)
		}
	default:
		t.Fatal("nothing published")
	}
	if m.Get().Runner.TickPeriod != "30ms" {
		t.Fatal("reload was not committed")
	}
}

func TestReloadValidatorVeto(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	p := writeFile(t, dir, "autoseq.yaml", "runner:\n  tick_period: 10ms\n")
	m := NewConfigManager(p)
	if _, err := m.Load(); err != nil {
		t.Fatal(err)
	}
	m.SetValidator(func(ctx context.Context, cfg *Config) error {
		if cfg.Runner.Schedule != "" {
			return context.Canceled
		}
		return nil
	})
	writeFile(t, dir, "autoseq.yaml", "runner:\n  schedule: \"*/5 * * * *\"\n")
	if ok, err := m.Reload(context.Background()); ok || err == nil {
		t.Fatalf("vetoed reload = %v, %v", ok, err)
	}
	if m.Get().Runner.Schedule != "" {
		t.Fatal("vetoed config must not be committed")
	}
}

func TestPublishKeepsNewest(t *testing.T) {
	t.Parallel()
	m := NewConfigManager("")
	ch := m.Subscribe(1)
	first, second := Default(), Default()
	second.Runner.TickPeriod = "1s"
	m.publish(first)
	m.publish(second)
	if got := <-ch; got != second {
		t.Fatal("slow subscriber should see the newest config")
	}
	m.Unsubscribe(ch)
	if _, open := <-ch; open {
		t.Fatal("unsubscribe should close the channel")
	}
}

func TestSummarizeConfigChange(t *testing.T) {
	t.Parallel()
	a, b := Default(), Default()
	b.Logging.Level = "debug"
	b.Runner.TickPeriod = "10ms"
	b.Journal = &JournalConfig{Driver: "sqlite", Path: "j.db"}
	got := strings.Join(SummarizeConfigChange(a, b), "; ")
	for _, want := range []string{"logging.level info->debug", "runner.tick_period 50ms->10ms", "journal none->sqlite:j.db"} {
		if !strings.Contains(got, want) {
			t.Fatalf("summary %q missing %q", got, want)
		}
	}
	if len(SummarizeConfigChange(a, a)) != 0 {
		t.Fatal("identical configs should have no changes")
	}
}

func TestWatchFileReportsWrites(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "auto.csv", "drive,1\n")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	changed := make(chan struct{}, 8)
	done := make(chan error, 1)
	go func() {
		done <- WatchFile(ctx, p, 20*time.Millisecond, logx.Nop(), func() { changed <- struct{}{} })
	}()

	deadline := time.After(5 * time.Second)
	tick := time.NewTicker(100 * time.Millisecond)
	defer tick.Stop()
	for n := 0; ; n++ {
		select {
		case <-changed:
			cancel()
			if err := <-done; err != nil {
				t.Fatalf("WatchFile: %v", err)
			}
			return
		case <-tick.C:
			writeFile(t, dir, "auto.csv", strings.Repeat("wait,1\n", n+1))
		case <-deadline:
			t.Fatal("no change reported")
		}
	}
}
