package app

import (
	"context"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"

	logx "autoseq/pkg/logx"
)

// notifySystemd reports readiness and, when the unit has WatchdogSec set,
// pings the watchdog for as long as the runner keeps ticking. Outside
// systemd every call is a no-op.
func (a *App) notifySystemd(ctx context.Context) error {
	sent, err := daemon.SdNotify(false, daemon.SdNotifyReady)
	if err != nil {
		a.log.Warn("sd_notify ready failed", logx.Err(err))
	}
	if !sent {
		return nil
	}
	defer func() { _, _ = daemon.SdNotify(false, daemon.SdNotifyStopping) }()

	interval, err := daemon.SdWatchdogEnabled(false)
	if err != nil || interval <= 0 {
		<-ctx.Done()
		return nil
	}
	a.log.Debug("systemd watchdog enabled", logx.Duration("interval", interval))

	t := time.NewTicker(interval / 2)
	defer t.Stop()
	last := a.run.Ticks()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			// A stalled tick loop stops feeding the watchdog.
			cur := a.run.Ticks()
			if cur == last {
				a.log.Warn("runner stalled; skipping watchdog ping", logx.Uint64("ticks", cur))
				continue
			}
			last = cur
			_, _ = daemon.SdNotify(false, daemon.SdNotifyWatchdog)
		}
	}
}
