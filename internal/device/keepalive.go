package device

import (
	"context"
	"log/slog"
	"time"
)

// KeepAliveTicker periodically sends keep_alive control packets so the
// daemon does not expire an idle session. Stop the ticker to halt it.
type KeepAliveTicker struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// StartKeepAlive begins sending keep-alives every interval on the control
// channel until Stop is called, ctx is cancelled or a send fails. A zero
// interval means 10 seconds.
func (s *Session) StartKeepAlive(ctx context.Context, interval time.Duration) *KeepAliveTicker {
	if interval == 0 {
		interval = 10 * time.Second
	}

	ctx, cancel := context.WithCancel(ctx)
	k := &KeepAliveTicker{cancel: cancel, done: make(chan struct{})}

	go func() {
		defer close(k.done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		slog.Debug("keep-alive started", "port", s.port, "interval", interval)
		for {
			if err := s.KeepAlive(); err != nil {
				slog.Debug("keep-alive send failed", "err", err)
				return
			}
			select {
			case <-ctx.Done():
				slog.Debug("keep-alive stopped", "port", s.port)
				return
			case <-ticker.C:
			}
		}
	}()

	return k
}

// Stop stops the ticker and waits for its goroutine to exit.
func (k *KeepAliveTicker) Stop() {
	k.cancel()
	<-k.done
}
