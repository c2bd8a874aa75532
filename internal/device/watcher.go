package device

import (
	"context"
	"log/slog"
	"net"
	"time"

	"github.com/jhemmel/sermux/internal/sermux"
)

// watcher is the background control-channel reader. While it runs it owns
// all reads on the connection and is the sole writer to the status cache.
type watcher struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// startWatcher begins reading status indications from conn, recording each
// one through record. It exits when the connection fails or stop is called.
func startWatcher(conn net.Conn, record func(sermux.PortStatus)) *watcher {
	ctx, cancel := context.WithCancel(context.Background())
	w := &watcher{cancel: cancel, done: make(chan struct{})}

	go func() {
		defer close(w.done)
		slog.Debug("status watcher started")
		err := sermux.Each(conn, sermux.ControlOnly, func(p sermux.Packet) {
			if cp := p.(*sermux.ControlPacket); cp.Status != nil {
				record(*cp.Status)
			}
		})
		if ctx.Err() != nil {
			slog.Debug("status watcher stopped")
			return
		}
		slog.Debug("status watcher exited", "err", err)
	}()

	return w
}

// stop cancels the watcher and waits for it to exit. A blocked read is woken
// with an immediate read deadline; the socket itself stays open for the next
// reader, which must clear the deadline.
func (w *watcher) stop(conn net.Conn) {
	w.cancel()
	conn.SetReadDeadline(time.Now())
	<-w.done
}
