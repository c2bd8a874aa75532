// Package device implements the dual-channel session against a sermux
// daemon: a data connection carrying payload packets and a control
// connection carrying lock/release/status traffic, with a concurrently
// maintained view of the port status.
package device

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/jhemmel/sermux/internal/sermux"
)

// ErrClosed reports an operation on a closed session. Sessions are not
// reusable after Close.
var ErrClosed = errors.New("device: session closed")

// Option configures a Session before its first connection.
type Option func(*Session)

// WithHost sets the daemon host. Default is localhost.
func WithHost(host string) Option {
	return func(s *Session) { s.host = host }
}

// WithPort sets the daemon TCP port. Default is 36962.
func WithPort(port int) Option {
	return func(s *Session) { s.tcpPort = port }
}

// WithTypeOfData sets the representation requested on the data channel.
func WithTypeOfData(t sermux.TypeOfData) Option {
	return func(s *Session) { s.dataType = t }
}

// WithTxData subscribes the data channel to transmitted data as well.
func WithTxData() Option {
	return func(s *Session) { s.wantTx = true }
}

// WithInvalids subscribes the data channel to invalid frames as well.
func WithInvalids() Option {
	return func(s *Session) { s.wantInvalids = true }
}

// WithDialTimeout sets the TCP connect timeout. Default is 5 seconds.
func WithDialTimeout(d time.Duration) Option {
	return func(s *Session) { s.dialTimeout = d }
}

// Session gives access to one serial port behind the daemon. It owns up to
// two TCP connections, each established lazily on first use: the data
// connection for payload packets and the control connection for commands and
// status indications. Iteration calls block the caller; the status cache is
// the only state shared with the background watcher.
type Session struct {
	port         string
	host         string
	tcpPort      int
	dialTimeout  time.Duration
	dataType     sermux.TypeOfData
	wantTx       bool
	wantInvalids bool

	mu       sync.Mutex // guards conns, watcher and closed
	dataConn net.Conn
	ctrlConn net.Conn
	watcher  *watcher
	closed   bool

	wmu sync.Mutex // serializes control channel writes

	statusMu sync.Mutex
	status   *sermux.PortStatus
}

// New creates a session for the named port. No connection is made until the
// first operation needs one.
func New(port string, opts ...Option) *Session {
	s := &Session{
		port:        port,
		host:        sermux.DefaultHost,
		tcpPort:     sermux.DefaultPort,
		dialTimeout: 5 * time.Second,
		dataType:    sermux.TypePayload,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// With runs fn against a fresh session and closes it on every exit path,
// including panics and error returns.
func With(port string, fn func(*Session) error, opts ...Option) error {
	s := New(port, opts...)
	defer s.Close()
	return fn(s)
}

// dial opens a TCP connection to the daemon and writes the session header as
// its first bytes.
func (s *Session) dial(hdr sermux.SessionHeader) (net.Conn, error) {
	addr := net.JoinHostPort(s.host, strconv.Itoa(s.tcpPort))
	conn, err := net.DialTimeout("tcp", addr, s.dialTimeout)
	if err != nil {
		return nil, fmt.Errorf("device: connect %s: %w", addr, err)
	}
	b, err := hdr.Marshal()
	if err != nil {
		conn.Close()
		return nil, err
	}
	if _, err := conn.Write(b); err != nil {
		conn.Close()
		return nil, fmt.Errorf("device: handshake: %w", err)
	}
	slog.Debug("channel open", "addr", addr, "port", s.port, "type", hdr.TypeOfData)
	return conn, nil
}

// data returns the data connection, establishing it on first use.
func (s *Session) data() (net.Conn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}
	if s.dataConn != nil {
		return s.dataConn, nil
	}
	hdr := sermux.NewSessionHeader(s.port)
	hdr.TypeOfData = s.dataType
	hdr.WantTxData = s.wantTx
	hdr.WantInvalids = s.wantInvalids
	conn, err := s.dial(hdr)
	if err != nil {
		return nil, err
	}
	s.dataConn = conn
	return conn, nil
}

// control returns the control connection, establishing it on first use.
//
// A socket has at most one reader. With read set the caller will iterate the
// connection itself: a running background watcher is cancelled and joined
// first, and its wake-up read deadline cleared. Without read (the
// lock/release write path) a watcher is started when the connection is first
// opened, so PortStatus works without any caller-driven iteration.
func (s *Session) control(read bool) (net.Conn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}
	if s.ctrlConn == nil {
		hdr := sermux.NewSessionHeader(s.port)
		hdr.TypeOfData = sermux.TypePortStatusOnly
		hdr.WantRxData = false
		conn, err := s.dial(hdr)
		if err != nil {
			return nil, err
		}
		s.ctrlConn = conn
		if !read {
			s.watcher = startWatcher(conn, s.recordStatus)
		}
	}
	if read && s.watcher != nil {
		s.watcher.stop(s.ctrlConn)
		s.watcher = nil
		s.ctrlConn.SetReadDeadline(time.Time{})
	}
	return s.ctrlConn, nil
}

func (s *Session) recordStatus(st sermux.PortStatus) {
	s.statusMu.Lock()
	s.status = &st
	s.statusMu.Unlock()
}

// PortStatus returns the most recent status reported for the port. ok is
// false until a status indication has been seen. Safe to call from any
// goroutine.
func (s *Session) PortStatus() (st sermux.PortStatus, ok bool) {
	s.statusMu.Lock()
	defer s.statusMu.Unlock()
	if s.status == nil {
		return sermux.PortStatus{}, false
	}
	return *s.status, true
}

// send writes one outbound control packet, opening the control connection if
// needed. No response is awaited.
func (s *Session) send(cmd sermux.Command) error {
	pkt, err := sermux.NewControlPacket(cmd)
	if err != nil {
		return err
	}
	conn, err := s.control(false)
	if err != nil {
		return err
	}
	b, err := pkt.Marshal()
	if err != nil {
		return err
	}
	s.wmu.Lock()
	defer s.wmu.Unlock()
	if _, err := conn.Write(b); err != nil {
		return fmt.Errorf("device: send %s: %w", pkt.Command, err)
	}
	slog.Debug("control sent", "port", s.port, "command", pkt.Command)
	return nil
}

// Lock asks the daemon for exclusive use of the port. The outcome arrives as
// a port_status indication; watch PortStatus or PortStatusChanged for it.
func (s *Session) Lock() error { return s.send(sermux.CommandLock) }

// Release gives the port back.
func (s *Session) Release() error { return s.send(sermux.CommandRelease) }

// Echo asks the daemon to echo on the control channel.
func (s *Session) Echo() error { return s.send(sermux.CommandEcho) }

// KeepAlive sends a single keep-alive. See StartKeepAlive for the periodic
// variant.
func (s *Session) KeepAlive() error { return s.send(sermux.CommandKeepAlive) }

// KillPort asks the daemon to tear down the physical port.
func (s *Session) KillPort() error { return s.send(sermux.CommandKillPort) }

// EachDataPacket blocks, delivering every data packet from the daemon to fn,
// until the stream fails. The stream failure is returned; there is no retry.
func (s *Session) EachDataPacket(fn func(*sermux.DataPacket)) error {
	conn, err := s.data()
	if err != nil {
		return err
	}
	return sermux.Each(conn, sermux.DataOnly, func(p sermux.Packet) {
		fn(p.(*sermux.DataPacket))
	})
}

// EachPacket iterates the data connection without a variant filter.
func (s *Session) EachPacket(fn func(sermux.Packet)) error {
	conn, err := s.data()
	if err != nil {
		return err
	}
	return sermux.Each(conn, sermux.All, fn)
}

// EachControlPacket iterates the control connection directly, taking over
// from the background watcher if one is running. Status indications keep
// feeding the PortStatus cache while fn runs.
func (s *Session) EachControlPacket(fn func(*sermux.ControlPacket)) error {
	conn, err := s.control(true)
	if err != nil {
		return err
	}
	return sermux.Each(conn, sermux.ControlOnly, func(p sermux.Packet) {
		cp := p.(*sermux.ControlPacket)
		if cp.Status != nil {
			s.recordStatus(*cp.Status)
		}
		fn(cp)
	})
}

// PortStatusChanged invokes fn for each status indication that differs, by
// value, from the previously delivered one. Repeats are suppressed; the
// first indication is always delivered.
func (s *Session) PortStatusChanged(fn func(sermux.PortStatus)) error {
	var last *sermux.PortStatus
	return s.EachControlPacket(func(p *sermux.ControlPacket) {
		if p.Status == nil {
			return
		}
		if last != nil && *last == *p.Status {
			return
		}
		st := *p.Status
		last = &st
		fn(st)
	})
}

// Close tears down both connections and the background watcher. Any blocked
// read fails with a stream error. Safe to call more than once, but not
// concurrently with itself.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	if s.watcher != nil {
		// Closing the conn below unblocks the watcher's read.
		s.watcher.cancel()
	}
	var errs []error
	if s.ctrlConn != nil {
		errs = append(errs, s.ctrlConn.Close())
	}
	if s.dataConn != nil {
		errs = append(errs, s.dataConn.Close())
	}
	if s.watcher != nil {
		<-s.watcher.done
		s.watcher = nil
	}
	slog.Debug("session closed", "port", s.port)
	return errors.Join(errs...)
}
