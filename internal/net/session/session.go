// Package session owns the outbound side of one client connection.
//
// Each session has a single writer goroutine draining a bounded FIFO queue,
// so frames reach the socket in the order they were enqueued no matter how
// many goroutines produce them.
package session

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"gridhold/server/internal/net/frame"
	"gridhold/server/internal/telemetry"
	"gridhold/server/logging"
	loggingnetwork "gridhold/server/logging/network"
)

var (
	// ErrClosed is returned when writing to a session that has shut down.
	ErrClosed = errors.New("session: closed")
	// ErrBacklogFull is returned when the outbound queue is saturated. The
	// session is closed, since dropping a frame would desync the client.
	ErrBacklogFull = errors.New("session: outbound backlog full")
)

const (
	DefaultQueueDepth = 256
	DefaultWriteWait  = 10 * time.Second
)

// Close reasons reported through logging.
const (
	ReasonClosed      = "closed"
	ReasonBacklogFull = "backlog_full"
	ReasonWriteFailed = "write_failed"
)

// Conn is the subset of *websocket.Conn a session writes through.
type Conn interface {
	WriteMessage(messageType int, data []byte) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

// Config tunes a session.
type Config struct {
	QueueDepth int
	WriteWait  time.Duration
	Publisher  logging.Publisher
	Metrics    telemetry.Metrics
	// Tick reports the current simulation tick for log events.
	Tick func() uint64
}

type message struct {
	kind int
	data []byte
}

// Session queues frames for one connection.
type Session struct {
	id   string
	conn Conn
	cfg  Config

	mu     sync.Mutex
	queue  chan message
	closed bool
	reason string

	aborted atomic.Bool
	written atomic.Uint64
	done    chan struct{}
}

// New starts the writer goroutine for conn.
func New(id string, conn Conn, cfg Config) *Session {
	if cfg.QueueDepth <= 0 {
		cfg.QueueDepth = DefaultQueueDepth
	}
	if cfg.WriteWait <= 0 {
		cfg.WriteWait = DefaultWriteWait
	}
	if cfg.Publisher == nil {
		cfg.Publisher = logging.NopPublisher()
	}
	s := &Session{
		id:    id,
		conn:  conn,
		cfg:   cfg,
		queue: make(chan message, cfg.QueueDepth),
		done:  make(chan struct{}),
	}
	go s.run()
	return s
}

// ID returns the session's player id.
func (s *Session) ID() string {
	return s.id
}

// Write queues a binary frame. It never blocks.
func (s *Session) Write(f frame.Frame) error {
	return s.enqueue(message{kind: websocket.BinaryMessage, data: f.Bytes()})
}

// WriteText queues a text control message, such as a heartbeat reply, in
// the same FIFO as frames.
func (s *Session) WriteText(data []byte) error {
	return s.enqueue(message{kind: websocket.TextMessage, data: data})
}

func (s *Session) enqueue(m message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	select {
	case s.queue <- m:
		return nil
	default:
	}
	depth := cap(s.queue)
	s.aborted.Store(true)
	s.closeLocked(ReasonBacklogFull)
	s.add("session_backlog_full_total", 1)
	loggingnetwork.SessionBacklogFull(context.Background(), s.cfg.Publisher, s.tick(), s.actor(), loggingnetwork.BacklogPayload{Depth: depth}, nil)
	return ErrBacklogFull
}

// Close stops accepting frames. Frames already queued are still written
// before the connection is closed.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closeLocked(ReasonClosed)
}

// Abort closes the session and discards anything still queued.
func (s *Session) Abort(reason string) {
	s.aborted.Store(true)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closeLocked(reason)
}

func (s *Session) closeLocked(reason string) {
	if s.closed {
		return
	}
	s.closed = true
	s.reason = reason
	close(s.queue)
}

// Done is closed once the writer has exited and the connection is closed.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Closed reports whether the session no longer accepts frames.
func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Written returns the number of messages written to the connection.
func (s *Session) Written() uint64 {
	return s.written.Load()
}

func (s *Session) run() {
	defer close(s.done)
	for m := range s.queue {
		if s.aborted.Load() {
			continue
		}
		if s.conn == nil {
			continue
		}
		s.conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteWait))
		if err := s.conn.WriteMessage(m.kind, m.data); err != nil {
			s.Abort(ReasonWriteFailed)
			continue
		}
		s.written.Add(1)
		s.add("session_messages_written_total", 1)
		s.add("session_bytes_written_total", uint64(len(m.data)))
	}

	if s.conn != nil {
		if !s.aborted.Load() {
			s.conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteWait))
			s.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		}
		s.conn.Close()
	}

	s.mu.Lock()
	reason := s.reason
	s.mu.Unlock()
	loggingnetwork.SessionClosed(context.Background(), s.cfg.Publisher, s.tick(), s.actor(), loggingnetwork.SessionClosedPayload{Reason: reason, FramesWritten: s.written.Load()}, nil)
}

func (s *Session) add(key string, delta uint64) {
	if s.cfg.Metrics == nil {
		return
	}
	s.cfg.Metrics.Add(key, delta)
}

func (s *Session) tick() uint64 {
	if s.cfg.Tick == nil {
		return 0
	}
	return s.cfg.Tick()
}

func (s *Session) actor() logging.EntityRef {
	return logging.EntityRef{ID: s.id, Kind: logging.EntityKindSession}
}
