package stream

import (
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"polygongo/polygonerr"
	"polygongo/wire"
)

// Session is a long-lived, already-authenticated-and-subscribed streaming
// connection. Events() yields one wire.Event at a time; a session ends
// either because the server sent a disconnected status (polygonerr.
// ErrAlreadyClosed) or the transport failed (*polygonerr.TransportError /
// *polygonerr.UnexpectedCloseError). A decode error on a single frame is
// recoverable: it is reported on the error channel but the read loop keeps
// going, unlike the handshake's fatal treatment of the same DecodeFrame
// error (both read frames through readFrameItems).
type Session struct {
	id      uuid.UUID
	conn    *websocket.Conn
	metrics *Metrics
	log     zerolog.Logger

	events chan wire.Event
	errs   chan error

	mu     sync.Mutex
	closed bool
	done   chan struct{}
}

// NewSession starts the read loop for an already-handshaken connection.
// pending carries any data items the handshake observed trailing the final
// subscribe acknowledgement in the same frame; they are delivered first,
// ahead of anything newly read from the socket. The session is assigned a
// random correlation ID used in every log line it emits, so a consumer
// running many sessions can separate their logs.
func NewSession(conn *websocket.Conn, pending []wire.Item, metrics *Metrics, log zerolog.Logger) *Session {
	id := uuid.New()
	s := &Session{
		id:      id,
		conn:    conn,
		metrics: metrics,
		log:     log.With().Str("session_id", id.String()).Logger(),
		events:  make(chan wire.Event),
		errs:    make(chan error, 1),
		done:    make(chan struct{}),
	}
	go s.run(pending)
	return s
}

// ID returns the session's correlation ID.
func (s *Session) ID() uuid.UUID { return s.id }

// Events yields decoded data events in wire order.
func (s *Session) Events() <-chan wire.Event { return s.events }

// Errors yields recoverable per-frame decode errors and, as its final and
// only other send, the terminal error that ended the session (polygonerr.
// ErrAlreadyClosed on a clean server-initiated disconnect, a
// *polygonerr.TransportError or *polygonerr.UnexpectedCloseError otherwise).
// The channel closes once the terminal error has been delivered.
func (s *Session) Errors() <-chan error { return s.errs }

// Close stops the read loop and closes the underlying connection. Safe to
// call more than once and from a goroutine other than the reader.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	close(s.done)
	return s.conn.Close()
}

func (s *Session) run(pending []wire.Item) {
	defer close(s.events)
	defer close(s.errs)

	if !s.deliver(pending) {
		return
	}

	for {
		items, err := readFrameItems(s.conn)
		if err != nil {
			if recoverable(err) {
				if !s.reportRecoverable(err) {
					return
				}
				if !s.deliver(items) {
					return
				}
				continue
			}
			s.terminate(err)
			return
		}
		s.metrics.ObserveFrame(len(items))
		if !s.deliver(items) {
			return
		}
	}
}

// reportRecoverable surfaces a per-frame decode error without ending the
// session. It returns false if the session was closed while sending.
func (s *Session) reportRecoverable(err error) bool {
	select {
	case s.errs <- err:
		return true
	case <-s.done:
		return false
	}
}

// deliver fans out items, translating a disconnected status into the
// session's terminal condition. It returns false once the session has
// ended (either terminally or because the caller asked us to stop).
func (s *Session) deliver(items []wire.Item) bool {
	for _, it := range items {
		if it.Status != nil {
			if it.Status.Status == wire.StatusDisconnected {
				s.terminate(polygonerr.ErrAlreadyClosed)
				return false
			}
			// other control statuses mid-session (e.g. a late success ack) carry
			// no event payload and are not meaningful to a consumer; drop them.
			continue
		}
		select {
		case s.events <- *it.Event:
			s.metrics.ObserveEvent(it.Event.Kind)
		case <-s.done:
			return false
		}
	}
	return true
}

func (s *Session) terminate(err error) {
	s.log.Info().Err(err).Msg("stream: session ended")
	s.metrics.RecordDisconnect(disconnectReason(err))
	select {
	case s.errs <- err:
	case <-s.done:
	}
}

// disconnectReason labels a terminal error for the disconnects metric.
func disconnectReason(err error) string {
	switch {
	case errors.Is(err, polygonerr.ErrAlreadyClosed):
		return "server_disconnected"
	case errors.As(err, new(*polygonerr.UnexpectedCloseError)):
		return "unexpected_close"
	default:
		return "transport_error"
	}
}

// recoverable reports whether err is a decode failure the session should
// survive (as opposed to a transport failure or close that ends it).
func recoverable(err error) bool {
	var de *polygonerr.DecodeError
	return errors.As(err, &de)
}
