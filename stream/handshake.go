package stream

import (
	"encoding/json"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"polygongo/polygonerr"
	"polygongo/wire"
)

// actionFrame is the shape of every client->server control message the
// handshake sends ({"action":"auth"|"subscribe","params":"..."}).
type actionFrame struct {
	Action string `json:"action"`
	Params string `json:"params"`
}

// readFrameItems reads one WebSocket message and decodes it as a server
// frame. Close frames surface as *polygonerr.UnexpectedCloseError; gorilla's
// default ping handler answers pings with a matching pong transparently as
// part of the blocking read, satisfying the "ping within the same read loop
// iteration" requirement without extra bookkeeping here.
func readFrameItems(conn *websocket.Conn) ([]wire.Item, error) {
	_, data, err := conn.ReadMessage()
	if err != nil {
		if websocket.IsUnexpectedCloseError(err) || websocket.IsCloseError(err,
			websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived) {
			return nil, &polygonerr.UnexpectedCloseError{Err: err}
		}
		return nil, polygonerr.NewTransportError("read", err)
	}
	return wire.DecodeFrame(data)
}

// drainUntil is the single combinator the spec's design notes call for:
// status frames the handshake is waiting on are counted down via onStatus;
// any data item seen before the expectation is satisfied is dropped; any
// item seen in the same frame *after* the expectation is satisfied is
// returned to the caller instead of being discarded (DESIGN.md Open
// Question (a)) so the session does not lose genuine server data.
func drainUntil(conn *websocket.Conn, want int, onStatus func(wire.ControlMessage) error) ([]wire.Item, error) {
	var surplus []wire.Item
	for want > 0 {
		items, err := readFrameItems(conn)
		if err != nil {
			return nil, err
		}

		satisfied := false
		for _, it := range items {
			if satisfied {
				surplus = append(surplus, it)
				continue
			}
			if it.Status == nil {
				// data arriving before the expectation is met: dropped.
				continue
			}
			if err := onStatus(*it.Status); err != nil {
				return nil, err
			}
			want--
			if want == 0 {
				satisfied = true
			}
		}
	}
	return surplus, nil
}

// Handshake drives the connect/authenticate/subscribe exchange over an
// already-upgraded WebSocket connection. On success it returns any data
// items the server sent in the same frame as the final subscribe
// acknowledgement — the session must deliver these first, before reading
// anything else off the socket.
func Handshake(conn *websocket.Conn, credential string, subs map[wire.Subscription]struct{}, log zerolog.Logger) ([]wire.Item, error) {
	if _, err := drainUntil(conn, 1, func(cm wire.ControlMessage) error {
		if cm.Status != wire.StatusConnected {
			return polygonerr.NewProtocolError("expected connected status, got %q", cm.Status)
		}
		log.Debug().Msg("stream: connected")
		return nil
	}); err != nil {
		return nil, err
	}

	if err := sendAction(conn, "auth", credential); err != nil {
		return nil, err
	}
	if _, err := drainUntil(conn, 1, func(cm wire.ControlMessage) error {
		switch cm.Status {
		case wire.StatusAuthSuccess:
			log.Debug().Msg("stream: authenticated")
			return nil
		case wire.StatusAuthFailed:
			return &polygonerr.AuthenticationError{ServerMessage: cm.Message}
		default:
			return polygonerr.NewProtocolError("expected auth status, got %q", cm.Status)
		}
	}); err != nil {
		return nil, err
	}

	tokens := wire.Tokens(subs)
	if err := sendAction(conn, "subscribe", wire.JoinTokens(tokens)); err != nil {
		return nil, err
	}

	surplus, err := drainUntil(conn, len(tokens), func(cm wire.ControlMessage) error {
		if cm.Status != wire.StatusSuccess {
			return &polygonerr.SubscriptionError{ServerMessage: cm.Message}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.Info().Int("subscriptions", len(tokens)).Msg("stream: subscribed")
	return surplus, nil
}

func sendAction(conn *websocket.Conn, action, params string) error {
	payload, err := json.Marshal(actionFrame{Action: action, Params: params})
	if err != nil {
		return polygonerr.NewDecodeError("action frame", err)
	}
	if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		return polygonerr.NewTransportError("write", err)
	}
	return nil
}
