package wire

import (
	"encoding/json"

	"github.com/shopspring/decimal"

	"polygongo/polygonerr"
)

// ControlStatus is the closed set of status codes a ControlMessage may
// carry. Any other value is a protocol error (SPEC_FULL.md §3/§4.2).
type ControlStatus string

const (
	StatusConnected    ControlStatus = "connected"
	StatusDisconnected ControlStatus = "disconnected"
	StatusAuthSuccess  ControlStatus = "auth_success"
	StatusAuthFailed   ControlStatus = "auth_failed"
	StatusSuccess      ControlStatus = "success"
)

func validStatus(s ControlStatus) bool {
	switch s {
	case StatusConnected, StatusDisconnected, StatusAuthSuccess, StatusAuthFailed, StatusSuccess:
		return true
	default:
		return false
	}
}

// ControlMessage is a decoded "ev":"status" item.
type ControlMessage struct {
	Status  ControlStatus
	Message string
}

// Item is one decoded element of a server frame: either a control message or
// a data event. Exactly one field is set.
type Item struct {
	Status *ControlMessage
	Event  *Event
}

type tagPeek struct {
	Ev string `json:"ev"`
}

type statusWire struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

type tradeWire struct {
	Sym        string          `json:"sym"`
	ExchangeID int             `json:"x"`
	Price      decimal.Decimal `json:"p"`
	Size       Volume          `json:"s"`
	Timestamp  EpochMillis     `json:"t"`
}

type quoteWire struct {
	Sym         string          `json:"sym"`
	BidExchange int             `json:"bx"`
	BidPrice    decimal.Decimal `json:"bp"`
	BidSize     Volume          `json:"bs"`
	AskExchange int             `json:"ax"`
	AskPrice    decimal.Decimal `json:"ap"`
	AskSize     Volume          `json:"as"`
	Timestamp   EpochMillis     `json:"t"`
}

type aggWire struct {
	Sym    string          `json:"sym"`
	V      Volume          `json:"v"`
	VW     decimal.Decimal `json:"vw"`
	O      decimal.Decimal `json:"o"`
	C      decimal.Decimal `json:"c"`
	H      decimal.Decimal `json:"h"`
	L      decimal.Decimal `json:"l"`
	Start  *EpochMillis    `json:"s"`
	End    *EpochMillis    `json:"e"`
	Single *EpochMillis    `json:"t"` // historical REST aggregate bars carry one "t" instead of s/e
}

func (a aggWire) startTime() EpochMillis {
	if a.Start != nil {
		return *a.Start
	}
	if a.Single != nil {
		return *a.Single
	}
	return EpochMillis{}
}

func (a aggWire) endTime() EpochMillis {
	if a.End != nil {
		return *a.End
	}
	return a.startTime()
}

// DecodeFrame decodes one server WebSocket text frame — a JSON array of
// tagged items — into a slice of Items. An unrecognised status code aborts
// decoding and is returned as an error alongside the items decoded so far;
// an unrecognised data tag is skipped silently for forward compatibility
// (SPEC_FULL.md §4.2). Callers decide how to treat a non-nil error: the
// handshake (stream/handshake.go) treats it as fatal, the session
// (stream/session.go) surfaces it as a recoverable per-frame error.
func DecodeFrame(data []byte) ([]Item, error) {
	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil, polygonerr.NewDecodeError("frame", err)
	}

	items := make([]Item, 0, len(raws))
	for _, raw := range raws {
		var tag tagPeek
		if err := json.Unmarshal(raw, &tag); err != nil {
			return items, polygonerr.NewDecodeError("item tag", err)
		}

		switch EventKind(tag.Ev) {
		case Trades:
			var w tradeWire
			if err := json.Unmarshal(raw, &w); err != nil {
				return items, polygonerr.NewDecodeError("trade item", err)
			}
			items = append(items, Item{Event: &Event{Kind: Trades, Trade: &Trade{
				Symbol: w.Sym, ExchangeID: w.ExchangeID, Price: w.Price,
				Size: w.Size, Timestamp: w.Timestamp,
			}}})
		case Quotes:
			var w quoteWire
			if err := json.Unmarshal(raw, &w); err != nil {
				return items, polygonerr.NewDecodeError("quote item", err)
			}
			items = append(items, Item{Event: &Event{Kind: Quotes, Quote: &Quote{
				Symbol: w.Sym, BidExchange: w.BidExchange, BidPrice: w.BidPrice, BidSize: w.BidSize,
				AskExchange: w.AskExchange, AskPrice: w.AskPrice, AskSize: w.AskSize,
				Timestamp: w.Timestamp,
			}}})
		case SecondAggregates, MinuteAggregates:
			var w aggWire
			if err := json.Unmarshal(raw, &w); err != nil {
				return items, polygonerr.NewDecodeError("aggregate item", err)
			}
			kind := EventKind(tag.Ev)
			items = append(items, Item{Event: &Event{Kind: kind, Aggregate: &Aggregate{
				Symbol: w.Sym, Volume: w.V, VWAP: w.VW,
				Open: w.O, Close: w.C, High: w.H, Low: w.L,
				StartTime: w.startTime(), EndTime: w.endTime(),
			}}})
		case "status":
			var w statusWire
			if err := json.Unmarshal(raw, &w); err != nil {
				return items, polygonerr.NewDecodeError("status item", err)
			}
			code := ControlStatus(w.Status)
			if !validStatus(code) {
				return items, polygonerr.NewDecodeError("status item", &polygonerr.InvalidStatusCodeError{Raw: w.Status})
			}
			items = append(items, Item{Status: &ControlMessage{Status: code, Message: w.Message}})
		default:
			// unrecognised data tag: forward-compatible no-op
		}
	}
	return items, nil
}
