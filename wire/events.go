package wire

import "github.com/shopspring/decimal"

// Trade is an executed-trade tick.
type Trade struct {
	Symbol     string
	ExchangeID int
	Price      decimal.Decimal
	Size       Volume
	Timestamp  EpochMillis
}

// Quote is a best-bid/best-ask tick.
type Quote struct {
	Symbol      string
	BidExchange int
	BidPrice    decimal.Decimal
	BidSize     Volume
	AskExchange int
	AskPrice    decimal.Decimal
	AskSize     Volume
	Timestamp   EpochMillis
}

// Aggregate is a time-bucketed OHLCV + VWAP summary tick.
type Aggregate struct {
	Symbol    string
	Volume    Volume
	VWAP      decimal.Decimal
	Open      decimal.Decimal
	Close     decimal.Decimal
	High      decimal.Decimal
	Low       decimal.Decimal
	StartTime EpochMillis
	EndTime   EpochMillis
}

// Event is the decoded tagged union yielded by a streaming session. Exactly
// one of the payload fields is populated, selected by Kind.
type Event struct {
	Kind      EventKind
	Trade     *Trade
	Quote     *Quote
	Aggregate *Aggregate
}

// Symbol returns the symbol carried by whichever payload is populated.
func (e Event) Symbol() string {
	switch {
	case e.Trade != nil:
		return e.Trade.Symbol
	case e.Quote != nil:
		return e.Quote.Symbol
	case e.Aggregate != nil:
		return e.Aggregate.Symbol
	default:
		return ""
	}
}
