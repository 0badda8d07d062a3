package rest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/shopspring/decimal"

	"polygongo/wire"
)

// EndpointError is the shared shape for a rejected, endpoint-mapped REST
// response: the server's own status/message pair, decoded verbatim.
type EndpointError struct {
	Status  string `json:"status"`
	Message string `json:"error,omitempty"`
}

func (e EndpointError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Status, e.Message)
	}
	return e.Status
}

func decodeEndpointError(body []byte) (EndpointError, bool) {
	var e EndpointError
	if err := json.Unmarshal(body, &e); err != nil {
		return EndpointError{}, false
	}
	return e, true
}

// TickerDetailsInput names the single-symbol reference-data lookup
// (/v2/reference/tickers/<sym>).
type TickerDetailsInput struct {
	Symbol string
}

// TickerDetailsResult is the envelope-wrapped payload for a ticker details
// lookup.
type TickerDetailsResult = Envelope[TickerDetail]

// TickerDetail is the reference data Polygon returns for one symbol.
type TickerDetail struct {
	Ticker      string `json:"ticker"`
	Name        string `json:"name"`
	Market      string `json:"market"`
	Locale      string `json:"locale"`
	PrimaryExch string `json:"primary_exchange"`
	Active      bool   `json:"active"`
}

// TickerDetailsEndpoint implements Endpoint for GET /v2/reference/tickers/<sym>.
type TickerDetailsEndpoint struct{}

func (TickerDetailsEndpoint) Method() string { return http.MethodGet }

func (TickerDetailsEndpoint) Path(in TickerDetailsInput) string {
	return "/v2/reference/tickers/" + in.Symbol
}

func (TickerDetailsEndpoint) Query(TickerDetailsInput) url.Values { return nil }

func (TickerDetailsEndpoint) Body(TickerDetailsInput) ([]byte, error) { return nil, nil }

func (TickerDetailsEndpoint) Accepts(status int) bool { return status == http.StatusOK }

func (TickerDetailsEndpoint) Reject(status int, body []byte) (EndpointError, bool) {
	if status == http.StatusNotFound {
		return decodeEndpointError(body)
	}
	return EndpointError{}, false
}

// AggregatesInput names a historical OHLCV bars request
// (/v2/aggs/ticker/<sym>/range/<multiplier>/<span>/<start>/<end>).
type AggregatesInput struct {
	Symbol     string
	Multiplier int
	Span       string // minute, hour, day, week, month, quarter, year
	Start      string // YYYY-MM-DD
	End        string // YYYY-MM-DD (inclusive)
	Adjusted   bool
}

// AggregatesResult is the envelope-wrapped payload for a bars request.
type AggregatesResult = Envelope[[]AggregateBar]

// AggregateBar is one historical OHLCV bar. Prices decode as exact decimals,
// the same rule SPEC_FULL.md §4.2 applies to streamed aggregates.
type AggregateBar struct {
	Open      decimal.Decimal `json:"o"`
	High      decimal.Decimal `json:"h"`
	Low       decimal.Decimal `json:"l"`
	Close     decimal.Decimal `json:"c"`
	Volume    wire.Volume     `json:"v"`
	Timestamp wire.EpochMillis `json:"t"`
}

// AggregatesEndpoint implements Endpoint for the historical bars lookup.
type AggregatesEndpoint struct{}

func (AggregatesEndpoint) Method() string { return http.MethodGet }

func (AggregatesEndpoint) Path(in AggregatesInput) string {
	return fmt.Sprintf("/v2/aggs/ticker/%s/range/%d/%s/%s/%s",
		in.Symbol, in.Multiplier, in.Span, in.Start, in.End)
}

func (AggregatesEndpoint) Query(in AggregatesInput) url.Values {
	q := url.Values{}
	q.Set("adjusted", fmt.Sprintf("%t", in.Adjusted))
	return q
}

func (AggregatesEndpoint) Body(AggregatesInput) ([]byte, error) { return nil, nil }

func (AggregatesEndpoint) Accepts(status int) bool { return status == http.StatusOK }

func (AggregatesEndpoint) Reject(status int, body []byte) (EndpointError, bool) {
	if status == http.StatusBadRequest {
		return decodeEndpointError(body)
	}
	return EndpointError{}, false
}

// MarketStatusInput names the market-status lookup (/v1/marketstatus/now);
// it takes no parameters.
type MarketStatusInput struct{}

// MarketStatus reports whether markets are currently open.
type MarketStatus struct {
	Market     string `json:"market"`
	ServerTime string `json:"serverTime"`
}

// MarketStatusEndpoint implements Endpoint for the market-status lookup.
// Its response is not envelope-wrapped (Polygon returns it as a flat
// object), illustrating that Endpoint's Out need not always be Envelope[T].
type MarketStatusEndpoint struct{}

func (MarketStatusEndpoint) Method() string { return http.MethodGet }

func (MarketStatusEndpoint) Path(MarketStatusInput) string { return "/v1/marketstatus/now" }

func (MarketStatusEndpoint) Query(MarketStatusInput) url.Values { return nil }

func (MarketStatusEndpoint) Body(MarketStatusInput) ([]byte, error) { return nil, nil }

func (MarketStatusEndpoint) Accepts(status int) bool { return status == http.StatusOK }

func (MarketStatusEndpoint) Reject(int, []byte) (EndpointError, bool) { return EndpointError{}, false }

// TimestampComparator names a quotes-filter comparator against the
// timestamp column: lt, lte, gt, gte.
type TimestampComparator string

const (
	ComparatorLT  TimestampComparator = "lt"
	ComparatorLTE TimestampComparator = "lte"
	ComparatorGT  TimestampComparator = "gt"
	ComparatorGTE TimestampComparator = "gte"
)

// QuotesInput names a historical NBBO quotes request (/v3/quotes/<sym>).
// TimestampComparator/Timestamp are both optional: a zero TimestampComparator
// omits the filter entirely.
type QuotesInput struct {
	Symbol     string
	Comparator TimestampComparator
	Timestamp  int64 // epoch nanoseconds, the v3 filter's native unit
	Order      string // "asc" or "desc"
	Limit      int
	Sort       string
}

// QuotesResult is the envelope-wrapped payload for a quotes lookup.
type QuotesResult = Envelope[[]HistoricalQuote]

// HistoricalQuote is one NBBO quote as returned by the v3 quotes endpoint.
type HistoricalQuote struct {
	Symbol      string          `json:"T"`
	BidExchange int             `json:"bid_exchange_id"`
	BidPrice    decimal.Decimal `json:"bid_price"`
	BidSize     wire.Volume     `json:"bid_size"`
	AskExchange int             `json:"ask_exchange_id"`
	AskPrice    decimal.Decimal `json:"ask_price"`
	AskSize     wire.Volume     `json:"ask_size"`
	Timestamp   int64           `json:"participant_timestamp"`
}

// QuotesEndpoint implements Endpoint for the historical NBBO quotes lookup.
// Its query builder is the dispatch contract's fullest exercise of the
// Query(in) url.Values half of SPEC_FULL.md §4.6: a filter is only added to
// the query string when the caller actually supplied one.
type QuotesEndpoint struct{}

func (QuotesEndpoint) Method() string { return http.MethodGet }

func (QuotesEndpoint) Path(in QuotesInput) string {
	return "/v3/quotes/" + in.Symbol
}

func (QuotesEndpoint) Query(in QuotesInput) url.Values {
	q := url.Values{}
	if in.Comparator != "" {
		q.Set("timestamp."+string(in.Comparator), fmt.Sprintf("%d", in.Timestamp))
	}
	if in.Order != "" {
		q.Set("order", in.Order)
	}
	if in.Limit > 0 {
		q.Set("limit", fmt.Sprintf("%d", in.Limit))
	}
	if in.Sort != "" {
		q.Set("sort", in.Sort)
	}
	return q
}

func (QuotesEndpoint) Body(QuotesInput) ([]byte, error) { return nil, nil }

func (QuotesEndpoint) Accepts(status int) bool { return status == http.StatusOK }

func (QuotesEndpoint) Reject(status int, body []byte) (EndpointError, bool) {
	if status == http.StatusBadRequest {
		return decodeEndpointError(body)
	}
	return EndpointError{}, false
}
