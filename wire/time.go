package wire

import (
	"encoding/json"
	"time"

	"polygongo/polygonerr"
)

// MarketTimezone is the US Eastern timezone many aggregate bucket boundaries
// are meant to be displayed in. Decoding never converts into this zone
// implicitly — it is only a presentation helper (SPEC_FULL.md §3: "preserve
// the instant, never silently shift it").
var MarketTimezone = mustLoadMarketTimezone()

func mustLoadMarketTimezone() *time.Location {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		// time/tzdata is not always linked in; fall back to a fixed EST
		// offset rather than panic, since this location is presentation-only.
		return time.FixedZone("EST", -5*60*60)
	}
	return loc
}

// EpochMillis decodes a JSON integer millisecond lexeme into the UTC instant
// it denotes.
type EpochMillis struct {
	time.Time
}

// UnmarshalJSON implements json.Unmarshaler, interpreting the lexeme as Unix
// epoch milliseconds.
func (t *EpochMillis) UnmarshalJSON(data []byte) error {
	var ms int64
	if err := json.Unmarshal(data, &ms); err != nil {
		return polygonerr.NewDecodeError("epoch millis timestamp", &polygonerr.InvalidTimestampError{Raw: string(data)})
	}
	t.Time = time.UnixMilli(ms).UTC()
	return nil
}

// MarshalJSON implements json.Marshaler, round-tripping back to epoch
// milliseconds.
func (t EpochMillis) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Time.UnixMilli())
}

// InMarket returns the instant as displayed in MarketTimezone, without
// altering the underlying instant.
func (t EpochMillis) InMarket() time.Time {
	return t.Time.In(MarketTimezone)
}
