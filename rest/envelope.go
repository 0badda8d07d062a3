// Package rest implements the REST dispatch surface: a status-tagged
// response envelope (Envelope[T]) and a generic per-endpoint request
// contract (Endpoint[In, Out, E]) that a Dispatcher drives.
package rest

import (
	"encoding/json"

	"polygongo/polygonerr"
)

const (
	statusOK      = "OK"
	statusDelayed = "DELAYED"
)

// Envelope is the outer JSON structure every Polygon-style REST response
// shares: a status code plus, on success, a results payload of type T.
// Decoding is a single tagged-union UnmarshalJSON, never a flat struct
// inspected after the fact, so a non-success status never has to masquerade
// as a zero-value T.
type Envelope[T any] struct {
	status  string
	results T
	present bool
}

// UnmarshalJSON decodes the status discriminator and, when present, the
// results payload in one pass.
func (e *Envelope[T]) UnmarshalJSON(data []byte) error {
	var wire struct {
		Status  string          `json:"status"`
		Results json.RawMessage `json:"results"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return polygonerr.NewDecodeError("rest envelope", err)
	}
	e.status = wire.Status
	if len(wire.Results) == 0 || string(wire.Results) == "null" {
		return nil
	}
	if err := json.Unmarshal(wire.Results, &e.results); err != nil {
		return polygonerr.NewDecodeError("rest envelope results", err)
	}
	e.present = true
	return nil
}

// Into yields the carried results for status OK or DELAYED (both treated as
// success — DELAYED means the results are present but not yet final). Any
// other status yields a *polygonerr.ResponseError carrying the status
// string verbatim.
func (e Envelope[T]) Into() (T, error) {
	switch e.status {
	case statusOK, statusDelayed:
		return e.results, nil
	default:
		var zero T
		return zero, &polygonerr.ResponseError{Status: e.status}
	}
}
