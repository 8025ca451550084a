package odata

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Result is one decoded page of a collection.
type Result[T any] struct {
	Items []T
	// TotalCount is the server-reported @odata.count when present, otherwise
	// the length of Items.
	TotalCount int
	// Counted is false when the backend omitted @odata.count and TotalCount
	// is only as accurate as the fetched window.
	Counted bool
}

// envelope covers the response shapes the backend has been observed to send:
// the standard {"value": [...]}, the legacy {"$values": [...]}, or a bare
// array. Anything else is a decode error rather than an empty result.
type envelope struct {
	Value   json.RawMessage `json:"value"`
	Values  json.RawMessage `json:"$values"`
	Count   *int            `json:"@odata.count"`
	Context string          `json:"@odata.context"`
}

// DecodeCollection normalizes a collection response body into a Result. It
// fails loudly on shapes it does not recognize instead of silently yielding
// an empty page.
func DecodeCollection[T any](body []byte) (Result[T], error) {
	var res Result[T]

	// Bare array first.
	body = bytes.TrimLeft(body, " \t\r\n")
	if len(body) > 0 && body[0] == '[' {
		if err := json.Unmarshal(body, &res.Items); err != nil {
			return res, fmt.Errorf("decoding collection array: %w", err)
		}
		res.TotalCount = len(res.Items)
		return res, nil
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return res, fmt.Errorf("decoding collection envelope: %w", err)
	}

	raw := env.Value
	if raw == nil {
		raw = env.Values
	}
	if raw == nil {
		return res, fmt.Errorf("collection response has neither value, $values nor array shape")
	}
	if err := json.Unmarshal(raw, &res.Items); err != nil {
		return res, fmt.Errorf("decoding collection items: %w", err)
	}

	if env.Count != nil {
		res.TotalCount = *env.Count
		res.Counted = true
	} else {
		res.TotalCount = len(res.Items)
	}
	return res, nil
}
