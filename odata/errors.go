package odata

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// ErrUnauthorized is returned when the backend rejects the bearer token.
var ErrUnauthorized = errors.New("unauthorized")

// Error is a failed backend call. Fields carries the structured per-field
// validation messages when the backend returned them; Message is the single
// business-rule string; both may be empty for bare transport-level failures.
type Error struct {
	StatusCode int
	Message    string
	Fields     map[string][]string
}

func (e *Error) Error() string {
	if msg := e.UserMessage(); msg != "" {
		return msg
	}
	return fmt.Sprintf("backend returned status %d", e.StatusCode)
}

// UserMessage derives the text to surface to the actor, preferring the
// structured field-error map, then the backend message, then a generic
// fallback.
func (e *Error) UserMessage() string {
	if len(e.Fields) > 0 {
		var parts []string
		for field, msgs := range e.Fields {
			for _, m := range msgs {
				parts = append(parts, field+": "+m)
			}
		}
		return strings.Join(parts, "; ")
	}
	if e.Message != "" {
		return e.Message
	}
	return "An unexpected error occurred. Please try again."
}

// FieldErrors returns the per-field messages, or nil when the backend sent a
// single message or nothing structured at all.
func (e *Error) FieldErrors() map[string][]string {
	return e.Fields
}

// errorBody matches the two failure envelopes the backend is known to send:
// a validation problem with an "errors" object, or a plain {"message": "..."}.
type errorBody struct {
	Message string              `json:"message"`
	Title   string              `json:"title"`
	Errors  map[string][]string `json:"errors"`
}

// decodeError turns a non-2xx response into an *Error. The body is read in
// full; non-JSON bodies are carried verbatim as the message.
func decodeError(resp *http.Response) error {
	if resp.StatusCode == http.StatusUnauthorized {
		return ErrUnauthorized
	}

	apiErr := &Error{StatusCode: resp.StatusCode}
	body, err := io.ReadAll(resp.Body)
	if err != nil || len(body) == 0 {
		return apiErr
	}

	var parsed errorBody
	if jsonErr := json.Unmarshal(body, &parsed); jsonErr == nil {
		apiErr.Fields = parsed.Errors
		apiErr.Message = parsed.Message
		if apiErr.Message == "" {
			apiErr.Message = parsed.Title
		}
		return apiErr
	}

	// Not JSON, surface the raw text verbatim.
	apiErr.Message = strings.TrimSpace(string(body))
	return apiErr
}
