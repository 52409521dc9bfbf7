// Package httputil owns the JSON response envelope shared by every endpoint
// and the request body decoding that feeds it.
package httputil

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	MessageInternalError    = "Internal server error"
	MessageValidationFailed = "Validation failed"
	MessageInvalidBody      = "Invalid request body"
	MessageNotFound         = "Endpoint not found"
)

// Response is the envelope every JSON endpoint answers with.
type Response struct {
	Success   bool              `json:"success"`
	Message   string            `json:"message"`
	Data      any               `json:"data,omitempty"`
	Errors    map[string]string `json:"errors,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
}

// Now is the envelope clock; tests may replace it.
var Now = time.Now

// WriteJSON encodes v with the given status. Encoding errors past the header
// cannot be reported to the client and are dropped.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteSuccess writes a success envelope carrying data.
func WriteSuccess(w http.ResponseWriter, status int, message string, data any) {
	WriteJSON(w, status, Response{
		Success:   true,
		Message:   message,
		Data:      data,
		Timestamp: Now().UTC(),
	})
}

// WriteFailure writes a failure envelope with only a message.
func WriteFailure(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, Response{
		Success:   false,
		Message:   message,
		Timestamp: Now().UTC(),
	})
}

// WriteValidationError writes 400 with the field to message map.
func WriteValidationError(w http.ResponseWriter, fieldErrors map[string]string) {
	WriteJSON(w, http.StatusBadRequest, Response{
		Success:   false,
		Message:   MessageValidationFailed,
		Errors:    fieldErrors,
		Timestamp: Now().UTC(),
	})
}

// WriteInternalError writes the generic 500 envelope. Callers log err first;
// nothing about it reaches the client.
func WriteInternalError(w http.ResponseWriter, message string) {
	if message == "" {
		message = MessageInternalError
	}
	WriteFailure(w, http.StatusInternalServerError, message)
}

// ErrEmptyBody is returned by DecodeJSON for a request without a body.
var ErrEmptyBody = errors.New("request body is empty")

// DecodeJSON decodes one JSON value of type T from r, reading at most maxBytes.
// Unknown object keys are ignored. Trailing data after the value is an error.
func DecodeJSON[T any](w http.ResponseWriter, r *http.Request, maxBytes int64) (T, error) {
	var out T
	body := r.Body
	if maxBytes > 0 {
		body = http.MaxBytesReader(w, r.Body, maxBytes)
	}
	dec := json.NewDecoder(body)
	if err := dec.Decode(&out); err != nil {
		if errors.Is(err, io.EOF) {
			return out, ErrEmptyBody
		}
		return out, fmt.Errorf("decode request body: %w", err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return out, errors.New("decode request body: unexpected data after JSON value")
	}
	return out, nil
}
