// Package httputil provides JSON request/response helpers for the HTTP boundary.
package httputil

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/eatrite/backend/internal/errors"
)

// DecodeJSON decodes a JSON request body into dst. Unknown fields are
// ignored so older or newer mobile clients can send extra keys safely.
func DecodeJSON(body io.ReadCloser, dst interface{}) error {
	defer body.Close()
	dec := json.NewDecoder(body)
	if err := dec.Decode(dst); err != nil {
		return errors.InvalidInput("Invalid request body").WithDetails("reason", err.Error())
	}
	return nil
}

// WriteJSON writes data as a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// WriteError maps err to its HTTP status and writes a JSON error body.
// Non-service errors become opaque 500s.
func WriteError(w http.ResponseWriter, err error) {
	serviceErr := errors.GetServiceError(err)
	if serviceErr == nil {
		serviceErr = errors.Internal("", err)
	}
	WriteJSON(w, serviceErr.HTTPStatus, map[string]string{"error": serviceErr.Message})
}

// WriteMessage writes a JSON error body with an explicit status and message.
func WriteMessage(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, map[string]string{"error": message})
}

// ReadAllWithLimit reads at most limit bytes and reports whether the body
// was truncated.
func ReadAllWithLimit(r io.Reader, limit int64) ([]byte, bool, error) {
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, false, err
	}
	if int64(len(data)) > limit {
		return data[:limit], true, nil
	}
	return data, false, nil
}

// ReadAllStrict reads the body and fails if it exceeds limit bytes.
func ReadAllStrict(r io.Reader, limit int64) ([]byte, error) {
	data, truncated, err := ReadAllWithLimit(r, limit)
	if err != nil {
		return nil, err
	}
	if truncated {
		return nil, fmt.Errorf("response body exceeds %d bytes", limit)
	}
	return data, nil
}
