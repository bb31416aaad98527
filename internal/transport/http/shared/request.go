package shared

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"

	"mealplanner/internal/domain/apperr"
)

// DecodeJSON decodes a single JSON object from the request body. Unknown
// fields are rejected.
func DecodeJSON(r *http.Request, out any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		var maxBytes *http.MaxBytesError
		if errors.As(err, &maxBytes) {
			return err
		}
		if errors.Is(err, io.EOF) {
			return apperr.Validation("request body is required")
		}
		return apperr.Validation("invalid request payload: %v", err)
	}
	if dec.More() {
		return apperr.Validation("request body must contain a single object")
	}
	return nil
}

// IntParam parses a required positive integer path or query value.
func IntParam(name, raw string) (int, error) {
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || value <= 0 {
		return 0, apperr.Validation("%s must be a positive integer", name)
	}
	return value, nil
}

// OptionalIntQuery returns nil when the query value is absent.
func OptionalIntQuery(r *http.Request, name string) (*int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return nil, nil
	}
	value, err := IntParam(name, raw)
	if err != nil {
		return nil, err
	}
	return &value, nil
}

// DateQuery reads an optional date query value, normalised to YYYY-MM-DD.
func DateQuery(r *http.Request, name string) (string, error) {
	date, err := ParseDate(r.URL.Query().Get(name))
	if err != nil {
		return "", fmt.Errorf("%w: %s must be a date in YYYY-MM-DD format", apperr.ErrValidation, name)
	}
	return date, nil
}

func ClientIP(r *http.Request) string {
	if fwd := strings.TrimSpace(r.Header.Get("X-Forwarded-For")); fwd != "" {
		if value := strings.TrimSpace(strings.Split(fwd, ",")[0]); value != "" {
			return value
		}
	}
	if real := strings.TrimSpace(r.Header.Get("X-Real-IP")); real != "" {
		return real
	}
	host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
	if err == nil && host != "" {
		return host
	}
	return strings.TrimSpace(r.RemoteAddr)
}

// NullableInt tells an absent field apart from an explicit null.
type NullableInt struct {
	Set   bool
	Value *int
}

func (n *NullableInt) UnmarshalJSON(data []byte) error {
	n.Set = true
	if string(data) == "null" {
		n.Value = nil
		return nil
	}
	var value int
	if err := json.Unmarshal(data, &value); err != nil {
		return err
	}
	n.Value = &value
	return nil
}
