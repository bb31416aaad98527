package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"mealplanner/internal/domain/apperr"
)

func TestFailErrorMapsOutcomes(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		status   int
		code     string
		leaksMsg bool
	}{
		{name: "not found", err: apperr.NotFound("user 9"), status: http.StatusNotFound, code: apperr.CodeNotFound, leaksMsg: true},
		{name: "forbidden", err: apperr.Forbidden("outside team"), status: http.StatusForbidden, code: apperr.CodeForbidden, leaksMsg: true},
		{name: "cutoff", err: fmt.Errorf("%w: 2026-03-11", apperr.ErrCutoffPassed), status: http.StatusLocked, code: apperr.CodeCutoffPassed, leaksMsg: true},
		{name: "meal type", err: fmt.Errorf("%w: Brunch", apperr.ErrInvalidMealType), status: http.StatusBadRequest, code: apperr.CodeInvalidMealType, leaksMsg: true},
		{name: "conflict", err: apperr.Conflict("team lead"), status: http.StatusConflict, code: apperr.CodeConflict, leaksMsg: true},
		{name: "pending", err: apperr.ErrPendingApproval, status: http.StatusForbidden, code: apperr.CodePendingApproval, leaksMsg: true},
		{name: "storage", err: fmt.Errorf("%w: disk gone", apperr.ErrStorageUnavailable), status: http.StatusServiceUnavailable, code: apperr.CodeStorageUnavailable},
		{name: "corrupt", err: fmt.Errorf("%w: users", apperr.ErrStorageCorrupt), status: http.StatusInternalServerError, code: apperr.CodeStorageCorrupt},
		{name: "unknown", err: errors.New("boom"), status: http.StatusInternalServerError, code: apperr.CodeInternal},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			FailError(rec, tc.err, "req-1")
			if rec.Code != tc.status {
				t.Fatalf("expected %d, got %d", tc.status, rec.Code)
			}
			var env Envelope
			if err := json.NewDecoder(rec.Body).Decode(&env); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if env.Success || env.Error == nil || env.Error.Code != tc.code || env.RequestID != "req-1" {
				t.Fatalf("unexpected envelope %+v", env)
			}
			if got := env.Error.Message == tc.err.Error(); got != tc.leaksMsg {
				t.Fatalf("message exposure mismatch: %q", env.Error.Message)
			}
		})
	}
}

func TestFailErrorBodyTooLarge(t *testing.T) {
	rec := httptest.NewRecorder()
	FailError(rec, fmt.Errorf("decode: %w", &http.MaxBytesError{Limit: 10}), "")
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d", rec.Code)
	}
}
