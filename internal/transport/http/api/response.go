package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"mealplanner/internal/domain/apperr"
)

type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type Envelope struct {
	Success   bool   `json:"success"`
	Data      any    `json:"data,omitempty"`
	Error     *Error `json:"error,omitempty"`
	RequestID string `json:"requestId,omitempty"`
}

func WriteJSON(w http.ResponseWriter, status int, payload Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Warn("write json failed", "err", err)
	}
}

func Success(w http.ResponseWriter, data any, requestID string) {
	WriteJSON(w, http.StatusOK, Envelope{Success: true, Data: data, RequestID: requestID})
}

func Created(w http.ResponseWriter, data any, requestID string) {
	WriteJSON(w, http.StatusCreated, Envelope{Success: true, Data: data, RequestID: requestID})
}

func Fail(w http.ResponseWriter, status int, code, message, requestID string) {
	WriteJSON(w, status, Envelope{Success: false, Error: &Error{Code: code, Message: message}, RequestID: requestID})
}

func FailWithDetails(w http.ResponseWriter, status int, code, message string, details any, requestID string) {
	WriteJSON(w, status, Envelope{Success: false, Error: &Error{Code: code, Message: message, Details: details}, RequestID: requestID})
}

// StatusFor maps a domain outcome code to its HTTP status.
func StatusFor(code string) int {
	switch code {
	case apperr.CodeNotFound:
		return http.StatusNotFound
	case apperr.CodeForbidden, apperr.CodePendingApproval:
		return http.StatusForbidden
	case apperr.CodeCutoffPassed:
		return http.StatusLocked
	case apperr.CodeInvalidMealType, apperr.CodeValidation:
		return http.StatusBadRequest
	case apperr.CodeConflict:
		return http.StatusConflict
	case apperr.CodeUnauthenticated:
		return http.StatusUnauthorized
	case apperr.CodeStorageUnavailable:
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// FailError writes err as an envelope. Storage and unexpected errors are
// logged and their message is not exposed.
func FailError(w http.ResponseWriter, err error, requestID string) {
	var maxBytes *http.MaxBytesError
	if errors.As(err, &maxBytes) {
		Fail(w, http.StatusRequestEntityTooLarge, "payload_too_large", "request body too large", requestID)
		return
	}
	code := apperr.Code(err)
	status := StatusFor(code)
	message := err.Error()
	if status >= http.StatusInternalServerError {
		slog.Error("request failed", "code", code, "requestId", requestID, "err", err)
		message = http.StatusText(status)
	}
	Fail(w, status, code, message, requestID)
}
