package apperr

import (
	"errors"
	"fmt"

	"mealplanner/internal/platform/filestore"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrForbidden       = errors.New("forbidden")
	ErrCutoffPassed    = errors.New("cutoff passed")
	ErrInvalidMealType = errors.New("invalid meal type")
	ErrConflict        = errors.New("conflict")
	ErrValidation      = errors.New("validation failed")
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrPendingApproval = errors.New("account pending approval")

	ErrStorageUnavailable = filestore.ErrUnavailable
	ErrStorageCorrupt     = filestore.ErrCorrupt
)

const (
	CodeNotFound           = "not_found"
	CodeForbidden          = "forbidden"
	CodeCutoffPassed       = "cutoff_passed"
	CodeInvalidMealType    = "invalid_meal_type"
	CodeConflict           = "conflict"
	CodeValidation         = "validation_error"
	CodeUnauthenticated    = "unauthorized"
	CodePendingApproval    = "pending_approval"
	CodeStorageUnavailable = "storage_unavailable"
	CodeStorageCorrupt     = "storage_corrupt"
	CodeInternal           = "internal_error"
)

// Code maps err to its stable outcome code.
func Code(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotFound):
		return CodeNotFound
	case errors.Is(err, ErrForbidden):
		return CodeForbidden
	case errors.Is(err, ErrCutoffPassed):
		return CodeCutoffPassed
	case errors.Is(err, ErrInvalidMealType):
		return CodeInvalidMealType
	case errors.Is(err, ErrConflict):
		return CodeConflict
	case errors.Is(err, ErrValidation):
		return CodeValidation
	case errors.Is(err, ErrUnauthenticated):
		return CodeUnauthenticated
	case errors.Is(err, ErrPendingApproval):
		return CodePendingApproval
	case errors.Is(err, ErrStorageUnavailable):
		return CodeStorageUnavailable
	case errors.Is(err, ErrStorageCorrupt):
		return CodeStorageCorrupt
	}
	return CodeInternal
}

func NotFound(format string, args ...any) error {
	return wrap(ErrNotFound, format, args...)
}

func Forbidden(format string, args ...any) error {
	return wrap(ErrForbidden, format, args...)
}

func Conflict(format string, args ...any) error {
	return wrap(ErrConflict, format, args...)
}

func Validation(format string, args ...any) error {
	return wrap(ErrValidation, format, args...)
}

func wrap(sentinel error, format string, args ...any) error {
	return fmt.Errorf("%w: %s", sentinel, fmt.Sprintf(format, args...))
}
