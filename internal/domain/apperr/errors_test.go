package apperr

import (
	"errors"
	"fmt"
	"testing"

	"mealplanner/internal/platform/filestore"
)

func TestCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "nil", err: nil, want: ""},
		{name: "not found", err: NotFound("user %d", 4), want: CodeNotFound},
		{name: "forbidden", err: Forbidden("team lead scope"), want: CodeForbidden},
		{name: "cutoff", err: fmt.Errorf("update: %w", ErrCutoffPassed), want: CodeCutoffPassed},
		{name: "meal type", err: fmt.Errorf("%w: Dinner", ErrInvalidMealType), want: CodeInvalidMealType},
		{name: "conflict", err: Conflict("username taken"), want: CodeConflict},
		{name: "validation", err: Validation("date required"), want: CodeValidation},
		{name: "storage unavailable", err: fmt.Errorf("%w: disk", filestore.ErrUnavailable), want: CodeStorageUnavailable},
		{name: "storage corrupt", err: fmt.Errorf("%w: bad json", filestore.ErrCorrupt), want: CodeStorageCorrupt},
		{name: "unknown", err: errors.New("boom"), want: CodeInternal},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			if got := Code(tc.err); got != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, got)
			}
		})
	}
}

func TestWrappedMessageKeepsDetail(t *testing.T) {
	err := Conflict("team %d already has a lead", 3)
	if !errors.Is(err, ErrConflict) {
		t.Fatal("expected conflict sentinel")
	}
	if err.Error() != "conflict: team 3 already has a lead" {
		t.Fatalf("unexpected message %q", err.Error())
	}
}
