package errs

import (
	"errors"
	"fmt"
	"testing"
)

func TestCodeSurvivesWrapping(t *testing.T) {
	base := SolverInfeasible(errors.New("status 3"), "window [0,5)").WithField("window_begin", 0)
	wrapped := fmt.Errorf("refine: %w", base)

	if !Is(wrapped, CodeSolverInfeasible) {
		t.Fatalf("Is(wrapped, SOLVER_INFEASIBLE) = false, code %s", CodeOf(wrapped))
	}
	if got := FieldsOf(wrapped)["window_begin"]; got != 0 {
		t.Errorf("window_begin field = %v, want 0", got)
	}
	if !errors.Is(wrapped, base.Cause) {
		t.Error("cause is not reachable through Unwrap")
	}
}

func TestCodeOfPlainError(t *testing.T) {
	if got := CodeOf(errors.New("plain")); got != CodeUnknown {
		t.Errorf("CodeOf(plain) = %s, want %s", got, CodeUnknown)
	}
	if FieldsOf(errors.New("plain")) != nil {
		t.Error("FieldsOf(plain) should be nil")
	}
}

func TestInstanceClass(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{InvalidInstance("p < 0"), true},
		{InvalidConfig("unknown key"), true},
		{UnsupportedNeighborhood(9), true},
		{SolverInfeasible(nil, "x"), false},
		{EmptyNeighborhoodInput("empty prefix"), false},
		{DegenerateInstance("n=1"), false},
	}
	for _, tt := range tests {
		if got := IsInstanceClass(tt.err); got != tt.want {
			t.Errorf("IsInstanceClass(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}
