package verrors

import (
	"strings"
	"testing"
)

func TestErrorWithoutLocation(t *testing.T) {
	err := New(TypeMismatch, "cannot add bool and int")
	want := "TypeMismatch: cannot add bool and int"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestErrorWithLocation(t *testing.T) {
	err := Newf(UnboundName, "identifier %q does not exist", "x").WithLocation("main.vn", 3, 7)
	got := err.Error()
	if !strings.Contains(got, "UnboundName: identifier \"x\" does not exist") {
		t.Errorf("missing message portion: %q", got)
	}
	if !strings.Contains(got, "main.vn:3:7") {
		t.Errorf("missing location portion: %q", got)
	}
}

func TestWithLocationReturnsSameError(t *testing.T) {
	err := New(DivideByZero, "division by zero")
	located := err.WithLocation("a.vn", 1, 1)
	if located != err {
		t.Errorf("WithLocation should mutate and return the same *VantaError")
	}
}

func TestKindsAreDistinct(t *testing.T) {
	kinds := []Kind{TypeMismatch, ArityMismatch, UnboundName, IndexOutOfBounds, DivideByZero, BadBranchCondition, UnknownBuiltin, Syntax}
	seen := map[Kind]bool{}
	for _, k := range kinds {
		if seen[k] {
			t.Errorf("duplicate kind value %v", k)
		}
		seen[k] = true
	}
}
