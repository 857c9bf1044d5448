package fault

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindOf(t *testing.T) {
	if got := KindOf(NotFound("missing")); got != KindNotFound {
		t.Errorf("expected not_found, got %s", got)
	}

	// Unclassified errors count as network failures.
	if got := KindOf(errors.New("plain")); got != KindNetwork {
		t.Errorf("expected network for plain errors, got %s", got)
	}
}

func TestUnwrap(t *testing.T) {
	inner := errors.New("socket closed")
	err := Wrap(KindNetwork, inner, "request failed")

	if !errors.Is(err, inner) {
		t.Error("expected the wrapped error to survive unwrapping")
	}
}

func TestWrappedKindSurvives(t *testing.T) {
	err := fmt.Errorf("handler: %w", Validation("bad input", "field missing"))

	if got := KindOf(err); got != KindValidation {
		t.Errorf("expected validation through wrapping, got %s", got)
	}
}

func TestValidationReasons(t *testing.T) {
	err := Validation("bad input", "a", "b")

	var fe *Error

	if !errors.As(err, &fe) {
		t.Fatal("expected a fault error")
	}

	if len(fe.Reasons) != 2 {
		t.Errorf("expected 2 reasons, got %d", len(fe.Reasons))
	}
}

func TestIs(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", UnsupportedProvider("nope"))

	if !Is(err, KindUnsupportedProvider) {
		t.Error("expected Is to match the kind through wrapping")
	}

	if Is(err, KindStorage) {
		t.Error("expected Is to reject a different kind")
	}
}
