package simerr

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestConfigErrorUnwrap(t *testing.T) {
	err := fmt.Errorf("building grid: %w", Config("spacing", -1.0, "must be positive"))

	if !errors.Is(err, ErrConfiguration) {
		t.Fatalf("expected errors.Is(err, ErrConfiguration), got %v", err)
	}

	var ce *ConfigError
	if !errors.As(err, &ce) {
		t.Fatal("expected errors.As to find *ConfigError")
	}
	if ce.Field != "spacing" {
		t.Errorf("expected field spacing, got %s", ce.Field)
	}
}

func TestMismatch(t *testing.T) {
	err := Mismatch("particle dim", 2, 3)
	if !errors.Is(err, ErrDimensionMismatch) {
		t.Fatalf("expected dimension mismatch, got %v", err)
	}
	if !strings.Contains(err.Error(), "want 2, got 3") {
		t.Errorf("unexpected message: %s", err)
	}
}

func TestDomainViolationTruncatesList(t *testing.T) {
	ids := make([]int, 20)
	for i := range ids {
		ids[i] = i
	}
	err := &DomainViolation{Step: 7, Particles: ids}

	if !errors.Is(err, ErrDomainViolation) {
		t.Fatal("expected errors.Is(err, ErrDomainViolation)")
	}
	if !strings.Contains(err.Error(), "20 particles") {
		t.Errorf("expected count in message, got %s", err)
	}
}
