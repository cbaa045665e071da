// Package simerr defines the error taxonomy shared by the simulation packages.
package simerr

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration indicates invalid grid, shape-function or discretisation parameters.
	ErrConfiguration = errors.New("mudokon: invalid configuration")

	// ErrDimensionMismatch indicates particle, grid and shape-function dimensions disagree.
	ErrDimensionMismatch = errors.New("mudokon: dimension mismatch")

	// ErrDomainViolation indicates particles left the grid entirely.
	ErrDomainViolation = errors.New("mudokon: particles outside grid domain")
)

// ConfigError describes a rejected parameter.
type ConfigError struct {
	Field  string
	Value  any
	Reason string
}

// Config returns a *ConfigError for field.
func Config(field string, value any, reason string) *ConfigError {
	return &ConfigError{Field: field, Value: value, Reason: reason}
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%v: %s = %v: %s", ErrConfiguration, e.Field, e.Value, e.Reason)
}

func (e *ConfigError) Unwrap() error {
	return ErrConfiguration
}

// Mismatch wraps ErrDimensionMismatch with the offending quantities.
func Mismatch(what string, want, got int) error {
	return fmt.Errorf("%w: %s: want %d, got %d", ErrDimensionMismatch, what, want, got)
}

// DomainViolation reports particles with no valid interaction at a step.
type DomainViolation struct {
	Step      int
	Particles []int
}

func (e *DomainViolation) Error() string {
	const show = 8
	ids := e.Particles
	if len(ids) > show {
		return fmt.Sprintf("%v: step %d: %d particles (first %v)", ErrDomainViolation, e.Step, len(ids), ids[:show])
	}
	return fmt.Sprintf("%v: step %d: particles %v", ErrDomainViolation, e.Step, ids)
}

func (e *DomainViolation) Unwrap() error {
	return ErrDomainViolation
}
