package pricing

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation matches every *ValidationError via errors.Is.
	ErrValidation = errors.New("invalid fee schedule")
	// ErrDomain matches every *DomainError via errors.Is.
	ErrDomain = errors.New("invalid evaluation input")
)

// ValidationError reports a malformed FeeSchedule at construction time.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("fee schedule: %s %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// DomainError reports an evaluation input outside the engine's domain,
// such as a non-positive principal or a negative elapsed-day count.
type DomainError struct {
	Field  string
	Reason string
}

func (e *DomainError) Error() string {
	return fmt.Sprintf("evaluation: %s %s", e.Field, e.Reason)
}

func (e *DomainError) Is(target error) bool {
	return target == ErrDomain
}
