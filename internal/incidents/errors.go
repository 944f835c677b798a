package incidents

import (
	"errors"
	"strings"
)

// Sentinel errors for the incidents module.
var (
	ErrIncidentNotFound = errors.New("incident not found")
	ErrActionNotFound   = errors.New("action not found")
	ErrValidation       = errors.New("validation failed")
)

// ValidationError collects every rule violation found in one pass so the
// caller sees all problems at once instead of fixing them one by one.
type ValidationError struct {
	Violations []string
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Violations, "; ")
}

// Unwrap lets errors.Is match ErrValidation.
func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

func (e *ValidationError) add(violation string) {
	e.Violations = append(e.Violations, violation)
}

func (e *ValidationError) orNil() error {
	if len(e.Violations) == 0 {
		return nil
	}
	return e
}
