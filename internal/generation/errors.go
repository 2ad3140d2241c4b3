// internal/generation/errors.go
package generation

import (
	"fmt"
	"strings"
)

// UnknownModelError is returned for model names outside the registered set.
type UnknownModelError struct {
	Name string
}

func (e *UnknownModelError) Error() string {
	return fmt.Sprintf("unknown model %q (available: %s)", e.Name, strings.Join(ListAvailableModels(), ", "))
}

// ValidationError reports a request parameter outside its allowed range.
type ValidationError struct {
	Field  string
	Value  any
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s %v: %s", e.Field, e.Value, e.Reason)
}

// InferenceError wraps a backend load or invocation failure.
type InferenceError struct {
	Backend string
	Err     error
}

func (e *InferenceError) Error() string {
	return fmt.Sprintf("inference failed on %s: %v", e.Backend, e.Err)
}

func (e *InferenceError) Unwrap() error {
	return e.Err
}
