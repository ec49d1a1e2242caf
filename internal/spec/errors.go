package spec

import (
	"errors"
	"fmt"
)

// ConfigError represents a test spec that is rejected before any execution.
// Nothing has been written to disk when a ConfigError is returned.
type ConfigError struct {
	// Field names the offending spec field, when known.
	Field string

	// Message is a human-readable description.
	Message string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return e.Message
}

// IsConfigError reports whether err is (or wraps) a ConfigError.
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}
