package pathspec

import (
	"errors"
	"fmt"
	"strings"
)

// ConfigError reports a path table that cannot be compiled.
type ConfigError struct {
	// Code identifies the error category.
	Code ErrorCode

	// Type is the table entry the error was found in.
	Type string

	// Path is the offending chain of type names, for cycle errors.
	Path []string

	// Message is a human-readable description.
	Message string
}

// ErrorCode categorizes path table errors.
type ErrorCode string

const (
	// ErrCodeCycle indicates a chain of next references that returns to
	// its start.
	ErrCodeCycle ErrorCode = "PATH_CYCLE"

	// ErrCodeUnknownNext indicates a next reference to a type with no
	// entry in the path table.
	ErrCodeUnknownNext ErrorCode = "UNKNOWN_NEXT"

	// ErrCodeUnknownType indicates a path entry whose type name has no
	// type IRI.
	ErrCodeUnknownType ErrorCode = "UNKNOWN_TYPE"

	// ErrCodeBadPath indicates an unparseable path expression.
	ErrCodeBadPath ErrorCode = "BAD_PATH"
)

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if len(e.Path) > 0 {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, strings.Join(e.Path, " -> "))
	}
	if e.Type != "" {
		return fmt.Sprintf("%s: %s (type=%s)", e.Code, e.Message, e.Type)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsConfigError reports whether err is or wraps a *ConfigError.
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}

// IsCycleError reports whether err is a path table cycle.
func IsCycleError(err error) bool {
	var ce *ConfigError
	if errors.As(err, &ce) {
		return ce.Code == ErrCodeCycle
	}
	return false
}
