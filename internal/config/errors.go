package config

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes configuration errors.
type ErrorCode string

const (
	// ErrCodeRead indicates a configuration file that cannot be read.
	ErrCodeRead ErrorCode = "CONFIG_READ"

	// ErrCodeParse indicates a file that is not valid YAML or CUE.
	ErrCodeParse ErrorCode = "CONFIG_PARSE"

	// ErrCodeSchema indicates a CUE file that does not satisfy the schema.
	ErrCodeSchema ErrorCode = "CONFIG_SCHEMA"

	// ErrCodeFormat indicates an unsupported file extension.
	ErrCodeFormat ErrorCode = "CONFIG_FORMAT"

	// ErrCodeEnv indicates an environment variable with a bad value.
	ErrCodeEnv ErrorCode = "CONFIG_ENV"

	// ErrCodeInvalid indicates a field that fails validation.
	ErrCodeInvalid ErrorCode = "CONFIG_INVALID"

	// ErrCodeUnknownProfile indicates a profile with no built-in collector
	// chain.
	ErrCodeUnknownProfile ErrorCode = "UNKNOWN_PROFILE"
)

// Error is a configuration error. Startup fails on it.
type Error struct {
	Code    ErrorCode
	Field   string
	Message string
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Message
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	if e.Field != "" {
		return fmt.Sprintf("%s: %s: %s", e.Code, e.Field, msg)
	}
	return fmt.Sprintf("%s: %s", e.Code, msg)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// IsConfigError reports whether err is or wraps a configuration *Error.
func IsConfigError(err error) bool {
	var ce *Error
	return errors.As(err, &ce)
}
