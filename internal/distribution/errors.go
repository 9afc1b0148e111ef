package distribution

import (
	"errors"
	"fmt"
)

// ErrRunInProgress is returned when a run is requested for a profile that
// is already running.
var ErrRunInProgress = errors.New("distribution run already in progress")

// ErrNothingCollected ends collection early. Collectors return it when
// there is nothing to publish, e.g. no agenda has been released yet.
var ErrNothingCollected = errors.New("nothing collected")

// RunError is a failed run. It records the profile and the stage that
// failed and wraps the underlying cause.
type RunError struct {
	Profile string
	Stage   Stage
	Err     error
}

// Error implements the error interface.
func (e *RunError) Error() string {
	return fmt.Sprintf("distribution %s failed in %s: %v", e.Profile, e.Stage, e.Err)
}

// Unwrap returns the underlying cause.
func (e *RunError) Unwrap() error {
	return e.Err
}

// IsRunInProgress reports whether err is or wraps ErrRunInProgress.
func IsRunInProgress(err error) bool {
	return errors.Is(err, ErrRunInProgress)
}

// FailedStage returns the stage of a wrapped RunError, if any.
func FailedStage(err error) (Stage, bool) {
	var re *RunError
	if errors.As(err, &re) {
		return re.Stage, true
	}
	return "", false
}
