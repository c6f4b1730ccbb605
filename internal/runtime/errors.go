package runtime

import (
	"errors"
	"fmt"
)

var (
	ErrRuntime    = errors.New("runtime error")
	ErrEmptyIndex = errors.New("empty image index")
)

// Wraps an error with the package sentinel so callers can detect runtime
// failures with [errors.Is].
func wrap(err error) error {
	return fmt.Errorf("%w: %w", ErrRuntime, err)
}

// Like [wrap] with a formatted message instead of a cause.
func wrapf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrRuntime, fmt.Sprintf(format, args...))
}
