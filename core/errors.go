package core

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidConfiguration indicates parameters that cannot describe a
	// food web: non-positive cell volumes or step sizes, pairings outside the
	// group range, mismatched array lengths.
	ErrInvalidConfiguration = errors.New("invalid configuration")
	// ErrOutputBufferOverflow indicates the sampler was asked to record more
	// samples than the plan allows.
	ErrOutputBufferOverflow = errors.New("output buffer overflow")
	// ErrNumericalDivergence indicates biomass or nitrate became NaN or Inf.
	ErrNumericalDivergence = errors.New("numerical divergence")
)

// RunError reports a failure of one sweep level.
type RunError struct {
	Level int
	Step  int
	Err   error
}

func (e *RunError) Error() string {
	return fmt.Sprintf("sweep level %d, step %d: %v", e.Level, e.Step, e.Err)
}

func (e *RunError) Unwrap() error { return e.Err }

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidConfiguration, fmt.Sprintf(format, args...))
}
