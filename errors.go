package showcase

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/tfkr-ae/showcase/ratelimit"
	"github.com/tfkr-ae/showcase/validate"
)

var (
	// ErrNotSaved means the operation took effect for this session but could not be persisted.
	ErrNotSaved = errors.New("not saved")
	// ErrRateLimited matches every *RateLimitError.
	ErrRateLimited = errors.New("rate limited")
	// ErrInvalidInput matches every *ValidationError.
	ErrInvalidInput = errors.New("invalid input")
	// ErrUnknownProject is returned for comments and ratings on a project that does not exist.
	ErrUnknownProject = errors.New("unknown project")
	// ErrUnknownAction is returned by RecordEvent for actions that are not UI events.
	ErrUnknownAction = errors.New("unknown action")
)

// RateLimitError is returned when a mutation is attempted before its cooldown elapsed.
type RateLimitError struct {
	Action    ratelimit.Action
	Remaining time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("%s rate limited: retry in %ds", e.Action, e.RetryAfterSeconds())
}

func (e *RateLimitError) Is(target error) bool {
	return target == ErrRateLimited
}

// RetryAfterSeconds rounds the remaining cooldown up to whole seconds for display.
func (e *RateLimitError) RetryAfterSeconds() int {
	return int(math.Ceil(e.Remaining.Seconds()))
}

// ValidationError carries the result of a failed input validation.
type ValidationError struct {
	Result validate.Result
}

func (e *ValidationError) Error() string {
	return "invalid input: " + e.Result.Error()
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

func notSaved(err error) error {
	return fmt.Errorf("%w: %w", ErrNotSaved, err)
}
