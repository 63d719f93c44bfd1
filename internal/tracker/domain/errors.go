package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrDuplicateTracking = errors.New("account is already being tracked")
	ErrAlreadySent       = errors.New("reply has already been sent")
	ErrEmptyReply        = errors.New("no reply text to approve")
	ErrNotQueued         = errors.New("reply is not in the queue")
)

// RateLimitedError reports a self-imposed throttle with the concrete wait
// remaining, so callers never surface a bare "try again" message.
type RateLimitedError struct {
	Minutes int
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("rate limited: next call allowed in %d minute(s)", e.Minutes)
}
