package usage

import (
	"errors"
	"fmt"
	"time"
)

// ErrRateLimited indicates the per-client budget for a traffic class is spent.
var ErrRateLimited = errors.New("rate limit exceeded")

// ErrQuotaExceeded indicates the global daily AI quota is spent.
var ErrQuotaExceeded = errors.New("daily AI quota exceeded")

// DeniedError wraps a denial sentinel with retry-after guidance.
type DeniedError struct {
	Reason     error
	RetryAfter time.Duration
}

func (e *DeniedError) Error() string {
	return fmt.Sprintf("%v (retry after %ds)", e.Reason, RetryAfterSeconds(e.RetryAfter))
}

func (e *DeniedError) Unwrap() error {
	return e.Reason
}

// RetryAfterSeconds converts a retry-after duration to whole seconds,
// rounding up and never returning less than 1.
func RetryAfterSeconds(d time.Duration) int {
	secs := int((d + time.Second - 1) / time.Second)
	if secs < 1 {
		secs = 1
	}
	return secs
}
