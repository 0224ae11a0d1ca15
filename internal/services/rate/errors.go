package rate

import "fmt"

type TooManyRequestsError struct {
	Scope         string
	RetryAfterSec int64
}

func (e *TooManyRequestsError) Error() string {
	return fmt.Sprintf("%s rate limit exceeded, retry after %ds", e.Scope, e.RetryAfterSec)
}

type TempUnavailableError struct {
	RetryAfterSec int64
	Cause         error
}

func (e *TempUnavailableError) Error() string {
	return fmt.Sprintf("rate limiter unavailable: %v", e.Cause)
}

func (e *TempUnavailableError) Unwrap() error {
	return e.Cause
}
