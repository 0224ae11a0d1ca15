package rate

import (
	"context"
	"fmt"
	"strings"
	"time"
)

const (
	minuteWindow = time.Minute
	tenSecWindow = 10 * time.Second

	tempUnavailableRetrySec = 10
)

type WindowStore interface {
	IncrementWindow(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error)
}

// Limiter counts hits per subject in two fixed windows (one minute and ten
// seconds). A zero limit disables that window.
type Limiter struct {
	store     WindowStore
	scope     string
	perMinute int
	per10Sec  int
	onReject  func(scope string)
}

func NewLimiter(store WindowStore, scope string, perMinute, per10Sec int) *Limiter {
	if perMinute < 0 {
		perMinute = 0
	}
	if per10Sec < 0 {
		per10Sec = 0
	}

	return &Limiter{
		store:     store,
		scope:     strings.TrimSpace(scope),
		perMinute: perMinute,
		per10Sec:  per10Sec,
	}
}

// OnReject registers a hook invoked whenever a hit is refused.
func (l *Limiter) OnReject(fn func(scope string)) {
	l.onReject = fn
}

func (l *Limiter) Allow(ctx context.Context, subject string) (int64, bool, error) {
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return 0, false, fmt.Errorf("rate subject is empty")
	}
	if l.store == nil {
		return 0, false, fmt.Errorf("rate limiter store is nil")
	}

	retryAfterSec := int64(0)

	if l.perMinute > 0 {
		count, ttl, err := l.store.IncrementWindow(ctx, l.key("min", subject), minuteWindow)
		if err != nil {
			return 0, false, err
		}
		if count > int64(l.perMinute) {
			retryAfterSec = maxInt64(retryAfterSec, maxInt64(1, ceilSeconds(ttl)))
		}
	}

	if l.per10Sec > 0 {
		count, ttl, err := l.store.IncrementWindow(ctx, l.key("10s", subject), tenSecWindow)
		if err != nil {
			return 0, false, err
		}
		if count > int64(l.per10Sec) {
			retryAfterSec = maxInt64(retryAfterSec, maxInt64(1, ceilSeconds(ttl)))
		}
	}

	if retryAfterSec > 0 {
		if l.onReject != nil {
			l.onReject(l.scope)
		}
		return retryAfterSec, false, nil
	}

	return 0, true, nil
}

// Check is Allow folded into a single error. It fails closed: a store error
// becomes TempUnavailableError rather than letting the hit through.
func (l *Limiter) Check(ctx context.Context, subject string) error {
	retryAfter, allowed, err := l.Allow(ctx, subject)
	if err != nil {
		return &TempUnavailableError{RetryAfterSec: tempUnavailableRetrySec, Cause: err}
	}
	if !allowed {
		return &TooManyRequestsError{Scope: l.scope, RetryAfterSec: retryAfter}
	}
	return nil
}

func (l *Limiter) key(window, subject string) string {
	return "rate:" + l.scope + ":" + window + ":" + subject
}

func ceilSeconds(d time.Duration) int64 {
	if d <= 0 {
		return 0
	}
	sec := int64(d / time.Second)
	if d%time.Second != 0 {
		sec++
	}
	if sec <= 0 {
		sec = 1
	}
	return sec
}

func maxInt64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}
