package util

import (
	"time"

	"golang.org/x/time/rate"
)

// ProgressLimiter throttles "scan progress" notices on large corpora. A nil
// *ProgressLimiter never allows.
type ProgressLimiter struct {
	inner *rate.Limiter
	now   func() time.Time
}

// NewProgressLimiter allows perSecond notices with a burst of one. It returns
// nil when perSecond is not positive, which disables progress output.
func NewProgressLimiter(perSecond float64) *ProgressLimiter {
	if perSecond <= 0 {
		return nil
	}
	return &ProgressLimiter{
		inner: rate.NewLimiter(rate.Limit(perSecond), 1),
		now:   time.Now,
	}
}

func (l *ProgressLimiter) Allow() bool {
	if l == nil {
		return false
	}
	return l.inner.AllowN(l.now(), 1)
}
