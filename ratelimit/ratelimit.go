// Package ratelimit enforces per-action cooldowns on mutations.
//
// Each action class gets a token bucket holding a single token that refills once
// per cooldown. State lives in memory only and belongs to one Limiter; a new
// Limiter (a page reload) starts with every cooldown elapsed.
package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Action is a class of rate-limited mutation.
type Action string

const (
	ActionComment Action = "comment"
	ActionRating  Action = "rating"
	ActionProject Action = "project"
)

// DefaultCooldowns are the minimum intervals between two actions of the same class.
var DefaultCooldowns = map[Action]time.Duration{
	ActionComment: 3 * time.Second,
	ActionRating:  1 * time.Second,
	ActionProject: 5 * time.Second,
}

// tolerance absorbs the float rounding of token arithmetic, so an action attempted
// exactly one cooldown after the last one is allowed.
const tolerance = time.Microsecond

// Decision is the outcome of a rate-limit check.
type Decision struct {
	Allowed   bool
	Remaining time.Duration // Time left before the action is allowed again; zero when allowed.
}

// Limiter keeps one token bucket per action class.
type Limiter struct {
	mu       sync.Mutex
	now      func() time.Time
	limiters map[Action]*rate.Limiter
}

// WithClock replaces the clock used to timestamp actions.
func WithClock(now func() time.Time) func(*Limiter) {
	return func(l *Limiter) {
		l.now = now
	}
}

// New returns a limiter with no recorded actions.
func New(options ...func(*Limiter)) *Limiter {
	l := &Limiter{
		now:      time.Now,
		limiters: make(map[Action]*rate.Limiter),
	}
	for _, option := range options {
		option(l)
	}
	return l
}

// bucket returns the bucket of action, creating it full or retuning it to cooldown.
func (l *Limiter) bucket(action Action, cooldown time.Duration, now time.Time) *rate.Limiter {
	limit := rate.Every(cooldown)
	limiter, ok := l.limiters[action]
	if !ok {
		limiter = rate.NewLimiter(limit, 1)
		l.limiters[action] = limiter
	} else if limiter.Limit() != limit {
		limiter.SetLimitAt(now, limit)
	}
	return limiter
}

// reserve takes the token of action at now. A reservation that would have to wait is
// cancelled, so a rejected attempt leaves the bucket as it found it.
func (l *Limiter) reserve(action Action, cooldown time.Duration, consume bool) Decision {
	now := l.now()
	r := l.bucket(action, cooldown, now).ReserveN(now, 1)
	if !r.OK() {
		return Decision{Allowed: false, Remaining: cooldown}
	}

	delay := r.DelayFrom(now)
	if delay <= tolerance {
		if !consume {
			r.CancelAt(now)
		}
		return Decision{Allowed: true}
	}
	r.CancelAt(now)
	return Decision{Allowed: false, Remaining: delay.Round(tolerance)}
}

// CheckAndConsume allows the action when at least cooldown has passed since the last
// allowed action of the same class, consuming the cooldown. A rejected check records
// nothing. A cooldown that differs from the previous call's applies from now on; the
// time already waited under the previous cooldown still counts.
func (l *Limiter) CheckAndConsume(action Action, cooldown time.Duration) Decision {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.reserve(action, cooldown, true)
}

// Check reports what CheckAndConsume would decide without recording anything.
func (l *Limiter) Check(action Action, cooldown time.Duration) Decision {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.reserve(action, cooldown, false)
}

// Reset forgets every recorded action.
func (l *Limiter) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.limiters = make(map[Action]*rate.Limiter)
}
