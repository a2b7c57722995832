package tasks

import (
	"errors"
	"sync"
	"time"

	"github.com/desertthunder/sptx/internal/actions"
	"github.com/desertthunder/sptx/internal/services"
	"github.com/desertthunder/sptx/internal/shared"
	"golang.org/x/time/rate"
)

// RetryPolicy bounds automatic re-issue of failed actions. MaxAttempts of zero
// disables retries.
type RetryPolicy struct {
	MaxAttempts int
	PerSecond   float64
}

// Retrier is a [Hook] that re-enqueues actions that failed with a retryable error.
//
// Toggles are never retried: their optimistic entry is already rolled back and
// the user decides whether to try again. Polls are not retried either, the next
// tick issues a fresh one.
type Retrier struct {
	policy  RetryPolicy
	enqueue func(actions.Action) bool
	limiter *rate.Limiter

	mu       sync.Mutex
	attempts map[string]int
	timers   map[string]*time.Timer
	stopped  bool
}

// WithRetry builds a retrier that hands retries to enqueue, typically [Worker.Enqueue].
func WithRetry(policy RetryPolicy, enqueue func(actions.Action) bool) *Retrier {
	limit := rate.Inf
	if policy.PerSecond > 0 {
		limit = rate.Limit(policy.PerSecond)
	}
	return &Retrier{
		policy:   policy,
		enqueue:  enqueue,
		limiter:  rate.NewLimiter(limit, 1),
		attempts: map[string]int{},
		timers:   map[string]*time.Timer{},
	}
}

func (r *Retrier) AfterAction(a actions.Action, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err == nil {
		delete(r.attempts, a.ID())
		return
	}
	if r.stopped || !r.eligible(a, err) {
		delete(r.attempts, a.ID())
		return
	}

	r.attempts[a.ID()]++
	delay := r.delay(err)
	r.timers[a.ID()] = time.AfterFunc(delay, func() {
		r.mu.Lock()
		delete(r.timers, a.ID())
		stopped := r.stopped
		r.mu.Unlock()

		if !stopped {
			r.enqueue(a)
		}
	})
}

func (r *Retrier) eligible(a actions.Action, err error) bool {
	if r.policy.MaxAttempts <= 0 || a.Kind() == actions.KindToggleSaved || actions.IsPoll(a) {
		return false
	}
	if !shared.Classify(err).Retryable() {
		return false
	}
	return r.attempts[a.ID()] < r.policy.MaxAttempts
}

// delay spaces retries by the limiter, or by the server's Retry-After when longer.
func (r *Retrier) delay(err error) time.Duration {
	d := r.limiter.Reserve().Delay()

	var apiErr *services.APIError
	if errors.As(err, &apiErr) && apiErr.RetryAfter > d {
		d = apiErr.RetryAfter
	}
	return d
}

// Attempts returns how many retries have been scheduled for the request ID.
func (r *Retrier) Attempts(id string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.attempts[id]
}

// Stop cancels scheduled retries. Later failures are not retried.
func (r *Retrier) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.stopped = true
	for id, t := range r.timers {
		t.Stop()
		delete(r.timers, id)
	}
}
