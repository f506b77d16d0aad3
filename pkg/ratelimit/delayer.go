package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Delayer pauses between network calls to stay under the Bot API rate limits
type Delayer interface {
	// Wait blocks for d, or until ctx is done
	Wait(ctx context.Context, d time.Duration) error
}

// TimerDelayer sleeps on a timer
type TimerDelayer struct{}

// NewTimerDelayer returns the Delayer used for real runs
func NewTimerDelayer() *TimerDelayer {
	return &TimerDelayer{}
}

// Wait blocks for d, or until ctx is done
func (TimerDelayer) Wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Recorder records requested pauses without sleeping
type Recorder struct {
	mu     sync.Mutex
	pauses []time.Duration
}

// NewRecorder creates an empty Recorder
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Wait records d and returns immediately
func (r *Recorder) Wait(ctx context.Context, d time.Duration) error {
	r.mu.Lock()
	r.pauses = append(r.pauses, d)
	r.mu.Unlock()
	return ctx.Err()
}

// Pauses returns every recorded pause in order
func (r *Recorder) Pauses() []time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]time.Duration, len(r.pauses))
	copy(out, r.pauses)
	return out
}
