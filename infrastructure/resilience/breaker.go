package resilience

import (
	"errors"
	"sync"
	"time"

	"likeness.io/infrastructure/logger"
)

// ErrCircuitOpen is returned by Allow while the breaker is open and the
// cooldown has not elapsed. Callers must surface it as a transient
// service-unavailable condition, never as "no match".
var ErrCircuitOpen = errors.New("circuit breaker open")

type State string

const (
	StateClosed   State = "CLOSED"
	StateOpen     State = "OPEN"
	StateHalfOpen State = "HALF_OPEN"
)

// Breaker is a per-dependency circuit breaker. CLOSED until
// failureThreshold consecutive failures, then OPEN: calls fail fast until
// cooldown elapses, after which a single trial call is let through
// (HALF_OPEN). Trial success closes the circuit, trial failure re-opens it.
type Breaker struct {
	name             string
	failureThreshold int
	cooldown         time.Duration
	now              func() time.Time

	mutex         sync.Mutex
	state         State
	failures      int
	openedAt      time.Time
	trialInFlight bool
}

type BreakerOption func(*Breaker)

func WithFailureThreshold(n int) BreakerOption {
	return func(b *Breaker) { b.failureThreshold = n }
}

func WithCooldown(d time.Duration) BreakerOption {
	return func(b *Breaker) { b.cooldown = d }
}

// WithClock replaces the breaker's time source.
func WithClock(now func() time.Time) BreakerOption {
	return func(b *Breaker) { b.now = now }
}

func NewBreaker(name string, opts ...BreakerOption) *Breaker {
	b := &Breaker{
		name:             name,
		failureThreshold: 3,
		cooldown:         60 * time.Second,
		now:              time.Now,
		state:            StateClosed,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Breaker) Name() string { return b.name }

func (b *Breaker) State() State {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	return b.state
}

func (b *Breaker) IsOpen() bool {
	return b.State() == StateOpen
}

// Allow reports whether a call may proceed. While OPEN it fails fast with
// ErrCircuitOpen until the cooldown elapses; then exactly one caller is
// admitted as the HALF_OPEN trial.
func (b *Breaker) Allow() error {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	switch b.state {
	case StateClosed:
		return nil
	case StateOpen:
		if b.now().Sub(b.openedAt) < b.cooldown {
			return ErrCircuitOpen
		}
		b.state = StateHalfOpen
		b.trialInFlight = true
		logger.Info("circuit breaker half-open, admitting trial call", logger.LoggerOptions{
			Key:  "breaker",
			Data: b.name,
		})
		return nil
	case StateHalfOpen:
		if b.trialInFlight {
			return ErrCircuitOpen
		}
		b.trialInFlight = true
		return nil
	}
	return nil
}

func (b *Breaker) RecordSuccess() {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	b.failures = 0
	b.trialInFlight = false
	if b.state != StateClosed {
		logger.Info("circuit breaker closed", logger.LoggerOptions{
			Key:  "breaker",
			Data: b.name,
		})
	}
	b.state = StateClosed
}

func (b *Breaker) RecordFailure() {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	b.trialInFlight = false
	if b.state == StateHalfOpen {
		b.state = StateOpen
		b.openedAt = b.now()
		logger.Warning("circuit breaker re-opened after failed trial", logger.LoggerOptions{
			Key:  "breaker",
			Data: b.name,
		})
		return
	}

	b.failures++
	if b.state == StateClosed && b.failures >= b.failureThreshold {
		b.state = StateOpen
		b.openedAt = b.now()
		logger.Warning("circuit breaker opened", logger.LoggerOptions{
			Key:  "breaker",
			Data: b.name,
		}, logger.LoggerOptions{
			Key:  "consecutive_failures",
			Data: b.failures,
		})
	}
}

func (b *Breaker) Reset() {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	b.state = StateClosed
	b.failures = 0
	b.trialInFlight = false
}
