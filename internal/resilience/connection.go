package resilience

import (
	"sync"
	"time"

	"github.com/yanun0323/logs"
)

// ConnState is the state of the connection breaker.
type ConnState uint8

const (
	ConnClosed ConnState = iota
	ConnOpen
	ConnHalfOpen
)

func (s ConnState) String() string {
	switch s {
	case ConnClosed:
		return "closed"
	case ConnOpen:
		return "open"
	case ConnHalfOpen:
		return "half_open"
	default:
		return "unknown"
	}
}

// ConnBreakerConfig configures the connection breaker.
type ConnBreakerConfig struct {
	Name             string
	FailureThreshold int
	SuccessThreshold int
	Timeout          time.Duration
}

func (c ConnBreakerConfig) withDefaults() ConnBreakerConfig {
	if c.FailureThreshold <= 0 {
		c.FailureThreshold = 5
	}
	if c.SuccessThreshold <= 0 {
		c.SuccessThreshold = 2
	}
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	return c
}

// ConnBreaker guards calls to an unreliable collaborator such as the
// resync endpoint. Failures open it, a timeout admits a half-open
// probe, and enough successes close it again. Safe for concurrent use.
type ConnBreaker struct {
	cfg ConnBreakerConfig
	mu  sync.Mutex

	state        ConnState
	failureCount int
	successCount int
	lastFailure  time.Time
}

// NewConnBreaker creates a closed breaker.
func NewConnBreaker(cfg ConnBreakerConfig) *ConnBreaker {
	return &ConnBreaker{cfg: cfg.withDefaults()}
}

// Allow reports whether a call may proceed.
func (b *ConnBreaker) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case ConnClosed:
		return true
	case ConnOpen:
		if time.Since(b.lastFailure) > b.cfg.Timeout {
			b.state = ConnHalfOpen
			b.successCount = 0
			logs.Infof("conn breaker half-open, name: %s", b.cfg.Name)
			return true
		}
		return false
	case ConnHalfOpen:
		return true
	default:
		return false
	}
}

// RecordSuccess records a successful call.
func (b *ConnBreaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case ConnClosed:
		b.failureCount = 0
	case ConnHalfOpen:
		b.successCount++
		if b.successCount >= b.cfg.SuccessThreshold {
			b.state = ConnClosed
			b.failureCount = 0
			b.successCount = 0
			logs.Infof("conn breaker closed, name: %s", b.cfg.Name)
		}
	}
}

// RecordFailure records a failed call.
func (b *ConnBreaker) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.lastFailure = time.Now()

	switch b.state {
	case ConnClosed:
		b.failureCount++
		if b.failureCount >= b.cfg.FailureThreshold {
			b.state = ConnOpen
			logs.Warnf("conn breaker open, name: %s, failures: %d", b.cfg.Name, b.failureCount)
		}
	case ConnHalfOpen:
		b.state = ConnOpen
		b.successCount = 0
		logs.Warnf("conn breaker open, name: %s, half-open probe failed", b.cfg.Name)
	}
}

// State returns the current state.
func (b *ConnBreaker) State() ConnState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Reset forces the breaker closed.
func (b *ConnBreaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state = ConnClosed
	b.failureCount = 0
	b.successCount = 0
}
