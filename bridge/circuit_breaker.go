package bridge

import (
	"sync"
	"time"
)

// circuitBreaker is a lightweight in-memory circuit breaker guarding
// repeated calls into an external system (Postgres, DuckDB, S3) from
// one Bridge: once threshold failures land inside window, it stays
// open for openDuration before allowing another attempt through.
type circuitBreaker struct {
	mu           sync.Mutex
	failures     []time.Time
	threshold    int
	window       time.Duration
	openUntil    time.Time
	openDuration time.Duration
}

func newCircuitBreaker(threshold int, window, openDuration time.Duration) *circuitBreaker {
	return &circuitBreaker{
		threshold:    threshold,
		window:       window,
		openDuration: openDuration,
		failures:     make([]time.Time, 0, threshold),
	}
}

func (cb *circuitBreaker) recordFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	now := time.Now()
	cutoff := now.Add(-cb.window)
	i := 0
	for ; i < len(cb.failures); i++ {
		if cb.failures[i].After(cutoff) {
			break
		}
	}
	if i > 0 {
		cb.failures = append([]time.Time{}, cb.failures[i:]...)
	}
	cb.failures = append(cb.failures, now)

	if len(cb.failures) >= cb.threshold {
		cb.openUntil = now.Add(cb.openDuration)
	}
}

func (cb *circuitBreaker) recordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.failures = cb.failures[:0]
	cb.openUntil = time.Time{}
}

func (cb *circuitBreaker) isOpen() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return time.Now().Before(cb.openUntil)
}

// guard runs op, recording the outcome against cb. When cb is already
// open it fails fast without calling op.
func guard(cb *circuitBreaker, op func() error) error {
	if cb.isOpen() {
		return errCircuitOpen
	}
	err := op()
	if err != nil {
		cb.recordFailure()
		return err
	}
	cb.recordSuccess()
	return nil
}
