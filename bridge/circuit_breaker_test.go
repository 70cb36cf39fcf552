package bridge

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCircuitBreakerOpensAfterThreshold(t *testing.T) {
	cb := newCircuitBreaker(3, time.Minute, time.Minute)
	failing := func() error { return errors.New("boom") }

	for i := 0; i < 2; i++ {
		assert.Error(t, guard(cb, failing))
		assert.False(t, cb.isOpen(), "breaker should stay closed before threshold is reached")
	}
	assert.Error(t, guard(cb, failing))
	assert.True(t, cb.isOpen(), "breaker should open once threshold failures land inside the window")

	err := guard(cb, func() error { return nil })
	assert.ErrorIs(t, err, errCircuitOpen, "an open breaker must fail fast without calling op")
}

func TestCircuitBreakerResetsOnSuccess(t *testing.T) {
	cb := newCircuitBreaker(2, time.Minute, time.Minute)
	assert.Error(t, guard(cb, func() error { return errors.New("boom") }))
	assert.NoError(t, guard(cb, func() error { return nil }))
	assert.False(t, cb.isOpen())

	// Failure history was cleared by the success, so one more failure
	// alone must not trip the breaker again.
	assert.Error(t, guard(cb, func() error { return errors.New("boom") }))
	assert.False(t, cb.isOpen())
}
