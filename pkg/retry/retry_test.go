package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func fastConfig(attempts int) Config {
	return Config{MaxAttempts: attempts, InitialDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond, BackoffFactor: 2}
}

func TestDo_SucceedsAfterFailures(t *testing.T) {
	calls := 0
	var retried []int

	err := Do(context.Background(), fastConfig(3), func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("connection refused")
		}
		return nil
	}, func(attempt int, err error, next time.Duration) {
		retried = append(retried, attempt)
	})

	assert.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []int{1, 2}, retried)
}

func TestDo_GivesUp(t *testing.T) {
	boom := errors.New("boom")
	calls := 0

	err := Do(context.Background(), fastConfig(2), func(ctx context.Context) error {
		calls++
		return boom
	}, nil)

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 2, calls)
}

func TestDo_StopsOnCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Do(ctx, fastConfig(5), func(ctx context.Context) error {
		t.Fatal("fn must not run with a canceled context")
		return nil
	}, nil)

	assert.ErrorIs(t, err, context.Canceled)
}
