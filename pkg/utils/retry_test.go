package utils_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/robalyx/keeper/pkg/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errFlaky = errors.New("flaky")

func fastOptions() utils.RetryOptions {
	return utils.RetryOptions{
		MaxElapsedTime:  time.Second,
		InitialInterval: time.Millisecond,
		MaxInterval:     2 * time.Millisecond,
		MaxRetries:      3,
	}
}

func TestWithRetry(t *testing.T) {
	t.Parallel()

	t.Run("succeeds after transient failures", func(t *testing.T) {
		t.Parallel()

		attempts := 0
		got, err := utils.WithRetry(context.Background(), func() (int, error) {
			attempts++
			if attempts < 3 {
				return 0, errFlaky
			}
			return 42, nil
		}, fastOptions())

		require.NoError(t, err)
		assert.Equal(t, 42, got)
		assert.Equal(t, 3, attempts)
	})

	t.Run("gives up after max retries", func(t *testing.T) {
		t.Parallel()

		attempts := 0
		_, err := utils.WithRetry(context.Background(), func() (struct{}, error) {
			attempts++
			return struct{}{}, errFlaky
		}, fastOptions())

		require.ErrorIs(t, err, errFlaky)
		assert.Equal(t, 4, attempts)
	})

	t.Run("permanent error stops immediately", func(t *testing.T) {
		t.Parallel()

		attempts := 0
		_, err := utils.WithRetry(context.Background(), func() (struct{}, error) {
			attempts++
			return struct{}{}, backoff.Permanent(errFlaky)
		}, fastOptions())

		require.ErrorIs(t, err, errFlaky)
		assert.Equal(t, 1, attempts)
	})
}
