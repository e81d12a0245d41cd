package reindex

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetryWithBackoff(t *testing.T) {
	errTemporary := errors.New("temporary")

	tests := []struct {
		name         string
		failures     int
		maxAttempts  int
		wantErr      error
		wantAttempts int
	}{
		{"first try", 0, 3, nil, 1},
		{"eventual success", 2, 5, nil, 3},
		{"all attempts fail", 10, 3, errTemporary, 3},
		{"zero attempts", 0, 0, ErrInvalidMaxAttempts, 0},
		{"negative attempts", 0, -1, ErrInvalidMaxAttempts, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			attempts := 0
			err := RetryWithBackoff(context.Background(), nil, func() error {
				attempts++
				if attempts <= tt.failures {
					return errTemporary
				}
				return nil
			}, tt.maxAttempts, time.Millisecond)

			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
			assert.Equal(t, tt.wantAttempts, attempts)
		})
	}
}

func TestRetryWithBackoff_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	attempts := 0

	err := RetryWithBackoff(ctx, nil, func() error {
		attempts++
		if attempts == 2 {
			cancel()
		}
		return errors.New("error")
	}, 10, time.Millisecond)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 2, attempts)
}

func TestRetryWithBackoff_DelayDoubles(t *testing.T) {
	var stamps []time.Time

	err := RetryWithBackoff(context.Background(), nil, func() error {
		stamps = append(stamps, time.Now())
		if len(stamps) < 4 {
			return errors.New("error")
		}
		return nil
	}, 5, 10*time.Millisecond)
	require.NoError(t, err)
	require.Len(t, stamps, 4)

	for i, want := range []time.Duration{10, 20, 40} {
		assert.GreaterOrEqual(t, stamps[i+1].Sub(stamps[i]), want*time.Millisecond, "delay %d", i)
	}
}
