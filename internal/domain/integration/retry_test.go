package integration

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetryPolicy_SucceedsAfterTransientFailures(t *testing.T) {
	policy := RetryPolicy{MaxAttempts: 3, BaseDelay: time.Millisecond}
	calls := 0

	err := policy.Do(context.Background(), func() error {
		calls++
		if calls < 3 {
			return ErrGatewayUnavailable
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetryPolicy_ExhaustsAttempts(t *testing.T) {
	policy := RetryPolicy{MaxAttempts: 3, BaseDelay: time.Millisecond}
	calls := 0

	err := policy.Do(context.Background(), func() error {
		calls++
		return ErrGatewayUnavailable
	})

	assert.ErrorIs(t, err, ErrGatewayUnavailable)
	assert.Equal(t, 3, calls)
}

func TestRetryPolicy_NeverRetriesRejections(t *testing.T) {
	policy := RetryPolicy{MaxAttempts: 5, BaseDelay: time.Millisecond}
	calls := 0
	rejection := &RejectionError{Endpoint: "/merchants", Status: 422, Body: `{"error":"bad"}`}

	err := policy.Do(context.Background(), func() error {
		calls++
		return rejection
	})

	assert.ErrorIs(t, err, ErrGatewayRejected)
	assert.Equal(t, 1, calls)
}

func TestRetryPolicy_RespectsContextCancellation(t *testing.T) {
	policy := RetryPolicy{MaxAttempts: 10, BaseDelay: 50 * time.Millisecond}
	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	err := policy.Do(ctx, func() error {
		calls++
		return ErrGatewayUnavailable
	})

	assert.ErrorIs(t, err, context.Canceled)
}

func TestRejectionError_CarriesDiagnostics(t *testing.T) {
	err := &RejectionError{Endpoint: "/api/v1/products", Status: 400, Body: "missing code"}

	assert.Contains(t, err.Error(), "/api/v1/products")
	assert.Contains(t, err.Error(), "400")
	assert.Contains(t, err.Error(), "missing code")
	assert.True(t, errors.Is(err, ErrGatewayRejected))
}
