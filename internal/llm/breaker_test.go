package llm

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heme-genetics-advisor/internal/domain"
)

type stubClient struct {
	calls int32
	err   error
}

func (s *stubClient) Provider() string { return "stub" }

func (s *stubClient) Generate(ctx context.Context, req *domain.ModelRequest) (*domain.ModelResponse, error) {
	atomic.AddInt32(&s.calls, 1)
	if s.err != nil {
		return nil, s.err
	}
	return &domain.ModelResponse{Text: "{}", Model: "stub-model"}, nil
}

func breakerConfig() domain.BreakerConfig {
	return domain.BreakerConfig{
		Enabled:      true,
		MaxRequests:  1,
		Timeout:      time.Minute,
		MinRequests:  2,
		FailureRatio: 0.5,
	}
}

func TestBreakerClient_PassesThrough(t *testing.T) {
	stub := &stubClient{}
	client := NewBreakerClient(stub, breakerConfig(), newTestLogger())

	resp, err := client.Generate(context.Background(), &domain.ModelRequest{})
	require.NoError(t, err)
	assert.Equal(t, "stub-model", resp.Model)
	assert.Equal(t, "stub", client.Provider())
	assert.Equal(t, gobreaker.StateClosed, client.State())
}

func TestBreakerClient_OpensAndFailsFast(t *testing.T) {
	stub := &stubClient{err: &domain.TransportError{Provider: "stub", Err: errors.New("unreachable")}}
	client := NewBreakerClient(stub, breakerConfig(), newTestLogger())
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := client.Generate(ctx, &domain.ModelRequest{})
		require.Error(t, err)
	}
	assert.Equal(t, gobreaker.StateOpen, client.State())

	_, err := client.Generate(ctx, &domain.ModelRequest{})
	var transportErr *domain.TransportError
	require.ErrorAs(t, err, &transportErr)
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, int32(2), atomic.LoadInt32(&stub.calls), "open breaker must not reach the provider")
}

func TestBreakerClient_CancellationDoesNotTrip(t *testing.T) {
	stub := &stubClient{err: context.Canceled}
	client := NewBreakerClient(stub, breakerConfig(), newTestLogger())

	for i := 0; i < 5; i++ {
		_, err := client.Generate(context.Background(), &domain.ModelRequest{})
		assert.ErrorIs(t, err, context.Canceled)
	}
	assert.Equal(t, gobreaker.StateClosed, client.State())
	assert.Equal(t, int32(5), atomic.LoadInt32(&stub.calls))
}
