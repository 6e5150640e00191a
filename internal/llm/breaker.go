package llm

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"

	"github.com/heme-genetics-advisor/internal/domain"
)

// BreakerClient fails fast while the wrapped provider keeps failing. It never
// retries a call.
type BreakerClient struct {
	next    domain.ModelClient
	breaker *gobreaker.CircuitBreaker
	logger  *logrus.Logger
}

// NewBreakerClient wraps next in a circuit breaker.
func NewBreakerClient(next domain.ModelClient, cfg domain.BreakerConfig, logger *logrus.Logger) *BreakerClient {
	minRequests := cfg.MinRequests
	if minRequests == 0 {
		minRequests = 3
	}
	failureRatio := cfg.FailureRatio
	if failureRatio <= 0 {
		failureRatio = 0.6
	}
	maxRequests := cfg.MaxRequests
	if maxRequests == 0 {
		maxRequests = 1
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	settings := gobreaker.Settings{
		Name:        next.Provider(),
		MaxRequests: maxRequests,
		Interval:    cfg.Interval,
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= minRequests && ratio >= failureRatio
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.WithFields(logrus.Fields{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("Model circuit breaker changed state")
		},
		// The caller giving up is not a provider failure.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
	}

	return &BreakerClient{
		next:    next,
		breaker: gobreaker.NewCircuitBreaker(settings),
		logger:  logger,
	}
}

// Provider implements domain.ModelClient.
func (b *BreakerClient) Provider() string {
	return b.next.Provider()
}

// State reports the breaker state, for health reporting.
func (b *BreakerClient) State() gobreaker.State {
	return b.breaker.State()
}

// Generate implements domain.ModelClient.
func (b *BreakerClient) Generate(ctx context.Context, req *domain.ModelRequest) (*domain.ModelResponse, error) {
	result, err := b.breaker.Execute(func() (interface{}, error) {
		return b.next.Generate(ctx, req)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			b.logger.WithField("provider", b.next.Provider()).Warn("Model call rejected by open circuit breaker")
			return nil, &domain.TransportError{Provider: b.next.Provider(), Err: err}
		}
		return nil, err
	}
	return result.(*domain.ModelResponse), nil
}
