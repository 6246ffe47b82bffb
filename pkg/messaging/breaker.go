package messaging

import (
	"context"
	"fmt"
	"time"

	"github.com/abgdnv/gocart/pkg/config"
	"github.com/sony/gobreaker/v2"
)

// BreakerPublisher retries a failing publish with exponential backoff and stops calling the
// underlying publisher altogether while the circuit is open.
type BreakerPublisher struct {
	next  Publisher
	retry config.RetryConfig
	cb    *gobreaker.CircuitBreaker[struct{}]
}

// NewBreakerPublisher wraps next with retry and circuit breaker protection.
func NewBreakerPublisher(next Publisher, cfg config.ResilienceConfig) *BreakerPublisher {
	cbCfg := cfg.CircuitBreaker
	name := cbCfg.Name
	if name == "" {
		name = "event-publisher-cb"
	}
	st := gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     cbCfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			total := counts.TotalSuccesses + counts.TotalFailures
			return counts.ConsecutiveFailures >= cbCfg.ConsecutiveFailures ||
				(total > cbCfg.ConsecutiveFailures &&
					float64(counts.TotalFailures)/float64(total)*100 > float64(cbCfg.ErrorRatePercent))
		},
	}
	return &BreakerPublisher{
		next:  next,
		retry: cfg.Retry,
		cb:    gobreaker.NewCircuitBreaker[struct{}](st),
	}
}

// Publish delivers event through the breaker. gobreaker.ErrOpenState is returned while the circuit is open.
func (p *BreakerPublisher) Publish(ctx context.Context, event Event) error {
	_, err := p.cb.Execute(func() (struct{}, error) {
		return struct{}{}, p.publishWithRetry(ctx, event)
	})
	return err
}

// State reports the current circuit state.
func (p *BreakerPublisher) State() gobreaker.State {
	return p.cb.State()
}

func (p *BreakerPublisher) publishWithRetry(ctx context.Context, event Event) error {
	attempts := max(p.retry.MaxAttempts, 1)
	backoff := p.retry.InitialBackoff
	var err error
	for attempt := uint(1); ; attempt++ {
		if err = p.next.Publish(ctx, event); err == nil {
			return nil
		}
		if attempt >= attempts {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}
	return fmt.Errorf("publish %s failed after %d attempts: %w", event.Subject(), attempts, err)
}
