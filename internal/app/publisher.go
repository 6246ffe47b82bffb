package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/abgdnv/gocart/pkg/config"
	"github.com/abgdnv/gocart/pkg/messaging"
	natsclient "github.com/abgdnv/gocart/pkg/nats"
)

// NewPublisher connects to NATS JetStream, makes sure the stream exists and returns a publisher
// guarded by retries and a circuit breaker. With NATS disabled it returns a no-op publisher.
// The returned close function drains the connection.
func NewPublisher(ctx context.Context, natsCfg config.NATSConfig, resilience config.ResilienceConfig, logger *slog.Logger) (messaging.Publisher, func(), error) {
	if !natsCfg.Enabled {
		logger.Info("NATS is disabled, events will not be published")
		return messaging.NoopPublisher{}, func() {}, nil
	}
	nc, err := natsclient.NewClient(natsCfg.Url, natsCfg.Timeout)
	if err != nil {
		return nil, nil, err
	}
	js, err := natsclient.NewJetStreamContext(nc)
	if err != nil {
		return nil, nil, err
	}
	if _, err := natsclient.EnsureStream(ctx, js, natsCfg.Stream, natsCfg.Subject); err != nil {
		nc.Close()
		return nil, nil, fmt.Errorf("failed to provision JetStream stream: %w", err)
	}
	logger.Info("Connected to NATS JetStream", "url", natsCfg.Url, "stream", natsCfg.Stream)

	closeFn := func() {
		if err := nc.Drain(); err != nil {
			logger.Error("Failed to drain NATS connection", "error", err)
		}
	}
	return messaging.NewBreakerPublisher(natsclient.NewNatsPublisher(js), resilience), closeFn, nil
}
