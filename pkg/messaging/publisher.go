// Package messaging defines domain events and the publishers that deliver them to a broker.
package messaging

import (
	"context"
)

// CartsPurchasedSubject is the subject carrying CartPurchasedEvent.
const CartsPurchasedSubject = "carts.purchased"

type Event interface {
	Subject() string
	Payload() ([]byte, error)
}

type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// NoopPublisher drops every event. It is used when the broker is disabled.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, Event) error {
	return nil
}
