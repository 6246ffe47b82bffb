// Package events contains the payloads published by the storefront.
package events

import (
	"encoding/json"
	"time"

	"github.com/abgdnv/gocart/pkg/messaging"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CartPurchasedEvent is published after a cart purchase has been committed.
type CartPurchasedEvent struct {
	// Carrier holds the propagated trace context.
	Carrier     map[string]string `json:"carrier,omitempty"`
	CartID      uuid.UUID         `json:"cart_id"`
	ProductIDs  []uuid.UUID       `json:"product_ids"`
	TotalCost   decimal.Decimal   `json:"total_cost"`
	PurchasedAt time.Time         `json:"purchased_at"`
}

func (e CartPurchasedEvent) Subject() string {
	return messaging.CartsPurchasedSubject
}

func (e CartPurchasedEvent) Payload() ([]byte, error) {
	return json.Marshal(e)
}
