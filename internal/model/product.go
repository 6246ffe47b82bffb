// Package model holds the cart and product entities together with the rules that keep them consistent.
package model

import (
	apperrors "github.com/abgdnv/gocart/internal/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product is a sellable catalog item.
// Version is maintained by the store and used for optimistic concurrency control.
type Product struct {
	ID             uuid.UUID
	Title          string
	Price          decimal.Decimal
	InventoryCount int32
	Version        int32
}

// InStock reports whether at least one unit can still be bought.
func (p *Product) InStock() bool {
	return p.InventoryCount > 0
}

// Buy takes one unit out of inventory.
// Returns ErrOutOfStock and leaves the count untouched when nothing is left.
func (p *Product) Buy() error {
	if p.InventoryCount <= 0 {
		return apperrors.ErrOutOfStock
	}
	p.InventoryCount--
	return nil
}

// Equal compares products by identity only.
func (p Product) Equal(other Product) bool {
	return p.ID == other.ID
}
