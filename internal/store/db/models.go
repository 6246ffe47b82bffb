package db

import (
	"time"

	"github.com/google/uuid"
)

// Product is a row of the products table. Price is the NUMERIC value rendered as text.
type Product struct {
	ID             uuid.UUID
	Title          string
	Price          string
	InventoryCount int32
	Version        int32
	CreatedAt      *time.Time
	UpdatedAt      *time.Time
}

// Cart is a row of the carts table.
type Cart struct {
	ID        uuid.UUID
	CreatedAt *time.Time
	UpdatedAt *time.Time
}

// CartItem is a row of cart_items joined with the product it references.
type CartItem struct {
	CartID   uuid.UUID
	Position int32
	Product  Product
}
