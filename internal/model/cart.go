package model

import (
	"slices"

	apperrors "github.com/abgdnv/gocart/internal/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Cart is a collection of products with a running total.
// The total is only changed by AddProduct and RemoveProduct, together with the product list.
type Cart struct {
	ID        uuid.UUID
	products  []Product
	totalCost decimal.Decimal
}

// NewCart returns an empty, not yet persisted cart.
func NewCart() *Cart {
	return &Cart{
		products:  []Product{},
		totalCost: decimal.Zero,
	}
}

// RestoreCart rebuilds a persisted cart from its stored products.
// It is meant for store implementations; the total is derived from the product prices.
func RestoreCart(id uuid.UUID, products []Product) *Cart {
	c := &Cart{
		ID:        id,
		products:  make([]Product, 0, len(products)),
		totalCost: decimal.Zero,
	}
	for _, p := range products {
		c.products = append(c.products, p)
		c.totalCost = c.totalCost.Add(p.Price)
	}
	return c
}

// Products returns a copy of the products in the cart, in insertion order.
func (c *Cart) Products() []Product {
	return slices.Clone(c.products)
}

// TotalCost is the sum of the prices of all products in the cart.
func (c *Cart) TotalCost() decimal.Decimal {
	return c.totalCost
}

// Contains reports whether a product with the given id is in the cart.
func (c *Cart) Contains(productID uuid.UUID) bool {
	return c.indexOf(productID) >= 0
}

// AddProduct appends the product and adds its price to the total.
// Returns ErrDuplicateProduct if a product with the same id is already present.
func (c *Cart) AddProduct(product Product) error {
	if c.Contains(product.ID) {
		return apperrors.ErrDuplicateProduct
	}
	c.products = append(c.products, product)
	c.totalCost = c.totalCost.Add(product.Price)
	return nil
}

// RemoveProduct removes one occurrence of the product and subtracts its price from the total.
// Returns ErrProductNotInCart if the product is not present.
func (c *Cart) RemoveProduct(product Product) error {
	i := c.indexOf(product.ID)
	if i < 0 {
		return apperrors.ErrProductNotInCart
	}
	removed := c.products[i]
	c.products = slices.Delete(c.products, i, i+1)
	c.totalCost = c.totalCost.Sub(removed.Price)
	return nil
}

// Equal compares carts by identity only.
func (c *Cart) Equal(other *Cart) bool {
	if c == nil || other == nil {
		return c == other
	}
	return c.ID == other.ID
}

func (c *Cart) indexOf(productID uuid.UUID) int {
	return slices.IndexFunc(c.products, func(p Product) bool {
		return p.ID == productID
	})
}
