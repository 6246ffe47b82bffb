// Package store provides the persistence interface for products and carts.
package store

import (
	"context"

	"github.com/abgdnv/gocart/internal/model"
	"github.com/google/uuid"
)

// ProductStore is an interface for product storage operations.
type ProductStore interface {
	// FindProductByID retrieves a single product by its unique identifier.
	// Returns ErrProductNotFound if no product exists with the given ID.
	FindProductByID(ctx context.Context, id uuid.UUID) (*model.Product, error)

	// FindAllProducts returns all products ordered by title.
	// Returns an empty slice if no products exist.
	FindAllProducts(ctx context.Context) ([]model.Product, error)

	// SaveProduct inserts the product when its ID is nil, otherwise updates it.
	// Updates compare the product's Version with the stored one and return ErrOptimisticLock on mismatch,
	// or ErrProductNotFound if no product exists with the given ID.
	SaveProduct(ctx context.Context, product *model.Product) (*model.Product, error)

	// SaveAllProducts saves every product in order and stops at the first error.
	SaveAllProducts(ctx context.Context, products []model.Product) ([]model.Product, error)
}

// CartStore is an interface for cart storage operations.
type CartStore interface {
	// FindCartByID retrieves a cart with the current state of its products.
	// Returns ErrCartNotFound if no cart exists with the given ID.
	FindCartByID(ctx context.Context, id uuid.UUID) (*model.Cart, error)

	// SaveCart persists the cart and its product references. A cart with a nil ID gets one assigned.
	// Returns ErrCartNotFound when saving a cart that has been deleted.
	SaveCart(ctx context.Context, cart *model.Cart) (*model.Cart, error)

	// DeleteCart removes the cart.
	// Returns ErrCartNotFound if no cart exists with the given ID.
	DeleteCart(ctx context.Context, cart *model.Cart) error
}

// Store abstracts the underlying data store, allowing for different implementations (e.g., in-memory, database).
type Store interface {
	ProductStore
	CartStore

	// InTx runs fn as a single unit of work. Every write made through the Store passed to fn
	// is discarded if fn returns an error.
	InTx(ctx context.Context, fn func(tx Store) error) error
}
