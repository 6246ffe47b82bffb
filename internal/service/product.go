// Package service implements the catalog queries and the cart workflows on top of a store.Store.
package service

import (
	"context"
	"fmt"

	apperrors "github.com/abgdnv/gocart/internal/errors"
	"github.com/abgdnv/gocart/internal/model"
	"github.com/abgdnv/gocart/internal/store"
	"github.com/google/uuid"
)

// ProductService is the read-only catalog over the product store.
type ProductService struct {
	store store.ProductStore
}

// NewProductService creates a new instance of ProductService with the provided store.
func NewProductService(s store.ProductStore) *ProductService {
	return &ProductService{store: s}
}

// GetAllProducts returns every product in the catalog ordered by title.
func (s *ProductService) GetAllProducts(ctx context.Context) ([]model.Product, error) {
	products, err := s.store.FindAllProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch products: %w", err)
	}
	return products, nil
}

// GetInStockProducts returns the products that have at least one unit left.
func (s *ProductService) GetInStockProducts(ctx context.Context) ([]model.Product, error) {
	return s.filter(ctx, func(p *model.Product) bool {
		return p.InStock()
	})
}

// GetProductsByTitle returns the products whose title matches exactly.
// Returns ErrEmptyTitle without touching the store when title is empty.
func (s *ProductService) GetProductsByTitle(ctx context.Context, title string) ([]model.Product, error) {
	if title == "" {
		return nil, apperrors.ErrEmptyTitle
	}
	return s.filter(ctx, func(p *model.Product) bool {
		return p.Title == title
	})
}

// GetProductByID returns ErrProductNotFound if no product exists with the given ID.
func (s *ProductService) GetProductByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	product, err := s.store.FindProductByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch product %s: %w", id, err)
	}
	return product, nil
}

func (s *ProductService) filter(ctx context.Context, keep func(p *model.Product) bool) ([]model.Product, error) {
	all, err := s.GetAllProducts(ctx)
	if err != nil {
		return nil, err
	}
	filtered := make([]model.Product, 0, len(all))
	for i := range all {
		if keep(&all[i]) {
			filtered = append(filtered, all[i])
		}
	}
	return filtered, nil
}
