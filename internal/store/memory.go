package store

import (
	"context"
	"maps"
	"slices"
	"strings"
	"sync"

	apperrors "github.com/abgdnv/gocart/internal/errors"
	"github.com/abgdnv/gocart/internal/model"
	"github.com/google/uuid"
)

// Memory implements Store using in-memory maps.
// Carts keep references to product ids, so reads always see current product state.
type Memory struct {
	mu       sync.RWMutex
	products map[uuid.UUID]model.Product
	carts    map[uuid.UUID][]uuid.UUID
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *Memory {
	return &Memory{
		products: make(map[uuid.UUID]model.Product),
		carts:    make(map[uuid.UUID][]uuid.UUID),
	}
}

// FindProductByID retrieves a product by its ID.
func (s *Memory) FindProductByID(_ context.Context, id uuid.UUID) (*model.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.products[id]
	if !ok {
		return nil, apperrors.ErrProductNotFound
	}
	return &p, nil
}

// FindAllProducts retrieves all products ordered by title, then id.
func (s *Memory) FindAllProducts(_ context.Context) ([]model.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := slices.Collect(maps.Values(s.products))
	slices.SortFunc(list, func(a, b model.Product) int {
		if c := strings.Compare(a.Title, b.Title); c != 0 {
			return c
		}
		return strings.Compare(a.ID.String(), b.ID.String())
	})
	if list == nil {
		list = []model.Product{}
	}
	return list, nil
}

// SaveProduct inserts or updates a product.
func (s *Memory) SaveProduct(_ context.Context, product *model.Product) (*model.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	saved, err := s.saveProduct(*product)
	if err != nil {
		return nil, err
	}
	return &saved, nil
}

// SaveAllProducts saves the products in order, stopping at the first failure.
// Products saved before the failure stay saved; use InTx for all-or-nothing semantics.
func (s *Memory) SaveAllProducts(_ context.Context, products []model.Product) ([]model.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	saved := make([]model.Product, 0, len(products))
	for _, p := range products {
		sp, err := s.saveProduct(p)
		if err != nil {
			return nil, err
		}
		saved = append(saved, sp)
	}
	return saved, nil
}

// saveProduct must be called with the write lock held.
func (s *Memory) saveProduct(p model.Product) (model.Product, error) {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
		p.Version = 1
		s.products[p.ID] = p
		return p, nil
	}
	stored, ok := s.products[p.ID]
	if !ok {
		return model.Product{}, apperrors.ErrProductNotFound
	}
	if stored.Version != p.Version {
		return model.Product{}, apperrors.ErrOptimisticLock
	}
	p.Version++
	s.products[p.ID] = p
	return p, nil
}

// FindCartByID retrieves a cart by its ID.
func (s *Memory) FindCartByID(_ context.Context, id uuid.UUID) (*model.Cart, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.findCart(id)
}

// findCart must be called with at least the read lock held.
func (s *Memory) findCart(id uuid.UUID) (*model.Cart, error) {
	productIDs, ok := s.carts[id]
	if !ok {
		return nil, apperrors.ErrCartNotFound
	}
	products := make([]model.Product, 0, len(productIDs))
	for _, pid := range productIDs {
		if p, ok := s.products[pid]; ok {
			products = append(products, p)
		}
	}
	return model.RestoreCart(id, products), nil
}

// SaveCart stores the cart's product references, assigning an ID to new carts.
func (s *Memory) SaveCart(_ context.Context, cart *model.Cart) (*model.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := cart.ID
	if id == uuid.Nil {
		id = uuid.New()
	} else if _, ok := s.carts[id]; !ok {
		return nil, apperrors.ErrCartNotFound
	}
	products := cart.Products()
	productIDs := make([]uuid.UUID, 0, len(products))
	for _, p := range products {
		productIDs = append(productIDs, p.ID)
	}
	s.carts[id] = productIDs
	return s.findCart(id)
}

// DeleteCart removes a cart.
func (s *Memory) DeleteCart(_ context.Context, cart *model.Cart) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.carts[cart.ID]; !ok {
		return apperrors.ErrCartNotFound
	}
	delete(s.carts, cart.ID)
	return nil
}

// InTx runs fn against a snapshot of the store and publishes the snapshot only if fn succeeds.
// Other operations on the store wait until the transaction finishes.
func (s *Memory) InTx(_ context.Context, fn func(tx Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := &Memory{
		products: maps.Clone(s.products),
		carts:    make(map[uuid.UUID][]uuid.UUID, len(s.carts)),
	}
	for id, productIDs := range s.carts {
		snapshot.carts[id] = slices.Clone(productIDs)
	}

	if err := fn(snapshot); err != nil {
		return err
	}

	s.products = snapshot.products
	s.carts = snapshot.carts
	return nil
}
