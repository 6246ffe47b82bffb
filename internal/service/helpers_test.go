package service

import (
	"context"
	"testing"

	"github.com/abgdnv/gocart/internal/model"
	"github.com/abgdnv/gocart/internal/store"
	"github.com/abgdnv/gocart/pkg/messaging"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// seed inserts a product into the memory store and returns it with its assigned ID.
func seed(t *testing.T, s *store.Memory, title, price string, inventory int32) model.Product {
	t.Helper()
	p, err := s.SaveProduct(context.Background(), &model.Product{
		Title:          title,
		Price:          decimal.RequireFromString(price),
		InventoryCount: inventory,
	})
	require.NoError(t, err)
	return *p
}

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(ctx context.Context, event messaging.Event) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

// failingProductStore returns err for every call.
type failingProductStore struct {
	err error
}

func (f failingProductStore) FindProductByID(context.Context, uuid.UUID) (*model.Product, error) {
	return nil, f.err
}
func (f failingProductStore) FindAllProducts(context.Context) ([]model.Product, error) {
	return nil, f.err
}
func (f failingProductStore) SaveProduct(context.Context, *model.Product) (*model.Product, error) {
	return nil, f.err
}
func (f failingProductStore) SaveAllProducts(context.Context, []model.Product) ([]model.Product, error) {
	return nil, f.err
}

func ids(products []model.Product) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(products))
	for _, p := range products {
		out = append(out, p.ID)
	}
	return out
}
