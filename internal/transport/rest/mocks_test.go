package rest

import (
	"context"
	"io"
	"log/slog"

	"github.com/abgdnv/gocart/internal/model"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

type mockProductService struct {
	mock.Mock
}

func (m *mockProductService) products(args mock.Arguments) ([]model.Product, error) {
	products, _ := args.Get(0).([]model.Product)
	return products, args.Error(1)
}

func (m *mockProductService) GetAllProducts(ctx context.Context) ([]model.Product, error) {
	return m.products(m.Called(ctx))
}

func (m *mockProductService) GetInStockProducts(ctx context.Context) ([]model.Product, error) {
	return m.products(m.Called(ctx))
}

func (m *mockProductService) GetProductsByTitle(ctx context.Context, title string) ([]model.Product, error) {
	return m.products(m.Called(ctx, title))
}

func (m *mockProductService) GetProductByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	args := m.Called(ctx, id)
	product, _ := args.Get(0).(*model.Product)
	return product, args.Error(1)
}

type mockCartService struct {
	mock.Mock
}

func (m *mockCartService) cart(args mock.Arguments) (*model.Cart, error) {
	cart, _ := args.Get(0).(*model.Cart)
	return cart, args.Error(1)
}

func (m *mockCartService) ViewCart(ctx context.Context, cartID uuid.UUID) (*model.Cart, error) {
	return m.cart(m.Called(ctx, cartID))
}

func (m *mockCartService) CreateCart(ctx context.Context, productIDs []uuid.UUID) (*model.Cart, error) {
	return m.cart(m.Called(ctx, productIDs))
}

func (m *mockCartService) AddProductToCart(ctx context.Context, cartID, productID uuid.UUID) (*model.Cart, error) {
	return m.cart(m.Called(ctx, cartID, productID))
}

func (m *mockCartService) RemoveProductFromCart(ctx context.Context, cartID, productID uuid.UUID) (*model.Cart, error) {
	return m.cart(m.Called(ctx, cartID, productID))
}

func (m *mockCartService) CompleteCartPurchase(ctx context.Context, cartID uuid.UUID) error {
	return m.Called(ctx, cartID).Error(0)
}

var (
	appleID  = uuid.MustParse("00000000-0000-0000-0000-00000000000a")
	bananaID = uuid.MustParse("00000000-0000-0000-0000-00000000000b")
	cartID   = uuid.MustParse("00000000-0000-0000-0000-0000000000c1")
)

func apple() model.Product {
	return model.Product{ID: appleID, Title: "Apple", Price: decimal.RequireFromString("1"), InventoryCount: 2, Version: 1}
}

func banana() model.Product {
	return model.Product{ID: bananaID, Title: "Banana", Price: decimal.RequireFromString("2.5"), InventoryCount: 0, Version: 3}
}

const appleJSON = `{"id":"00000000-0000-0000-0000-00000000000a","title":"Apple","price":"1.00","inventory_count":2,"version":1}`
const bananaJSON = `{"id":"00000000-0000-0000-0000-00000000000b","title":"Banana","price":"2.50","inventory_count":0,"version":3}`
