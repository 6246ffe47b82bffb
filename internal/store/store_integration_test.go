package store

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	apperrors "github.com/abgdnv/gocart/internal/errors"
	"github.com/abgdnv/gocart/internal/model"
	"github.com/abgdnv/gocart/internal/store/migrations"
	"github.com/abgdnv/gocart/pkg/bootstrap"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

const skipIntegrationTests = "STOREFRONT_SKIP_INTEGRATION_TESTS"

// PgStoreSuite runs the PgStore against a PostgreSQL container.
type PgStoreSuite struct {
	suite.Suite
	pgContainer *postgres.PostgresContainer
	dbPool      *pgxpool.Pool
	store       *PgStore
	logger      *slog.Logger
	ctx         context.Context
}

func (s *PgStoreSuite) SetupSuite() {
	s.ctx = context.Background()
	var err error
	s.logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))

	// 1. Start a PostgreSQL container and wait until it accepts connections.
	s.pgContainer, err = postgres.Run(s.ctx,
		"postgres:17.5-alpine",
		postgres.WithDatabase("storefront"),
		postgres.WithUsername("user"),
		postgres.WithPassword("password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(5*time.Minute),
		),
		testcontainers.WithWaitStrategy(
			wait.ForListeningPort("5432/tcp"),
		),
	)
	require.NoError(s.T(), err, "Failed to run PostgreSQL container")

	connStr, err := s.pgContainer.ConnectionString(s.ctx, "sslmode=disable")
	require.NoError(s.T(), err, "Failed to get connection string from container")

	// 2. Connect, retrying while the server finishes starting.
	s.dbPool, err = pgxpool.New(s.ctx, connStr)
	require.NoError(s.T(), err, "Failed to create pgxpool")
	for i := range 10 {
		s.logger.Info("Pinging PostgreSQL database", "attempt", i+1)
		err = s.dbPool.Ping(s.ctx)
		if err == nil {
			break
		}
		time.Sleep(time.Second * 2)
	}
	require.NoError(s.T(), err, "Failed to connect to PostgreSQL after retries")

	// 3. Apply the embedded migrations.
	require.NoError(s.T(), bootstrap.Migrate(migrations.FS, connStr), "Failed to apply migrations")

	s.store = NewPgStore(s.dbPool)
}

func (s *PgStoreSuite) TearDownSuite() {
	if s.dbPool != nil {
		s.dbPool.Close()
	}
	if s.pgContainer != nil {
		if err := s.pgContainer.Terminate(s.ctx); err != nil {
			s.logger.Warn("failed to terminate PostgreSQL container", "error", err)
		}
	}
}

// SetupTest empties every table before each test.
func (s *PgStoreSuite) SetupTest() {
	_, err := s.dbPool.Exec(s.ctx, "TRUNCATE TABLE cart_items, carts, products CASCADE")
	require.NoError(s.T(), err, "Failed to truncate tables")
}

func TestPgStoreIntegration(t *testing.T) {
	if os.Getenv(skipIntegrationTests) == "1" {
		t.Skip("Skipping integration tests based on " + skipIntegrationTests + " env var")
	}
	suite.Run(t, new(PgStoreSuite))
}

func (s *PgStoreSuite) createProduct(title, price string, inventory int32) *model.Product {
	s.T().Helper()
	p, err := s.store.SaveProduct(s.ctx, &model.Product{
		Title:          title,
		Price:          decimal.RequireFromString(price),
		InventoryCount: inventory,
	})
	require.NoError(s.T(), err)
	return p
}

func (s *PgStoreSuite) TestSaveProduct_Insert() {
	// when
	p := s.createProduct("Desk Lamp", "19.99", 3)

	// then
	s.NotEqual(uuid.Nil, p.ID)
	s.Equal(int32(1), p.Version)

	found, err := s.store.FindProductByID(s.ctx, p.ID)
	s.Require().NoError(err)
	s.Equal("Desk Lamp", found.Title)
	s.True(decimal.RequireFromString("19.99").Equal(found.Price))
	s.Equal(int32(3), found.InventoryCount)
}

func (s *PgStoreSuite) TestFindProductByID_NotFound() {
	// when
	_, err := s.store.FindProductByID(s.ctx, uuid.New())

	// then
	s.ErrorIs(err, apperrors.ErrProductNotFound)
}

func (s *PgStoreSuite) TestFindAllProducts_OrderedByTitle() {
	// given
	s.createProduct("Zebra Plush", "5.00", 1)
	s.createProduct("Anvil", "150.00", 2)

	// when
	products, err := s.store.FindAllProducts(s.ctx)

	// then
	s.Require().NoError(err)
	s.Require().Len(products, 2)
	s.Equal("Anvil", products[0].Title)
	s.Equal("Zebra Plush", products[1].Title)
}

func (s *PgStoreSuite) TestSaveProduct_Update() {
	testCases := []struct {
		name        string
		mutate      func(p *model.Product)
		expectedErr error
	}{
		{
			name:   "current version",
			mutate: func(p *model.Product) { p.InventoryCount = 7 },
		},
		{
			name:        "stale version",
			mutate:      func(p *model.Product) { p.Version = 42 },
			expectedErr: apperrors.ErrOptimisticLock,
		},
		{
			name:        "unknown product",
			mutate:      func(p *model.Product) { p.ID = uuid.New() },
			expectedErr: apperrors.ErrProductNotFound,
		},
	}
	for _, tc := range testCases {
		s.Run(tc.name, func() {
			s.SetupTest()
			// given
			p := s.createProduct("Notebook", "3.50", 10)
			tc.mutate(p)

			// when
			saved, err := s.store.SaveProduct(s.ctx, p)

			// then
			if tc.expectedErr != nil {
				s.ErrorIs(err, tc.expectedErr)
				return
			}
			s.Require().NoError(err)
			s.Equal(int32(7), saved.InventoryCount)
			s.Equal(int32(2), saved.Version)
		})
	}
}

func (s *PgStoreSuite) TestConcurrentUpdate_OptimisticLock() {
	// given
	p := s.createProduct("Last Ticket", "99.00", 1)
	first, err := s.store.FindProductByID(s.ctx, p.ID)
	s.Require().NoError(err)
	second, err := s.store.FindProductByID(s.ctx, p.ID)
	s.Require().NoError(err)

	// when
	s.Require().NoError(first.Buy())
	_, firstErr := s.store.SaveProduct(s.ctx, first)
	s.Require().NoError(second.Buy())
	_, secondErr := s.store.SaveProduct(s.ctx, second)

	// then
	s.NoError(firstErr)
	s.ErrorIs(secondErr, apperrors.ErrOptimisticLock)
	stored, err := s.store.FindProductByID(s.ctx, p.ID)
	s.Require().NoError(err)
	s.Equal(int32(0), stored.InventoryCount)
}

func (s *PgStoreSuite) TestCartLifecycle() {
	// given
	lamp := s.createProduct("Lamp", "10.50", 5)
	mug := s.createProduct("Mug", "4.25", 5)
	cart := model.NewCart()
	s.Require().NoError(cart.AddProduct(*lamp))
	s.Require().NoError(cart.AddProduct(*mug))

	// when
	saved, err := s.store.SaveCart(s.ctx, cart)

	// then
	s.Require().NoError(err)
	s.NotEqual(uuid.Nil, saved.ID)
	s.True(decimal.RequireFromString("14.75").Equal(saved.TotalCost()))

	found, err := s.store.FindCartByID(s.ctx, saved.ID)
	s.Require().NoError(err)
	products := found.Products()
	s.Require().Len(products, 2)
	s.Equal(lamp.ID, products[0].ID)
	s.Equal(mug.ID, products[1].ID)

	// when the first product is removed and the cart saved again
	s.Require().NoError(found.RemoveProduct(*lamp))
	updated, err := s.store.SaveCart(s.ctx, found)

	// then
	s.Require().NoError(err)
	s.Require().Len(updated.Products(), 1)
	s.Equal(mug.ID, updated.Products()[0].ID)
	s.True(decimal.RequireFromString("4.25").Equal(updated.TotalCost()))

	// when
	s.Require().NoError(s.store.DeleteCart(s.ctx, updated))

	// then
	_, err = s.store.FindCartByID(s.ctx, updated.ID)
	s.ErrorIs(err, apperrors.ErrCartNotFound)
	s.ErrorIs(s.store.DeleteCart(s.ctx, updated), apperrors.ErrCartNotFound)
	_, err = s.store.SaveCart(s.ctx, updated)
	s.ErrorIs(err, apperrors.ErrCartNotFound)
}

func (s *PgStoreSuite) TestFindCartByID_ReflectsCurrentProductState() {
	// given
	p := s.createProduct("Kettle", "30.00", 2)
	cart := model.NewCart()
	s.Require().NoError(cart.AddProduct(*p))
	saved, err := s.store.SaveCart(s.ctx, cart)
	s.Require().NoError(err)
	s.Require().NoError(p.Buy())
	_, err = s.store.SaveProduct(s.ctx, p)
	s.Require().NoError(err)

	// when
	found, err := s.store.FindCartByID(s.ctx, saved.ID)

	// then
	s.Require().NoError(err)
	s.Equal(int32(1), found.Products()[0].InventoryCount)
}

func (s *PgStoreSuite) TestInTx_RollbackOnError() {
	// given
	p := s.createProduct("Chair", "45.00", 1)
	errBoom := errors.New("boom")

	// when
	err := s.store.InTx(s.ctx, func(tx Store) error {
		product, err := tx.FindProductByID(s.ctx, p.ID)
		if err != nil {
			return err
		}
		if err := product.Buy(); err != nil {
			return err
		}
		if _, err := tx.SaveProduct(s.ctx, product); err != nil {
			return err
		}
		if _, err := tx.SaveCart(s.ctx, model.NewCart()); err != nil {
			return err
		}
		return errBoom
	})

	// then
	s.ErrorIs(err, errBoom)
	stored, err := s.store.FindProductByID(s.ctx, p.ID)
	s.Require().NoError(err)
	s.Equal(int32(1), stored.InventoryCount)
	s.Equal(int32(1), stored.Version)

	var carts int
	s.Require().NoError(s.dbPool.QueryRow(s.ctx, "SELECT count(*) FROM carts").Scan(&carts))
	s.Zero(carts)
}

func (s *PgStoreSuite) TestInTx_Commit() {
	// given
	a := s.createProduct("Pen", "1.20", 4)
	b := s.createProduct("Pencil", "0.80", 4)

	// when
	err := s.store.InTx(s.ctx, func(tx Store) error {
		products := []model.Product{*a, *b}
		for i := range products {
			if err := products[i].Buy(); err != nil {
				return err
			}
		}
		_, err := tx.SaveAllProducts(s.ctx, products)
		return err
	})

	// then
	s.Require().NoError(err)
	all, err := s.store.FindAllProducts(s.ctx)
	s.Require().NoError(err)
	for _, p := range all {
		assert.Equal(s.T(), int32(3), p.InventoryCount, p.Title)
		assert.Equal(s.T(), int32(2), p.Version, p.Title)
	}
}
