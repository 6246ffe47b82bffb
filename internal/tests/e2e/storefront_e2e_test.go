// Package e2e provides end-to-end tests for the storefront API.
// The suite starts a PostgreSQL container with testcontainers-go, applies the embedded migrations,
// seeds a catalog and serves the real application handler from an httptest.Server.
//
// Each test starts from a freshly seeded catalog and covers:
//   - catalog listing, title lookup and in-stock filtering
//   - the cart lifecycle from creation to purchase
//   - domain errors mapped to HTTP status codes
//   - concurrent purchases of the last unit of a product
package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/abgdnv/gocart/internal/app"
	"github.com/abgdnv/gocart/internal/config"
	"github.com/abgdnv/gocart/internal/store"
	"github.com/abgdnv/gocart/internal/store/migrations"
	"github.com/abgdnv/gocart/internal/transport/rest"
	"github.com/abgdnv/gocart/pkg/bootstrap"
	"github.com/abgdnv/gocart/pkg/messaging"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// skipE2ETests is the environment variable that can be set to skip E2E tests.
const skipE2ETests = "STOREFRONT_SKIP_E2E_TESTS"

const (
	productsURL = "/api/v1/products"
	cartsURL    = "/api/v1/carts"
)

var catalogSeed = []config.ProductSeed{
	{Title: "Espresso Machine", Price: "249.00", InventoryCount: 2},
	{Title: "Milk Frother", Price: "35.50", InventoryCount: 10},
	{Title: "Grinder", Price: "120.25", InventoryCount: 1},
	{Title: "Descaler", Price: "9.99", InventoryCount: 0},
}

// StorefrontE2ESuite is a test suite for end-to-end tests of the storefront API.
type StorefrontE2ESuite struct {
	suite.Suite
	pgContainer *postgres.PostgresContainer
	dbPool      *pgxpool.Pool
	store       store.Store
	server      *httptest.Server
	httpClient  *http.Client
	logger      *slog.Logger
	ctx         context.Context
}

// SetupSuite starts PostgreSQL, applies migrations and serves the application handler.
func (s *StorefrontE2ESuite) SetupSuite() {
	s.ctx = context.Background()
	var err error
	s.logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))

	// 1. Start a PostgreSQL container with the specified configuration. Wait for the container to be ready.
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

	// 2. Get the connection string from the container
	connStr, err := s.pgContainer.ConnectionString(s.ctx, "sslmode=disable")
	require.NoError(s.T(), err, "Failed to get connection string from container")

	// 3. Connect and apply migrations
	s.dbPool, err = bootstrap.NewDbPool(s.ctx, connStr, 30*time.Second)
	require.NoError(s.T(), err, "Failed to connect to PostgreSQL")
	require.NoError(s.T(), bootstrap.Migrate(migrations.FS, connStr), "Failed to apply migrations")

	// 4. Build the application on top of the postgres store
	s.store = app.NewStore(config.StoreConfig{Backend: config.BackendPostgres}, s.dbPool)
	deps := app.SetupDependencies(s.store, messaging.NoopPublisher{}, s.logger)
	s.server = httptest.NewServer(app.SetupHttpHandler(deps, false))
	s.httpClient = s.server.Client()
	s.logger.Info("E2E test server started", "url", s.server.URL)
}

// TearDownSuite cleans up resources after all tests in the suite have run.
func (s *StorefrontE2ESuite) TearDownSuite() {
	if s.server != nil {
		s.server.Close()
	}
	if s.dbPool != nil {
		s.dbPool.Close()
	}
	if s.pgContainer != nil {
		if err := s.pgContainer.Terminate(s.ctx); err != nil {
			s.logger.Warn("Failed to terminate E2E PostgreSQL container", "error", err)
		}
	}
}

// SetupTest resets the database to the seeded catalog.
func (s *StorefrontE2ESuite) SetupTest() {
	_, err := s.dbPool.Exec(s.ctx, "TRUNCATE TABLE cart_items, carts, products CASCADE")
	require.NoError(s.T(), err, "Failed to truncate tables")
	require.NoError(s.T(), app.SeedCatalog(s.ctx, s.store, catalogSeed, s.logger), "Failed to seed catalog")
}

func TestStorefrontE2E(t *testing.T) {
	if os.Getenv(skipE2ETests) == "1" {
		t.Skip("Skipping E2E tests based on " + skipE2ETests + " env var")
	}
	suite.Run(t, new(StorefrontE2ESuite))
}

// --------------------------------------------------------------------------
// ---------- Helper methods for E2E tests ----------------------------------
// --------------------------------------------------------------------------

// productByTitle looks a seeded product up through the API.
func (s *StorefrontE2ESuite) productByTitle(title string) rest.ProductResponse {
	s.T().Helper()
	var products []rest.ProductResponse
	status := s.doJSON(http.MethodGet, productsURL+"?title="+url.QueryEscape(title), nil, &products)
	require.Equal(s.T(), http.StatusOK, status)
	require.Len(s.T(), products, 1, "expected exactly one product titled %q", title)
	return products[0]
}

func (s *StorefrontE2ESuite) createCart(productIDs ...uuid.UUID) rest.CartResponse {
	s.T().Helper()
	var cart rest.CartResponse
	status := s.doJSON(http.MethodPost, cartsURL, rest.CreateCartRequest{ProductIDs: productIDs}, &cart)
	require.Equal(s.T(), http.StatusCreated, status)
	return cart
}

func (s *StorefrontE2ESuite) cartPath(cartID uuid.UUID, suffix string) string {
	return cartsURL + "/" + cartID.String() + suffix
}

// doJSON sends payload as JSON and decodes a 2xx response body into out when out is not nil.
// Returns the HTTP status code.
func (s *StorefrontE2ESuite) doJSON(method, path string, payload, out any) int {
	s.T().Helper()
	body, status := s.doRequest(method, path, payload)
	if out != nil && status >= 200 && status < 300 {
		require.NoError(s.T(), json.Unmarshal(body, out), "Failed to decode response: %s", body)
	}
	return status
}

// doRequest makes an HTTP request and returns the response body and status code.
func (s *StorefrontE2ESuite) doRequest(method, path string, payload any) ([]byte, int) {
	s.T().Helper()
	var body io.Reader
	if payload != nil {
		payloadBytes, err := json.Marshal(payload)
		require.NoError(s.T(), err)
		body = bytes.NewBuffer(payloadBytes)
	}

	req, err := http.NewRequestWithContext(s.ctx, method, s.server.URL+path, body)
	require.NoError(s.T(), err, "Failed to create HTTP request")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.httpClient.Do(req)
	require.NoError(s.T(), err, "HTTP request failed")
	defer func() {
		require.NoError(s.T(), resp.Body.Close(), "Failed to close response body")
	}()

	bodyBytes, err := io.ReadAll(resp.Body)
	require.NoError(s.T(), err, "Failed to read response body")
	return bodyBytes, resp.StatusCode
}

// --------------------------------------------------------------
// ---------------------- E2E test methods ----------------------
// --------------------------------------------------------------

func (s *StorefrontE2ESuite) TestCatalog_E2E() {
	testCases := []struct {
		name          string
		query         string
		expectedCode  int
		expectedTitle []string
	}{
		{
			name:          "All products ordered by title",
			query:         "",
			expectedCode:  http.StatusOK,
			expectedTitle: []string{"Descaler", "Espresso Machine", "Grinder", "Milk Frother"},
		},
		{
			name:          "In stock only",
			query:         "?inStockOnly=true",
			expectedCode:  http.StatusOK,
			expectedTitle: []string{"Espresso Machine", "Grinder", "Milk Frother"},
		},
		{
			name:          "By title",
			query:         "?title=Grinder",
			expectedCode:  http.StatusOK,
			expectedTitle: []string{"Grinder"},
		},
		{
			name:          "By unknown title",
			query:         "?title=Teapot",
			expectedCode:  http.StatusOK,
			expectedTitle: []string{},
		},
		{
			name:         "Invalid inStockOnly",
			query:        "?inStockOnly=maybe",
			expectedCode: http.StatusBadRequest,
		},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			s.SetupTest()
			// when
			var products []rest.ProductResponse
			status := s.doJSON(http.MethodGet, productsURL+tc.query, nil, &products)

			// then
			s.Require().Equal(tc.expectedCode, status)
			if tc.expectedCode != http.StatusOK {
				return
			}
			titles := make([]string, 0, len(products))
			for _, p := range products {
				titles = append(titles, p.Title)
			}
			s.Equal(tc.expectedTitle, titles)
		})
	}
}

func (s *StorefrontE2ESuite) TestFindProductByID_E2E() {
	// given
	grinder := s.productByTitle("Grinder")

	// when
	var found rest.ProductResponse
	status := s.doJSON(http.MethodGet, productsURL+"/"+grinder.ID.String(), nil, &found)

	// then
	s.Require().Equal(http.StatusOK, status)
	s.Equal(grinder, found)
	s.Equal("120.25", found.Price)

	// unknown and malformed ids
	s.Equal(http.StatusNotFound, s.doJSON(http.MethodGet, productsURL+"/"+uuid.NewString(), nil, nil))
	s.Equal(http.StatusBadRequest, s.doJSON(http.MethodGet, productsURL+"/not-a-uuid", nil, nil))
}

func (s *StorefrontE2ESuite) TestCartLifecycle_E2E() {
	// given
	machine := s.productByTitle("Espresso Machine")
	frother := s.productByTitle("Milk Frother")

	// when a cart is created with one product and another is added
	cart := s.createCart(machine.ID)
	s.Require().Equal("249.00", cart.TotalCost)

	var updated rest.CartResponse
	status := s.doJSON(http.MethodPut, s.cartPath(cart.ID, "/products/"+frother.ID.String()), nil, &updated)

	// then
	s.Require().Equal(http.StatusOK, status)
	s.Require().Len(updated.Products, 2)
	s.Equal("284.50", updated.TotalCost)

	// when the purchase completes
	status = s.doJSON(http.MethodPut, s.cartPath(cart.ID, "/complete"), nil, nil)

	// then inventory is decremented and the cart is gone
	s.Require().Equal(http.StatusNoContent, status)
	s.Equal(int32(1), s.productByTitle("Espresso Machine").InventoryCount)
	s.Equal(int32(9), s.productByTitle("Milk Frother").InventoryCount)
	s.Equal(http.StatusNotFound, s.doJSON(http.MethodGet, s.cartPath(cart.ID, ""), nil, nil))
}

func (s *StorefrontE2ESuite) TestCartErrors_E2E() {
	testCases := []struct {
		name         string
		request      func(cart rest.CartResponse, machine, descaler rest.ProductResponse) (string, string)
		expectedCode int
	}{
		{
			name: "Add duplicate product",
			request: func(cart rest.CartResponse, machine, _ rest.ProductResponse) (string, string) {
				return http.MethodPut, s.cartPath(cart.ID, "/products/"+machine.ID.String())
			},
			expectedCode: http.StatusConflict,
		},
		{
			name: "Remove product not in cart",
			request: func(cart rest.CartResponse, _, descaler rest.ProductResponse) (string, string) {
				return http.MethodDelete, s.cartPath(cart.ID, "/products/"+descaler.ID.String())
			},
			expectedCode: http.StatusConflict,
		},
		{
			name: "Add unknown product",
			request: func(cart rest.CartResponse, _, _ rest.ProductResponse) (string, string) {
				return http.MethodPut, s.cartPath(cart.ID, "/products/"+uuid.NewString())
			},
			expectedCode: http.StatusNotFound,
		},
		{
			name: "Add to unknown cart",
			request: func(_ rest.CartResponse, machine, _ rest.ProductResponse) (string, string) {
				return http.MethodPut, s.cartPath(uuid.New(), "/products/"+machine.ID.String())
			},
			expectedCode: http.StatusNotFound,
		},
		{
			name: "Complete unknown cart",
			request: func(_ rest.CartResponse, _, _ rest.ProductResponse) (string, string) {
				return http.MethodPut, s.cartPath(uuid.New(), "/complete")
			},
			expectedCode: http.StatusNotFound,
		},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			s.SetupTest()
			// given
			machine := s.productByTitle("Espresso Machine")
			descaler := s.productByTitle("Descaler")
			cart := s.createCart(machine.ID)

			// when
			method, path := tc.request(cart, machine, descaler)
			status := s.doJSON(method, path, nil, nil)

			// then
			s.Equal(tc.expectedCode, status)
		})
	}
}

func (s *StorefrontE2ESuite) TestCompletePurchase_OutOfStock_E2E() {
	// given
	descaler := s.productByTitle("Descaler")
	frother := s.productByTitle("Milk Frother")
	cart := s.createCart(frother.ID, descaler.ID)

	// when
	status := s.doJSON(http.MethodPut, s.cartPath(cart.ID, "/complete"), nil, nil)

	// then nothing is bought and the cart survives
	s.Equal(http.StatusConflict, status)
	s.Equal(int32(10), s.productByTitle("Milk Frother").InventoryCount)
	s.Equal(http.StatusOK, s.doJSON(http.MethodGet, s.cartPath(cart.ID, ""), nil, nil))
}

func (s *StorefrontE2ESuite) TestConcurrentPurchaseOfLastUnit_E2E() {
	// given two carts holding the only grinder
	grinder := s.productByTitle("Grinder")
	carts := []rest.CartResponse{s.createCart(grinder.ID), s.createCart(grinder.ID)}

	// when both are completed at the same time
	statuses := make([]int, len(carts))
	var wg sync.WaitGroup
	for i, cart := range carts {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, statuses[i] = s.doRequest(http.MethodPut, s.cartPath(cart.ID, "/complete"), nil)
		}()
	}
	wg.Wait()

	// then exactly one purchase succeeds
	s.ElementsMatch([]int{http.StatusNoContent, http.StatusConflict}, statuses)
	s.Equal(int32(0), s.productByTitle("Grinder").InventoryCount)
}
