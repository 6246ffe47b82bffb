// Package app wires the storefront's stores, services and transports together.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/abgdnv/gocart/internal/config"
	"github.com/abgdnv/gocart/internal/model"
	"github.com/abgdnv/gocart/internal/service"
	"github.com/abgdnv/gocart/internal/store"
	grpctransport "github.com/abgdnv/gocart/internal/transport/grpc"
	"github.com/abgdnv/gocart/internal/transport/rest"
	"github.com/abgdnv/gocart/pkg/messaging"
	"github.com/abgdnv/gocart/pkg/server"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
	"google.golang.org/grpc"
)

const serviceName = "storefront"

type Dependencies struct {
	ProductService *service.ProductService
	CartService    *service.CartService
	Logger         *slog.Logger
}

// SetupDependencies builds the services on top of st. Events are sent through publisher.
func SetupDependencies(st store.Store, publisher messaging.Publisher, logger *slog.Logger) *Dependencies {
	return &Dependencies{
		ProductService: service.NewProductService(st),
		CartService:    service.NewCartService(st, publisher),
		Logger:         logger,
	}
}

// NewStore returns the backend selected by cfg. dbPool is only used by the postgres backend.
func NewStore(cfg config.StoreConfig, dbPool *pgxpool.Pool) store.Store {
	if cfg.Backend == config.BackendMemory {
		return store.NewMemoryStore()
	}
	return store.NewPgStore(dbPool)
}

// SeedCatalog inserts seeds when the catalog holds no products yet.
func SeedCatalog(ctx context.Context, st store.Store, seeds []config.ProductSeed, logger *slog.Logger) error {
	if len(seeds) == 0 {
		return nil
	}
	return st.InTx(ctx, func(tx store.Store) error {
		existing, err := tx.FindAllProducts(ctx)
		if err != nil {
			return fmt.Errorf("failed to read catalog: %w", err)
		}
		if len(existing) > 0 {
			logger.InfoContext(ctx, "Catalog already populated, skipping seed", "products", len(existing))
			return nil
		}
		products := make([]model.Product, 0, len(seeds))
		for _, seed := range seeds {
			price, err := decimal.NewFromString(seed.Price)
			if err != nil {
				return fmt.Errorf("invalid price for %s: %w", seed.Title, err)
			}
			products = append(products, model.Product{Title: seed.Title, Price: price, InventoryCount: seed.InventoryCount})
		}
		if _, err := tx.SaveAllProducts(ctx, products); err != nil {
			return fmt.Errorf("failed to seed catalog: %w", err)
		}
		logger.InfoContext(ctx, "Catalog seeded", "products", len(products))
		return nil
	})
}

// SetupHttpHandler initializes the routes and middleware of the storefront API.
// Used by E2E tests to set up the HTTP server with the necessary routes and middleware.
func SetupHttpHandler(deps *Dependencies, metricsEnabled bool) http.Handler {
	mux := server.NewChiRouter(deps.Logger)
	rest.RegisterRoutes(mux,
		rest.NewProductHandler(deps.ProductService, deps.Logger),
		rest.NewCartHandler(deps.CartService, deps.Logger),
	)
	if metricsEnabled {
		mux.Handle("/metrics", promhttp.Handler())
	}
	return server.Instrument(mux, serviceName)
}

// SetupHttpServer creates and configures an HTTP server for the storefront.
func SetupHttpServer(deps *Dependencies, cfg *config.Config) *http.Server {
	return server.NewHTTPServer(cfg.HTTPServer, SetupHttpHandler(deps, cfg.Telemetry.Metrics.Enabled))
}

// SetupGrpcServer initializes the gRPC server that exposes the health service.
func SetupGrpcServer(health *grpctransport.HealthReporter, logger *slog.Logger, reflectionEnabled bool) *grpc.Server {
	return server.NewGRPCServer(logger, reflectionEnabled, health.Register)
}
