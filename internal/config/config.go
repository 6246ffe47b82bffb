// Package config defines the storefront service configuration.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/abgdnv/gocart/pkg/config"
	"github.com/abgdnv/gocart/pkg/config/configloader"
	"github.com/shopspring/decimal"
)

var _ configloader.Validator = (*Config)(nil)

const (
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

type Config struct {
	HTTPServer config.HTTPConfig       `koanf:"server"`
	Database   config.DatabaseConfig   `koanf:"database"`
	Log        config.LogConfig        `koanf:"log"`
	PProf      config.PProfConfig      `koanf:"pprof"`
	GRPC       config.GrpcServerConfig `koanf:"grpc"`
	Shutdown   config.ShutdownConfig   `koanf:"shutdown"`
	NATS       config.NATSConfig       `koanf:"nats"`
	Resilience config.ResilienceConfig `koanf:"resilience"`
	Telemetry  config.TelemetryConfig  `koanf:"telemetry"`
	Store      StoreConfig             `koanf:"store"`
	Health     HealthConfig            `koanf:"health"`
	Catalog    CatalogConfig           `koanf:"catalog"`
}

// StoreConfig selects the persistence backend.
type StoreConfig struct {
	Backend string `koanf:"backend"`
}

// HealthConfig controls how often the gRPC health status is refreshed.
type HealthConfig struct {
	Interval time.Duration `koanf:"interval"`
}

// CatalogConfig lists products inserted on startup when the catalog is empty.
type CatalogConfig struct {
	Seed []ProductSeed `koanf:"seed"`
}

type ProductSeed struct {
	Title          string `koanf:"title"`
	Price          string `koanf:"price"`
	InventoryCount int32  `koanf:"inventory"`
}

func (c *Config) String() string {
	var b strings.Builder
	b.WriteString(c.HTTPServer.String())
	b.WriteString(c.Database.String())
	b.WriteString(c.GRPC.String())
	b.WriteString(c.Log.String())
	b.WriteString(c.PProf.String())
	b.WriteString(c.Shutdown.String())
	b.WriteString(c.NATS.String())
	b.WriteString(c.Resilience.String())
	b.WriteString(c.Telemetry.String())

	b.WriteString("\n--- Storefront ---\n")
	b.WriteString(fmt.Sprintf("  store.backend: %s\n", c.Store.Backend))
	b.WriteString(fmt.Sprintf("  health.interval: %s\n", c.Health.Interval))
	b.WriteString(fmt.Sprintf("  catalog.seed: %d products\n", len(c.Catalog.Seed)))
	return b.String()
}

// Validate checks if the configuration values are valid
func (c *Config) Validate() error {
	if err := c.HTTPServer.Validate(); err != nil {
		return err
	}
	switch c.Store.Backend {
	case BackendPostgres:
		if err := c.Database.Validate(); err != nil {
			return err
		}
	case BackendMemory:
	default:
		return fmt.Errorf("unknown store backend %q, expected %q or %q", c.Store.Backend, BackendPostgres, BackendMemory)
	}
	if err := c.Log.Validate(); err != nil {
		return err
	}
	if err := c.PProf.Validate(); err != nil {
		return err
	}
	if err := c.Shutdown.Validate(); err != nil {
		return err
	}
	if err := c.GRPC.Validate(); err != nil {
		return err
	}
	if err := c.NATS.Validate(); err != nil {
		return err
	}
	if c.NATS.Enabled {
		if err := c.Resilience.Validate(); err != nil {
			return err
		}
	}
	if err := c.Telemetry.Validate(); err != nil {
		return err
	}
	if c.Health.Interval <= 0 {
		return fmt.Errorf("health interval must be greater than 0")
	}
	for i, seed := range c.Catalog.Seed {
		if err := seed.Validate(); err != nil {
			return fmt.Errorf("catalog.seed[%d]: %w", i, err)
		}
	}
	return nil
}

func (s ProductSeed) Validate() error {
	if s.Title == "" {
		return fmt.Errorf("title is empty")
	}
	price, err := decimal.NewFromString(s.Price)
	if err != nil {
		return fmt.Errorf("invalid price %q: %w", s.Price, err)
	}
	if price.IsNegative() {
		return fmt.Errorf("price must not be negative")
	}
	if s.InventoryCount < 0 {
		return fmt.Errorf("inventory must not be negative")
	}
	return nil
}
