package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	apperrors "github.com/abgdnv/gocart/internal/errors"
	"github.com/abgdnv/gocart/internal/model"
	"github.com/abgdnv/gocart/internal/store"
	"github.com/abgdnv/gocart/pkg/messaging"
	"github.com/abgdnv/gocart/pkg/messaging/events"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
)

// CartService runs the cart workflows: creating carts, changing their contents and completing purchases.
type CartService struct {
	store     store.Store
	publisher messaging.Publisher
	now       func() time.Time

	cartsCreated   metric.Int64Counter
	cartsPurchased metric.Int64Counter
	productsSold   metric.Int64Counter
}

// NewCartService creates a CartService. A nil publisher disables event publishing.
func NewCartService(s store.Store, publisher messaging.Publisher) *CartService {
	if publisher == nil {
		publisher = messaging.NoopPublisher{}
	}
	meter := otel.Meter("storefront/cart-service")
	return &CartService{
		store:          s,
		publisher:      publisher,
		now:            time.Now,
		cartsCreated:   mustCounter(meter, "carts_created", "Total number of created carts"),
		cartsPurchased: mustCounter(meter, "carts_purchased", "Total number of completed cart purchases"),
		productsSold:   mustCounter(meter, "products_sold", "Total number of product units sold"),
	}
}

func mustCounter(meter metric.Meter, name, description string) metric.Int64Counter {
	counter, err := meter.Int64Counter(name, metric.WithDescription(description))
	if err != nil {
		panic(fmt.Sprintf("failed to create %s counter: %v", name, err))
	}
	return counter
}

// ViewCart returns ErrCartNotFound if no cart exists with the given ID.
func (s *CartService) ViewCart(ctx context.Context, cartID uuid.UUID) (*model.Cart, error) {
	cart, err := s.store.FindCartByID(ctx, cartID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch cart %s: %w", cartID, err)
	}
	return cart, nil
}

// CreateCart creates and persists a cart holding the products that productIDs resolve to.
// Ids that match no product are skipped. A repeated id fails with ErrDuplicateProduct and nothing is saved.
func (s *CartService) CreateCart(ctx context.Context, productIDs []uuid.UUID) (*model.Cart, error) {
	cart := model.NewCart()
	for _, id := range productIDs {
		product, err := s.store.FindProductByID(ctx, id)
		if errors.Is(err, apperrors.ErrProductNotFound) {
			slog.DebugContext(ctx, "Skipping unknown product for new cart", "product_id", id)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to fetch product %s: %w", id, err)
		}
		if err := cart.AddProduct(*product); err != nil {
			return nil, fmt.Errorf("product %s: %w", id, err)
		}
	}
	saved, err := s.store.SaveCart(ctx, cart)
	if err != nil {
		return nil, fmt.Errorf("failed to save cart: %w", err)
	}
	s.cartsCreated.Add(ctx, 1)
	return saved, nil
}

// AddProductToCart adds the product to the cart and persists it.
// The product is resolved first, so an unknown product wins over an unknown cart.
func (s *CartService) AddProductToCart(ctx context.Context, cartID, productID uuid.UUID) (*model.Cart, error) {
	var updated *model.Cart
	err := s.store.InTx(ctx, func(tx store.Store) error {
		product, err := tx.FindProductByID(ctx, productID)
		if err != nil {
			return fmt.Errorf("failed to fetch product %s: %w", productID, err)
		}
		cart, err := tx.FindCartByID(ctx, cartID)
		if err != nil {
			return fmt.Errorf("failed to fetch cart %s: %w", cartID, err)
		}
		if err := cart.AddProduct(*product); err != nil {
			return fmt.Errorf("product %s: %w", productID, err)
		}
		updated, err = tx.SaveCart(ctx, cart)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// RemoveProductFromCart removes the product from the cart and persists it.
// Returns ErrProductNotInCart if the cart does not hold the product.
func (s *CartService) RemoveProductFromCart(ctx context.Context, cartID, productID uuid.UUID) (*model.Cart, error) {
	var updated *model.Cart
	err := s.store.InTx(ctx, func(tx store.Store) error {
		product, err := tx.FindProductByID(ctx, productID)
		if err != nil {
			return fmt.Errorf("failed to fetch product %s: %w", productID, err)
		}
		cart, err := tx.FindCartByID(ctx, cartID)
		if err != nil {
			return fmt.Errorf("failed to fetch cart %s: %w", cartID, err)
		}
		if err := cart.RemoveProduct(*product); err != nil {
			return fmt.Errorf("product %s: %w", productID, err)
		}
		updated, err = tx.SaveCart(ctx, cart)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// CompleteCartPurchase buys one unit of every product in the cart and deletes the cart, all in one transaction.
// The first product that is out of stock aborts the purchase with ErrOutOfStock; no inventory changes and the
// cart is kept. A concurrent purchase of the same product surfaces as ErrOptimisticLock.
func (s *CartService) CompleteCartPurchase(ctx context.Context, cartID uuid.UUID) error {
	var purchased *model.Cart
	err := s.store.InTx(ctx, func(tx store.Store) error {
		cart, err := tx.FindCartByID(ctx, cartID)
		if err != nil {
			return fmt.Errorf("failed to fetch cart %s: %w", cartID, err)
		}
		products := cart.Products()
		for i := range products {
			if err := products[i].Buy(); err != nil {
				return fmt.Errorf("product %s: %w", products[i].ID, err)
			}
		}
		if _, err := tx.SaveAllProducts(ctx, products); err != nil {
			return fmt.Errorf("failed to update inventory: %w", err)
		}
		if err := tx.DeleteCart(ctx, cart); err != nil {
			return fmt.Errorf("failed to delete cart %s: %w", cartID, err)
		}
		purchased = cart
		return nil
	})
	if err != nil {
		return err
	}

	sold := int64(len(purchased.Products()))
	s.cartsPurchased.Add(ctx, 1)
	s.productsSold.Add(ctx, sold)
	slog.InfoContext(ctx, "Cart purchase completed", "cart_id", cartID, "products", sold, "total_cost", purchased.TotalCost().StringFixed(2))

	s.publishPurchased(ctx, purchased)
	return nil
}

// publishPurchased emits CartPurchasedEvent. The purchase is already committed, so failures are only logged.
func (s *CartService) publishPurchased(ctx context.Context, cart *model.Cart) {
	carrier := make(propagation.MapCarrier)
	otel.GetTextMapPropagator().Inject(ctx, carrier)

	products := cart.Products()
	ids := make([]uuid.UUID, 0, len(products))
	for _, p := range products {
		ids = append(ids, p.ID)
	}
	event := events.CartPurchasedEvent{
		Carrier:     carrier,
		CartID:      cart.ID,
		ProductIDs:  ids,
		TotalCost:   cart.TotalCost(),
		PurchasedAt: s.now().UTC(),
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		slog.ErrorContext(ctx, "Failed to publish CartPurchasedEvent", "cart_id", cart.ID, "error", err)
	}
}
