package store

import (
	"context"
	"errors"
	"fmt"

	apperrors "github.com/abgdnv/gocart/internal/errors"
	"github.com/abgdnv/gocart/internal/model"
	"github.com/abgdnv/gocart/internal/store/db"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// PgStore implements Store using PostgreSQL as the data store.
type PgStore struct {
	db *pgxpool.Pool
	q  *db.Queries
	// tx is set on stores handed out by InTx.
	tx pgx.Tx
}

// NewPgStore creates a new instance of Store using a PostgreSQL connection pool.
func NewPgStore(dbp *pgxpool.Pool) *PgStore {
	return &PgStore{
		db: dbp,
		q:  db.New(dbp),
	}
}

// FindProductByID retrieves a product by its unique identifier.
// Returns ErrProductNotFound if no product exists with the given ID.
func (p *PgStore) FindProductByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	row, err := p.q.FindProductByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to find product by ID: %w", err)
	}
	return toProduct(row)
}

// FindAllProducts retrieves all products.
// It returns a slice of products, which may be empty if no products exist.
func (p *PgStore) FindAllProducts(ctx context.Context) ([]model.Product, error) {
	rows, err := p.q.FindAllProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to find all products: %w", err)
	}
	products := make([]model.Product, 0, len(rows))
	for _, row := range rows {
		product, err := toProduct(row)
		if err != nil {
			return nil, err
		}
		products = append(products, *product)
	}
	return products, nil
}

// SaveProduct inserts a new product or updates an existing one guarded by its version.
func (p *PgStore) SaveProduct(ctx context.Context, product *model.Product) (*model.Product, error) {
	var saved *model.Product
	err := p.withTransaction(ctx, func(qtx *db.Queries) error {
		var err error
		saved, err = saveProduct(ctx, qtx, *product)
		return err
	})
	if err != nil {
		return nil, err
	}
	return saved, nil
}

// SaveAllProducts saves all products in a single transaction.
func (p *PgStore) SaveAllProducts(ctx context.Context, products []model.Product) ([]model.Product, error) {
	saved := make([]model.Product, 0, len(products))
	err := p.withTransaction(ctx, func(qtx *db.Queries) error {
		for _, product := range products {
			sp, err := saveProduct(ctx, qtx, product)
			if err != nil {
				return err
			}
			saved = append(saved, *sp)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return saved, nil
}

func saveProduct(ctx context.Context, q *db.Queries, product model.Product) (*model.Product, error) {
	if product.ID == uuid.Nil {
		row, err := q.CreateProduct(ctx, db.CreateProductParams{
			Title:          product.Title,
			Price:          product.Price.String(),
			InventoryCount: product.InventoryCount,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create product: %w", err)
		}
		return toProduct(row)
	}

	row, err := q.UpdateProduct(ctx, db.UpdateProductParams{
		ID:             product.ID,
		Title:          product.Title,
		Price:          product.Price.String(),
		InventoryCount: product.InventoryCount,
		Version:        product.Version,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Check if the product exists, or it's an optimistic lock error.
			if _, findErr := q.FindProductByID(ctx, product.ID); findErr != nil {
				if errors.Is(findErr, pgx.ErrNoRows) {
					return nil, apperrors.ErrProductNotFound
				}
				return nil, fmt.Errorf("failed to update product: %w", findErr)
			}
			return nil, apperrors.ErrOptimisticLock
		}
		return nil, fmt.Errorf("failed to update product: %w", err)
	}
	return toProduct(row)
}

// FindCartByID retrieves a cart and the current state of the products it references.
// Returns ErrCartNotFound if no cart exists with the given ID.
func (p *PgStore) FindCartByID(ctx context.Context, id uuid.UUID) (*model.Cart, error) {
	var cart *model.Cart
	// Use transaction to read the cart and its items consistently
	err := p.withTransaction(ctx, func(qtx *db.Queries) error {
		var err error
		cart, err = findCart(ctx, qtx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return cart, nil
}

func findCart(ctx context.Context, q *db.Queries, id uuid.UUID) (*model.Cart, error) {
	c, err := q.FindCartByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrCartNotFound
		}
		return nil, fmt.Errorf("failed to find cart: %w", err)
	}
	items, err := q.FindCartItems(ctx, c.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to find cart items: %w", err)
	}
	products := make([]model.Product, 0, len(items))
	for _, item := range items {
		product, err := toProduct(item.Product)
		if err != nil {
			return nil, err
		}
		products = append(products, *product)
	}
	return model.RestoreCart(c.ID, products), nil
}

// SaveCart creates the cart on first save and replaces its items with the cart's current products.
func (p *PgStore) SaveCart(ctx context.Context, cart *model.Cart) (*model.Cart, error) {
	var saved *model.Cart
	err := p.withTransaction(ctx, func(qtx *db.Queries) error {
		var row db.Cart
		var err error
		if cart.ID == uuid.Nil {
			row, err = qtx.CreateCart(ctx)
			if err != nil {
				return fmt.Errorf("failed to create cart: %w", err)
			}
		} else {
			row, err = qtx.TouchCart(ctx, cart.ID)
			if err != nil {
				if errors.Is(err, pgx.ErrNoRows) {
					return apperrors.ErrCartNotFound
				}
				return fmt.Errorf("failed to update cart: %w", err)
			}
			if err := qtx.DeleteCartItems(ctx, row.ID); err != nil {
				return fmt.Errorf("failed to clear cart items: %w", err)
			}
		}
		for i, product := range cart.Products() {
			if err := qtx.CreateCartItem(ctx, db.CreateCartItemParams{
				CartID:    row.ID,
				Position:  int32(i),
				ProductID: product.ID,
			}); err != nil {
				return fmt.Errorf("failed to create cart item: %w", err)
			}
		}
		saved, err = findCart(ctx, qtx, row.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return saved, nil
}

// DeleteCart removes a cart and, through the foreign key cascade, its items.
// Returns ErrCartNotFound if no cart exists with the given ID.
func (p *PgStore) DeleteCart(ctx context.Context, cart *model.Cart) error {
	count, err := p.q.DeleteCart(ctx, cart.ID)
	if err != nil {
		return fmt.Errorf("failed to delete cart: %w", err)
	}
	if count == 0 {
		return apperrors.ErrCartNotFound
	}
	return nil
}

// InTx runs fn inside a database transaction. The transaction is rolled back if fn returns an error.
func (p *PgStore) InTx(ctx context.Context, fn func(tx Store) error) error {
	if p.tx != nil {
		return fn(p)
	}
	tx, err := p.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%w: %w", apperrors.ErrTransactionBegin, err)
	}
	txStore := &PgStore{db: p.db, q: p.q.WithTx(tx), tx: tx}

	if err := fn(txStore); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			return errors.Join(err, fmt.Errorf("%w: %w", apperrors.ErrTransactionRollback, rbErr))
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("%w: %w", apperrors.ErrTransactionCommit, err)
	}
	return nil
}

// withTransaction runs fn in its own transaction, or in the enclosing one for stores created by InTx.
func (p *PgStore) withTransaction(ctx context.Context, fn func(qtx *db.Queries) error) error {
	if p.tx != nil {
		return fn(p.q)
	}
	return p.InTx(ctx, func(tx Store) error {
		return fn(tx.(*PgStore).q)
	})
}

// toProduct converts a products row to the model type.
func toProduct(row db.Product) (*model.Product, error) {
	price, err := decimal.NewFromString(row.Price)
	if err != nil {
		return nil, fmt.Errorf("failed to parse price %q of product %s: %w", row.Price, row.ID, err)
	}
	return &model.Product{
		ID:             row.ID,
		Title:          row.Title,
		Price:          price,
		InventoryCount: row.InventoryCount,
		Version:        row.Version,
	}, nil
}
