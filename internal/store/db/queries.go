package db

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const productColumns = `id, title, price::text, inventory_count, version, created_at, updated_at`

func scanProduct(row pgx.Row) (Product, error) {
	var p Product
	err := row.Scan(&p.ID, &p.Title, &p.Price, &p.InventoryCount, &p.Version, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

const findProductByID = `SELECT ` + productColumns + ` FROM products WHERE id = $1`

func (q *Queries) FindProductByID(ctx context.Context, id uuid.UUID) (Product, error) {
	return scanProduct(q.db.QueryRow(ctx, findProductByID, id))
}

const findAllProducts = `SELECT ` + productColumns + ` FROM products ORDER BY title, id`

func (q *Queries) FindAllProducts(ctx context.Context) ([]Product, error) {
	rows, err := q.db.Query(ctx, findAllProducts)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const createProduct = `INSERT INTO products (title, price, inventory_count)
VALUES ($1, $2::numeric, $3)
RETURNING ` + productColumns

type CreateProductParams struct {
	Title          string
	Price          string
	InventoryCount int32
}

func (q *Queries) CreateProduct(ctx context.Context, arg CreateProductParams) (Product, error) {
	return scanProduct(q.db.QueryRow(ctx, createProduct, arg.Title, arg.Price, arg.InventoryCount))
}

const updateProduct = `UPDATE products
SET title = $2, price = $3::numeric, inventory_count = $4, version = version + 1, updated_at = now()
WHERE id = $1 AND version = $5
RETURNING ` + productColumns

type UpdateProductParams struct {
	ID             uuid.UUID
	Title          string
	Price          string
	InventoryCount int32
	Version        int32
}

func (q *Queries) UpdateProduct(ctx context.Context, arg UpdateProductParams) (Product, error) {
	return scanProduct(q.db.QueryRow(ctx, updateProduct, arg.ID, arg.Title, arg.Price, arg.InventoryCount, arg.Version))
}

const createCart = `INSERT INTO carts DEFAULT VALUES RETURNING id, created_at, updated_at`

func (q *Queries) CreateCart(ctx context.Context) (Cart, error) {
	var c Cart
	err := q.db.QueryRow(ctx, createCart).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

const touchCart = `UPDATE carts SET updated_at = now() WHERE id = $1 RETURNING id, created_at, updated_at`

func (q *Queries) TouchCart(ctx context.Context, id uuid.UUID) (Cart, error) {
	var c Cart
	err := q.db.QueryRow(ctx, touchCart, id).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

const findCartByID = `SELECT id, created_at, updated_at FROM carts WHERE id = $1`

func (q *Queries) FindCartByID(ctx context.Context, id uuid.UUID) (Cart, error) {
	var c Cart
	err := q.db.QueryRow(ctx, findCartByID, id).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

const findCartItems = `SELECT ci.cart_id, ci.position,
       p.id, p.title, p.price::text, p.inventory_count, p.version, p.created_at, p.updated_at
FROM cart_items ci
JOIN products p ON p.id = ci.product_id
WHERE ci.cart_id = $1
ORDER BY ci.position`

func (q *Queries) FindCartItems(ctx context.Context, cartID uuid.UUID) ([]CartItem, error) {
	rows, err := q.db.Query(ctx, findCartItems, cartID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []CartItem{}
	for rows.Next() {
		var i CartItem
		if err := rows.Scan(
			&i.CartID,
			&i.Position,
			&i.Product.ID,
			&i.Product.Title,
			&i.Product.Price,
			&i.Product.InventoryCount,
			&i.Product.Version,
			&i.Product.CreatedAt,
			&i.Product.UpdatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const deleteCartItems = `DELETE FROM cart_items WHERE cart_id = $1`

func (q *Queries) DeleteCartItems(ctx context.Context, cartID uuid.UUID) error {
	_, err := q.db.Exec(ctx, deleteCartItems, cartID)
	return err
}

const createCartItem = `INSERT INTO cart_items (cart_id, position, product_id) VALUES ($1, $2, $3)`

type CreateCartItemParams struct {
	CartID    uuid.UUID
	Position  int32
	ProductID uuid.UUID
}

func (q *Queries) CreateCartItem(ctx context.Context, arg CreateCartItemParams) error {
	_, err := q.db.Exec(ctx, createCartItem, arg.CartID, arg.Position, arg.ProductID)
	return err
}

const deleteCart = `DELETE FROM carts WHERE id = $1`

func (q *Queries) DeleteCart(ctx context.Context, id uuid.UUID) (int64, error) {
	result, err := q.db.Exec(ctx, deleteCart, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}
