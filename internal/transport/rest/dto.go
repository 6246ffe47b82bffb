package rest

import (
	"github.com/abgdnv/gocart/internal/model"
	"github.com/google/uuid"
)

// ProductResponse is the JSON view of a product. Money is rendered with two decimals.
type ProductResponse struct {
	ID             uuid.UUID `json:"id"`
	Title          string    `json:"title"`
	Price          string    `json:"price"`
	InventoryCount int32     `json:"inventory_count"`
	Version        int32     `json:"version"`
}

// CartResponse is the JSON view of a cart.
type CartResponse struct {
	ID        uuid.UUID         `json:"id"`
	Products  []ProductResponse `json:"products"`
	TotalCost string            `json:"total_cost"`
}

// CreateCartRequest is the optional body of POST /carts.
type CreateCartRequest struct {
	ProductIDs []uuid.UUID `json:"product_ids" validate:"omitempty,max=100,dive,required"`
}

func toProductResponse(p model.Product) ProductResponse {
	return ProductResponse{
		ID:             p.ID,
		Title:          p.Title,
		Price:          p.Price.StringFixed(2),
		InventoryCount: p.InventoryCount,
		Version:        p.Version,
	}
}

func toProductResponses(products []model.Product) []ProductResponse {
	out := make([]ProductResponse, 0, len(products))
	for _, p := range products {
		out = append(out, toProductResponse(p))
	}
	return out
}

func toCartResponse(c *model.Cart) CartResponse {
	return CartResponse{
		ID:        c.ID,
		Products:  toProductResponses(c.Products()),
		TotalCost: c.TotalCost().StringFixed(2),
	}
}
