// Package rest exposes the catalog and cart operations over HTTP.
package rest

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/abgdnv/gocart/internal/model"
	"github.com/abgdnv/gocart/pkg/web"
	"github.com/google/uuid"
)

// ProductService is the catalog used by ProductHandler.
type ProductService interface {
	GetAllProducts(ctx context.Context) ([]model.Product, error)
	GetInStockProducts(ctx context.Context) ([]model.Product, error)
	GetProductsByTitle(ctx context.Context, title string) ([]model.Product, error)
	GetProductByID(ctx context.Context, id uuid.UUID) (*model.Product, error)
}

type ProductHandler struct {
	service ProductService
	logger  *slog.Logger
}

func NewProductHandler(service ProductService, logger *slog.Logger) *ProductHandler {
	return &ProductHandler{
		service: service,
		logger:  logger.With("component", "product_api"),
	}
}

// FindAll lists products. ?title=X filters by exact title, ?inStockOnly=true keeps in-stock products only.
func (h *ProductHandler) FindAll(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	var (
		products []model.Product
		err      error
	)
	switch {
	case query.Has("title"):
		title := query.Get("title")
		h.logger.DebugContext(r.Context(), "Received request to find products by title", "title", title)
		products, err = h.service.GetProductsByTitle(r.Context(), title)
	default:
		inStockOnly, ok := web.ParseBoolQuery(w, r, h.logger, "inStockOnly")
		if !ok {
			return
		}
		h.logger.DebugContext(r.Context(), "Received request to find products", "inStockOnly", inStockOnly)
		if inStockOnly {
			products, err = h.service.GetInStockProducts(r.Context())
		} else {
			products, err = h.service.GetAllProducts(r.Context())
		}
	}
	if err != nil {
		respondServiceError(w, r, h.logger, err, "Failed to fetch products")
		return
	}
	h.logger.DebugContext(r.Context(), "Successfully retrieved product list", "count", len(products))
	web.RespondJSON(w, h.logger, http.StatusOK, toProductResponses(products))
}

// FindByID retrieves a product by its ID.
func (h *ProductHandler) FindByID(w http.ResponseWriter, r *http.Request) {
	id, ok := web.ParseID(w, r, h.logger)
	if !ok {
		return
	}
	h.logger.DebugContext(r.Context(), "Received request to find product by ID", "ID", id)
	product, err := h.service.GetProductByID(r.Context(), id)
	if err != nil {
		respondServiceError(w, r, h.logger, err, "Failed to retrieve product")
		return
	}
	web.RespondJSON(w, h.logger, http.StatusOK, toProductResponse(*product))
}
