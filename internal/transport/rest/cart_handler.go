package rest

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/abgdnv/gocart/internal/model"
	"github.com/abgdnv/gocart/pkg/web"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

const maxBodyBytes = 1 << 20

// CartService is the set of cart workflows used by CartHandler.
type CartService interface {
	ViewCart(ctx context.Context, cartID uuid.UUID) (*model.Cart, error)
	CreateCart(ctx context.Context, productIDs []uuid.UUID) (*model.Cart, error)
	AddProductToCart(ctx context.Context, cartID, productID uuid.UUID) (*model.Cart, error)
	RemoveProductFromCart(ctx context.Context, cartID, productID uuid.UUID) (*model.Cart, error)
	CompleteCartPurchase(ctx context.Context, cartID uuid.UUID) error
}

type CartHandler struct {
	service  CartService
	validate *validator.Validate
	logger   *slog.Logger
}

func NewCartHandler(service CartService, logger *slog.Logger) *CartHandler {
	return &CartHandler{
		service:  service,
		validate: validator.New(),
		logger:   logger.With("component", "cart_api"),
	}
}

// View returns the cart with its products and total cost.
func (h *CartHandler) View(w http.ResponseWriter, r *http.Request) {
	id, ok := web.ParseID(w, r, h.logger)
	if !ok {
		return
	}
	h.logger.DebugContext(r.Context(), "Received request to view cart", "ID", id)
	cart, err := h.service.ViewCart(r.Context(), id)
	if err != nil {
		respondServiceError(w, r, h.logger, err, "Failed to retrieve cart")
		return
	}
	web.RespondJSON(w, h.logger, http.StatusOK, toCartResponse(cart))
}

// Create creates a cart. The body is optional; when present its product_ids seed the cart.
func (h *CartHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateCartRequest
	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req)
	if err != nil && !errors.Is(err, io.EOF) {
		h.logger.WarnContext(r.Context(), "Error decoding request body", "error", err)
		web.RespondError(w, h.logger, http.StatusBadRequest, "Invalid request body")
		return
	}
	if !web.ValidateStruct(w, r, h.logger, h.validate, req) {
		return
	}
	h.logger.DebugContext(r.Context(), "Received request to create cart", "product_ids", req.ProductIDs)

	cart, err := h.service.CreateCart(r.Context(), req.ProductIDs)
	if err != nil {
		respondServiceError(w, r, h.logger, err, "Failed to create cart")
		return
	}
	h.logger.InfoContext(r.Context(), "Cart created successfully", "ID", cart.ID, "products", len(cart.Products()))
	web.RespondJSON(w, h.logger, http.StatusCreated, toCartResponse(cart))
}

// AddProduct adds the product to the cart.
func (h *CartHandler) AddProduct(w http.ResponseWriter, r *http.Request) {
	cartID, productID, ok := h.parseIDs(w, r)
	if !ok {
		return
	}
	h.logger.DebugContext(r.Context(), "Received request to add product to cart", "ID", cartID, "product_id", productID)
	cart, err := h.service.AddProductToCart(r.Context(), cartID, productID)
	if err != nil {
		respondServiceError(w, r, h.logger, err, "Failed to add product to cart")
		return
	}
	h.logger.InfoContext(r.Context(), "Product added to cart", "ID", cartID, "product_id", productID)
	web.RespondJSON(w, h.logger, http.StatusOK, toCartResponse(cart))
}

// RemoveProduct removes the product from the cart.
func (h *CartHandler) RemoveProduct(w http.ResponseWriter, r *http.Request) {
	cartID, productID, ok := h.parseIDs(w, r)
	if !ok {
		return
	}
	h.logger.DebugContext(r.Context(), "Received request to remove product from cart", "ID", cartID, "product_id", productID)
	cart, err := h.service.RemoveProductFromCart(r.Context(), cartID, productID)
	if err != nil {
		respondServiceError(w, r, h.logger, err, "Failed to remove product from cart")
		return
	}
	h.logger.InfoContext(r.Context(), "Product removed from cart", "ID", cartID, "product_id", productID)
	web.RespondJSON(w, h.logger, http.StatusOK, toCartResponse(cart))
}

// Complete purchases every product in the cart and deletes it.
func (h *CartHandler) Complete(w http.ResponseWriter, r *http.Request) {
	id, ok := web.ParseID(w, r, h.logger)
	if !ok {
		return
	}
	h.logger.DebugContext(r.Context(), "Received request to complete purchase", "ID", id)
	if err := h.service.CompleteCartPurchase(r.Context(), id); err != nil {
		respondServiceError(w, r, h.logger, err, "Failed to complete purchase")
		return
	}
	h.logger.InfoContext(r.Context(), "Purchase completed", "ID", id)
	w.WriteHeader(http.StatusNoContent)
}

func (h *CartHandler) parseIDs(w http.ResponseWriter, r *http.Request) (uuid.UUID, uuid.UUID, bool) {
	cartID, ok := web.ParseID(w, r, h.logger)
	if !ok {
		return uuid.Nil, uuid.Nil, false
	}
	productID, ok := web.ParsePathID(w, r, h.logger, "productId")
	if !ok {
		return uuid.Nil, uuid.Nil, false
	}
	return cartID, productID, true
}
