package rest

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes mounts the catalog and cart endpoints under /api/v1.
func RegisterRoutes(mux chi.Router, products *ProductHandler, carts *CartHandler) {
	mux.Route("/api/v1", func(r chi.Router) {
		r.Route("/products", func(r chi.Router) {
			r.Get("/", products.FindAll)
			r.Get("/{id}", products.FindByID)
		})
		r.Route("/carts", func(r chi.Router) {
			r.Post("/", carts.Create)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", carts.View)
				r.Put("/complete", carts.Complete)
				r.Put("/products/{productId}", carts.AddProduct)
				r.Delete("/products/{productId}", carts.RemoveProduct)
			})
		})
	})
	mux.Get("/healthz", HealthCheck)
}

// HealthCheck is a simple liveness endpoint.
func HealthCheck(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}
