// Package handler exposes the storefront over a JSON HTTP API.
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/xenking/storefront/internal/domain/order"
	"github.com/xenking/storefront/internal/domain/product"
	"github.com/xenking/storefront/internal/session"
	"github.com/xenking/storefront/pkg/httpmiddleware"
)

// Config holds non-dependency configuration for the Handler.
type Config struct {
	// FeaturedCount is the number of products on the storefront home.
	FeaturedCount int
	// SessionCookie names the cookie carrying the session id.
	SessionCookie string
	// SessionTTL sets the cookie lifetime.
	SessionTTL time.Duration
}

// Handler serves the storefront API.
type Handler struct {
	products product.AdminRepository
	orders   *order.Service
	sessions *session.Registry
	cfg      Config
}

// New constructs a Handler with the required domain dependencies.
func New(
	cfg Config,
	products product.AdminRepository,
	orders *order.Service,
	sessions *session.Registry,
) *Handler {
	if cfg.FeaturedCount <= 0 {
		cfg.FeaturedCount = 4
	}
	if cfg.SessionCookie == "" {
		cfg.SessionCookie = "storefront_session"
	}
	return &Handler{
		products: products,
		orders:   orders,
		sessions: sessions,
		cfg:      cfg,
	}
}

// Router returns the API routes under /api. Callers may mount more routes,
// such as health probes, on the returned router.
func (h *Handler) Router() chi.Router {
	r := newRouter()
	r.Route("/api", func(r chi.Router) {
		r.Get("/storefront", h.Storefront)
		r.Get("/products", h.ListProducts)
		r.Get("/products/{id}", h.GetProduct)
		r.Get("/categories", h.ListCategories)
		r.Get("/orders/{id}", h.GetOrder)

		r.Route("/admin/products", func(r chi.Router) {
			r.Get("/", h.ListProducts)
			r.Post("/", h.CreateProduct)
			r.Patch("/{id}", h.UpdateProduct)
			r.Put("/{id}", h.UpdateProduct)
			r.Delete("/{id}", h.DeleteProduct)
		})

		r.Mount("/cart", h.sessionRouter(func(r chi.Router) {
			r.Get("/", h.GetCart)
			r.Delete("/", h.ClearCart)
			r.Post("/items", h.AddCartItem)
			r.Put("/items/{id}", h.UpdateCartItem)
			r.Delete("/items/{id}", h.RemoveCartItem)
		}))

		r.Mount("/checkout", h.sessionRouter(func(r chi.Router) {
			r.Get("/", h.GetCheckout)
			r.Post("/", h.BeginCheckout)
			r.Delete("/", h.CancelCheckout)
			r.Put("/address", h.SetAddress)
			r.Post("/address/lookup", h.LookupPostalCode)
			r.Post("/address/confirm", h.ConfirmAddress)
			r.Get("/shipping-options", h.ShippingOptions)
			r.Post("/shipping", h.SelectShipping)
			r.Post("/payment", h.SelectPayment)
			r.Post("/back", h.Back)
			r.Post("/coupon", h.ApplyCoupon)
			r.Post("/submit", h.Submit)
		}))
	})
	return r
}

// sessionRouter returns a router whose routes run inside the shopper's
// session.
func (h *Handler) sessionRouter(fn func(chi.Router)) chi.Router {
	r := newRouter()
	r.Use(h.withSession)
	fn(r)
	return r
}

func newRouter() *chi.Mux {
	r := chi.NewRouter()
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		httpmiddleware.WriteError(w, http.StatusNotFound, "not_found", "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		httpmiddleware.WriteError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
	})
	return r
}

// RouteContext installs the chi routing context before the router runs, so
// middleware outside the router can read the matched route afterwards.
func RouteContext() httpmiddleware.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if chi.RouteContext(r.Context()) == nil {
				r = r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, chi.NewRouteContext()))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RoutePattern is an httpmiddleware.RouteFinder for chi routes.
func RoutePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		return rctx.RoutePattern()
	}
	return ""
}
