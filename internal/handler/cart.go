package handler

import (
	"net/http"

	"github.com/go-faster/errors"

	"github.com/xenking/storefront/internal/domain/cart"
	"github.com/xenking/storefront/internal/session"
)

// GetCart returns the session's cart.
func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	h.withCart(w, r, http.StatusOK, func(*cart.Store) error { return nil })
}

// AddCartItem adds a catalog product to the cart. The product is looked up
// before the session is locked so a slow catalog does not block the session.
func (h *Handler) AddCartItem(w http.ResponseWriter, r *http.Request) {
	var req addItemRequest
	if err := decode(w, r, &req); err != nil {
		fail(w, r, err)
		return
	}
	p, err := h.products.GetByID(r.Context(), req.ProductID)
	if err != nil {
		fail(w, r, errors.Wrap(err, "add to cart"))
		return
	}
	h.withCart(w, r, http.StatusCreated, func(c *cart.Store) error {
		return c.Add(*p, req.Quantity)
	})
}

// UpdateCartItem sets the quantity of a cart line.
func (h *Handler) UpdateCartItem(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	var req quantityRequest
	if err := decode(w, r, &req); err != nil {
		fail(w, r, err)
		return
	}
	h.withCart(w, r, http.StatusOK, func(c *cart.Store) error {
		return c.UpdateQuantity(id, req.Quantity)
	})
}

// RemoveCartItem drops a cart line. Removing an absent product is a no-op.
func (h *Handler) RemoveCartItem(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	h.withCart(w, r, http.StatusOK, func(c *cart.Store) error {
		c.Remove(id)
		return nil
	})
}

// ClearCart empties the cart.
func (h *Handler) ClearCart(w http.ResponseWriter, r *http.Request) {
	h.withCart(w, r, http.StatusOK, func(c *cart.Store) error {
		c.Clear()
		return nil
	})
}

// withCart runs fn on the locked cart and responds with the resulting cart.
func (h *Handler) withCart(w http.ResponseWriter, r *http.Request, status int, fn func(*cart.Store) error) {
	var out cartDTO
	err := sessionFrom(r.Context()).Do(func(st session.State) error {
		if err := fn(st.Cart()); err != nil {
			return err
		}
		out = toCart(st.Cart())
		return nil
	})
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, status, out)
}
