package handler

import (
	"net/http"

	"github.com/go-faster/errors"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/storefront/internal/domain/product"
)

// Storefront returns the home page: a random featured selection and the
// category list, fetched in parallel.
func (h *Handler) Storefront(w http.ResponseWriter, r *http.Request) {
	var (
		featured   []product.Product
		categories []product.Category
	)
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() (err error) {
		if featured, err = h.products.Featured(ctx, h.cfg.FeaturedCount); err != nil {
			return errors.Wrap(err, "featured products")
		}
		return nil
	})
	g.Go(func() (err error) {
		if categories, err = h.products.Categories(ctx); err != nil {
			return errors.Wrap(err, "categories")
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, storefrontDTO{
		Featured:   toProducts(featured),
		Categories: toCategories(categories),
	})
}

// ListProducts returns the catalog, optionally filtered by ?category=.
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	var (
		products []product.Product
		err      error
	)
	if category := r.URL.Query().Get("category"); category != "" {
		products, err = h.products.ListByCategory(r.Context(), category)
	} else {
		products, err = h.products.List(r.Context())
	}
	if err != nil {
		fail(w, r, errors.Wrap(err, "list products"))
		return
	}
	writeJSON(w, http.StatusOK, toProducts(products))
}

// GetProduct returns a single product by id.
func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	p, err := h.products.GetByID(r.Context(), id)
	if err != nil {
		fail(w, r, errors.Wrap(err, "get product"))
		return
	}
	writeJSON(w, http.StatusOK, toProduct(*p))
}

// ListCategories returns every category.
func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.products.Categories(r.Context())
	if err != nil {
		fail(w, r, errors.Wrap(err, "list categories"))
		return
	}
	writeJSON(w, http.StatusOK, toCategories(categories))
}

// CreateProduct adds a product from the admin panel.
func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if err := decode(w, r, &req); err != nil {
		fail(w, r, err)
		return
	}
	p, err := h.products.Create(r.Context(), req.draft())
	if err != nil {
		fail(w, r, errors.Wrap(err, "create product"))
		return
	}
	writeJSON(w, http.StatusCreated, toProduct(*p))
}

// UpdateProduct applies a partial update from the admin panel.
func (h *Handler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	var req productRequest
	if err := decode(w, r, &req); err != nil {
		fail(w, r, err)
		return
	}
	p, err := h.products.Update(r.Context(), id, req.patch())
	if err != nil {
		fail(w, r, errors.Wrap(err, "update product"))
		return
	}
	writeJSON(w, http.StatusOK, toProduct(*p))
}

// DeleteProduct removes a product. Carts keep their copies.
func (h *Handler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	ok, err := h.products.Delete(r.Context(), id)
	if err != nil {
		fail(w, r, errors.Wrap(err, "delete product"))
		return
	}
	if !ok {
		fail(w, r, &product.NotFoundError{ID: id})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
