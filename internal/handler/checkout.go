package handler

import (
	"context"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/xenking/storefront/internal/domain/checkout"
	"github.com/xenking/storefront/internal/domain/order"
	"github.com/xenking/storefront/internal/session"
)

// BeginCheckout starts a checkout or resumes the one in progress.
func (h *Handler) BeginCheckout(w http.ResponseWriter, r *http.Request) {
	h.respondCheckout(w, r, func(st session.State) (*checkout.Flow, error) {
		return st.BeginCheckout()
	})
}

// GetCheckout returns the checkout in progress.
func (h *Handler) GetCheckout(w http.ResponseWriter, r *http.Request) {
	h.withFlow(w, r, func(context.Context, *checkout.Flow) error { return nil })
}

// CancelCheckout abandons the checkout. The cart is kept.
func (h *Handler) CancelCheckout(w http.ResponseWriter, r *http.Request) {
	_ = sessionFrom(r.Context()).Do(func(st session.State) error {
		st.DiscardCheckout()
		return nil
	})
	w.WriteHeader(http.StatusNoContent)
}

// SetAddress replaces the address with manually entered values.
func (h *Handler) SetAddress(w http.ResponseWriter, r *http.Request) {
	var req addressDTO
	if err := decode(w, r, &req); err != nil {
		fail(w, r, err)
		return
	}
	h.withFlow(w, r, func(_ context.Context, f *checkout.Flow) error {
		return f.SetAddress(req.domain())
	})
}

// LookupPostalCode fills the address from the postal code lookup service.
// A failed lookup is answered with its error and stays visible as
// lookupError on the checkout.
func (h *Handler) LookupPostalCode(w http.ResponseWriter, r *http.Request) {
	var req postalCodeRequest
	if err := decode(w, r, &req); err != nil {
		fail(w, r, err)
		return
	}
	h.withFlow(w, r, func(ctx context.Context, f *checkout.Flow) error {
		return f.LookupPostalCode(ctx, req.PostalCode)
	})
}

// ConfirmAddress moves on to shipping once the address is complete.
func (h *Handler) ConfirmAddress(w http.ResponseWriter, r *http.Request) {
	h.withFlow(w, r, func(_ context.Context, f *checkout.Flow) error {
		return f.ConfirmAddress()
	})
}

// SelectShipping records the shipping method.
func (h *Handler) SelectShipping(w http.ResponseWriter, r *http.Request) {
	var req methodRequest
	if err := decode(w, r, &req); err != nil {
		fail(w, r, err)
		return
	}
	h.withFlow(w, r, func(_ context.Context, f *checkout.Flow) error {
		return f.SelectShipping(checkout.ShippingMethod(req.Method))
	})
}

// SelectPayment records the payment method.
func (h *Handler) SelectPayment(w http.ResponseWriter, r *http.Request) {
	var req methodRequest
	if err := decode(w, r, &req); err != nil {
		fail(w, r, err)
		return
	}
	h.withFlow(w, r, func(_ context.Context, f *checkout.Flow) error {
		return f.SelectPayment(checkout.PaymentMethod(req.Method))
	})
}

// Back returns to an earlier step.
func (h *Handler) Back(w http.ResponseWriter, r *http.Request) {
	var req stepRequest
	if err := decode(w, r, &req); err != nil {
		fail(w, r, err)
		return
	}
	h.withFlow(w, r, func(_ context.Context, f *checkout.Flow) error {
		to, err := checkout.ParseStep(req.Step)
		if err != nil {
			return err
		}
		return f.Back(to)
	})
}

// ApplyCoupon applies or, with an empty code, removes a coupon.
func (h *Handler) ApplyCoupon(w http.ResponseWriter, r *http.Request) {
	var req couponRequest
	if err := decode(w, r, &req); err != nil {
		fail(w, r, err)
		return
	}
	h.withFlow(w, r, func(ctx context.Context, f *checkout.Flow) error {
		return f.ApplyCoupon(ctx, req.Code)
	})
}

// ShippingOptions lists the shipping methods with what each would charge
// for the current cart.
func (h *Handler) ShippingOptions(w http.ResponseWriter, r *http.Request) {
	var charge decimal.Decimal
	_ = sessionFrom(r.Context()).Do(func(st session.State) error {
		pct := decimal.Zero
		if f, err := st.Checkout(); err == nil {
			_, pct = f.Coupon()
		}
		charge = order.ComputeTotals(st.Cart().Subtotal(), pct).Shipping
		return nil
	})

	options := checkout.ShippingOptions()
	out := make([]shippingOptionDTO, len(options))
	for i, o := range options {
		out[i] = shippingOptionDTO{
			Method:    string(o.Method),
			Label:     o.Label,
			Estimate:  o.Estimate,
			ListPrice: o.ListPrice.InexactFloat64(),
			Charge:    charge.InexactFloat64(),
		}
	}
	writeJSON(w, http.StatusOK, out)
}

// Submit places the order. The cart is cleared and the checkout closed only
// when the order was stored.
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	var placed *order.Order
	err := sessionFrom(r.Context()).Do(func(st session.State) (err error) {
		placed, err = st.PlaceOrder(r.Context(), h.orders)
		return err
	})
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toOrder(placed))
}

// withFlow runs fn on the locked checkout and responds with its state.
func (h *Handler) withFlow(w http.ResponseWriter, r *http.Request, fn func(context.Context, *checkout.Flow) error) {
	h.respondCheckout(w, r, func(st session.State) (*checkout.Flow, error) {
		f, err := st.Checkout()
		if err != nil {
			return nil, err
		}
		return f, fn(r.Context(), f)
	})
}

func (h *Handler) respondCheckout(
	w http.ResponseWriter,
	r *http.Request,
	fn func(session.State) (*checkout.Flow, error),
) {
	var out checkoutDTO
	err := sessionFrom(r.Context()).Do(func(st session.State) error {
		f, err := fn(st)
		if err != nil {
			return err
		}
		out = toCheckout(f, st.Cart())
		return nil
	})
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}
