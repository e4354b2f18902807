package handler

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/xenking/storefront/internal/domain/address"
	"github.com/xenking/storefront/internal/domain/cart"
	"github.com/xenking/storefront/internal/domain/checkout"
	"github.com/xenking/storefront/internal/domain/order"
	"github.com/xenking/storefront/internal/domain/product"
)

type productDTO struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Image       string  `json:"image"`
	Category    string  `json:"category"`
}

func toProduct(p product.Product) productDTO {
	return productDTO{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price.InexactFloat64(),
		Image:       p.Image,
		Category:    p.Category,
	}
}

func toProducts(ps []product.Product) []productDTO {
	out := make([]productDTO, len(ps))
	for i, p := range ps {
		out[i] = toProduct(p)
	}
	return out
}

type categoryDTO struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Image string `json:"image"`
}

func toCategories(cs []product.Category) []categoryDTO {
	out := make([]categoryDTO, len(cs))
	for i, c := range cs {
		out[i] = categoryDTO{ID: c.ID, Name: c.Name, Image: c.Image}
	}
	return out
}

type storefrontDTO struct {
	Featured   []productDTO  `json:"featured"`
	Categories []categoryDTO `json:"categories"`
}

type cartLineDTO struct {
	Product  productDTO `json:"product"`
	Quantity int        `json:"quantity"`
	Total    float64    `json:"total"`
}

type cartDTO struct {
	Items     []cartLineDTO `json:"items"`
	Subtotal  float64       `json:"subtotal"`
	ItemCount int           `json:"itemCount"`
}

func toCart(c *cart.Store) cartDTO {
	lines := c.Lines()
	items := make([]cartLineDTO, len(lines))
	for i, l := range lines {
		items[i] = cartLineDTO{
			Product:  toProduct(l.Product),
			Quantity: l.Quantity,
			Total:    l.Total().InexactFloat64(),
		}
	}
	return cartDTO{
		Items:     items,
		Subtotal:  c.Subtotal().InexactFloat64(),
		ItemCount: c.ItemCount(),
	}
}

type addressDTO struct {
	PostalCode   string `json:"postalCode"`
	Street       string `json:"street"`
	Number       string `json:"number"`
	Complement   string `json:"complement"`
	Neighborhood string `json:"neighborhood"`
	City         string `json:"city"`
	State        string `json:"state"`
}

func toAddress(a address.Address) addressDTO {
	return addressDTO(a)
}

func (a addressDTO) domain() address.Address {
	return address.Address(a)
}

type totalsDTO struct {
	Subtotal           float64 `json:"subtotal"`
	Discount           float64 `json:"discount"`
	DiscountedSubtotal float64 `json:"discountedSubtotal"`
	Shipping           float64 `json:"shipping"`
	Tax                float64 `json:"tax"`
	Total              float64 `json:"total"`
}

func toTotals(t order.Totals) totalsDTO {
	return totalsDTO{
		Subtotal:           t.Subtotal.InexactFloat64(),
		Discount:           t.Discount.InexactFloat64(),
		DiscountedSubtotal: t.DiscountedSubtotal.InexactFloat64(),
		Shipping:           t.Shipping.InexactFloat64(),
		Tax:                t.Tax.InexactFloat64(),
		Total:              t.Total.InexactFloat64(),
	}
}

type checkoutDTO struct {
	Step            string     `json:"step"`
	Address         addressDTO `json:"address"`
	AddressComplete bool       `json:"addressComplete"`
	LookupError     string     `json:"lookupError,omitempty"`
	Shipping        string     `json:"shipping,omitempty"`
	Payment         string     `json:"payment,omitempty"`
	Coupon          string     `json:"coupon,omitempty"`
	DiscountPercent float64    `json:"discountPercent"`
	Summary         totalsDTO  `json:"summary"`
}

// toCheckout renders the flow with a live price summary of the cart.
func toCheckout(f *checkout.Flow, c *cart.Store) checkoutDTO {
	code, pct := f.Coupon()
	out := checkoutDTO{
		Step:            f.Step().String(),
		Address:         toAddress(f.Address()),
		AddressComplete: f.AddressComplete(),
		Shipping:        string(f.Shipping()),
		Payment:         string(f.Payment()),
		Coupon:          code,
		DiscountPercent: pct.InexactFloat64(),
		Summary:         toTotals(order.ComputeTotals(c.Subtotal(), pct)),
	}
	if err := f.LookupError(); err != nil {
		out.LookupError = err.Error()
	}
	return out
}

type shippingOptionDTO struct {
	Method    string  `json:"method"`
	Label     string  `json:"label"`
	Estimate  string  `json:"estimate"`
	ListPrice float64 `json:"listPrice"`
	Charge    float64 `json:"charge"`
}

type orderItemDTO struct {
	ProductID int64   `json:"productId"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Quantity  int     `json:"quantity"`
	Total     float64 `json:"total"`
}

type orderDTO struct {
	ID              string         `json:"id"`
	Items           []orderItemDTO `json:"items"`
	Address         addressDTO     `json:"address"`
	Shipping        string         `json:"shipping"`
	Payment         string         `json:"payment"`
	CouponCode      string         `json:"couponCode,omitempty"`
	DiscountPercent float64        `json:"discountPercent"`
	Totals          totalsDTO      `json:"totals"`
	Status          string         `json:"status"`
	CreatedAt       time.Time      `json:"createdAt"`
}

func toOrder(o *order.Order) orderDTO {
	items := make([]orderItemDTO, len(o.Items))
	for i, it := range o.Items {
		items[i] = orderItemDTO{
			ProductID: it.ProductID,
			Name:      it.Name,
			Price:     it.Price.InexactFloat64(),
			Quantity:  it.Quantity,
			Total:     it.Price.Mul(decimal.NewFromInt(int64(it.Quantity))).InexactFloat64(),
		}
	}
	return orderDTO{
		ID:              o.ID,
		Items:           items,
		Address:         toAddress(o.Address),
		Shipping:        string(o.Shipping),
		Payment:         string(o.Payment),
		CouponCode:      o.CouponCode,
		DiscountPercent: o.DiscountPercent.InexactFloat64(),
		Totals:          toTotals(o.Totals),
		Status:          string(o.Status),
		CreatedAt:       o.CreatedAt,
	}
}

type addItemRequest struct {
	ProductID int64 `json:"productId"`
	Quantity  int   `json:"quantity"`
}

type quantityRequest struct {
	Quantity int `json:"quantity"`
}

type methodRequest struct {
	Method string `json:"method"`
}

type stepRequest struct {
	Step string `json:"step"`
}

type couponRequest struct {
	Code string `json:"code"`
}

type postalCodeRequest struct {
	PostalCode string `json:"postalCode"`
}

type productRequest struct {
	Name        *string          `json:"name"`
	Description *string          `json:"description"`
	Price       *decimal.Decimal `json:"price"`
	Image       *string          `json:"image"`
	Category    *string          `json:"category"`
}

func (r productRequest) draft() product.Draft {
	var d product.Draft
	if r.Name != nil {
		d.Name = *r.Name
	}
	if r.Description != nil {
		d.Description = *r.Description
	}
	if r.Price != nil {
		d.Price = *r.Price
	}
	if r.Image != nil {
		d.Image = *r.Image
	}
	if r.Category != nil {
		d.Category = *r.Category
	}
	return d
}

func (r productRequest) patch() product.Patch {
	return product.Patch(r)
}
