// Package cart holds the shopping cart of a single storefront session.
package cart

import (
	"slices"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/storefront/internal/domain/errkind"
	"github.com/xenking/storefront/internal/domain/product"
)

// MaxQuantity is the largest quantity a single cart line may hold.
const MaxQuantity = 9999

var (
	// ErrInvalidQuantity is returned for negative quantities on add, for
	// quantities below one on update, and for lines that would exceed
	// MaxQuantity.
	ErrInvalidQuantity = errkind.Validation(errors.New("quantity must be between 1 and 9999"))
	// ErrInvalidProduct is returned when a product has a non-positive id or a
	// negative price.
	ErrInvalidProduct = errkind.Validation(errors.New("invalid product"))
)

// Line is one product-quantity pairing inside a cart.
type Line struct {
	Product  product.Product
	Quantity int
}

// Total returns price × quantity for the line.
func (l Line) Total() decimal.Decimal {
	return l.Product.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Store is the single source of truth for one session's cart. Lines keep the
// order in which products were first added, and there is at most one line per
// product id. Store is not safe for concurrent use; the owning session
// serializes access.
type Store struct {
	lines []Line
}

// NewStore returns an empty cart.
func NewStore() *Store {
	return &Store{}
}

// Add puts quantity units of p into the cart, merging with an existing line
// for the same product. A zero quantity counts as one.
func (s *Store) Add(p product.Product, quantity int) error {
	if quantity < 0 {
		return ErrInvalidQuantity
	}
	if p.ID <= 0 || p.Price.IsNegative() {
		return ErrInvalidProduct
	}
	quantity = max(quantity, 1)

	if i := s.index(p.ID); i >= 0 {
		if quantity > MaxQuantity-s.lines[i].Quantity {
			return ErrInvalidQuantity
		}
		s.lines[i].Quantity += quantity
		return nil
	}
	if quantity > MaxQuantity {
		return ErrInvalidQuantity
	}
	s.lines = append(s.lines, Line{Product: p, Quantity: quantity})
	return nil
}

// UpdateQuantity sets the quantity of the line for productID. Quantities
// below one or above MaxQuantity are rejected and leave the line unchanged:
// callers that want a line gone must call Remove. Unknown products are ignored.
func (s *Store) UpdateQuantity(productID int64, quantity int) error {
	if quantity < 1 || quantity > MaxQuantity {
		return ErrInvalidQuantity
	}
	if i := s.index(productID); i >= 0 {
		s.lines[i].Quantity = quantity
	}
	return nil
}

// Remove deletes the line for productID if present.
func (s *Store) Remove(productID int64) {
	if i := s.index(productID); i >= 0 {
		s.lines = slices.Delete(s.lines, i, i+1)
	}
}

// Clear empties the cart.
func (s *Store) Clear() {
	s.lines = nil
}

// Lines returns a copy of the cart lines in insertion order.
func (s *Store) Lines() []Line {
	return slices.Clone(s.lines)
}

// Line returns the line for productID.
func (s *Store) Line(productID int64) (Line, bool) {
	if i := s.index(productID); i >= 0 {
		return s.lines[i], true
	}
	return Line{}, false
}

// Subtotal returns the sum of price × quantity over all lines.
func (s *Store) Subtotal() decimal.Decimal {
	sum := decimal.Zero
	for _, l := range s.lines {
		sum = sum.Add(l.Total())
	}
	return sum
}

// ItemCount returns the total number of units in the cart.
func (s *Store) ItemCount() int {
	n := 0
	for _, l := range s.lines {
		n += l.Quantity
	}
	return n
}

// Empty reports whether the cart has no lines.
func (s *Store) Empty() bool {
	return len(s.lines) == 0
}

func (s *Store) index(productID int64) int {
	return slices.IndexFunc(s.lines, func(l Line) bool {
		return l.Product.ID == productID
	})
}
