package product

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/storefront/internal/domain/errkind"
)

var (
	// ErrNotFound is returned when a requested product does not exist.
	ErrNotFound = errkind.NotFound(errors.New("product not found"))
	// ErrNameRequired is returned when a product draft has an empty name.
	ErrNameRequired = errkind.Validation(errors.New("product name is required"))
	// ErrNegativePrice is returned when a product price is below zero.
	ErrNegativePrice = errkind.Validation(errors.New("product price must not be negative"))
)

// Product represents a catalog item available for purchase. It is owned by
// the catalog and immutable from the cart's point of view.
type Product struct {
	ID          int64
	Name        string
	Description string
	Price       decimal.Decimal
	Image       string
	Category    string
}

// Category groups products on the storefront.
type Category struct {
	ID    int64
	Name  string
	Image string
}

// Draft holds the fields of a product that is about to be created.
type Draft struct {
	Name        string
	Description string
	Price       decimal.Decimal
	Image       string
	Category    string
}

// Validate checks the draft before it reaches a repository.
func (d Draft) Validate() error {
	if strings.TrimSpace(d.Name) == "" {
		return ErrNameRequired
	}
	if d.Price.IsNegative() {
		return ErrNegativePrice
	}
	return nil
}

// Patch is a partial update. Nil fields are left unchanged.
type Patch struct {
	Name        *string
	Description *string
	Price       *decimal.Decimal
	Image       *string
	Category    *string
}

// Apply merges the patch into p and validates the result.
func (pt Patch) Apply(p Product) (Product, error) {
	if pt.Name != nil {
		p.Name = *pt.Name
	}
	if pt.Description != nil {
		p.Description = *pt.Description
	}
	if pt.Price != nil {
		p.Price = *pt.Price
	}
	if pt.Image != nil {
		p.Image = *pt.Image
	}
	if pt.Category != nil {
		p.Category = *pt.Category
	}
	draft := Draft{Name: p.Name, Description: p.Description, Price: p.Price, Image: p.Image, Category: p.Category}
	if err := draft.Validate(); err != nil {
		return Product{}, err
	}
	return p, nil
}

// NotFoundError reports the id of a product that does not exist.
type NotFoundError struct {
	ID int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("product %d not found", e.ID)
}

// Is makes a NotFoundError match ErrNotFound and its kind.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound || target == errkind.ErrNotFound
}

// Repository is the catalog side of the data provider.
type Repository interface {
	List(ctx context.Context) ([]Product, error)
	ListByCategory(ctx context.Context, category string) ([]Product, error)
	GetByID(ctx context.Context, id int64) (*Product, error)
	Categories(ctx context.Context) ([]Category, error)
	Featured(ctx context.Context, n int) ([]Product, error)
}

// AdminRepository adds the catalog mutations used by the admin panel.
type AdminRepository interface {
	Repository
	Create(ctx context.Context, d Draft) (*Product, error)
	Update(ctx context.Context, id int64, p Patch) (*Product, error)
	Delete(ctx context.Context, id int64) (bool, error)
}
