// Package storage holds helpers shared by the catalog data providers.
package storage

import (
	"context"
	"slices"
	"strconv"

	"golang.org/x/sync/singleflight"

	"github.com/xenking/storefront/internal/domain/product"
)

var _ product.AdminRepository = (*Deduplicated)(nil)

// Deduplicated collapses identical concurrent catalog reads into a single
// call to the wrapped repository. Writes pass straight through.
type Deduplicated struct {
	product.AdminRepository
	group singleflight.Group
}

// Deduplicate wraps repo.
func Deduplicate(repo product.AdminRepository) *Deduplicated {
	return &Deduplicated{AdminRepository: repo}
}

// List returns every product.
func (d *Deduplicated) List(ctx context.Context) ([]product.Product, error) {
	v, err, _ := d.group.Do("list", func() (any, error) {
		return d.AdminRepository.List(ctx)
	})
	if err != nil {
		return nil, err
	}
	return slices.Clone(v.([]product.Product)), nil
}

// ListByCategory returns the products of one category.
func (d *Deduplicated) ListByCategory(ctx context.Context, category string) ([]product.Product, error) {
	v, err, _ := d.group.Do("category:"+category, func() (any, error) {
		return d.AdminRepository.ListByCategory(ctx, category)
	})
	if err != nil {
		return nil, err
	}
	return slices.Clone(v.([]product.Product)), nil
}

// GetByID returns one product.
func (d *Deduplicated) GetByID(ctx context.Context, id int64) (*product.Product, error) {
	v, err, _ := d.group.Do("product:"+strconv.FormatInt(id, 10), func() (any, error) {
		return d.AdminRepository.GetByID(ctx, id)
	})
	if err != nil {
		return nil, err
	}
	p := *v.(*product.Product)
	return &p, nil
}

// Categories returns every category.
func (d *Deduplicated) Categories(ctx context.Context) ([]product.Category, error) {
	v, err, _ := d.group.Do("categories", func() (any, error) {
		return d.AdminRepository.Categories(ctx)
	})
	if err != nil {
		return nil, err
	}
	return slices.Clone(v.([]product.Category)), nil
}
