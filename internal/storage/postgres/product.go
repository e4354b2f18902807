package postgres

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/storefront/internal/domain/product"
)

const (
	productColumns = `id, name, description, price, image, category`

	listProductsSQL = `SELECT ` + productColumns + ` FROM products ORDER BY id`

	listProductsByCategorySQL = `SELECT ` + productColumns + ` FROM products
		WHERE category = $1 ORDER BY id`

	getProductByIDSQL = `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	featuredProductsSQL = `SELECT ` + productColumns + ` FROM products
		ORDER BY random() LIMIT $1`

	listCategoriesSQL = `SELECT id, name, image FROM categories ORDER BY id`

	lockProductsSQL = `LOCK TABLE products IN SHARE ROW EXCLUSIVE MODE`

	createProductSQL = `INSERT INTO products (id, name, description, price, image, category)
		SELECT COALESCE(MAX(id), 0) + 1, $1, $2, $3, $4, $5 FROM products
		RETURNING ` + productColumns

	getProductForUpdateSQL = getProductByIDSQL + ` FOR UPDATE`

	updateProductSQL = `UPDATE products
		SET name = $2, description = $3, price = $4, image = $5, category = $6
		WHERE id = $1`

	deleteProductSQL = `DELETE FROM products WHERE id = $1`

	upsertProductSQL = `INSERT INTO products (id, name, description, price, image, category)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			price = EXCLUDED.price,
			image = EXCLUDED.image,
			category = EXCLUDED.category`

	upsertCategorySQL = `INSERT INTO categories (id, name, image) VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, image = EXCLUDED.image`
)

var _ product.AdminRepository = (*ProductRepository)(nil)

// ProductRepository implements product.AdminRepository backed by PostgreSQL.
type ProductRepository struct {
	pool *pgxpool.Pool
}

// NewProductRepository returns a ProductRepository that uses the given pool.
func NewProductRepository(pool *pgxpool.Pool) *ProductRepository {
	return &ProductRepository{pool: pool}
}

// List returns all products from the catalog ordered by ID.
func (r *ProductRepository) List(ctx context.Context) ([]product.Product, error) {
	rows, err := r.pool.Query(ctx, listProductsSQL)
	if err != nil {
		return nil, unavailable(err, "listing products")
	}
	products, err := pgx.CollectRows(rows, scanProduct)
	if err != nil {
		return nil, unavailable(err, "listing products")
	}
	return products, nil
}

// ListByCategory returns the products of the exact category ordered by ID.
func (r *ProductRepository) ListByCategory(ctx context.Context, category string) ([]product.Product, error) {
	rows, err := r.pool.Query(ctx, listProductsByCategorySQL, category)
	if err != nil {
		return nil, unavailable(err, "listing products of %q", category)
	}
	products, err := pgx.CollectRows(rows, scanProduct)
	if err != nil {
		return nil, unavailable(err, "listing products of %q", category)
	}
	return products, nil
}

// GetByID returns a single product by its identifier.
func (r *ProductRepository) GetByID(ctx context.Context, id int64) (*product.Product, error) {
	rows, err := r.pool.Query(ctx, getProductByIDSQL, id)
	if err != nil {
		return nil, unavailable(err, "getting product %d", id)
	}

	p, err := pgx.CollectExactlyOneRow(rows, scanProduct)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &product.NotFoundError{ID: id}
		}
		return nil, unavailable(err, "getting product %d", id)
	}
	return &p, nil
}

// Categories returns all categories ordered by ID.
func (r *ProductRepository) Categories(ctx context.Context) ([]product.Category, error) {
	rows, err := r.pool.Query(ctx, listCategoriesSQL)
	if err != nil {
		return nil, unavailable(err, "listing categories")
	}
	categories, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (product.Category, error) {
		var c product.Category
		err := row.Scan(&c.ID, &c.Name, &c.Image)
		return c, err
	})
	if err != nil {
		return nil, unavailable(err, "listing categories")
	}
	return categories, nil
}

// Featured returns up to n randomly chosen products.
func (r *ProductRepository) Featured(ctx context.Context, n int) ([]product.Product, error) {
	if n <= 0 {
		return []product.Product{}, nil
	}
	rows, err := r.pool.Query(ctx, featuredProductsSQL, n)
	if err != nil {
		return nil, unavailable(err, "listing featured products")
	}
	products, err := pgx.CollectRows(rows, scanProduct)
	if err != nil {
		return nil, unavailable(err, "listing featured products")
	}
	return products, nil
}

// Create inserts a product with id max(id)+1. The table lock keeps
// concurrent creates from picking the same id.
func (r *ProductRepository) Create(ctx context.Context, d product.Draft) (*product.Product, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}

	var p product.Product
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, lockProductsSQL); err != nil {
			return err
		}
		rows, err := tx.Query(ctx, createProductSQL, d.Name, d.Description, d.Price, d.Image, d.Category)
		if err != nil {
			return err
		}
		p, err = pgx.CollectExactlyOneRow(rows, scanProduct)
		return err
	})
	if err != nil {
		return nil, unavailable(err, "creating product %q", d.Name)
	}
	return &p, nil
}

// Update merges patch into the stored product.
func (r *ProductRepository) Update(ctx context.Context, id int64, patch product.Patch) (*product.Product, error) {
	var updated product.Product
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, getProductForUpdateSQL, id)
		if err != nil {
			return err
		}
		current, err := pgx.CollectExactlyOneRow(rows, scanProduct)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return &product.NotFoundError{ID: id}
			}
			return err
		}
		updated, err = patch.Apply(current)
		if err != nil {
			return err
		}
		_, err = tx.Exec(ctx, updateProductSQL,
			updated.ID, updated.Name, updated.Description, updated.Price, updated.Image, updated.Category)
		return err
	})
	switch {
	case err == nil:
		return &updated, nil
	case errors.Is(err, product.ErrNotFound), errors.Is(err, product.ErrNameRequired), errors.Is(err, product.ErrNegativePrice):
		return nil, err
	default:
		return nil, unavailable(err, "updating product %d", id)
	}
}

// Delete removes a product and reports whether it existed.
func (r *ProductRepository) Delete(ctx context.Context, id int64) (bool, error) {
	tag, err := r.pool.Exec(ctx, deleteProductSQL, id)
	if err != nil {
		return false, unavailable(err, "deleting product %d", id)
	}
	return tag.RowsAffected() > 0, nil
}

// Upsert inserts or replaces a product keeping its id.
func (r *ProductRepository) Upsert(ctx context.Context, p product.Product) error {
	if _, err := r.pool.Exec(ctx, upsertProductSQL,
		p.ID, p.Name, p.Description, p.Price, p.Image, p.Category,
	); err != nil {
		return unavailable(err, "upserting product %d", p.ID)
	}
	return nil
}

// UpsertCategory inserts or replaces a category.
func (r *ProductRepository) UpsertCategory(ctx context.Context, c product.Category) error {
	if _, err := r.pool.Exec(ctx, upsertCategorySQL, c.ID, c.Name, c.Image); err != nil {
		return unavailable(err, "upserting category %q", c.Name)
	}
	return nil
}

func scanProduct(row pgx.CollectableRow) (product.Product, error) {
	var p product.Product
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.Image, &p.Category)
	return p, err
}
