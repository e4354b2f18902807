package main

import (
	"encoding/json"
	"io"
	"os"
	"strings"

	"github.com/go-faster/errors"
	"github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"

	"github.com/xenking/storefront/internal/domain/product"
)

type productJSON struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Image       string          `json:"image"`
	Category    string          `json:"category"`
}

// readProducts loads a JSON array of products. Files ending in .gz are
// decompressed on the fly.
func readProducts(path string) ([]product.Product, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open products file")
	}
	defer func() { _ = f.Close() }()

	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gz, err := pgzip.NewReader(f)
		if err != nil {
			return nil, errors.Wrap(err, "open gzip stream")
		}
		defer func() { _ = gz.Close() }()
		r = gz
	}
	return decodeProducts(r)
}

func decodeProducts(r io.Reader) ([]product.Product, error) {
	var raw []productJSON
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, errors.Wrap(err, "parse products JSON")
	}

	out := make([]product.Product, 0, len(raw))
	seen := make(map[int64]bool, len(raw))
	for _, p := range raw {
		if p.ID <= 0 {
			return nil, errors.Errorf("product %q: id must be positive", p.Name)
		}
		if seen[p.ID] {
			return nil, errors.Errorf("duplicate product id %d", p.ID)
		}
		seen[p.ID] = true

		d := product.Draft{
			Name:        p.Name,
			Description: p.Description,
			Price:       p.Price,
			Image:       p.Image,
			Category:    p.Category,
		}
		if err := d.Validate(); err != nil {
			return nil, errors.Wrapf(err, "product %d", p.ID)
		}
		out = append(out, product.Product{
			ID:          p.ID,
			Name:        p.Name,
			Description: p.Description,
			Price:       p.Price,
			Image:       p.Image,
			Category:    p.Category,
		})
	}
	return out, nil
}
