package product

import (
	"testing"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/storefront/internal/domain/errkind"
)

func TestDraft_Validate(t *testing.T) {
	tests := []struct {
		name    string
		draft   Draft
		wantErr error
	}{
		{
			name:  "valid",
			draft: Draft{Name: "Lamp", Price: decimal.RequireFromString("129.99")},
		},
		{
			name:  "free product is allowed",
			draft: Draft{Name: "Sticker", Price: decimal.Zero},
		},
		{
			name:    "blank name",
			draft:   Draft{Name: "   ", Price: decimal.NewFromInt(1)},
			wantErr: ErrNameRequired,
		},
		{
			name:    "negative price",
			draft:   Draft{Name: "Lamp", Price: decimal.NewFromInt(-1)},
			wantErr: ErrNegativePrice,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.draft.Validate()
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.ErrorIs(t, err, errkind.ErrValidation)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestPatch_Apply(t *testing.T) {
	p := Product{
		ID:       4,
		Name:     "Designer Minimalist Lamp",
		Price:    decimal.RequireFromString("129.99"),
		Category: "Home",
	}

	name := "Desk Lamp"
	price := decimal.RequireFromString("99.50")
	got, err := Patch{Name: &name, Price: &price}.Apply(p)

	require.NoError(t, err)
	assert.Equal(t, int64(4), got.ID)
	assert.Equal(t, "Desk Lamp", got.Name)
	assert.True(t, price.Equal(got.Price))
	assert.Equal(t, "Home", got.Category)
}

func TestPatch_ApplyRejectsInvalidResult(t *testing.T) {
	empty := ""
	_, err := Patch{Name: &empty}.Apply(Product{ID: 1, Name: "Lamp"})
	require.ErrorIs(t, err, ErrNameRequired)
}

func TestNotFoundError(t *testing.T) {
	err := errors.Wrap(&NotFoundError{ID: 42}, "get product")

	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, err, errkind.ErrNotFound)

	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, int64(42), nf.ID)
	assert.Equal(t, "get product: product 42 not found", err.Error())
}
