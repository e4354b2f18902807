package storage

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/storefront/internal/domain/product"
	"github.com/xenking/storefront/internal/storage/memory"
)

// blockingRepo counts List calls and holds them until release is closed.
type blockingRepo struct {
	product.AdminRepository
	calls   atomic.Int32
	entered chan struct{}
	release chan struct{}
}

func (b *blockingRepo) List(ctx context.Context) ([]product.Product, error) {
	if b.calls.Add(1) == 1 {
		close(b.entered)
	}
	<-b.release
	return b.AdminRepository.List(ctx)
}

func TestDeduplicated_CollapsesConcurrentReads(t *testing.T) {
	repo := &blockingRepo{
		AdminRepository: memory.NewSeeded(),
		entered:         make(chan struct{}),
		release:         make(chan struct{}),
	}
	d := Deduplicate(repo)

	const callers = 8
	var (
		wg      sync.WaitGroup
		results = make([][]product.Product, callers)
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		results[0], _ = d.List(context.Background())
	}()
	<-repo.entered
	for i := 1; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], _ = d.List(context.Background())
		}()
	}
	// Followers may or may not join the in-flight call before release; either
	// way every caller gets a full result.
	close(repo.release)
	wg.Wait()

	assert.LessOrEqual(t, int(repo.calls.Load()), callers)
	for _, r := range results {
		assert.Len(t, r, 8)
	}

	// Results are independent copies.
	results[0][0].Name = "changed"
	assert.NotEqual(t, "changed", results[1][0].Name)
}

func TestDeduplicated_Passthrough(t *testing.T) {
	d := Deduplicate(memory.NewSeeded())
	ctx := context.Background()

	p, err := d.GetByID(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, "Smart Watch Series X", p.Name)

	_, err = d.GetByID(ctx, 404)
	require.ErrorIs(t, err, product.ErrNotFound)

	food, err := d.ListByCategory(ctx, "Food")
	require.NoError(t, err)
	assert.Len(t, food, 2)

	categories, err := d.Categories(ctx)
	require.NoError(t, err)
	assert.Len(t, categories, 4)

	created, err := d.Create(ctx, product.Draft{Name: "Notebook", Price: decimal.NewFromInt(12)})
	require.NoError(t, err)
	got, err := d.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Notebook", got.Name)
}
