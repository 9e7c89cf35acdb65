package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shop/internal/core"
)

type countingSource struct {
	lists   atomic.Int32
	finds   atomic.Int32
	release chan struct{}
	err     error
}

func (s *countingSource) ListProducts(_ context.Context, f core.Filter) ([]core.Product, error) {
	s.lists.Add(1)
	if s.release != nil {
		<-s.release
	}
	if s.err != nil {
		return nil, s.err
	}
	var out []core.Product
	for _, p := range core.SeedProducts() {
		if f.Matches(p) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *countingSource) FindProductByName(_ context.Context, name string) (core.Product, error) {
	s.finds.Add(1)
	for _, p := range core.SeedProducts() {
		if p.Name == name {
			return p, nil
		}
	}
	return core.Product{}, core.ErrProductNotFound
}

func (s *countingSource) SeedProducts(_ context.Context, products []core.Product) (int, error) {
	return len(products), nil
}

func TestCatalogCachesListings(t *testing.T) {
	src := &countingSource{}
	c := NewCatalog(src, time.Minute)
	ctx := context.Background()

	first, err := c.ListProducts(ctx, core.Filter{Category: "колесные опоры"})
	require.NoError(t, err)
	require.Len(t, first, 2)

	// Mutating the result must not leak into the cache.
	first[0].Name = "changed"

	second, err := c.ListProducts(ctx, core.Filter{Category: " колесные опоры "})
	require.NoError(t, err)
	assert.Equal(t, "Опора поворотная", second[0].Name)
	assert.EqualValues(t, 1, src.lists.Load())

	_, err = c.ListProducts(ctx, core.Filter{})
	require.NoError(t, err)
	assert.EqualValues(t, 2, src.lists.Load())
}

func TestCatalogDoesNotCacheErrors(t *testing.T) {
	src := &countingSource{err: errors.New("db down")}
	c := NewCatalog(src, time.Minute)
	ctx := context.Background()

	_, err := c.ListProducts(ctx, core.Filter{})
	require.Error(t, err)
	src.err = nil
	_, err = c.ListProducts(ctx, core.Filter{})
	require.NoError(t, err)
	assert.EqualValues(t, 2, src.lists.Load())

	for i := 0; i < 2; i++ {
		_, err = c.FindProductByName(ctx, "Нет такого")
		assert.ErrorIs(t, err, core.ErrProductNotFound)
	}
	assert.EqualValues(t, 2, src.finds.Load())

	p, err := c.FindProductByName(ctx, "Рыба")
	require.NoError(t, err)
	assert.Equal(t, 5.50, p.PricePerKg)
	_, err = c.FindProductByName(ctx, "Рыба")
	require.NoError(t, err)
	assert.EqualValues(t, 3, src.finds.Load())
}

func TestCatalogCollapsesConcurrentMisses(t *testing.T) {
	src := &countingSource{release: make(chan struct{})}
	c := NewCatalog(src, time.Minute)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			products, err := c.ListProducts(context.Background(), core.Filter{})
			assert.NoError(t, err)
			assert.Len(t, products, 16)
		}()
	}
	// Let the goroutines pile up on the in-flight call.
	time.Sleep(50 * time.Millisecond)
	close(src.release)
	wg.Wait()

	assert.LessOrEqual(t, src.lists.Load(), int32(2))
}

func TestCatalogSeedInvalidates(t *testing.T) {
	src := &countingSource{}
	c := NewCatalog(src, time.Minute)
	ctx := context.Background()

	_, err := c.ListProducts(ctx, core.Filter{})
	require.NoError(t, err)
	_, err = c.SeedProducts(ctx, core.SeedProducts()[:1])
	require.NoError(t, err)
	_, err = c.ListProducts(ctx, core.Filter{})
	require.NoError(t, err)
	assert.EqualValues(t, 2, src.lists.Load())
}
