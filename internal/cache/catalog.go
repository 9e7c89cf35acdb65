package cache

import (
	"context"
	"time"

	"golang.org/x/sync/singleflight"

	"shop/internal/core"
	"shop/internal/metrics"
)

// CatalogSource is the uncached catalog, normally the SQLite repository.
type CatalogSource interface {
	ListProducts(ctx context.Context, f core.Filter) ([]core.Product, error)
	FindProductByName(ctx context.Context, name string) (core.Product, error)
	SeedProducts(ctx context.Context, products []core.Product) (int, error)
}

// Catalog caches listings and lookups in front of a CatalogSource.
// Concurrent misses for the same key share one source call. Errors,
// including ErrProductNotFound, are never cached.
type Catalog struct {
	source   CatalogSource
	listings *LRU[[]core.Product]
	products *LRU[core.Product]
	group    singleflight.Group
}

const catalogCacheSize = 256

func NewCatalog(source CatalogSource, ttl time.Duration) *Catalog {
	return &Catalog{
		source:   source,
		listings: NewLRU[[]core.Product](catalogCacheSize, ttl),
		products: NewLRU[core.Product](catalogCacheSize, ttl),
	}
}

// Cleaners exposes the underlying caches for a Janitor.
func (c *Catalog) Cleaners() []Cleaner {
	return []Cleaner{c.listings, c.products}
}

func (c *Catalog) ListProducts(ctx context.Context, f core.Filter) ([]core.Product, error) {
	f = core.NormalizeFilter(f)
	key := "list\x00" + f.Category + "\x00" + f.Search

	if products, ok := c.listings.Get(key); ok {
		metrics.CatalogCacheLookups.WithLabelValues("hit").Inc()
		return clone(products), nil
	}
	metrics.CatalogCacheLookups.WithLabelValues("miss").Inc()

	v, err, _ := c.group.Do(key, func() (any, error) {
		products, err := c.source.ListProducts(ctx, f)
		if err != nil {
			return nil, err
		}
		c.listings.Set(key, products)
		return products, nil
	})
	if err != nil {
		return nil, err
	}
	return clone(v.([]core.Product)), nil
}

func (c *Catalog) FindProductByName(ctx context.Context, name string) (core.Product, error) {
	if p, ok := c.products.Get(name); ok {
		metrics.CatalogCacheLookups.WithLabelValues("hit").Inc()
		return p, nil
	}
	metrics.CatalogCacheLookups.WithLabelValues("miss").Inc()

	v, err, _ := c.group.Do("find\x00"+name, func() (any, error) {
		p, err := c.source.FindProductByName(ctx, name)
		if err != nil {
			return nil, err
		}
		c.products.Set(name, p)
		return p, nil
	})
	if err != nil {
		return core.Product{}, err
	}
	return v.(core.Product), nil
}

// SeedProducts writes through and invalidates everything cached.
func (c *Catalog) SeedProducts(ctx context.Context, products []core.Product) (int, error) {
	n, err := c.source.SeedProducts(ctx, products)
	if n > 0 {
		c.Invalidate()
	}
	return n, err
}

func (c *Catalog) Invalidate() {
	c.listings.Purge()
	c.products.Purge()
}

func clone(products []core.Product) []core.Product {
	out := make([]core.Product, len(products))
	copy(out, products)
	return out
}
