package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"cinelist/metrics"
	"cinelist/models"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// CacheOptions configures a CachedCatalog
type CacheOptions struct {
	Size      int
	TTL       time.Duration
	SearchTTL time.Duration
	Metrics   *metrics.CatalogMetrics
}

// CachedCatalog wraps a Catalog with short-lived in-memory caches.
// Errors are never cached.
type CachedCatalog struct {
	next    Catalog
	general *expirable.LRU[string, any]
	search  *expirable.LRU[string, []models.MovieSummary]
	metrics *metrics.CatalogMetrics
}

const trendingKey = "trending"

// NewCachedCatalog creates a caching decorator around next
func NewCachedCatalog(next Catalog, opts CacheOptions) *CachedCatalog {
	if opts.Size <= 0 {
		opts.Size = 256
	}
	if opts.TTL <= 0 {
		opts.TTL = 5 * time.Minute
	}
	if opts.SearchTTL <= 0 {
		opts.SearchTTL = time.Minute
	}
	return &CachedCatalog{
		next:    next,
		general: expirable.NewLRU[string, any](opts.Size, nil, opts.TTL),
		search:  expirable.NewLRU[string, []models.MovieSummary](opts.Size, nil, opts.SearchTTL),
		metrics: opts.Metrics,
	}
}

// Trending returns the cached trending list, fetching it on a miss
func (c *CachedCatalog) Trending(ctx context.Context) ([]models.MovieSummary, error) {
	return cached(c, "trending", trendingKey, func() ([]models.MovieSummary, error) {
		return c.next.Trending(ctx)
	})
}

// RefreshTrending fetches the trending list and replaces the cached copy
func (c *CachedCatalog) RefreshTrending(ctx context.Context) error {
	movies, err := c.next.Trending(ctx)
	if err != nil {
		return err
	}
	c.general.Add(trendingKey, movies)
	return nil
}

// Search caches results per normalized query for a shorter period
func (c *CachedCatalog) Search(ctx context.Context, query string) ([]models.MovieSummary, error) {
	key := strings.ToLower(strings.TrimSpace(query))
	if movies, ok := c.search.Get(key); ok {
		c.metrics.CacheHit("search")
		return movies, nil
	}
	c.metrics.CacheMiss("search")

	movies, err := c.next.Search(ctx, query)
	if err != nil {
		return nil, err
	}
	c.search.Add(key, movies)
	return movies, nil
}

func (c *CachedCatalog) Details(ctx context.Context, id int) (*models.MovieDetails, error) {
	return cached(c, "details", fmt.Sprintf("details:%d", id), func() (*models.MovieDetails, error) {
		return c.next.Details(ctx, id)
	})
}

func (c *CachedCatalog) Credits(ctx context.Context, id int) (*models.Credits, error) {
	return cached(c, "credits", fmt.Sprintf("credits:%d", id), func() (*models.Credits, error) {
		return c.next.Credits(ctx, id)
	})
}

func (c *CachedCatalog) Videos(ctx context.Context, id int) ([]models.Video, error) {
	return cached(c, "videos", fmt.Sprintf("videos:%d", id), func() ([]models.Video, error) {
		return c.next.Videos(ctx, id)
	})
}

func (c *CachedCatalog) Similar(ctx context.Context, id int) ([]models.MovieSummary, error) {
	return cached(c, "similar", fmt.Sprintf("similar:%d", id), func() ([]models.MovieSummary, error) {
		return c.next.Similar(ctx, id)
	})
}

// Purge drops every cached entry
func (c *CachedCatalog) Purge() {
	c.general.Purge()
	c.search.Purge()
}

func cached[T any](c *CachedCatalog, endpoint, key string, fetch func() (T, error)) (T, error) {
	if v, ok := c.general.Get(key); ok {
		if typed, ok := v.(T); ok {
			c.metrics.CacheHit(endpoint)
			return typed, nil
		}
	}
	c.metrics.CacheMiss(endpoint)

	v, err := fetch()
	if err != nil {
		var zero T
		return zero, err
	}
	c.general.Add(key, v)
	return v, nil
}
