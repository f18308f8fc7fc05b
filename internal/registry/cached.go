package registry

import (
	"context"
	"fmt"
	"time"

	"casedesk/internal/platform/cache"
	"casedesk/internal/registry/models"
)

const keyPrefix = "registry:"

// CachedSearch serves Search from the TTL cache. Id lookups pass straight
// through: the case aggregation path must never see stale names.
type CachedSearch struct {
	Accessor
	cache cache.Cache
	ttl   time.Duration
}

// NewCachedSearch wraps next so listing requests hit the cache first.
func NewCachedSearch(next Accessor, c cache.Cache, ttl time.Duration) *CachedSearch {
	return &CachedSearch{Accessor: next, cache: c, ttl: ttl}
}

func (c *CachedSearch) Search(ctx context.Context, kind models.Kind, query string, page, pageSize int) (*models.Page, error) {
	page, pageSize = models.ClampPage(page, pageSize)
	key := searchKey(kind, query, page, pageSize)
	return cache.GetJSON(ctx, c.cache, key, c.ttl, func(ctx context.Context) (*models.Page, error) {
		return c.Accessor.Search(ctx, kind, query, page, pageSize)
	})
}

// InvalidateKind drops every cached listing of one kind. Reference CRUD
// calls this after writes.
func (c *CachedSearch) InvalidateKind(ctx context.Context, kind models.Kind) error {
	return c.cache.InvalidatePrefix(ctx, keyPrefix+kind.String()+":")
}

func searchKey(kind models.Kind, query string, page, pageSize int) string {
	return fmt.Sprintf("%s%s:q=%s:%d:%d", keyPrefix, kind, query, page, pageSize)
}
