package workshops

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/aura-workshops/backend/internal/models"
)

// UpcomingLister lists upcoming workshops. *Repository implements it.
type UpcomingLister interface {
	ListUpcoming(ctx context.Context, limit int) ([]models.Workshop, error)
}

// CachedLister memoizes ListUpcoming per limit for ttl. The chat prompt lists the catalog on
// every turn; seat counts shown there may lag by up to ttl.
type CachedLister struct {
	next  UpcomingLister
	cache *expirable.LRU[int, []models.Workshop]
}

// NewCachedLister wraps next with a small expiring cache.
func NewCachedLister(next UpcomingLister, ttl time.Duration) *CachedLister {
	return &CachedLister{
		next:  next,
		cache: expirable.NewLRU[int, []models.Workshop](8, nil, ttl),
	}
}

// ListUpcoming implements UpcomingLister. Errors are not cached.
func (c *CachedLister) ListUpcoming(ctx context.Context, limit int) ([]models.Workshop, error) {
	if list, ok := c.cache.Get(limit); ok {
		return list, nil
	}
	list, err := c.next.ListUpcoming(ctx, limit)
	if err != nil {
		return nil, err
	}
	c.cache.Add(limit, list)
	return list, nil
}
