package memory

import (
	"context"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/iho/dochub/internal/domain"
)

// RoleCache is an in-process LRU role cache whose entries expire after ttl.
// Every Invalidate bumps the role's generation; Set is dropped when the fill
// token no longer matches it.
type RoleCache struct {
	mu    sync.Mutex
	cache *lru.LRU[string, *domain.Role]
	gens  map[string]uint64
}

// NewRoleCache creates a cache holding at most size roles.
func NewRoleCache(size int, ttl time.Duration) *RoleCache {
	if size < 1 {
		size = 1
	}
	return &RoleCache{
		cache: lru.NewLRU[string, *domain.Role](size, nil, ttl),
		gens:  make(map[string]uint64),
	}
}

func (c *RoleCache) Get(_ context.Context, roleID string) (*domain.Role, uint64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	fill := c.gens[roleID]
	role, ok := c.cache.Get(roleID)
	if !ok {
		return nil, fill, false
	}
	return role.Clone(), fill, true
}

func (c *RoleCache) Set(_ context.Context, role *domain.Role, fill uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.gens[role.ID] != fill {
		return
	}
	c.cache.Add(role.ID, role.Clone())
}

func (c *RoleCache) Invalidate(_ context.Context, roleID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.gens[roleID]++
	c.cache.Remove(roleID)
}

// Len returns the number of cached roles.
func (c *RoleCache) Len() int {
	return c.cache.Len()
}
