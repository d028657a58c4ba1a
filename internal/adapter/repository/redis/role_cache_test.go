package redis

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/dochub/internal/domain"
)

func TestRoleCacheRoundTrip(t *testing.T) {
	client, mr := newTestRedisClient(t)
	defer mr.Close()
	defer client.Close()

	cache := NewRoleCache(client, time.Minute, zerolog.Nop())
	ctx := context.Background()

	role := &domain.Role{
		ID:   "r1",
		Name: "editor",
		ScopeRules: []domain.ScopeRule{{
			Scope:       domain.ScopeDocument,
			AccessLevel: domain.AccessEdit,
			FieldRules:  []domain.FieldRule{{FieldName: "size", AccessLevel: domain.AccessView}},
		}},
	}
	cache.Set(ctx, role, 0)

	got, _, ok := cache.Get(ctx, "r1")
	if !ok {
		t.Fatalf("expected cache hit")
	}
	decision := domain.Evaluate(got.Policy(), domain.ScopeDocument, domain.AccessEdit)
	if !decision.Granted || !decision.IsRedacted("size") {
		t.Fatalf("cached role lost its rules: %+v", decision)
	}

	if ttl := mr.TTL("rbac:role:r1"); ttl != time.Minute {
		t.Fatalf("expected 1m ttl, got %v", ttl)
	}
}

func TestRoleCacheInvalidateAndExpiry(t *testing.T) {
	client, mr := newTestRedisClient(t)
	defer mr.Close()
	defer client.Close()

	cache := NewRoleCache(client, time.Second, zerolog.Nop())
	ctx := context.Background()

	cache.Set(ctx, &domain.Role{ID: "r1", IsSuper: true}, 0)
	cache.Invalidate(ctx, "r1")
	if _, _, ok := cache.Get(ctx, "r1"); ok {
		t.Fatalf("expected miss after invalidation")
	}

	cache.Set(ctx, &domain.Role{ID: "r2", IsSuper: true}, 0)
	mr.FastForward(2 * time.Second)
	if _, _, ok := cache.Get(ctx, "r2"); ok {
		t.Fatalf("expected miss after expiry")
	}
}

func TestRoleCacheCorruptEntryIsMiss(t *testing.T) {
	client, mr := newTestRedisClient(t)
	defer mr.Close()
	defer client.Close()

	cache := NewRoleCache(client, time.Minute, zerolog.Nop())
	if err := mr.Set("rbac:role:r1", "{not json"); err != nil {
		t.Fatalf("setup failed: %v", err)
	}

	if _, _, ok := cache.Get(context.Background(), "r1"); ok {
		t.Fatalf("expected corrupt entry to be a miss")
	}
}

func TestRoleCacheServerDownIsMiss(t *testing.T) {
	client, mr := newTestRedisClient(t)
	defer client.Close()

	cache := NewRoleCache(client, time.Minute, zerolog.Nop())
	mr.Close()

	cache.Set(context.Background(), &domain.Role{ID: "r1"}, 0)
	if _, _, ok := cache.Get(context.Background(), "r1"); ok {
		t.Fatalf("expected miss when redis is down")
	}
}

func TestRoleCacheDropsFillAfterInvalidate(t *testing.T) {
	client, mr := newTestRedisClient(t)
	defer mr.Close()
	defer client.Close()

	cache := NewRoleCache(client, time.Minute, zerolog.Nop())
	ctx := context.Background()

	_, fill, ok := cache.Get(ctx, "r1")
	if ok || fill != 0 {
		t.Fatalf("expected empty cache, got ok=%v fill=%d", ok, fill)
	}

	cache.Invalidate(ctx, "r1")
	cache.Set(ctx, &domain.Role{ID: "r1", Name: "old"}, fill)
	if mr.Exists("rbac:role:r1") {
		t.Fatalf("role read before invalidation was cached")
	}

	_, next, _ := cache.Get(ctx, "r1")
	if next != 1 {
		t.Fatalf("expected generation 1, got %d", next)
	}
	cache.Set(ctx, &domain.Role{ID: "r1", Name: "new"}, next)

	got, _, ok := cache.Get(ctx, "r1")
	if !ok || got.Name != "new" {
		t.Fatalf("expected fresh role cached, got %+v ok=%v", got, ok)
	}
}
