package redis

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/iho/dochub/internal/domain"
)

var errStaleFill = errors.New("role invalidated since read")

// RoleCache implements usecase.RoleCache on Redis. Entries are JSON encoded
// and expire after ttl, bounding staleness across replicas. Each role has a
// generation counter that Invalidate increments; Set runs under WATCH on it
// and is dropped when the counter moved past the caller's fill token.
type RoleCache struct {
	client    *redis.Client
	prefix    string
	genPrefix string
	ttl       time.Duration
	logger    zerolog.Logger
}

// NewRoleCache creates a new RoleCache.
func NewRoleCache(client *redis.Client, ttl time.Duration, logger zerolog.Logger) *RoleCache {
	return &RoleCache{
		client:    client,
		prefix:    "rbac:role:",
		genPrefix: "rbac:role-gen:",
		ttl:       ttl,
		logger:    logger,
	}
}

// Get returns the cached role and the fill token for a later Set. Any Redis
// failure is a miss.
func (c *RoleCache) Get(ctx context.Context, roleID string) (*domain.Role, uint64, bool) {
	vals, err := c.client.MGet(ctx, c.prefix+roleID, c.genPrefix+roleID).Result()
	if err != nil {
		c.logger.Warn().Err(err).Str("role_id", roleID).Msg("role cache read failed")
		return nil, 0, false
	}

	var fill uint64
	if gen, ok := vals[1].(string); ok {
		if fill, err = strconv.ParseUint(gen, 10, 64); err != nil {
			c.logger.Warn().Err(err).Str("role_id", roleID).Msg("role cache generation is corrupt")
			return nil, 0, false
		}
	}

	data, ok := vals[0].(string)
	if !ok {
		return nil, fill, false
	}

	var role domain.Role
	if err := json.Unmarshal([]byte(data), &role); err != nil {
		c.logger.Warn().Err(err).Str("role_id", roleID).Msg("role cache entry is corrupt")
		return nil, fill, false
	}
	return &role, fill, true
}

// Set stores the role unless it was invalidated after fill was handed out.
func (c *RoleCache) Set(ctx context.Context, role *domain.Role, fill uint64) {
	data, err := json.Marshal(role)
	if err != nil {
		c.logger.Warn().Err(err).Str("role_id", role.ID).Msg("role cache encode failed")
		return
	}

	genKey := c.genPrefix + role.ID
	err = c.client.Watch(ctx, func(tx *redis.Tx) error {
		gen, err := tx.Get(ctx, genKey).Uint64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if gen != fill {
			return errStaleFill
		}
		_, err = tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
			p.Set(ctx, c.prefix+role.ID, data, c.ttl)
			return nil
		})
		return err
	}, genKey)

	switch {
	case err == nil:
	case errors.Is(err, errStaleFill), errors.Is(err, redis.TxFailedErr):
		c.logger.Debug().Str("role_id", role.ID).Msg("role cache fill skipped")
	default:
		c.logger.Warn().Err(err).Str("role_id", role.ID).Msg("role cache write failed")
	}
}

// Invalidate drops the role and bumps its generation.
func (c *RoleCache) Invalidate(ctx context.Context, roleID string) {
	_, err := c.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Incr(ctx, c.genPrefix+roleID)
		p.Del(ctx, c.prefix+roleID)
		return nil
	})
	if err != nil {
		c.logger.Error().Err(err).Str("role_id", roleID).Msg("role cache invalidation failed")
	}
}
