package booking

import (
	"classrent/src/models"
	"classrent/src/models/scopes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// SpacePolicy resolves a bookable space. Inactive spaces are reported as not found.
type SpacePolicy interface {
	Get(ctx context.Context, spaceID uint) (*models.Space, error)
}

type GormSpacePolicy struct {
	db *gorm.DB
}

var _ SpacePolicy = (*GormSpacePolicy)(nil)

func NewGormSpacePolicy(db *gorm.DB) *GormSpacePolicy {
	return &GormSpacePolicy{db: db}
}

func (p *GormSpacePolicy) Get(ctx context.Context, spaceID uint) (*models.Space, error) {
	var space models.Space
	err := p.db.WithContext(ctx).
		Scopes(scopes.ActiveSpaces).
		First(&space, spaceID).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, newError(ErrSpaceNotFound, "", "space %d does not exist", spaceID)
		}
		return nil, fmt.Errorf("get space: %w", err)
	}
	return &space, nil
}

const SpacePolicyTTL = 5 * time.Minute

// CachedSpacePolicy is a read-through redis cache in front of another policy.
// Redis failures fall through to the wrapped policy.
type CachedSpacePolicy struct {
	next SpacePolicy
	rdb  *redis.Client
	ttl  time.Duration
}

var _ SpacePolicy = (*CachedSpacePolicy)(nil)

func NewCachedSpacePolicy(next SpacePolicy, rdb *redis.Client, ttl time.Duration) *CachedSpacePolicy {
	if ttl <= 0 {
		ttl = SpacePolicyTTL
	}
	return &CachedSpacePolicy{next: next, rdb: rdb, ttl: ttl}
}

func SpacePolicyKey(spaceID uint) string {
	return fmt.Sprintf("space::%d:policy", spaceID)
}

func (p *CachedSpacePolicy) Get(ctx context.Context, spaceID uint) (*models.Space, error) {
	key := SpacePolicyKey(spaceID)
	cached, err := p.rdb.Get(ctx, key).Result()
	switch {
	case err == nil:
		var space models.Space
		if err := json.Unmarshal([]byte(cached), &space); err == nil {
			return &space, nil
		}
		log.Printf("Error decoding cached policy %s, reloading\n", key)
	case !errors.Is(err, redis.Nil):
		log.Printf("Error reading cached policy %s: %s\n", key, err.Error())
	}

	space, err := p.next.Get(ctx, spaceID)
	if err != nil {
		return nil, err
	}
	payload, err := json.Marshal(space)
	if err != nil {
		log.Printf("Error encoding policy for space %d: %s\n", spaceID, err.Error())
		return space, nil
	}
	if err := p.rdb.Set(ctx, key, string(payload), p.ttl).Err(); err != nil {
		log.Printf("Error caching policy %s: %s\n", key, err.Error())
	}
	return space, nil
}
