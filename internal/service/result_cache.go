package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"convo-cafe/internal/cache"
)

// CachedResult es la entrada cacheada de perfiles similares para un
// (usuario, comunidad), atada a la version del set de perfiles con la que
// se calculo.
type CachedResult struct {
	SimilarProfiles []SimilarProfile `json:"similar_profiles"`
	CalculatedAt    time.Time        `json:"calculated_at"`
	ProfilesVersion string           `json:"profiles_version"`
}

// ResultCache guarda resultados de similitud por usuario y comunidad.
// La clave es estructurada: invalidar una comunidad es un recorrido directo,
// no un escaneo de sufijos de strings.
type ResultCache interface {
	Get(ctx context.Context, userID, communityID string) (CachedResult, bool, error)
	Set(ctx context.Context, userID, communityID string, result CachedResult) error
	Delete(ctx context.Context, userID, communityID string) error
	DeleteCommunity(ctx context.Context, communityID string) error
	Len(ctx context.Context) int
}

type resultKey struct {
	UserID      string
	CommunityID string
}

type memoryResultCache struct {
	store *cache.Store[resultKey, CachedResult]
}

// NewMemoryResultCache crea un cache de resultados en memoria con TTL y
// capacidad maxima (desaloja la entrada mas vieja).
func NewMemoryResultCache(ttl time.Duration, max int) ResultCache {
	return &memoryResultCache{store: cache.New[resultKey, CachedResult](ttl, max)}
}

func (c *memoryResultCache) Get(_ context.Context, userID, communityID string) (CachedResult, bool, error) {
	result, ok := c.store.Get(resultKey{UserID: userID, CommunityID: communityID})
	return result, ok, nil
}

func (c *memoryResultCache) Set(_ context.Context, userID, communityID string, result CachedResult) error {
	c.store.Set(resultKey{UserID: userID, CommunityID: communityID}, result)
	return nil
}

func (c *memoryResultCache) Delete(_ context.Context, userID, communityID string) error {
	c.store.Delete(resultKey{UserID: userID, CommunityID: communityID})
	return nil
}

func (c *memoryResultCache) DeleteCommunity(_ context.Context, communityID string) error {
	c.store.DeleteFunc(func(k resultKey) bool {
		return k.CommunityID == communityID
	})
	return nil
}

func (c *memoryResultCache) Len(_ context.Context) int {
	return c.store.Len()
}

type redisResultCache struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
}

// NewRedisResultCache crea un cache de resultados respaldado por Redis, para
// que varios procesos compartan resultados calculados. El TTL lo maneja Redis.
func NewRedisResultCache(client *redis.Client, ttl time.Duration) ResultCache {
	if client == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = similarityCacheTTL
	}
	return &redisResultCache{
		client: client,
		ttl:    ttl,
		prefix: "similarity:",
	}
}

func (c *redisResultCache) key(userID, communityID string) string {
	return c.prefix + communityID + ":" + userID
}

func (c *redisResultCache) Get(ctx context.Context, userID, communityID string) (CachedResult, bool, error) {
	data, err := c.client.Get(ctx, c.key(userID, communityID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return CachedResult{}, false, nil
	}
	if err != nil {
		return CachedResult{}, false, err
	}
	var result CachedResult
	if err := json.Unmarshal(data, &result); err != nil {
		return CachedResult{}, false, err
	}
	return result, true, nil
}

func (c *redisResultCache) Set(ctx context.Context, userID, communityID string, result CachedResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.key(userID, communityID), data, c.ttl).Err()
}

func (c *redisResultCache) Delete(ctx context.Context, userID, communityID string) error {
	return c.client.Del(ctx, c.key(userID, communityID)).Err()
}

func (c *redisResultCache) DeleteCommunity(ctx context.Context, communityID string) error {
	iter := c.client.Scan(ctx, 0, c.prefix+communityID+":*", 100).Iterator()
	keys := make([]string, 0)
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return c.client.Del(ctx, keys...).Err()
}

func (c *redisResultCache) Len(ctx context.Context) int {
	iter := c.client.Scan(ctx, 0, c.prefix+"*", 100).Iterator()
	count := 0
	for iter.Next(ctx) {
		count++
	}
	if iter.Err() != nil {
		return -1
	}
	return count
}
