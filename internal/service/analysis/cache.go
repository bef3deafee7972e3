package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/park285/chess-humanmoves/pkg/chessdto"
)

const (
	DefaultCacheTTL = time.Hour
	cachePrefix     = "humanmoves:analysis:"
)

// Cache stores finished analyses so a repeated FEN does not start the
// engine again. A nil Cache on the Service disables caching.
type Cache interface {
	Get(ctx context.Context, key string) (*chessdto.AnalysisDTO, error)
	Put(ctx context.Context, key string, dto *chessdto.AnalysisDTO) error
}

type RedisCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisCache(rdb *redis.Client, ttl time.Duration) *RedisCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &RedisCache{rdb: rdb, ttl: ttl}
}

// Get returns nil, nil on a miss.
func (c *RedisCache) Get(ctx context.Context, key string) (*chessdto.AnalysisDTO, error) {
	raw, err := c.rdb.Get(ctx, cachePrefix+key).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cache get: %w", err)
	}
	var dto chessdto.AnalysisDTO
	if err := json.Unmarshal(raw, &dto); err != nil {
		return nil, fmt.Errorf("cache decode: %w", err)
	}
	return &dto, nil
}

func (c *RedisCache) Put(ctx context.Context, key string, dto *chessdto.AnalysisDTO) error {
	raw, err := json.Marshal(dto)
	if err != nil {
		return fmt.Errorf("cache encode: %w", err)
	}
	if err := c.rdb.Set(ctx, cachePrefix+key, raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache set: %w", err)
	}
	return nil
}

// CacheKey identifies an analysis by engine, search settings and the FEN
// with whitespace collapsed.
func CacheKey(engine string, depth, multiPV int, fen string) string {
	return strings.Join([]string{
		strings.ToLower(strings.TrimSpace(engine)),
		strconv.Itoa(depth),
		strconv.Itoa(multiPV),
		strings.Join(strings.Fields(fen), " "),
	}, "|")
}
