package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"swissgrid-converter/internal/domain"
	"swissgrid-converter/internal/platform/obs"
	"swissgrid-converter/internal/ports"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "swissgrid:conv:"

// Redis backed cache of remote conversions. Entries expire after TTL;
// a zero TTL keeps them forever.
type RedisConversionCache struct {
	Client redis.UniversalClient
	TTL    time.Duration
}

var _ ports.ConversionCache = (*RedisConversionCache)(nil)

func NewRedisConversionCache(client redis.UniversalClient, ttl time.Duration) *RedisConversionCache {
	return &RedisConversionCache{Client: client, TTL: ttl}
}

func redisKey(direction domain.Direction, key string) string {
	return redisKeyPrefix + string(direction) + ":" + key
}

func encodePoint(p domain.Point) string {
	return strconv.FormatFloat(p.E, 'g', -1, 64) + "," + strconv.FormatFloat(p.N, 'g', -1, 64)
}

func decodePoint(s string) (domain.Point, error) {
	e, n, ok := strings.Cut(s, ",")
	if !ok {
		return domain.Point{}, fmt.Errorf("decode cached point %q: missing separator", s)
	}
	ev, err := strconv.ParseFloat(e, 64)
	if err != nil {
		return domain.Point{}, fmt.Errorf("decode cached point %q: %w", s, err)
	}
	nv, err := strconv.ParseFloat(n, 64)
	if err != nil {
		return domain.Point{}, fmt.Errorf("decode cached point %q: %w", s, err)
	}
	return domain.Point{E: ev, N: nv}, nil
}

// Fetch cached conversions with a single MGET.
func (s *RedisConversionCache) GetMany(
	ctx context.Context,
	direction domain.Direction,
	points []domain.Point,
) (_ map[domain.Point]domain.Point, err error) {
	defer obs.Time(ctx, "conversion.redis.GetMany")(&err)

	if s.Client == nil {
		return nil, errors.New("conversion cache: redis client is nil")
	}

	if !validDirection(direction) {
		return nil, fmt.Errorf("get conversion cache: invalid direction %q", direction)
	}

	if len(points) == 0 {
		return map[domain.Point]domain.Point{}, nil
	}

	keys, byKey := uniqueKeys(points)
	rkeys := make([]string, len(keys))
	for i, k := range keys {
		rkeys[i] = redisKey(direction, k)
	}

	vals, err := s.Client.MGet(ctx, rkeys...).Result()
	if err != nil {
		return nil, fmt.Errorf("get conversion cache: mget: %w", err)
	}

	out := make(map[domain.Point]domain.Point, len(keys))
	for i, v := range vals {
		str, ok := v.(string)
		if !ok {
			continue
		}
		p, err := decodePoint(str)
		if err != nil {
			return nil, fmt.Errorf("get conversion cache: %w", err)
		}
		out[byKey[keys[i]]] = p
	}

	return out, nil
}

// Store input -> output conversions in one pipeline.
func (s *RedisConversionCache) PutMany(
	ctx context.Context,
	direction domain.Direction,
	results map[domain.Point]domain.Point,
) error {
	if s.Client == nil {
		return errors.New("conversion cache: redis client is nil")
	}

	if !validDirection(direction) {
		return fmt.Errorf("insert conversion cache: invalid direction %q", direction)
	}

	if len(results) == 0 {
		return nil
	}

	pipe := s.Client.Pipeline()
	for in, r := range results {
		pipe.Set(ctx, redisKey(direction, pointKey(in)), encodePoint(r), s.TTL)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("insert conversion cache: pipeline exec: %w", err)
	}

	return nil
}
