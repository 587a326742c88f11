package corpus

import (
	"context"
	"crypto/sha1"
	"encoding/binary"
	"fmt"
	"log/slog"
	"os"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/zpam/knb/pkg/learning"
)

// RedisCacheConfig holds the token cache settings
type RedisCacheConfig struct {
	RedisURL    string        `json:"redis_url" yaml:"redis_url"`
	KeyPrefix   string        `json:"key_prefix" yaml:"key_prefix"`
	DatabaseNum int           `json:"database_num" yaml:"database_num"`
	TTL         time.Duration `json:"ttl" yaml:"ttl"`
	BatchSize   int           `json:"batch_size" yaml:"batch_size"`
}

// DefaultRedisCacheConfig returns default cache settings
func DefaultRedisCacheConfig() *RedisCacheConfig {
	return &RedisCacheConfig{
		RedisURL:    "redis://localhost:6379",
		KeyPrefix:   "knb:corpus",
		DatabaseNum: 0,
		TTL:         24 * time.Hour,
		BatchSize:   100,
	}
}

// CacheStats counts cache lookups
type CacheStats struct {
	Hits   int64 `json:"hits"`
	Misses int64 `json:"misses"`
}

// RedisCache keeps tokenized documents in Redis in front of another Source.
// Entries are keyed by path, size and modification time, so an edited file
// is tokenized again. Redis failures fall through to the wrapped source.
type RedisCache struct {
	client *redis.Client
	source Source
	config *RedisCacheConfig
	logger *slog.Logger

	hits   atomic.Int64
	misses atomic.Int64
}

// NewRedisCache connects to Redis and wraps source
func NewRedisCache(ctx context.Context, source Source, config *RedisCacheConfig, logger *slog.Logger) (*RedisCache, error) {
	if config == nil {
		config = DefaultRedisCacheConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}

	opt, err := redis.ParseURL(config.RedisURL)
	if err != nil {
		return nil, errors.Wrap(err, "invalid Redis URL")
	}

	opt.DB = config.DatabaseNum
	client := redis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, errors.Wrap(err, "Redis connection failed")
	}

	return &RedisCache{
		client: client,
		source: source,
		config: config,
		logger: logger,
	}, nil
}

// Tokens returns the cached tokens of doc, reading and caching them on a miss
func (rc *RedisCache) Tokens(ctx context.Context, doc Document) ([]learning.TokenID, error) {
	key, ok := rc.documentKey(doc)
	if !ok {
		return rc.source.Tokens(ctx, doc)
	}

	data, err := rc.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		if tokens, ok := decodeTokens(data); ok {
			rc.hits.Add(1)
			return tokens, nil
		}
		rc.logger.Warn("discarding corrupt cache entry", "document", doc.Path, "key", key)
	case errors.Is(err, redis.Nil):
	default:
		rc.logger.Warn("token cache lookup failed", "document", doc.Path, "error", err)
	}

	rc.misses.Add(1)

	tokens, err := rc.source.Tokens(ctx, doc)
	if err != nil {
		return nil, err
	}

	if err := rc.client.Set(ctx, key, encodeTokens(tokens), rc.config.TTL).Err(); err != nil {
		rc.logger.Warn("token cache store failed", "document", doc.Path, "error", err)
	}

	return tokens, nil
}

// Stats returns hit and miss counts since the cache was created
func (rc *RedisCache) Stats() CacheStats {
	return CacheStats{
		Hits:   rc.hits.Load(),
		Misses: rc.misses.Load(),
	}
}

// Reset removes every entry under the configured key prefix
func (rc *RedisCache) Reset(ctx context.Context) error {
	iter := rc.client.Scan(ctx, 0, rc.config.KeyPrefix+":tokens:*", 1000).Iterator()

	batch := rc.config.BatchSize
	if batch < 1 {
		batch = 100
	}

	pipe := rc.client.Pipeline()
	count := 0

	for iter.Next(ctx) {
		pipe.Del(ctx, iter.Val())
		count++

		if count >= batch {
			if _, err := pipe.Exec(ctx); err != nil {
				return errors.Wrap(err, "deleting cache entries")
			}
			pipe = rc.client.Pipeline()
			count = 0
		}
	}
	if err := iter.Err(); err != nil {
		return errors.Wrap(err, "scanning cache entries")
	}

	if count > 0 {
		if _, err := pipe.Exec(ctx); err != nil {
			return errors.Wrap(err, "deleting cache entries")
		}
	}

	return nil
}

// Close closes the Redis connection
func (rc *RedisCache) Close() error {
	return rc.client.Close()
}

func (rc *RedisCache) documentKey(doc Document) (string, bool) {
	info, err := os.Stat(doc.Path)
	if err != nil {
		return "", false
	}

	h := sha1.Sum([]byte(fmt.Sprintf("%s|%d|%d", doc.Path, info.Size(), info.ModTime().UnixNano())))
	return fmt.Sprintf("%s:tokens:%x", rc.config.KeyPrefix, h), true
}

func encodeTokens(tokens []learning.TokenID) []byte {
	data := make([]byte, 4*len(tokens))
	for i, token := range tokens {
		binary.LittleEndian.PutUint32(data[4*i:], uint32(token))
	}
	return data
}

func decodeTokens(data []byte) ([]learning.TokenID, bool) {
	if len(data)%4 != 0 {
		return nil, false
	}

	tokens := make([]learning.TokenID, len(data)/4)
	for i := range tokens {
		tokens[i] = learning.TokenID(binary.LittleEndian.Uint32(data[4*i:]))
	}
	return tokens, true
}
