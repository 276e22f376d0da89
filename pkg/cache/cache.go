package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/aurahq/aura/internal/models"
)

type CacheConfig struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// AnswerCache memoizes normalized answers in Redis, keyed by an exact-match
// fingerprint of (tenant, question). Entries expire after the configured TTL.
type AnswerCache struct {
	client *redis.Client
	ttl    time.Duration
	log    *slog.Logger
}

func NewWithConfig(config CacheConfig) *AnswerCache {
	if config.Addr == "" {
		config.Addr = "localhost:6379"
	}
	client := redis.NewClient(&redis.Options{
		Addr:     config.Addr,
		Password: config.Password,
		DB:       config.DB,
	})
	return NewWithClient(client, config.TTL)
}

// NewWithClient wires the cache over an existing Redis client.
func NewWithClient(client *redis.Client, ttl time.Duration) *AnswerCache {
	if ttl == 0 {
		ttl = 900 * time.Second
	}
	return &AnswerCache{
		client: client,
		ttl:    ttl,
		log:    slog.Default().With("component", "cache"),
	}
}

// Key derives the cache fingerprint: tenant id joined with the SHA-256 of
// the trimmed, lowercased question. Exact-match caching, scoped per tenant.
func Key(tenantID uuid.UUID, question string) string {
	normalized := strings.ToLower(strings.TrimSpace(question))
	digest := sha256.Sum256([]byte(normalized))
	return tenantID.String() + ":" + hex.EncodeToString(digest[:])
}

// Get returns the cached answer or (nil, nil) on a miss.
func (c *AnswerCache) Get(ctx context.Context, tenantID uuid.UUID, question string) (*models.Answer, error) {
	key := Key(tenantID, question)

	raw, err := c.client.Get(ctx, key).Result()
	if err == redis.Nil {
		c.log.Info("cache miss", "key", key[:40])
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cache read failed: %w", err)
	}

	var answer models.Answer
	if err := json.Unmarshal([]byte(raw), &answer); err != nil {
		return nil, fmt.Errorf("failed to decode cached answer: %w", err)
	}

	c.log.Info("cache hit", "key", key[:40])
	return &answer, nil
}

// Put writes an answer with the configured TTL.
func (c *AnswerCache) Put(ctx context.Context, tenantID uuid.UUID, question string, answer models.Answer) error {
	key := Key(tenantID, question)

	payload, err := json.Marshal(answer)
	if err != nil {
		return fmt.Errorf("failed to encode answer: %w", err)
	}

	if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache write failed: %w", err)
	}

	c.log.Info("cached answer", "key", key[:40], "ttl", c.ttl)
	return nil
}

// Ping reports cache reachability for health checks.
func (c *AnswerCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
