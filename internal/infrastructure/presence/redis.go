package presence

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultKeyPrefix = "ledger:presence:"

// RedisTracker stores one key per user holding the last-seen unix millis.
// Redis expires the key after the TTL, so there is nothing to reap.
type RedisTracker struct {
	client    redis.UniversalClient
	keyPrefix string
	ttl       time.Duration
	clock     func() time.Time
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// NewRedisTracker connects to Redis and creates a tracker
func NewRedisTracker(cfg RedisConfig, ttl time.Duration) (*RedisTracker, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return NewRedisTrackerWithClient(client, defaultKeyPrefix, ttl), nil
}

// NewRedisTrackerWithClient creates a tracker on an existing client
func NewRedisTrackerWithClient(client redis.UniversalClient, keyPrefix string, ttl time.Duration) *RedisTracker {
	if keyPrefix == "" {
		keyPrefix = defaultKeyPrefix
	}
	return &RedisTracker{
		client:    client,
		keyPrefix: keyPrefix,
		ttl:       ttl,
		clock:     time.Now,
	}
}

// Heartbeat sets the user's key with a fresh TTL
func (t *RedisTracker) Heartbeat(ctx context.Context, userID string) error {
	userID, err := normalizeUserID(userID)
	if err != nil {
		return err
	}
	now := t.clock().UnixMilli()
	if err := t.client.Set(ctx, t.key(userID), now, t.ttl).Err(); err != nil {
		return fmt.Errorf("failed to record heartbeat: %w", err)
	}
	return nil
}

// Remove deletes the user's key
func (t *RedisTracker) Remove(ctx context.Context, userID string) error {
	if err := t.client.Del(ctx, t.key(userID)).Err(); err != nil {
		return fmt.Errorf("failed to remove presence: %w", err)
	}
	return nil
}

// IsOnline reports whether the user's key still exists
func (t *RedisTracker) IsOnline(ctx context.Context, userID string) (bool, error) {
	n, err := t.client.Exists(ctx, t.key(userID)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check presence: %w", err)
	}
	return n > 0, nil
}

// Online scans the presence keys and reads their timestamps
func (t *RedisTracker) Online(ctx context.Context) ([]Presence, error) {
	var keys []string
	iter := t.client.Scan(ctx, 0, t.keyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan presence keys: %w", err)
	}
	if len(keys) == 0 {
		return []Presence{}, nil
	}

	values, err := t.client.MGet(ctx, keys...).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("failed to read presence keys: %w", err)
	}

	online := make([]Presence, 0, len(keys))
	for i, v := range values {
		// key expired between SCAN and MGET
		if v == nil {
			continue
		}
		s, ok := v.(string)
		if !ok {
			continue
		}
		millis, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			continue
		}
		online = append(online, Presence{
			UserID:   strings.TrimPrefix(keys[i], t.keyPrefix),
			LastSeen: time.UnixMilli(millis).UTC(),
		})
	}
	sort.Slice(online, func(i, j int) bool { return online[i].UserID < online[j].UserID })
	return online, nil
}

// Ping checks the Redis connection; used by the readiness probe
func (t *RedisTracker) Ping(ctx context.Context) error {
	return t.client.Ping(ctx).Err()
}

// Close closes the Redis client
func (t *RedisTracker) Close() error {
	return t.client.Close()
}

func (t *RedisTracker) key(userID string) string {
	return t.keyPrefix + userID
}

var _ Tracker = (*RedisTracker)(nil)
