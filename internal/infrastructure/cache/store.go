// Package cache holds short-lived keys that guard mutating requests against
// being applied twice, such as a payment form submitted twice.
package cache

import (
	"context"
	"errors"
	"time"
)

// ErrEmptyKey is returned when a claim carries no key
var ErrEmptyKey = errors.New("cache: idempotency key cannot be empty")

// IdempotencyStore remembers request keys for a TTL
type IdempotencyStore interface {
	// Claim records key for ttl. It returns true if the key was free and is
	// now held by the caller, false if it is already held.
	Claim(ctx context.Context, key string, ttl time.Duration) (bool, error)
	// Release frees a claimed key so the request can be retried
	Release(ctx context.Context, key string) error
	Close() error
}
