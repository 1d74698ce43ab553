package cache

import (
	"context"
	"time"
)

// Cache stores computed disclosures by key.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
}

// DefaultTTL applies when a non-positive TTL is configured.
const DefaultTTL = time.Hour
