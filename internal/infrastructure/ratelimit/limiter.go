package ratelimit

import (
	"context"
	"time"
)

// Limiter bounds how many requests a key may make inside a fixed window.
// Allow returns true if the request fits the budget; callers that get
// false back off and retry.
type Limiter interface {
	Allow(ctx context.Context, key string, limit int, period time.Duration) (bool, error)
}
