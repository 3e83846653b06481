package shopify

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/stockhaus/backend/internal/domain/shopify"
)

// ---------------------------------------------------------------------------
// OAuth State Stores
// ---------------------------------------------------------------------------

// DefaultOAuthStateTTL is how long a state nonce stays redeemable
const DefaultOAuthStateTTL = 10 * time.Minute

// RedisStateStore keeps OAuth state nonces in Redis so any instance
// can complete a flow another instance started
type RedisStateStore struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedisStateStore creates a Redis-backed state store
func NewRedisStateStore(client *redis.Client, keyPrefix string) *RedisStateStore {
	if keyPrefix == "" {
		keyPrefix = "shopify:oauth:state:"
	}
	return &RedisStateStore{client: client, keyPrefix: keyPrefix}
}

// Put stores the payload under the state nonce with a TTL
func (s *RedisStateStore) Put(ctx context.Context, state string, payload shopify.OAuthStatePayload, ttl time.Duration) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode oauth state: %w", err)
	}
	if ttl <= 0 {
		ttl = DefaultOAuthStateTTL
	}
	if err := s.client.Set(ctx, s.keyPrefix+state, data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store oauth state: %w", err)
	}
	return nil
}

// Take redeems the state nonce, removing it so it cannot be replayed.
// GETDEL makes redeem-and-delete a single atomic operation.
func (s *RedisStateStore) Take(ctx context.Context, state string) (shopify.OAuthStatePayload, bool, error) {
	var payload shopify.OAuthStatePayload

	data, err := s.client.GetDel(ctx, s.keyPrefix+state).Bytes()
	if err == redis.Nil {
		return payload, false, nil
	}
	if err != nil {
		return payload, false, fmt.Errorf("failed to redeem oauth state: %w", err)
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return payload, false, fmt.Errorf("failed to decode oauth state: %w", err)
	}
	return payload, true, nil
}

// Ensure RedisStateStore implements OAuthStateStore
var _ shopify.OAuthStateStore = (*RedisStateStore)(nil)

// MemoryStateStore keeps OAuth state nonces in process memory.
// Suitable for single-instance deployments and tests.
type MemoryStateStore struct {
	mu     sync.Mutex
	states map[string]memoryState

	// now is overridable for tests
	now func() time.Time
}

type memoryState struct {
	payload   shopify.OAuthStatePayload
	expiresAt time.Time
}

// NewMemoryStateStore creates an in-memory state store
func NewMemoryStateStore() *MemoryStateStore {
	return &MemoryStateStore{
		states: make(map[string]memoryState),
		now:    time.Now,
	}
}

// Put stores the payload under the state nonce with a TTL
func (s *MemoryStateStore) Put(_ context.Context, state string, payload shopify.OAuthStatePayload, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = DefaultOAuthStateTTL
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[state] = memoryState{
		payload:   payload,
		expiresAt: s.now().Add(ttl),
	}
	return nil
}

// Take redeems the state nonce, removing it so it cannot be replayed
func (s *MemoryStateStore) Take(_ context.Context, state string) (shopify.OAuthStatePayload, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.states[state]
	if !ok {
		return shopify.OAuthStatePayload{}, false, nil
	}
	delete(s.states, state)
	if s.now().After(entry.expiresAt) {
		return shopify.OAuthStatePayload{}, false, nil
	}
	return entry.payload, true, nil
}

// Ensure MemoryStateStore implements OAuthStateStore
var _ shopify.OAuthStateStore = (*MemoryStateStore)(nil)
