package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/noah-isme/faxlab-academy-api/internal/models"
)

const checkoutKeyPrefix = "checkout:session:"

var (
	// ErrCheckoutSessionNotFound is returned for unknown or expired checkout sessions.
	ErrCheckoutSessionNotFound = errors.New("checkout session not found")
	// ErrCheckoutStateChanged is returned by SaveIf when the stored session left the expected states.
	ErrCheckoutStateChanged = errors.New("checkout session state changed")
)

// RedisCheckoutSessionRepository keeps transient checkout sessions in Redis with a TTL.
type RedisCheckoutSessionRepository struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCheckoutSessionRepository constructs the Redis-backed session store.
func NewRedisCheckoutSessionRepository(client *redis.Client, ttl time.Duration) *RedisCheckoutSessionRepository {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &RedisCheckoutSessionRepository{client: client, ttl: ttl}
}

// Save stores the session, refreshing its TTL.
func (r *RedisCheckoutSessionRepository) Save(ctx context.Context, session *models.CheckoutSession) error {
	payload, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("marshal checkout session: %w", err)
	}
	if err := r.client.Set(ctx, checkoutKeyPrefix+session.ID, payload, r.ttl).Err(); err != nil {
		return fmt.Errorf("save checkout session: %w", err)
	}
	return nil
}

// SaveIf stores the session only while the stored copy is in one of the expected states.
// The read and the write run under WATCH, so a concurrent writer aborts the save.
func (r *RedisCheckoutSessionRepository) SaveIf(ctx context.Context, session *models.CheckoutSession, expected ...models.CheckoutState) error {
	payload, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("marshal checkout session: %w", err)
	}
	key := checkoutKeyPrefix + session.ID
	err = r.client.Watch(ctx, func(tx *redis.Tx) error {
		raw, err := tx.Get(ctx, key).Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return ErrCheckoutSessionNotFound
			}
			return err
		}
		var current models.CheckoutSession
		if err := json.Unmarshal(raw, &current); err != nil {
			return fmt.Errorf("decode checkout session: %w", err)
		}
		if !stateIn(current.State, expected) {
			return ErrCheckoutStateChanged
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, payload, r.ttl)
			return nil
		})
		return err
	}, key)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, redis.TxFailedErr):
		return ErrCheckoutStateChanged
	case errors.Is(err, ErrCheckoutSessionNotFound), errors.Is(err, ErrCheckoutStateChanged):
		return err
	default:
		return fmt.Errorf("save checkout session: %w", err)
	}
}

// Get loads a session or returns ErrCheckoutSessionNotFound.
func (r *RedisCheckoutSessionRepository) Get(ctx context.Context, id string) (*models.CheckoutSession, error) {
	raw, err := r.client.Get(ctx, checkoutKeyPrefix+id).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCheckoutSessionNotFound
		}
		return nil, fmt.Errorf("get checkout session: %w", err)
	}
	var session models.CheckoutSession
	if err := json.Unmarshal(raw, &session); err != nil {
		return nil, fmt.Errorf("decode checkout session: %w", err)
	}
	return &session, nil
}

// MemoryCheckoutSessionRepository is the in-process store used when Redis is disabled.
type MemoryCheckoutSessionRepository struct {
	mu       sync.RWMutex
	ttl      time.Duration
	now      func() time.Time
	sessions map[string]memoryCheckoutEntry
}

type memoryCheckoutEntry struct {
	session   models.CheckoutSession
	expiresAt time.Time
}

// NewMemoryCheckoutSessionRepository constructs the in-memory session store.
func NewMemoryCheckoutSessionRepository(ttl time.Duration) *MemoryCheckoutSessionRepository {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &MemoryCheckoutSessionRepository{ttl: ttl, now: time.Now, sessions: make(map[string]memoryCheckoutEntry)}
}

// Save stores a copy of the session, refreshing its TTL and evicting expired entries.
func (r *MemoryCheckoutSessionRepository) Save(_ context.Context, session *models.CheckoutSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()
	for id, entry := range r.sessions {
		if now.After(entry.expiresAt) {
			delete(r.sessions, id)
		}
	}
	r.sessions[session.ID] = memoryCheckoutEntry{session: *session, expiresAt: now.Add(r.ttl)}
	return nil
}

// SaveIf stores a copy of the session only while the stored copy is in one of the expected states.
func (r *MemoryCheckoutSessionRepository) SaveIf(_ context.Context, session *models.CheckoutSession, expected ...models.CheckoutState) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()
	entry, ok := r.sessions[session.ID]
	if !ok || now.After(entry.expiresAt) {
		return ErrCheckoutSessionNotFound
	}
	if !stateIn(entry.session.State, expected) {
		return ErrCheckoutStateChanged
	}
	r.sessions[session.ID] = memoryCheckoutEntry{session: *session, expiresAt: now.Add(r.ttl)}
	return nil
}

// Get returns a copy of the session or ErrCheckoutSessionNotFound.
func (r *MemoryCheckoutSessionRepository) Get(_ context.Context, id string) (*models.CheckoutSession, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.sessions[id]
	if !ok || r.now().After(entry.expiresAt) {
		return nil, ErrCheckoutSessionNotFound
	}
	session := entry.session
	return &session, nil
}

func stateIn(state models.CheckoutState, expected []models.CheckoutState) bool {
	for _, candidate := range expected {
		if state == candidate {
			return true
		}
	}
	return false
}
