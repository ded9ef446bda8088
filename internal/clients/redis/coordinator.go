// Package redis carries the cross-instance coordination primitives:
// per-user ingestion locks, the latest-accepted-event stamp and the SSE
// fan-out bus.
package redis

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/starbound-health/navigator-backend/internal/pkg/logger"
)

// Coordinator serializes pipeline work per user across instances.
type Coordinator interface {
	// AcquireUserLock takes the per-user pipeline lock. It returns a
	// release func on success and ok=false when another submission holds
	// the lock.
	AcquireUserLock(ctx context.Context, userID uuid.UUID, ttl time.Duration) (release func(), ok bool, err error)
	// StampLatestEvent marks eventID as the newest accepted submission
	// for the user.
	StampLatestEvent(ctx context.Context, userID, eventID uuid.UUID) error
	// IsLatestEvent reports whether eventID is still the newest accepted
	// submission. Stale pipeline results check this before applying.
	IsLatestEvent(ctx context.Context, userID, eventID uuid.UUID) (bool, error)
	Close() error
}

type coordinator struct {
	log *logger.Logger
	rdb *goredis.Client
}

func NewCoordinator(log *logger.Logger) (Coordinator, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}

	addr := strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &coordinator{
		log: log.With("service", "RedisCoordinator"),
		rdb: rdb,
	}, nil
}

func lockKey(userID uuid.UUID) string   { return "ingest:lock:" + userID.String() }
func latestKey(userID uuid.UUID) string { return "ingest:latest:" + userID.String() }

// releaseScript deletes the lock only if we still own it, so a slow
// pipeline run never releases a lock a newer run has since acquired.
var releaseScript = goredis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

func (c *coordinator) AcquireUserLock(ctx context.Context, userID uuid.UUID, ttl time.Duration) (func(), bool, error) {
	token := uuid.NewString()
	ok, err := c.rdb.SetNX(ctx, lockKey(userID), token, ttl).Result()
	if err != nil {
		return nil, false, fmt.Errorf("acquire user lock: %w", err)
	}
	if !ok {
		return nil, false, nil
	}

	release := func() {
		relCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := releaseScript.Run(relCtx, c.rdb, []string{lockKey(userID)}, token).Err(); err != nil {
			c.log.Warn("failed to release user lock", "user_id", userID, "error", err)
		}
	}
	return release, true, nil
}

func (c *coordinator) StampLatestEvent(ctx context.Context, userID, eventID uuid.UUID) error {
	return c.rdb.Set(ctx, latestKey(userID), eventID.String(), 24*time.Hour).Err()
}

func (c *coordinator) IsLatestEvent(ctx context.Context, userID, eventID uuid.UUID) (bool, error) {
	got, err := c.rdb.Get(ctx, latestKey(userID)).Result()
	if err == goredis.Nil {
		// No stamp means nothing newer was accepted.
		return true, nil
	}
	if err != nil {
		return false, err
	}
	return got == eventID.String(), nil
}

func (c *coordinator) Close() error {
	if c == nil || c.rdb == nil {
		return nil
	}
	return c.rdb.Close()
}

// memoryCoordinator is the single-instance fallback used when REDIS_ADDR
// is unset and in tests.
type memoryCoordinator struct {
	mu     sync.Mutex
	locks  map[uuid.UUID]bool
	latest map[uuid.UUID]uuid.UUID
}

func NewMemoryCoordinator() Coordinator {
	return &memoryCoordinator{
		locks:  map[uuid.UUID]bool{},
		latest: map[uuid.UUID]uuid.UUID{},
	}
}

func (m *memoryCoordinator) AcquireUserLock(_ context.Context, userID uuid.UUID, _ time.Duration) (func(), bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.locks[userID] {
		return nil, false, nil
	}
	m.locks[userID] = true
	release := func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.locks, userID)
	}
	return release, true, nil
}

func (m *memoryCoordinator) StampLatestEvent(_ context.Context, userID, eventID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.latest[userID] = eventID
	return nil
}

func (m *memoryCoordinator) IsLatestEvent(_ context.Context, userID, eventID uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stamped, ok := m.latest[userID]
	if !ok {
		return true, nil
	}
	return stamped == eventID, nil
}

func (m *memoryCoordinator) Close() error { return nil }
