package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var (
	ErrLockHeld = errors.New("checkout lock already held")
	ErrLockLost = errors.New("checkout lock lost")
)

// Lease is a held checkout lock. It lapses after TTL unless extended; Extend
// fails with ErrLockLost once the lease has lapsed or another holder owns it.
// Release is harmless after expiry and may be called more than once.
type Lease interface {
	TTL() time.Duration
	Extend(ctx context.Context) error
	Release(ctx context.Context) error
}

// Locker grants one checkout at a time per user.
type Locker interface {
	Acquire(ctx context.Context, userID string) (Lease, error)
}

// releaseScript deletes the key only while it still carries our token, so a
// lock that expired and was re-acquired elsewhere is left alone.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// extendScript pushes the expiry out only while the key carries our token.
var extendScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0
`)

type RedisLocker struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisLocker(client *redis.Client, ttl time.Duration) *RedisLocker {
	return &RedisLocker{client: client, ttl: ttl}
}

func (l *RedisLocker) Acquire(ctx context.Context, userID string) (Lease, error) {
	key := lockKey(userID)
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("redis setnx failed: %w", err)
	}
	if !ok {
		return nil, ErrLockHeld
	}

	return &redisLease{client: l.client, key: key, token: token, ttl: l.ttl}, nil
}

type redisLease struct {
	client *redis.Client
	key    string
	token  string
	ttl    time.Duration
}

func (l *redisLease) TTL() time.Duration {
	return l.ttl
}

func (l *redisLease) Extend(ctx context.Context) error {
	n, err := extendScript.Run(ctx, l.client, []string{l.key}, l.token, l.ttl.Milliseconds()).Int()
	if err != nil {
		return fmt.Errorf("redis extend lock failed: %w", err)
	}
	if n == 0 {
		return ErrLockLost
	}
	return nil
}

func (l *redisLease) Release(ctx context.Context) error {
	if err := releaseScript.Run(ctx, l.client, []string{l.key}, l.token).Err(); err != nil {
		return fmt.Errorf("redis unlock failed: %w", err)
	}
	return nil
}

// MemoryLocker is a single-process Locker.
type MemoryLocker struct {
	mu   sync.Mutex
	ttl  time.Duration
	now  func() time.Time
	held map[string]memoryHold
}

type memoryHold struct {
	token   string
	expires time.Time
}

func NewMemoryLocker(ttl time.Duration) *MemoryLocker {
	return &MemoryLocker{
		ttl:  ttl,
		now:  time.Now,
		held: make(map[string]memoryHold),
	}
}

func (l *MemoryLocker) Acquire(_ context.Context, userID string) (Lease, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if hold, ok := l.held[userID]; ok && now.Before(hold.expires) {
		return nil, ErrLockHeld
	}

	token := uuid.NewString()
	l.held[userID] = memoryHold{token: token, expires: now.Add(l.ttl)}
	return &memoryLease{locker: l, userID: userID, token: token}, nil
}

type memoryLease struct {
	locker *MemoryLocker
	userID string
	token  string
}

func (l *memoryLease) TTL() time.Duration {
	return l.locker.ttl
}

func (l *memoryLease) Extend(context.Context) error {
	m := l.locker
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	hold, ok := m.held[l.userID]
	if !ok || hold.token != l.token || !now.Before(hold.expires) {
		return ErrLockLost
	}
	hold.expires = now.Add(m.ttl)
	m.held[l.userID] = hold
	return nil
}

func (l *memoryLease) Release(context.Context) error {
	m := l.locker
	m.mu.Lock()
	defer m.mu.Unlock()
	if hold, ok := m.held[l.userID]; ok && hold.token == l.token {
		delete(m.held, l.userID)
	}
	return nil
}

func lockKey(userID string) string {
	return fmt.Sprintf("checkout-lock:%s", userID)
}
