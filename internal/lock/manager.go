// Package lock implements the seat lock manager on top of Redis. A seat
// lock is a time-bounded, token-authenticated reservation on a single
// (train, seat) key and is the system's only mutual-exclusion primitive:
// every seat-uniqueness guarantee reduces to one atomic SET NX plus the TTL.
package lock

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/train-ticket-booking/internal/monitoring"
)

// TTL is how long an acquired seat lock lives before Redis expires it.
// Expiry is the sole recovery path for clients that acquire a lock and
// never confirm or release; there is no reaper process.
const TTL = 600 * time.Second

// ErrAlreadyLocked is returned by Acquire when the seat key already exists,
// regardless of who holds it.
var ErrAlreadyLocked = errors.New("seat already locked")

// Manager wraps a Redis client with acquire/release operations that mint
// and check per-acquisition ownership tokens. The client is injected so the
// caller owns its lifecycle.
type Manager struct {
	rdb *redis.Client
}

// NewManager returns a Manager bound to the provided Redis client.
func NewManager(rdb *redis.Client) *Manager {
	if rdb == nil {
		panic("nil redis client passed to lock.NewManager")
	}
	return &Manager{rdb: rdb}
}

// Key builds the Redis key for a seat lock. Exposed so read-side callers
// (availability listing) can probe for live locks without going through
// the manager.
func Key(trainID uint64, seatNumber string) string {
	return fmt.Sprintf("seat:%d:%s", trainID, seatNumber)
}

// Acquire atomically creates the lock key if and only if it is absent and
// returns the freshly minted ownership token. A new unguessable token is
// generated per call; at most one valid token exists per key at any time.
// Returns ErrAlreadyLocked when the key already exists.
func (m *Manager) Acquire(ctx context.Context, trainID uint64, seatNumber string) (string, error) {
	token, err := randomToken(32)
	if err != nil {
		return "", fmt.Errorf("mint lock token: %w", err)
	}
	ok, err := m.rdb.SetNX(ctx, Key(trainID, seatNumber), token, TTL).Result()
	if err != nil {
		monitoring.RecordSeatLockOp("acquire", "error")
		return "", fmt.Errorf("lock store set: %w", err)
	}
	if !ok {
		monitoring.RecordSeatLockOp("acquire", "conflict")
		return "", ErrAlreadyLocked
	}
	monitoring.RecordSeatLockOp("acquire", "ok")
	return token, nil
}

// Release deletes the lock key only when the stored value equals token.
// A missing key or a foreign token is a silent no-op, never an error and
// never a delete of another holder's lock.
func (m *Manager) Release(ctx context.Context, trainID uint64, seatNumber, token string) error {
	key := Key(trainID, seatNumber)
	stored, err := m.rdb.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil
	}
	if err != nil {
		monitoring.RecordSeatLockOp("release", "error")
		return fmt.Errorf("lock store get: %w", err)
	}
	if stored != token {
		monitoring.RecordSeatLockOp("release", "denied")
		return nil
	}
	if err := m.rdb.Del(ctx, key).Err(); err != nil {
		monitoring.RecordSeatLockOp("release", "error")
		return fmt.Errorf("lock store del: %w", err)
	}
	monitoring.RecordSeatLockOp("release", "ok")
	return nil
}

// Holder returns the token currently stored for the seat key, or the empty
// string when no lock exists. Used by the booking pre-check and by confirm
// to compare against the caller's token.
func (m *Manager) Holder(ctx context.Context, trainID uint64, seatNumber string) (string, error) {
	stored, err := m.rdb.Get(ctx, Key(trainID, seatNumber)).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("lock store get: %w", err)
	}
	return stored, nil
}

// Holders returns the seats out of seatNumbers that currently have a live
// lock. All keys are probed in one MGET round trip, so availability
// listings do not pay one lock-store call per seat.
func (m *Manager) Holders(ctx context.Context, trainID uint64, seatNumbers []string) (map[string]string, error) {
	if len(seatNumbers) == 0 {
		return map[string]string{}, nil
	}
	keys := make([]string, len(seatNumbers))
	for i, seat := range seatNumbers {
		keys[i] = Key(trainID, seat)
	}
	vals, err := m.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("lock store mget: %w", err)
	}
	held := make(map[string]string)
	for i, v := range vals {
		if token, ok := v.(string); ok && token != "" {
			held[seatNumbers[i]] = token
		}
	}
	return held, nil
}

// randomToken returns a hex string generated from n bytes of
// cryptographically secure random data.
func randomToken(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
