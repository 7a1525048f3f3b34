package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dmorocode/portfolio-sistema/internal/portfolio/domain"
	"github.com/dmorocode/portfolio-sistema/pkg/cryptox"
	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "session:"

// Redis is a Registry backed by a Redis instance so sessions survive a
// process restart and can be shared between replicas. TTLs are delegated
// to Redis; the CreatedAt check in Entry still applies at Lookup so
// drivers agree on expiry semantics.
type Redis struct {
	client *redis.Client
	now    func() time.Time
}

var _ Registry = (*Redis)(nil)

func NewRedis(addr, password string, db int) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("session: redis ping failed: %w", err)
	}

	return &Redis{client: client, now: time.Now}, nil
}

func (r *Redis) IssueTemporary(ctx context.Context, userID, username string, role domain.Role) (string, error) {
	return r.issue(ctx, userID, username, role, true)
}

func (r *Redis) IssueFinal(ctx context.Context, userID, username string, role domain.Role) (string, error) {
	return r.issue(ctx, userID, username, role, false)
}

func (r *Redis) issue(ctx context.Context, userID, username string, role domain.Role, pending bool) (string, error) {
	token, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return "", err
	}

	entry := Entry{
		UserID:     userID,
		Username:   username,
		Role:       role,
		PendingMFA: pending,
		CreatedAt:  r.now(),
	}
	if err := r.set(ctx, token, entry); err != nil {
		return "", err
	}
	return token, nil
}

func (r *Redis) set(ctx context.Context, token string, entry Entry) error {
	payload, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	ttl := FinalTTL
	if entry.PendingMFA {
		ttl = TemporaryTTL
	}
	return r.client.Set(ctx, redisKeyPrefix+token, payload, ttl).Err()
}

func (r *Redis) Promote(ctx context.Context, tempToken string) (string, error) {
	entry, err := r.Lookup(ctx, tempToken)
	if err != nil {
		return "", err
	}
	if !entry.PendingMFA {
		return "", ErrNotPending
	}

	newToken, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return "", err
	}

	final := Entry{
		UserID:     entry.UserID,
		Username:   entry.Username,
		Role:       entry.Role,
		PendingMFA: false,
		CreatedAt:  r.now(),
	}
	if err := r.set(ctx, newToken, final); err != nil {
		return "", err
	}
	if err := r.client.Del(ctx, redisKeyPrefix+tempToken).Err(); err != nil {
		return "", err
	}
	return newToken, nil
}

func (r *Redis) Lookup(ctx context.Context, token string) (Entry, error) {
	payload, err := r.client.Get(ctx, redisKeyPrefix+token).Bytes()
	if errors.Is(err, redis.Nil) {
		return Entry{}, ErrNotFound
	}
	if err != nil {
		return Entry{}, fmt.Errorf("session: redis get: %w", err)
	}

	var entry Entry
	if err := json.Unmarshal(payload, &entry); err != nil {
		return Entry{}, fmt.Errorf("session: corrupt entry: %w", err)
	}
	entry.Token = token

	// Redis TTLs already evict, but re-check so a driver swap never
	// loosens the expiry windows.
	if entry.Expired(r.now()) {
		_ = r.client.Del(ctx, redisKeyPrefix+token).Err()
		return Entry{}, ErrNotFound
	}
	return entry, nil
}

func (r *Redis) Revoke(ctx context.Context, token string) error {
	return r.client.Del(ctx, redisKeyPrefix+token).Err()
}

// Sweep is a no-op: Redis evicts by TTL on its own.
func (r *Redis) Sweep(context.Context) error { return nil }

func (r *Redis) Close() error { return r.client.Close() }
