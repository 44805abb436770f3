package sessions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/campus-records/records/internal/principals"
)

// RedisStore keeps sessions in Redis so several API processes can share
// them. Redis expires keys itself, so DeleteExpired has nothing to do.
type RedisStore struct {
	client *redis.Client
	prefix string
}

type sessionPayload struct {
	Username  string    `json:"username"`
	Level     string    `json:"level"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// NewRedisStore constructs a RedisStore.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client, prefix: "session:"}
}

// Put implements Store. The key lifetime is the session's own span so it
// follows the manager's clock rather than the local wall clock.
func (s *RedisStore) Put(ctx context.Context, sess Session) error {
	ttl := sess.ExpiresAt.Sub(sess.IssuedAt)
	if ttl <= 0 {
		return fmt.Errorf("sessions: redis put: session has no lifetime")
	}
	data, err := json.Marshal(sessionPayload{
		Username:  sess.Username,
		Level:     sess.Role.Tier(),
		IssuedAt:  sess.IssuedAt.UTC(),
		ExpiresAt: sess.ExpiresAt.UTC(),
	})
	if err != nil {
		return err
	}
	ok, err := s.client.SetNX(ctx, s.key(sess.Token), data, ttl).Result()
	if err != nil {
		return fmt.Errorf("sessions: redis put: %w", err)
	}
	if !ok {
		return ErrDuplicate
	}
	return nil
}

// Get implements Store.
func (s *RedisStore) Get(ctx context.Context, token string) (Session, error) {
	data, err := s.client.Get(ctx, s.key(token)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Session{}, ErrNotFound
		}
		return Session{}, fmt.Errorf("sessions: redis get: %w", err)
	}
	var stored sessionPayload
	if err := json.Unmarshal(data, &stored); err != nil {
		return Session{}, fmt.Errorf("sessions: decode payload: %w", err)
	}
	role, ok := principals.ParseRole(stored.Level)
	if !ok {
		return Session{}, fmt.Errorf("sessions: stored session has unknown level %q", stored.Level)
	}
	return Session{
		Token:     token,
		Username:  stored.Username,
		Role:      role,
		IssuedAt:  stored.IssuedAt,
		ExpiresAt: stored.ExpiresAt,
	}, nil
}

// Delete implements Store.
func (s *RedisStore) Delete(ctx context.Context, token string) error {
	if err := s.client.Del(ctx, s.key(token)).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("sessions: redis delete: %w", err)
	}
	return nil
}

// DeleteExpired implements Store.
func (s *RedisStore) DeleteExpired(context.Context, time.Time) (int, error) {
	return 0, nil
}

func (s *RedisStore) key(token string) string {
	return s.prefix + token
}

var _ Store = (*RedisStore)(nil)
