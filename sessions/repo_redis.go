package sessions

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	apperrors "github.com/hcplatform/portal-bff/internal/errors"
)

const sessionKeyPrefix = "bff:session:"

// RedisRepo stores sessions in Redis with a TTL matching the session expiry,
// so abandoned sessions age out without a sweeper. Per-key atomicity comes
// from Redis itself.
type RedisRepo struct {
	client  *redis.Client
	nowTime func() time.Time
}

var _ Repo = (*RedisRepo)(nil)

// NewRedisRepo creates a Redis-backed session repository from a connection URL.
func NewRedisRepo(redisURL string) (*RedisRepo, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, errors.Wrap(err, "[NewRedisRepo] invalid redis URL")
	}
	return &RedisRepo{
		client:  redis.NewClient(opts),
		nowTime: time.Now,
	}, nil
}

// NewRedisRepoWithClient wraps an existing client (primarily for testing).
func NewRedisRepoWithClient(client *redis.Client) *RedisRepo {
	return &RedisRepo{client: client, nowTime: time.Now}
}

// Upsert creates or replaces a session. The Redis TTL is derived from the
// session's ExpiresAt so the record cannot outlive its logical expiry.
func (r *RedisRepo) Upsert(ctx context.Context, sessionID string, session Session) error {
	if sessionID == "" {
		return errors.New("sessionID is required")
	}

	payload, err := json.Marshal(session)
	if err != nil {
		return errors.Wrap(err, "[RedisRepo.Upsert] marshal session")
	}

	ttl := session.ExpiresAt.Sub(r.nowTime())
	if ttl <= 0 {
		ttl = time.Second
	}

	if err := r.client.Set(ctx, sessionKeyPrefix+sessionID, payload, ttl).Err(); err != nil {
		return errors.Wrap(err, "[RedisRepo.Upsert] redis set")
	}
	return nil
}

// Get retrieves a session by ID
func (r *RedisRepo) Get(ctx context.Context, sessionID string) (Session, error) {
	if sessionID == "" {
		return Session{}, errors.New("sessionID is required")
	}

	payload, err := r.client.Get(ctx, sessionKeyPrefix+sessionID).Bytes()
	if err == redis.Nil {
		return Session{}, apperrors.ErrSessionNotFound
	}
	if err != nil {
		return Session{}, errors.Wrap(err, "[RedisRepo.Get] redis get")
	}

	var session Session
	if err := json.Unmarshal(payload, &session); err != nil {
		return Session{}, errors.Wrap(err, "[RedisRepo.Get] unmarshal session")
	}
	return session, nil
}

// Delete removes a session. Idempotent.
func (r *RedisRepo) Delete(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return errors.New("sessionID is required")
	}

	if err := r.client.Del(ctx, sessionKeyPrefix+sessionID).Err(); err != nil {
		return errors.Wrap(err, "[RedisRepo.Delete] redis del")
	}
	return nil
}
