package flowstate

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

const stateKeyPrefix = "bff:authstate:"

// RedisRepo stores pending flow state in Redis. Single-use consumption maps
// onto GETDEL, and the TTL bounds replay exposure without a sweeper.
type RedisRepo struct {
	client  *redis.Client
	nowTime func() time.Time
}

var _ Repo = (*RedisRepo)(nil)

// NewRedisRepo creates a Redis-backed flow state repository from a connection URL.
func NewRedisRepo(redisURL string) (*RedisRepo, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, errors.Wrap(err, "[flowstate.NewRedisRepo] invalid redis URL")
	}
	return &RedisRepo{client: redis.NewClient(opts), nowTime: time.Now}, nil
}

// NewRedisRepoWithClient wraps an existing client (primarily for testing).
func NewRedisRepoWithClient(client *redis.Client) *RedisRepo {
	return &RedisRepo{client: client, nowTime: time.Now}
}

// Upsert stores a pending state association with a TTL derived from ExpiresAt.
func (r *RedisRepo) Upsert(ctx context.Context, state string, pending *State) error {
	if state == "" {
		return errors.New("state cannot be empty")
	}
	if pending == nil {
		return errors.New("pending state cannot be nil")
	}

	payload, err := json.Marshal(pending)
	if err != nil {
		return errors.Wrap(err, "[flowstate.RedisRepo.Upsert] marshal state")
	}

	ttl := pending.ExpiresAt.Sub(r.nowTime())
	if ttl <= 0 {
		ttl = time.Second
	}

	if err := r.client.Set(ctx, stateKeyPrefix+state, payload, ttl).Err(); err != nil {
		return errors.Wrap(err, "[flowstate.RedisRepo.Upsert] redis set")
	}
	return nil
}

// Consume atomically retrieves and removes the association via GETDEL.
func (r *RedisRepo) Consume(ctx context.Context, state string) (*State, error) {
	if state == "" {
		return nil, errors.New("state cannot be empty")
	}

	payload, err := r.client.GetDel(ctx, stateKeyPrefix+state).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "[flowstate.RedisRepo.Consume] redis getdel")
	}

	var pending State
	if err := json.Unmarshal(payload, &pending); err != nil {
		return nil, errors.Wrap(err, "[flowstate.RedisRepo.Consume] unmarshal state")
	}

	if r.nowTime().After(pending.ExpiresAt) {
		return nil, nil
	}
	return &pending, nil
}
