package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"cvWizard/internal/wizard"
)

const keyPrefix = "cv_session:"

// RedisStore 以 JSON 形式把会话写入 Redis，过期时间随每次保存刷新。
type RedisStore struct {
	client redis.UniversalClient
	ttl    time.Duration
}

func NewRedisStore(client redis.UniversalClient, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func (s *RedisStore) key(id string) string {
	return keyPrefix + id
}

func (s *RedisStore) Load(ctx context.Context, id string) (*State, error) {
	data, err := s.client.Get(ctx, s.key(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get session %q: %w", id, err)
	}

	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("decode session %q: %w", id, err)
	}
	if state.Wizard == nil {
		state.Wizard = wizard.New()
	}
	return &state, nil
}

func (s *RedisStore) Save(ctx context.Context, state *State) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode session %q: %w", state.ID, err)
	}
	if err := s.client.Set(ctx, s.key(state.ID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("set session %q: %w", state.ID, err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, s.key(id)).Err(); err != nil {
		return fmt.Errorf("delete session %q: %w", id, err)
	}
	return nil
}
