package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// redisStateStore keeps conversations as JSON under conv:<chat id>:<user id>.
// A zero ttl keeps them until the flow ends.
type redisStateStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func newRedisStateStore(addr, password string, ttl time.Duration) (*redisStateStore, error) {
	client := redis.NewClient(&redis.Options{Addr: addr, Password: password})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return newRedisStateStoreWithClient(client, ttl), nil
}

func newRedisStateStoreWithClient(client *redis.Client, ttl time.Duration) *redisStateStore {
	if ttl < 0 {
		ttl = 0
	}
	return &redisStateStore{client: client, prefix: "conv:", ttl: ttl}
}

func (s *redisStateStore) redisKey(key SessionKey) string {
	return s.prefix + key.String()
}

func (s *redisStateStore) Load(ctx context.Context, key SessionKey) (Conversation, error) {
	raw, err := s.client.Get(ctx, s.redisKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Conversation{}, nil
	}
	if err != nil {
		return Conversation{}, fmt.Errorf("load conversation: %w", err)
	}
	var conv Conversation
	if err := json.Unmarshal(raw, &conv); err != nil {
		return Conversation{}, fmt.Errorf("decode conversation: %w", err)
	}
	return conv, nil
}

func (s *redisStateStore) Save(ctx context.Context, key SessionKey, conv Conversation) error {
	if conv.Idle() {
		return s.Delete(ctx, key)
	}
	raw, err := json.Marshal(conv)
	if err != nil {
		return fmt.Errorf("encode conversation: %w", err)
	}
	if err := s.client.Set(ctx, s.redisKey(key), raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("save conversation: %w", err)
	}
	return nil
}

func (s *redisStateStore) Delete(ctx context.Context, key SessionKey) error {
	if err := s.client.Del(ctx, s.redisKey(key)).Err(); err != nil {
		return fmt.Errorf("delete conversation: %w", err)
	}
	return nil
}

func (s *redisStateStore) Close() error {
	return s.client.Close()
}
