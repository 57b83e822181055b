package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store keeps per-chat conversation state in redis with a TTL, so an
// abandoned onboarding expires instead of trapping the chat.
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

// NewStore creates a redis-backed session store
func NewStore(addr string, db int, ttl time.Duration) (*Store, error) {
	client := redis.NewClient(&redis.Options{Addr: addr, DB: db})
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &Store{client: client, ttl: ttl}, nil
}

func key(chatID int64) string {
	return fmt.Sprintf("fsm:%d", chatID)
}

// State returns the chat's current state, or "" when none is set
func (s *Store) State(ctx context.Context, chatID int64) (string, error) {
	state, err := s.client.Get(ctx, key(chatID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	return state, err
}

// SetState stores the chat's state, refreshing the TTL
func (s *Store) SetState(ctx context.Context, chatID int64, state string) error {
	return s.client.Set(ctx, key(chatID), state, s.ttl).Err()
}

// Clear removes the chat's state
func (s *Store) Clear(ctx context.Context, chatID int64) error {
	return s.client.Del(ctx, key(chatID)).Err()
}

// Close releases the redis connection
func (s *Store) Close() error {
	return s.client.Close()
}
