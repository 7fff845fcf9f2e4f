package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const stateTTL = 10 * time.Minute

// OAuthStateStore keeps the anti-forgery states handed out on the login
// redirect. Each state is valid once and expires after stateTTL.
// Key format: oauth:state:<state>
type OAuthStateStore struct {
	client   *redis.Client
	newState func() string
}

// NewOAuthStateStore creates an OAuthStateStore wrapping the given Redis client.
func NewOAuthStateStore(client *redis.Client) *OAuthStateStore {
	return &OAuthStateStore{client: client, newState: uuid.NewString}
}

// Issue records a fresh state and returns it.
func (s *OAuthStateStore) Issue(ctx context.Context) (string, error) {
	state := s.newState()
	if err := s.client.Set(ctx, s.key(state), "1", stateTTL).Err(); err != nil {
		return "", fmt.Errorf("store oauth state: %w", err)
	}
	return state, nil
}

// Consume reports whether state was issued and not yet used, and invalidates it.
func (s *OAuthStateStore) Consume(ctx context.Context, state string) (bool, error) {
	if state == "" {
		return false, nil
	}
	n, err := s.client.Del(ctx, s.key(state)).Result()
	if err != nil {
		return false, fmt.Errorf("consume oauth state: %w", err)
	}
	return n > 0, nil
}

func (s *OAuthStateStore) key(state string) string {
	return "oauth:state:" + state
}
