package draft

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/estefaniii/mautik-checkout/internal/domain"
)

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{
		client: client,
		ttl:    7 * 24 * time.Hour,
	}
}

type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func (r *RedisStore) Load(ctx context.Context, userID string) (*domain.CheckoutDraft, error) {
	data, err := r.client.Get(ctx, draftKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrDraftNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var d domain.CheckoutDraft
	if err2 := json.Unmarshal(data, &d); err2 != nil {
		// Corrupt blob: treat as absent so restore stays best-effort.
		log.Printf("discarding unreadable draft for user %s: %v", userID, err2)
		return nil, ErrDraftNotFound
	}

	return &d, nil
}

func (r *RedisStore) Save(ctx context.Context, userID string, draft *domain.CheckoutDraft) error {
	payload, err := json.Marshal(draft)
	if err != nil {
		return fmt.Errorf("marshal draft failed: %w", err)
	}

	if ret := r.client.Set(ctx, draftKey(userID), payload, r.ttl); ret.Err() != nil {
		return fmt.Errorf("redis set failed: %w", ret.Err())
	}
	return nil
}

func (r *RedisStore) Clear(ctx context.Context, userID string) error {
	if err := r.client.Del(ctx, draftKey(userID)).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

func draftKey(userID string) string {
	return fmt.Sprintf("checkout:draft:%s", userID)
}
