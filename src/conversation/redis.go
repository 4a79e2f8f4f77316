package conversation

import (
	"context"
	"fmt"
	"time"
	"weather_nlu/pkg"

	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "conversation:"

// RedisRepository stores each conversation as a Redis list of JSON messages.
// RPUSH is atomic, so concurrent appends to one conversation never lose messages.
type RedisRepository struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisRepository(client *redis.Client, ttl time.Duration) *RedisRepository {
	return &RedisRepository{
		client: client,
		ttl:    ttl,
	}
}

func (r *RedisRepository) key(conversationID string) string {
	return keyPrefix + conversationID
}

func (r *RedisRepository) Append(ctx context.Context, conversationID string, message pkg.ConversationMessage) error {
	data, err := sonic.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	key := r.key(conversationID)
	pipe := r.client.TxPipeline()
	pipe.RPush(ctx, key, data)
	if r.ttl > 0 {
		pipe.Expire(ctx, key, r.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to append message: %w", err)
	}
	return nil
}

func (r *RedisRepository) Load(ctx context.Context, conversationID string) ([]pkg.ConversationMessage, error) {
	key := r.key(conversationID)
	raw, err := r.client.LRange(ctx, key, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}

	messages := make([]pkg.ConversationMessage, 0, len(raw))
	for i, item := range raw {
		var message pkg.ConversationMessage
		if err := sonic.UnmarshalString(item, &message); err != nil {
			return nil, fmt.Errorf("failed to unmarshal message %d: %w", i, err)
		}
		messages = append(messages, message)
	}

	// Refresh TTL
	if len(messages) > 0 && r.ttl > 0 {
		r.client.Expire(ctx, key, r.ttl)
	}
	return messages, nil
}

func (r *RedisRepository) Delete(ctx context.Context, conversationID string) error {
	if err := r.client.Del(ctx, r.key(conversationID)).Err(); err != nil {
		return fmt.Errorf("failed to delete conversation: %w", err)
	}
	return nil
}
