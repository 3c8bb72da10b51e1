package notifications

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisSink keeps a capped per-recipient feed in a Redis list, newest first.
// Keys are namespaced as trimly:notifications:{recipient_id}.
type RedisSink struct {
	client *redis.Client
	limit  int64
}

// NewRedisSink creates a sink that keeps at most limit entries per recipient.
func NewRedisSink(client *redis.Client, limit int) *RedisSink {
	if limit <= 0 {
		limit = 100
	}
	return &RedisSink{client: client, limit: int64(limit)}
}

func feedKey(recipientID uuid.UUID) string {
	return fmt.Sprintf("trimly:notifications:%s", recipientID)
}

// Name identifies the sink in logs and metrics.
func (s *RedisSink) Name() string { return "redis" }

// Send prepends n to the recipient's feed and trims it to the limit.
func (s *RedisSink) Send(ctx context.Context, n Notification) error {
	if n.RecipientID == uuid.Nil {
		return ErrNoRecipient
	}
	payload, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}

	key := feedKey(n.RecipientID)
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LPush(ctx, key, payload)
		pipe.LTrim(ctx, key, 0, s.limit-1)
		return nil
	})
	return err
}

// Feed returns up to count of the newest notifications for recipientID.
func (s *RedisSink) Feed(ctx context.Context, recipientID uuid.UUID, count int) ([]Notification, error) {
	if count <= 0 {
		return nil, nil
	}
	raw, err := s.client.LRange(ctx, feedKey(recipientID), 0, int64(count-1)).Result()
	if err != nil {
		return nil, err
	}

	feed := make([]Notification, 0, len(raw))
	for _, item := range raw {
		var n Notification
		if err := json.Unmarshal([]byte(item), &n); err != nil {
			return nil, fmt.Errorf("decode notification: %w", err)
		}
		feed = append(feed, n)
	}
	return feed, nil
}
