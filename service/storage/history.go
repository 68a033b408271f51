package storage

import (
	"context"
	"fmt"
	"sort"
	"time"

	redisc "CipherChat/service/storage/redis"

	"github.com/redis/go-redis/v9"
)

// Conversation history mirror: one Redis Stream per user pair, appended
// fire-and-forget after a message is persisted. Best-effort; the Mongo
// store stays authoritative.

// DMKey derives a direction-independent stream key for a pair.
func DMKey(a, b string) string {
	p := []string{a, b}
	sort.Strings(p)
	return fmt.Sprintf("im:dm:%s:%s", p[0], p[1])
}

func AppendStream(stream string, fields map[string]any) (string, error) {
	rdb := redisc.GetRedis()
	if rdb == nil {
		return "", fmt.Errorf("redis not initialized")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	args := &redis.XAddArgs{Stream: stream, Values: fields, Approx: true, MaxLen: 100_000}
	return rdb.XAdd(ctx, args).Result()
}

// MirrorMessage records a delivered (or queued) message frame. Ciphertext is
// stored as-is; it is already opaque to the server.
func MirrorMessage(rec *MessageRecord) (string, error) {
	return AppendStream(DMKey(rec.SenderID, rec.ReceiverID), map[string]any{
		"message_id": rec.ID,
		"from":       rec.SenderID,
		"to":         rec.ReceiverID,
		"ciphertext": rec.Ciphertext,
		"ts":         rec.CreatedAt.UnixMilli(),
	})
}
