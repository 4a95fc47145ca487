package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

const (
	idempotencyHeader = "Idempotency-Key"
	idempotencyTTL    = 24 * time.Hour
)

// ReplyStore persists recorded responses keyed by idempotency key.
type ReplyStore interface {
	// Load returns the recorded reply for key. The second return value is
	// false when nothing is recorded.
	Load(ctx context.Context, key string) ([]byte, bool, error)

	// Save records data under key for ttl.
	Save(ctx context.Context, key string, data []byte, ttl time.Duration) error
}

// RedisReplyStore keeps recorded replies in Redis.
type RedisReplyStore struct {
	client *redis.Client
}

// NewRedisReplyStore creates a RedisReplyStore.
func NewRedisReplyStore(client *redis.Client) *RedisReplyStore {
	return &RedisReplyStore{client: client}
}

func (s *RedisReplyStore) Load(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := s.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

func (s *RedisReplyStore) Save(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	return s.client.Set(ctx, key, data, ttl).Err()
}

var _ ReplyStore = (*RedisReplyStore)(nil)

// storedReply is the cached outcome of an earlier attempt with the same key.
type storedReply struct {
	StatusCode int             `json:"status_code"`
	Body       json.RawMessage `json:"body"`
}

// replyRecorder captures the response body while it is written.
type replyRecorder struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w *replyRecorder) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

// AlertIdempotency replays the recorded response when a client retries an
// alert with the same Idempotency-Key, so a flaky connection cannot trigger
// the SMS fan-out twice. Requests without the header pass through untouched.
func AlertIdempotency(store ReplyStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader(idempotencyHeader)
		if key == "" {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		cacheKey := "idempotency:alert:" + key

		data, found, err := store.Load(ctx, cacheKey)
		if err != nil {
			// Store trouble: run the request rather than block the alert.
			c.Next()
			return
		}
		if found {
			var reply storedReply
			if json.Unmarshal(data, &reply) == nil {
				c.Data(reply.StatusCode, "application/json", reply.Body)
				c.Abort()
				return
			}
		}

		w := &replyRecorder{ResponseWriter: c.Writer, body: &bytes.Buffer{}}
		c.Writer = w

		c.Next()

		// Only replay definitive outcomes; 5xx attempts may be retried for real.
		if status := c.Writer.Status(); status >= 200 && status < 500 {
			reply := storedReply{StatusCode: status, Body: w.body.Bytes()}
			if encoded, err := json.Marshal(reply); err == nil {
				_ = store.Save(ctx, cacheKey, encoded, idempotencyTTL)
			}
		}
	}
}
