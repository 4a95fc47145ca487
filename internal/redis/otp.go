package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const otpKeyPrefix = "otp:"

// OTPStore holds outstanding one-time codes keyed by phone number. A single
// store serves both login and registration challenges; whether the phone
// belongs to an existing account is decided at verification time, not here.
type OTPStore struct {
	client *redis.Client
}

// NewOTPStore creates a new OTPStore.
func NewOTPStore(client *redis.Client) *OTPStore {
	return &OTPStore{client: client}
}

// Set stores the code for a phone with the given TTL, replacing any
// outstanding code for that phone.
func (s *OTPStore) Set(ctx context.Context, phone, code string, ttl time.Duration) error {
	return s.client.Set(ctx, otpKeyPrefix+phone, code, ttl).Err()
}

// Get returns the outstanding code for a phone. The second return value is
// false when no unexpired code exists.
func (s *OTPStore) Get(ctx context.Context, phone string) (string, bool, error) {
	code, err := s.client.Get(ctx, otpKeyPrefix+phone).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return code, true, nil
}

// Delete consumes the outstanding code for a phone.
func (s *OTPStore) Delete(ctx context.Context, phone string) error {
	return s.client.Del(ctx, otpKeyPrefix+phone).Err()
}
