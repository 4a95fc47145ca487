package redis

import (
	"context"
	"time"
)

// LocationStoreInterface defines the interface for user location operations.
type LocationStoreInterface interface {
	UpdateLocation(ctx context.Context, userID string, lat, lng float64) error
	FindNearby(ctx context.Context, lat, lng, radiusM float64) ([]UserLocation, error)
	RemoveLocation(ctx context.Context, userID string) error
}

// OTPStoreInterface defines the interface for one-time-code storage.
type OTPStoreInterface interface {
	Set(ctx context.Context, phone, code string, ttl time.Duration) error
	Get(ctx context.Context, phone string) (string, bool, error)
	Delete(ctx context.Context, phone string) error
}

// Ensure concrete types implement interfaces.
var (
	_ LocationStoreInterface = (*LocationStore)(nil)
	_ OTPStoreInterface      = (*OTPStore)(nil)
)
