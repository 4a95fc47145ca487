package redis

import (
	"context"

	"github.com/redis/go-redis/v9"
)

const userLocationKey = "users:locations"

// UserLocation represents a user's position as held in the geo index.
type UserLocation struct {
	UserID    string
	Lat       float64
	Lng       float64
	DistanceM float64
}

// LocationStore maintains the geo index of user locations in Redis.
type LocationStore struct {
	client *redis.Client
}

// NewLocationStore creates a new LocationStore.
func NewLocationStore(client *redis.Client) *LocationStore {
	return &LocationStore{client: client}
}

// UpdateLocation stores a user's location using GEOADD. Re-adding an existing
// member simply overwrites its position, so the call is idempotent.
func (s *LocationStore) UpdateLocation(ctx context.Context, userID string, lat, lng float64) error {
	return s.client.GeoAdd(ctx, userLocationKey, &redis.GeoLocation{
		Name:      userID,
		Longitude: lng,
		Latitude:  lat,
	}).Err()
}

// GEOADD snaps members to a 52-bit geohash grid, so a member stored at the
// query point can decode up to ~0.6m away from it. Radii below this floor
// would miss exact matches.
const minSearchRadiusM = 1.0

// FindNearby returns user IDs within radiusM meters of the given point,
// closest first, using Redis's spherical distance semantics. The querying
// user's own entry is included when it falls inside the radius.
func (s *LocationStore) FindNearby(ctx context.Context, lat, lng, radiusM float64) ([]UserLocation, error) {
	if radiusM < minSearchRadiusM {
		radiusM = minSearchRadiusM
	}
	results, err := s.client.GeoRadius(ctx, userLocationKey, lng, lat, &redis.GeoRadiusQuery{
		Radius:    radiusM,
		Unit:      "m",
		WithCoord: true,
		WithDist:  true,
		Sort:      "ASC",
	}).Result()
	if err != nil {
		return nil, err
	}

	locations := make([]UserLocation, 0, len(results))
	for _, r := range results {
		locations = append(locations, UserLocation{
			UserID:    r.Name,
			Lat:       r.Latitude,
			Lng:       r.Longitude,
			DistanceM: r.Dist,
		})
	}

	return locations, nil
}

// RemoveLocation removes a user's location from the geo index.
func (s *LocationStore) RemoveLocation(ctx context.Context, userID string) error {
	return s.client.ZRem(ctx, userLocationKey, userID).Err()
}
