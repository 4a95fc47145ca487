package service

import (
	"context"

	"helpme/internal/domain"
	"helpme/internal/redis"
	"helpme/internal/repository"
)

// LocationService maintains user locations and answers nearby queries.
type LocationService struct {
	locationStore redis.LocationStoreInterface
	userRepo      repository.UserRepository
}

// NewLocationService creates a new LocationService.
func NewLocationService(locationStore redis.LocationStoreInterface, userRepo repository.UserRepository) *LocationService {
	return &LocationService{
		locationStore: locationStore,
		userRepo:      userRepo,
	}
}

// NearbyUser is a user returned by a radius query, with their distance from
// the query point in meters.
type NearbyUser struct {
	User      *domain.User
	DistanceM float64
}

// UpdateLocation overwrites a user's position in both the directory and the
// geo index. Safe to call repeatedly with the same coordinates.
func (s *LocationService) UpdateLocation(ctx context.Context, userID string, lat, lng float64) error {
	if userID == "" {
		return ErrInvalidUserID
	}
	if !isValidLatitude(lat) || !isValidLongitude(lng) {
		return ErrInvalidLocation
	}

	if err := s.userRepo.UpdateLocation(ctx, userID, lat, lng); err != nil {
		return err
	}
	return s.locationStore.UpdateLocation(ctx, userID, lat, lng)
}

// FindNearby returns every user within radiusM meters of the point, closest
// first, including the caller when they fall inside the radius. Callers
// filter their own ID for display.
func (s *LocationService) FindNearby(ctx context.Context, lat, lng, radiusM float64) ([]NearbyUser, error) {
	if !isValidLatitude(lat) || !isValidLongitude(lng) {
		return nil, ErrInvalidLocation
	}
	if radiusM < 0 {
		return nil, ErrInvalidDistance
	}

	locations, err := s.locationStore.FindNearby(ctx, lat, lng, radiusM)
	if err != nil {
		return nil, err
	}
	if len(locations) == 0 {
		return nil, nil
	}

	ids := make([]string, len(locations))
	distances := make(map[string]float64, len(locations))
	for i, loc := range locations {
		ids[i] = loc.UserID
		distances[loc.UserID] = loc.DistanceM
	}

	users, err := s.userRepo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]*domain.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}

	// Preserve the index's closest-first ordering; drop index entries whose
	// user record has since been deleted.
	result := make([]NearbyUser, 0, len(locations))
	for _, loc := range locations {
		if u, ok := byID[loc.UserID]; ok {
			result = append(result, NearbyUser{User: u, DistanceM: distances[loc.UserID]})
		}
	}
	return result, nil
}

func isValidLatitude(lat float64) bool {
	return lat >= -90 && lat <= 90
}

func isValidLongitude(lng float64) bool {
	return lng >= -180 && lng <= 180
}
