package tests

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"helpme/internal/domain"
	"helpme/internal/service"
)

func addUserAt(userRepo *MockUserRepository, locationStore *MockLocationStore, id string, lat, lng float64) {
	userRepo.AddUser(&domain.User{
		ID:       id,
		Phone:    "1234567890",
		Name:     "User " + id,
		Latitude: lat, Longitude: lng,
		FCMToken:      "fcm-" + id,
		CloseContacts: domain.ContactMap{},
	})
	_ = locationStore.UpdateLocation(context.Background(), id, lat, lng)
}

// ──────────────────────────────────────────────
// 1. LOCATION UPDATE
// ──────────────────────────────────────────────

func TestUpdateLocation_WritesToBothStores(t *testing.T) {
	t.Parallel()

	userRepo := NewMockUserRepository()
	locationStore := NewMockLocationStore()
	userRepo.AddUser(&domain.User{ID: "user-1", Phone: "1234567890"})

	locationService := service.NewLocationService(locationStore, userRepo)

	if err := locationService.UpdateLocation(context.Background(), "user-1", 12.9716, 77.5946); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !locationStore.HasLocation("user-1") {
		t.Error("expected location in the geo index")
	}
	stored := userRepo.GetUser("user-1")
	if stored.Latitude != 12.9716 || stored.Longitude != 77.5946 {
		t.Errorf("expected directory update, got (%f, %f)", stored.Latitude, stored.Longitude)
	}
}

func TestUpdateLocation_Idempotent(t *testing.T) {
	t.Parallel()

	userRepo := NewMockUserRepository()
	locationStore := NewMockLocationStore()
	userRepo.AddUser(&domain.User{ID: "user-1", Phone: "1234567890"})

	locationService := service.NewLocationService(locationStore, userRepo)

	for i := 0; i < 3; i++ {
		if err := locationService.UpdateLocation(context.Background(), "user-1", 12.9716, 77.5946); err != nil {
			t.Fatalf("call %d: unexpected error: %v", i, err)
		}
	}

	if n := atomic.LoadInt32(&locationStore.UpdateLocationCallCount); n != 3 {
		t.Errorf("expected 3 index writes, got %d", n)
	}
}

func TestUpdateLocation_CoordinateValidation(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		lat     float64
		lng     float64
		wantErr bool
	}{
		{name: "latitude too high", lat: 91.0, lng: 77.5946, wantErr: true},
		{name: "latitude too low", lat: -91.0, lng: 77.5946, wantErr: true},
		{name: "longitude too high", lat: 12.9716, lng: 181.0, wantErr: true},
		{name: "longitude too low", lat: 12.9716, lng: -181.0, wantErr: true},
		{name: "valid coordinates", lat: 12.9716, lng: 77.5946, wantErr: false},
		{name: "edge case: max latitude", lat: 90.0, lng: 77.5946, wantErr: false},
		{name: "edge case: min latitude", lat: -90.0, lng: 77.5946, wantErr: false},
		{name: "edge case: max longitude", lat: 12.9716, lng: 180.0, wantErr: false},
		{name: "edge case: min longitude", lat: 12.9716, lng: -180.0, wantErr: false},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			userRepo := NewMockUserRepository()
			userRepo.AddUser(&domain.User{ID: "user-1", Phone: "1234567890"})
			locationService := service.NewLocationService(NewMockLocationStore(), userRepo)

			err := locationService.UpdateLocation(context.Background(), "user-1", tc.lat, tc.lng)
			if tc.wantErr && !errors.Is(err, service.ErrInvalidLocation) {
				t.Errorf("expected ErrInvalidLocation, got %v", err)
			}
			if !tc.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

// ──────────────────────────────────────────────
// 2. NEARBY QUERY EDGE CASES
// ──────────────────────────────────────────────

func TestFindNearby_ZeroRadiusIncludesExactMatch(t *testing.T) {
	t.Parallel()

	userRepo := NewMockUserRepository()
	locationStore := NewMockLocationStore()
	addUserAt(userRepo, locationStore, "user-1", 28.7041, 77.2090)

	locationService := service.NewLocationService(locationStore, userRepo)

	results, err := locationService.FindNearby(context.Background(), 28.7041, 77.2090, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 1 || results[0].User.ID != "user-1" {
		t.Fatalf("expected the co-located user at radius 0, got %d results", len(results))
	}
	if results[0].DistanceM != 0 {
		t.Errorf("expected zero distance, got %f", results[0].DistanceM)
	}
}

func TestFindNearby_ZeroRadiusToleratesGridSnapping(t *testing.T) {
	t.Parallel()

	userRepo := NewMockUserRepository()
	locationStore := NewMockLocationStore()
	// Half a meter of latitude away from the query point, within the error
	// a geohash-backed index introduces for a member stored "exactly" at it.
	addUserAt(userRepo, locationStore, "user-1", 28.7041045, 77.2090)

	locationService := service.NewLocationService(locationStore, userRepo)

	results, err := locationService.FindNearby(context.Background(), 28.7041, 77.2090, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 1 || results[0].User.ID != "user-1" {
		t.Fatalf("expected the sub-meter neighbor at radius 0, got %d results", len(results))
	}
}

func TestFindNearby_ExcludesUsersBeyondRadius(t *testing.T) {
	t.Parallel()

	userRepo := NewMockUserRepository()
	locationStore := NewMockLocationStore()
	// Delhi and Bangalore: about 1700 km apart.
	addUserAt(userRepo, locationStore, "near", 28.7041, 77.2090)
	addUserAt(userRepo, locationStore, "far", 12.9716, 77.5946)

	locationService := service.NewLocationService(locationStore, userRepo)

	results, err := locationService.FindNearby(context.Background(), 28.7041, 77.2090, 1000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected one user within 1000m, got %d", len(results))
	}
	if results[0].User.ID != "near" {
		t.Errorf("expected the nearby user, got %s", results[0].User.ID)
	}
}

func TestFindNearby_OrdersClosestFirst(t *testing.T) {
	t.Parallel()

	userRepo := NewMockUserRepository()
	locationStore := NewMockLocationStore()
	addUserAt(userRepo, locationStore, "closest", 28.7041, 77.2090)
	addUserAt(userRepo, locationStore, "close", 28.7045, 77.2095)
	addUserAt(userRepo, locationStore, "farther", 28.7141, 77.2290)

	locationService := service.NewLocationService(locationStore, userRepo)

	results, err := locationService.FindNearby(context.Background(), 28.7041, 77.2090, 10000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 users, got %d", len(results))
	}

	want := []string{"closest", "close", "farther"}
	for i, id := range want {
		if results[i].User.ID != id {
			t.Errorf("position %d: expected %s, got %s", i, id, results[i].User.ID)
		}
	}
}

func TestFindNearby_RejectsNegativeDistance(t *testing.T) {
	t.Parallel()

	locationService := service.NewLocationService(NewMockLocationStore(), NewMockUserRepository())

	_, err := locationService.FindNearby(context.Background(), 28.7041, 77.2090, -1)
	if !errors.Is(err, service.ErrInvalidDistance) {
		t.Errorf("expected ErrInvalidDistance, got %v", err)
	}
}

func TestFindNearby_SkipsDeletedDirectoryEntries(t *testing.T) {
	t.Parallel()

	userRepo := NewMockUserRepository()
	locationStore := NewMockLocationStore()
	addUserAt(userRepo, locationStore, "user-1", 28.7041, 77.2090)
	// Geo index entry without a backing user record.
	_ = locationStore.UpdateLocation(context.Background(), "ghost", 28.7042, 77.2091)

	locationService := service.NewLocationService(locationStore, userRepo)

	results, err := locationService.FindNearby(context.Background(), 28.7041, 77.2090, 1000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 1 || results[0].User.ID != "user-1" {
		t.Fatalf("expected only the backed user, got %d results", len(results))
	}
}
