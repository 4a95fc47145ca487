package tests

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"helpme/internal/domain"
	"helpme/internal/redis"
	"helpme/internal/repository"
	"helpme/internal/service"
)

// ──────────────────────────────────────────────
// MOCK USER REPOSITORY
// ──────────────────────────────────────────────

// MockUserRepository is a mock implementation of UserRepository.
type MockUserRepository struct {
	mu            sync.RWMutex
	users         map[string]*domain.User
	notifications []*domain.Notification

	// Counters for verification
	CreateCallCount          int32
	ReplaceContactsCallCount int32
	AppendCallCount          int32

	// Error injection
	CreateError error
	UpdateError error
}

// NewMockUserRepository creates a new mock user repository.
func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{
		users: make(map[string]*domain.User),
	}
}

// AddUser adds a user to the mock repository.
func (m *MockUserRepository) AddUser(user *domain.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[user.ID] = user
}

func (m *MockUserRepository) Create(ctx context.Context, user *domain.User) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[user.ID] = user
	return nil
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	user, ok := m.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	// Return a copy to avoid mutation issues.
	copy := *user
	return &copy, nil
}

func (m *MockUserRepository) GetByPhone(ctx context.Context, phone string) (*domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if u.Phone == phone {
			copy := *u
			return &copy, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *MockUserRepository) GetByIDs(ctx context.Context, ids []string) ([]*domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.User, 0, len(ids))
	for _, id := range ids {
		if u, ok := m.users[id]; ok {
			copy := *u
			result = append(result, &copy)
		}
	}
	return result, nil
}

func (m *MockUserRepository) UpdateLocation(ctx context.Context, id string, lat, lng float64) error {
	if m.UpdateError != nil {
		return m.UpdateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	user.Latitude, user.Longitude = lat, lng
	return nil
}

func (m *MockUserRepository) UpdateLoginState(ctx context.Context, id string, lat, lng float64, fcmToken string) error {
	if m.UpdateError != nil {
		return m.UpdateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	user.Latitude, user.Longitude, user.FCMToken = lat, lng, fcmToken
	return nil
}

func (m *MockUserRepository) ReplaceContacts(ctx context.Context, id string, contacts domain.ContactMap) error {
	atomic.AddInt32(&m.ReplaceContactsCallCount, 1)
	if m.UpdateError != nil {
		return m.UpdateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	// Whole-map overwrite, same as the SQL implementation.
	user.CloseContacts = contacts
	return nil
}

func (m *MockUserRepository) AppendNotification(ctx context.Context, n *domain.Notification) error {
	atomic.AddInt32(&m.AppendCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notifications = append(m.notifications, n)
	return nil
}

func (m *MockUserRepository) Notifications(ctx context.Context, userID string, limit int) ([]*domain.Notification, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*domain.Notification
	for i := len(m.notifications) - 1; i >= 0 && len(result) < limit; i-- {
		if m.notifications[i].UserID == userID {
			result = append(result, m.notifications[i])
		}
	}
	return result, nil
}

// GetUser returns a user for test assertions.
func (m *MockUserRepository) GetUser(id string) *domain.User {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.users[id]
}

// CountUsers returns the number of stored users.
func (m *MockUserRepository) CountUsers() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.users)
}

// NotificationsFor returns recorded notifications for a user.
func (m *MockUserRepository) NotificationsFor(userID string) []*domain.Notification {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*domain.Notification
	for _, n := range m.notifications {
		if n.UserID == userID {
			result = append(result, n)
		}
	}
	return result
}

// ──────────────────────────────────────────────
// MOCK LOCATION STORE
// ──────────────────────────────────────────────

// MockLocationStore is an in-memory implementation of LocationStoreInterface
// with great-circle distance semantics.
type MockLocationStore struct {
	mu        sync.RWMutex
	locations map[string][2]float64 // userID -> {lat, lng}

	// Counters
	UpdateLocationCallCount int32

	// Error injection
	UpdateLocationError error
	FindNearbyError     error
}

// NewMockLocationStore creates a new mock location store.
func NewMockLocationStore() *MockLocationStore {
	return &MockLocationStore{
		locations: make(map[string][2]float64),
	}
}

func (m *MockLocationStore) UpdateLocation(ctx context.Context, userID string, lat, lng float64) error {
	atomic.AddInt32(&m.UpdateLocationCallCount, 1)
	if m.UpdateLocationError != nil {
		return m.UpdateLocationError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.locations[userID] = [2]float64{lat, lng}
	return nil
}

func (m *MockLocationStore) FindNearby(ctx context.Context, lat, lng, radiusM float64) ([]redis.UserLocation, error) {
	if m.FindNearbyError != nil {
		return nil, m.FindNearbyError
	}
	// Same radius floor as the real store, which pads sub-meter radii to
	// absorb geohash grid snapping.
	if radiusM < 1 {
		radiusM = 1
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []redis.UserLocation
	for id, pos := range m.locations {
		d := haversineMeters(lat, lng, pos[0], pos[1])
		if d <= radiusM {
			result = append(result, redis.UserLocation{
				UserID:    id,
				Lat:       pos[0],
				Lng:       pos[1],
				DistanceM: d,
			})
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].DistanceM < result[j].DistanceM })
	return result, nil
}

func (m *MockLocationStore) RemoveLocation(ctx context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.locations, userID)
	return nil
}

// HasLocation reports whether a location is stored for the user.
func (m *MockLocationStore) HasLocation(userID string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.locations[userID]
	return ok
}

// haversineMeters computes great-circle distance between two points.
func haversineMeters(lat1, lng1, lat2, lng2 float64) float64 {
	const earthRadiusM = 6371000.0
	rad := math.Pi / 180.0
	dLat := (lat2 - lat1) * rad
	dLng := (lng2 - lng1) * rad
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*rad)*math.Cos(lat2*rad)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusM * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

// ──────────────────────────────────────────────
// MOCK OTP STORE
// ──────────────────────────────────────────────

type otpEntry struct {
	code      string
	expiresAt time.Time
}

// MockOTPStore is an in-memory implementation of OTPStoreInterface with
// real expiry semantics.
type MockOTPStore struct {
	mu    sync.Mutex
	codes map[string]otpEntry

	// Error injection
	SetError error
}

// NewMockOTPStore creates a new mock OTP store.
func NewMockOTPStore() *MockOTPStore {
	return &MockOTPStore{codes: make(map[string]otpEntry)}
}

func (m *MockOTPStore) Set(ctx context.Context, phone, code string, ttl time.Duration) error {
	if m.SetError != nil {
		return m.SetError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.codes[phone] = otpEntry{code: code, expiresAt: time.Now().Add(ttl)}
	return nil
}

func (m *MockOTPStore) Get(ctx context.Context, phone string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.codes[phone]
	if !ok || time.Now().After(entry.expiresAt) {
		return "", false, nil
	}
	return entry.code, true, nil
}

func (m *MockOTPStore) Delete(ctx context.Context, phone string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.codes, phone)
	return nil
}

// Expire forces the outstanding code for a phone to be expired.
func (m *MockOTPStore) Expire(phone string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if entry, ok := m.codes[phone]; ok {
		entry.expiresAt = time.Now().Add(-time.Second)
		m.codes[phone] = entry
	}
}

// HasCode reports whether any code is stored for the phone.
func (m *MockOTPStore) HasCode(phone string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.codes[phone]
	return ok
}

// ──────────────────────────────────────────────
// MOCK SMS SENDER
// ──────────────────────────────────────────────

// SentMessage records one delivery attempt accepted by the mock sender.
type SentMessage struct {
	To   string
	Body string
}

// MockSMSSender is a controllable SMSSender.
type MockSMSSender struct {
	mu       sync.Mutex
	sent     []SentMessage
	sequence int

	// IsConfigured controls dev-mode behavior in callers.
	IsConfigured bool

	// FailFor injects a per-recipient delivery error.
	FailFor map[string]error
}

// NewMockSMSSender creates a configured mock sender.
func NewMockSMSSender() *MockSMSSender {
	return &MockSMSSender{IsConfigured: true}
}

func (m *MockSMSSender) Send(ctx context.Context, to, body string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err, ok := m.FailFor[to]; ok {
		return "", err
	}
	m.sequence++
	m.sent = append(m.sent, SentMessage{To: to, Body: body})
	return fmt.Sprintf("SM%06d", m.sequence), nil
}

func (m *MockSMSSender) Configured() bool {
	return m.IsConfigured
}

// SentMessages returns all accepted deliveries.
func (m *MockSMSSender) SentMessages() []SentMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]SentMessage(nil), m.sent...)
}

// CountSent returns how many deliveries the mock accepted.
func (m *MockSMSSender) CountSent() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

// ──────────────────────────────────────────────
// MOCK PUSHER
// ──────────────────────────────────────────────

// MockPusher records push notification deliveries.
type MockPusher struct {
	mu     sync.Mutex
	pushes []*domain.Notification

	// Error injection
	PushError error
}

// NewMockPusher creates a new mock pusher.
func NewMockPusher() *MockPusher {
	return &MockPusher{}
}

func (m *MockPusher) Push(ctx context.Context, fcmToken string, n *domain.Notification) error {
	if m.PushError != nil {
		return m.PushError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pushes = append(m.pushes, n)
	return nil
}

// Pushes returns all recorded notifications.
func (m *MockPusher) Pushes() []*domain.Notification {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*domain.Notification(nil), m.pushes...)
}

// Ensure mocks satisfy the interfaces they stand in for.
var (
	_ repository.UserRepository    = (*MockUserRepository)(nil)
	_ redis.LocationStoreInterface = (*MockLocationStore)(nil)
	_ redis.OTPStoreInterface      = (*MockOTPStore)(nil)
	_ service.SMSSender            = (*MockSMSSender)(nil)
	_ service.Pusher               = (*MockPusher)(nil)
)
