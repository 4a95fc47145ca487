package repository

import (
	"context"

	"helpme/internal/domain"
)

// UserRepository defines the persistence operations for users.
type UserRepository interface {
	// Create adds a new user.
	Create(ctx context.Context, user *domain.User) error

	// GetByID retrieves a user by ID.
	GetByID(ctx context.Context, id string) (*domain.User, error)

	// GetByPhone retrieves a user by phone number.
	GetByPhone(ctx context.Context, phone string) (*domain.User, error)

	// GetByIDs retrieves the users whose IDs appear in ids. Unknown IDs are
	// skipped, not errors.
	GetByIDs(ctx context.Context, ids []string) ([]*domain.User, error)

	// UpdateLocation overwrites the stored location for a user.
	UpdateLocation(ctx context.Context, id string, lat, lng float64) error

	// UpdateLoginState overwrites the location and FCM token recorded at login.
	UpdateLoginState(ctx context.Context, id string, lat, lng float64, fcmToken string) error

	// ReplaceContacts replaces the user's entire close-contact map.
	ReplaceContacts(ctx context.Context, id string, contacts domain.ContactMap) error

	// AppendNotification appends an entry to the user's notification log.
	AppendNotification(ctx context.Context, n *domain.Notification) error

	// Notifications returns the user's notification log, newest first.
	Notifications(ctx context.Context, userID string, limit int) ([]*domain.Notification, error)
}
