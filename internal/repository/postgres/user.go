package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/lib/pq"

	"helpme/internal/domain"
	"helpme/internal/repository"
)

// UserRepository implements repository.UserRepository using PostgreSQL.
type UserRepository struct {
	db Querier
}

// NewUserRepository creates a new UserRepository. Accepts a Querier so
// callers can run it inside a transaction.
func NewUserRepository(db Querier) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `id, phone, name, address, latitude, longitude, fcm_token, close_contacts, created_at`

// Create adds a new user.
func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	contacts, err := marshalContacts(user.CloseContacts)
	if err != nil {
		return err
	}

	query := `INSERT INTO users (id, phone, name, address, latitude, longitude, fcm_token, close_contacts)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err = r.db.ExecContext(ctx, query,
		user.ID, user.Phone, user.Name, user.Address,
		user.Latitude, user.Longitude, user.FCMToken, contacts,
	)
	return err
}

// GetByID retrieves a user by ID.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(r.db.QueryRowContext(ctx, query, id))
}

// GetByPhone retrieves a user by phone number.
func (r *UserRepository) GetByPhone(ctx context.Context, phone string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE phone = $1`
	return scanUser(r.db.QueryRowContext(ctx, query, phone))
}

// GetByIDs retrieves the users whose IDs appear in ids.
func (r *UserRepository) GetByIDs(ctx context.Context, ids []string) ([]*domain.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query := `SELECT ` + userColumns + ` FROM users WHERE id = ANY($1)`
	rows, err := r.db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*domain.User
	for rows.Next() {
		user, err := scanUserRow(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

// UpdateLocation overwrites the stored location for a user.
func (r *UserRepository) UpdateLocation(ctx context.Context, id string, lat, lng float64) error {
	query := `UPDATE users SET latitude = $2, longitude = $3 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, lat, lng)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// UpdateLoginState overwrites the location and FCM token recorded at login.
func (r *UserRepository) UpdateLoginState(ctx context.Context, id string, lat, lng float64, fcmToken string) error {
	query := `UPDATE users SET latitude = $2, longitude = $3, fcm_token = $4 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, lat, lng, fcmToken)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// ReplaceContacts replaces the user's entire close-contact map.
func (r *UserRepository) ReplaceContacts(ctx context.Context, id string, contacts domain.ContactMap) error {
	data, err := marshalContacts(contacts)
	if err != nil {
		return err
	}

	query := `UPDATE users SET close_contacts = $2 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, data)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// AppendNotification appends an entry to the user's notification log.
func (r *UserRepository) AppendNotification(ctx context.Context, n *domain.Notification) error {
	data, err := json.Marshal(n.Data)
	if err != nil {
		return fmt.Errorf("failed to marshal notification data: %w", err)
	}

	query := `INSERT INTO user_notifications (id, user_id, title, body, data)
	          VALUES ($1, $2, $3, $4, $5)`
	_, err = r.db.ExecContext(ctx, query, n.ID, n.UserID, n.Title, n.Body, data)
	return err
}

// Notifications returns the user's notification log, newest first.
func (r *UserRepository) Notifications(ctx context.Context, userID string, limit int) ([]*domain.Notification, error) {
	query := `SELECT id, user_id, title, body, data, created_at
	          FROM user_notifications WHERE user_id = $1
	          ORDER BY created_at DESC LIMIT $2`
	rows, err := r.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var notifications []*domain.Notification
	for rows.Next() {
		var n domain.Notification
		var data []byte
		if err := rows.Scan(&n.ID, &n.UserID, &n.Title, &n.Body, &data, &n.CreatedAt); err != nil {
			return nil, err
		}
		if len(data) > 0 {
			if err := json.Unmarshal(data, &n.Data); err != nil {
				return nil, fmt.Errorf("failed to unmarshal notification data: %w", err)
			}
		}
		notifications = append(notifications, &n)
	}
	return notifications, rows.Err()
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanUser(row *sql.Row) (*domain.User, error) {
	user, err := scanUserRow(row)
	if err == sql.ErrNoRows {
		return nil, repository.ErrNotFound
	}
	return user, err
}

func scanUserRow(s scanner) (*domain.User, error) {
	var user domain.User
	var contacts []byte
	err := s.Scan(
		&user.ID, &user.Phone, &user.Name, &user.Address,
		&user.Latitude, &user.Longitude, &user.FCMToken, &contacts, &user.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(contacts) > 0 {
		if err := json.Unmarshal(contacts, &user.CloseContacts); err != nil {
			return nil, fmt.Errorf("failed to unmarshal close contacts: %w", err)
		}
	}
	if user.CloseContacts == nil {
		user.CloseContacts = domain.ContactMap{}
	}
	return &user, nil
}

func marshalContacts(contacts domain.ContactMap) ([]byte, error) {
	if contacts == nil {
		contacts = domain.ContactMap{}
	}
	data, err := json.Marshal(contacts)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal close contacts: %w", err)
	}
	return data, nil
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return nil
}
