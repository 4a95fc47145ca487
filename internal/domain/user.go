package domain

import "time"

// ContactMap maps a contact's display name to their phone number.
// Names are unique within one user; the whole map is replaced on update,
// never merged.
type ContactMap map[string]string

// User represents a registered account in the directory.
type User struct {
	ID            string
	Phone         string
	Name          string
	Address       string
	Latitude      float64
	Longitude     float64
	FCMToken      string
	CloseContacts ContactMap
	CreatedAt     time.Time
}

// DisplayName returns the user's name, falling back to their phone number.
func (u *User) DisplayName() string {
	if u.Name != "" {
		return u.Name
	}
	return u.Phone
}
