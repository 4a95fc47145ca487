package service

import "errors"

var (
	// ErrInvalidPhone is returned when a phone number is not exactly 10 digits.
	ErrInvalidPhone = errors.New("invalid phone number")

	// ErrInvalidOTP is returned when no unexpired code matches a phone+code pair.
	ErrInvalidOTP = errors.New("invalid or expired OTP")

	// ErrMissingRegistration is returned when a first-time verification lacks
	// name, location, or FCM token.
	ErrMissingRegistration = errors.New("name, location and fcmToken are required for registration")

	// ErrInvalidUserID is returned when a user ID is empty.
	ErrInvalidUserID = errors.New("invalid user id")

	// ErrInvalidLocation is returned when coordinates fall outside valid ranges.
	ErrInvalidLocation = errors.New("invalid location")

	// ErrInvalidDistance is returned when a search radius is negative.
	ErrInvalidDistance = errors.New("invalid search distance")

	// ErrNoContacts is returned when an alert is triggered with no close
	// contacts configured. An alert with zero recipients is meaningless, so
	// this is a hard precondition.
	ErrNoContacts = errors.New("no emergency contacts found")
)
