package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"helpme/internal/domain"
	"helpme/internal/repository"
	"helpme/internal/service"
)

// ErrorResponse is the error envelope shared by every endpoint.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// respondError sends an error response with the appropriate HTTP status code.
func respondError(c *gin.Context, err error) {
	code := mapErrorToHTTPStatus(err)
	msg := err.Error()
	if code == http.StatusInternalServerError {
		msg = "Internal Server Error"
	}
	c.JSON(code, ErrorResponse{Success: false, Error: msg})
}

// mapErrorToHTTPStatus maps service/repository errors to HTTP status codes.
func mapErrorToHTTPStatus(err error) int {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound

	// Validation and precondition errors - Bad Request
	case errors.Is(err, service.ErrInvalidPhone),
		errors.Is(err, service.ErrInvalidOTP),
		errors.Is(err, service.ErrMissingRegistration),
		errors.Is(err, service.ErrInvalidUserID),
		errors.Is(err, service.ErrInvalidLocation),
		errors.Is(err, service.ErrInvalidDistance),
		errors.Is(err, service.ErrNoContacts):
		return http.StatusBadRequest

	default:
		return http.StatusInternalServerError
	}
}

// GeoPoint is the GeoJSON-style location shape used on the wire:
// coordinates are [longitude, latitude].
type GeoPoint struct {
	Type        string     `json:"type"`
	Coordinates [2]float64 `json:"coordinates"`
}

// UserResponse is the wire representation of a user.
type UserResponse struct {
	ID            string            `json:"id"`
	Phone         string            `json:"phone"`
	Name          string            `json:"name"`
	Address       string            `json:"address"`
	Location      GeoPoint          `json:"location"`
	FCMToken      string            `json:"fcmToken,omitempty"`
	CloseContacts domain.ContactMap `json:"closeContacts,omitempty"`
}

func toUserResponse(u *domain.User) UserResponse {
	return UserResponse{
		ID:      u.ID,
		Phone:   u.Phone,
		Name:    u.Name,
		Address: u.Address,
		Location: GeoPoint{
			Type:        "Point",
			Coordinates: [2]float64{u.Longitude, u.Latitude},
		},
		FCMToken:      u.FCMToken,
		CloseContacts: u.CloseContacts,
	}
}
