package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"helpme/internal/middleware"
	"helpme/internal/service"
)

// LocationHandler handles location updates and nearby queries.
type LocationHandler struct {
	locationService *service.LocationService
}

// NewLocationHandler creates a new LocationHandler.
func NewLocationHandler(locationService *service.LocationService) *LocationHandler {
	return &LocationHandler{locationService: locationService}
}

// UpdateLocationRequest is the HTTP request body for a location update.
type UpdateLocationRequest struct {
	Location locationBody `json:"location"`
}

// NearbyRequest is the HTTP request body for a radius query. Distance is in
// meters.
type NearbyRequest struct {
	Longitude float64 `json:"longitude"`
	Latitude  float64 `json:"latitude"`
	Distance  float64 `json:"distance"`
}

// NearbyUserResponse is one radius-query result.
type NearbyUserResponse struct {
	UserResponse
	DistanceM float64 `json:"distanceMeters"`
}

// Update handles PUT /v1/location/update
func (h *LocationHandler) Update(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "authorization required"})
		return
	}

	var req UpdateLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil || len(req.Location.Coordinates) < 2 {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	lng, lat := req.Location.Coordinates[0], req.Location.Coordinates[1]
	if err := h.locationService.UpdateLocation(c.Request.Context(), userID, lat, lng); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Nearby handles POST /v1/location/nearby
func (h *LocationHandler) Nearby(c *gin.Context) {
	if _, ok := middleware.UserID(c); !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "authorization required"})
		return
	}

	var req NearbyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	nearby, err := h.locationService.FindNearby(c.Request.Context(), req.Latitude, req.Longitude, req.Distance)
	if err != nil {
		respondError(c, err)
		return
	}

	results := make([]NearbyUserResponse, 0, len(nearby))
	for _, n := range nearby {
		results = append(results, NearbyUserResponse{
			UserResponse: toUserResponse(n.User),
			DistanceM:    n.DistanceM,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"results": results,
	})
}
