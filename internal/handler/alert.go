package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"helpme/internal/middleware"
	"helpme/internal/service"
)

// AlertHandler handles emergency alert dispatch.
type AlertHandler struct {
	alertService *service.AlertService
}

// NewAlertHandler creates a new AlertHandler.
func NewAlertHandler(alertService *service.AlertService) *AlertHandler {
	return &AlertHandler{alertService: alertService}
}

// EmergencyAlertRequest is the HTTP request body for an alert. Location is
// optional; without it the SMS carries a placeholder and no nearby users are
// notified.
type EmergencyAlertRequest struct {
	Location *struct {
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
	} `json:"location"`
}

// Emergency handles POST /v1/alert/emergency
func (h *AlertHandler) Emergency(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "authorization required"})
		return
	}

	var req EmergencyAlertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		// An empty body is a valid alert without location.
		req = EmergencyAlertRequest{}
	}

	var loc *service.Coordinates
	if req.Location != nil {
		loc = &service.Coordinates{
			Latitude:  req.Location.Latitude,
			Longitude: req.Location.Longitude,
		}
	}

	report, err := h.alertService.SendEmergencyAlert(c.Request.Context(), userID, loc)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": fmt.Sprintf("Emergency alert sent to %d contacts", report.Sent),
		"results": report,
	})
}
