package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"helpme/internal/domain"
	"helpme/internal/middleware"
	"helpme/internal/repository"
)

// UserHandler handles user profile lookups.
type UserHandler struct {
	userRepo repository.UserRepository
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(userRepo repository.UserRepository) *UserHandler {
	return &UserHandler{userRepo: userRepo}
}

// Me handles GET /v1/me
func (h *UserHandler) Me(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "authorization required"})
		return
	}

	user, err := h.userRepo.GetByID(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"user":    toUserResponse(user),
	})
}

// Notifications handles GET /v1/notifications
func (h *UserHandler) Notifications(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "authorization required"})
		return
	}

	limit := 20
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 100 {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "limit must be between 1 and 100"})
			return
		}
		limit = n
	}

	notifications, err := h.userRepo.Notifications(c.Request.Context(), userID, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	if notifications == nil {
		notifications = []*domain.Notification{}
	}

	c.JSON(http.StatusOK, gin.H{
		"success":       true,
		"notifications": notifications,
	})
}

// GetByID handles GET /v1/users/:id
func (h *UserHandler) GetByID(c *gin.Context) {
	user, err := h.userRepo.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	// Public view: strip the push token and contact map.
	view := toUserResponse(user)
	view.FCMToken = ""
	view.CloseContacts = nil

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"user":    view,
	})
}
