package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"helpme/internal/domain"
	"helpme/internal/middleware"
	"helpme/internal/repository"
)

// ContactsHandler handles the close-contact endpoints.
type ContactsHandler struct {
	userRepo repository.UserRepository
}

// NewContactsHandler creates a new ContactsHandler.
func NewContactsHandler(userRepo repository.UserRepository) *ContactsHandler {
	return &ContactsHandler{userRepo: userRepo}
}

// ReplaceContactsRequest is the HTTP request body for a contact update. The
// map replaces the stored one entirely; omitted names are removed.
type ReplaceContactsRequest struct {
	CloseContacts domain.ContactMap `json:"closeContacts"`
}

// Get handles GET /v1/contacts
func (h *ContactsHandler) Get(c *gin.Context) {
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
		"success":  true,
		"contacts": user.CloseContacts,
	})
}

// Replace handles POST /v1/contacts
func (h *ContactsHandler) Replace(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "authorization required"})
		return
	}

	var req ReplaceContactsRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.CloseContacts == nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "closeContacts map is required"})
		return
	}

	ctx := c.Request.Context()
	if err := h.userRepo.ReplaceContacts(ctx, userID, req.CloseContacts); err != nil {
		respondError(c, err)
		return
	}

	user, err := h.userRepo.GetByID(ctx, userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"user":    toUserResponse(user),
	})
}
