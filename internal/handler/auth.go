package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"helpme/internal/service"
)

// AuthHandler handles the OTP request/verify endpoints.
type AuthHandler struct {
	authService *service.AuthService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// RequestOTPRequest is the HTTP request body for requesting a code.
type RequestOTPRequest struct {
	Phone string `json:"phone"`
}

// RequestOTPResponse returns the generated code so the flow works without a
// configured SMS provider.
type RequestOTPResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	OTP     string `json:"otp"`
	DevMode bool   `json:"devMode"`
}

// locationBody is the GeoJSON-style location accepted on verification:
// coordinates are [longitude, latitude].
type locationBody struct {
	Coordinates []float64 `json:"coordinates"`
}

// VerifyOTPRequest is the HTTP request body for verifying a code. The
// optional fields are required when the phone has no account yet.
type VerifyOTPRequest struct {
	Phone    string        `json:"phone"`
	OTP      string        `json:"otp"`
	Name     string        `json:"name"`
	Address  string        `json:"address"`
	Location *locationBody `json:"location"`
	FCMToken string        `json:"fcmToken"`
}

// VerifyOTPResponse is the HTTP response for a successful verification.
type VerifyOTPResponse struct {
	Success bool         `json:"success"`
	Token   string       `json:"token"`
	UserID  string       `json:"userId"`
	User    UserResponse `json:"user"`
}

// RequestOTP handles POST /v1/otp/request
func (h *AuthHandler) RequestOTP(c *gin.Context) {
	var req RequestOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	challenge, err := h.authService.RequestOTP(c.Request.Context(), req.Phone)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, RequestOTPResponse{
		Success: true,
		Message: "OTP sent successfully",
		OTP:     challenge.Code,
		DevMode: challenge.DevMode,
	})
}

// VerifyOTP handles POST /v1/otp/verify
func (h *AuthHandler) VerifyOTP(c *gin.Context) {
	var req VerifyOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	if len(req.OTP) != 6 {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "OTP must be 6 digits"})
		return
	}

	reg := &service.Registration{
		Name:     req.Name,
		Address:  req.Address,
		FCMToken: req.FCMToken,
	}
	if req.Location != nil && len(req.Location.Coordinates) >= 2 {
		reg.HasLocation = true
		reg.Lng = req.Location.Coordinates[0]
		reg.Lat = req.Location.Coordinates[1]
	}

	session, err := h.authService.VerifyOTP(c.Request.Context(), req.Phone, req.OTP, reg)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, VerifyOTPResponse{
		Success: true,
		Token:   session.Token,
		UserID:  session.User.ID,
		User:    toUserResponse(session.User),
	})
}
