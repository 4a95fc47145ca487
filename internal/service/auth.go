package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"helpme/internal/domain"
	"helpme/internal/logging"
	"helpme/internal/redis"
	"helpme/internal/repository"
	"helpme/internal/token"
)

// Fallback coordinates used when a registration supplies the sentinel
// zero-point location.
const (
	fallbackLongitude = 76.4180791
	fallbackLatitude  = 29.8154373
)

var phonePattern = regexp.MustCompile(`^[0-9]{10}$`)

// AuthService handles the phone+OTP login and registration flow.
type AuthService struct {
	userRepo      repository.UserRepository
	otpStore      redis.OTPStoreInterface
	locationStore redis.LocationStoreInterface
	sms           SMSSender
	jwtSecret     string
	tokenTTL      time.Duration
	otpTTL        time.Duration
}

// NewAuthService creates a new AuthService.
func NewAuthService(
	userRepo repository.UserRepository,
	otpStore redis.OTPStoreInterface,
	locationStore redis.LocationStoreInterface,
	sms SMSSender,
	jwtSecret string,
	tokenTTL time.Duration,
	otpTTL time.Duration,
) *AuthService {
	return &AuthService{
		userRepo:      userRepo,
		otpStore:      otpStore,
		locationStore: locationStore,
		sms:           sms,
		jwtSecret:     jwtSecret,
		tokenTTL:      tokenTTL,
		otpTTL:        otpTTL,
	}
}

// OTPChallenge is the result of an OTP request. Code is always returned so
// the flow stays usable when no SMS provider is configured.
type OTPChallenge struct {
	Code    string
	DevMode bool
}

// Registration carries the optional fields accompanying verification:
// required for first-time phones, optional echoes for returning ones.
type Registration struct {
	Name        string
	Address     string
	FCMToken    string
	HasLocation bool
	Lat         float64
	Lng         float64
}

// Session is an authenticated session issued after successful verification.
type Session struct {
	Token string
	User  *domain.User
}

// RequestOTP generates and stores a one-time code for the phone, replacing
// any outstanding code, and attempts best-effort SMS delivery. Delivery
// failure never fails the request.
func (s *AuthService) RequestOTP(ctx context.Context, phone string) (*OTPChallenge, error) {
	if !phonePattern.MatchString(phone) {
		return nil, ErrInvalidPhone
	}

	code, err := generateCode()
	if err != nil {
		return nil, err
	}

	if err := s.otpStore.Set(ctx, phone, code, s.otpTTL); err != nil {
		return nil, err
	}

	body := fmt.Sprintf("Your HelpMe verification code is: %s. Valid for %d minutes.", code, int(s.otpTTL.Minutes()))
	if _, err := s.sms.Send(ctx, phone, body); err != nil {
		// Best effort only: the code is still returned to the caller.
		logging.Warn("OTP SMS delivery failed",
			zap.String("phone", phone),
			zap.Error(err),
		)
	}

	return &OTPChallenge{Code: code, DevMode: !s.sms.Configured()}, nil
}

// VerifyOTP checks the phone+code pair against the outstanding challenge.
// Existing phones take the login path; unknown phones take the registration
// path, which requires name, location, and FCM token. The code is consumed
// on success.
func (s *AuthService) VerifyOTP(ctx context.Context, phone, code string, reg *Registration) (*Session, error) {
	if !phonePattern.MatchString(phone) {
		return nil, ErrInvalidPhone
	}

	stored, ok, err := s.otpStore.Get(ctx, phone)
	if err != nil {
		return nil, err
	}
	if !ok || stored != code {
		return nil, ErrInvalidOTP
	}

	user, err := s.userRepo.GetByPhone(ctx, phone)
	switch {
	case err == nil:
		return s.login(ctx, user, reg)
	case errors.Is(err, repository.ErrNotFound):
		return s.register(ctx, phone, reg)
	default:
		return nil, err
	}
}

func (s *AuthService) login(ctx context.Context, user *domain.User, reg *Registration) (*Session, error) {
	if err := s.otpStore.Delete(ctx, user.Phone); err != nil {
		return nil, err
	}

	if reg != nil && reg.FCMToken != "" && reg.HasLocation {
		lat, lng := user.Latitude, user.Longitude
		if reg.Lng != 0 {
			lat, lng = reg.Lat, reg.Lng
		}
		if err := s.userRepo.UpdateLoginState(ctx, user.ID, lat, lng, reg.FCMToken); err != nil {
			return nil, err
		}
		if err := s.locationStore.UpdateLocation(ctx, user.ID, lat, lng); err != nil {
			return nil, err
		}
		user.Latitude, user.Longitude, user.FCMToken = lat, lng, reg.FCMToken
	}

	// Echo freshly supplied display fields in the session without persisting them.
	if reg != nil {
		if name := strings.TrimSpace(reg.Name); name != "" {
			user.Name = name
		}
		if reg.Address != "" {
			user.Address = reg.Address
		}
	}

	return s.issue(user)
}

func (s *AuthService) register(ctx context.Context, phone string, reg *Registration) (*Session, error) {
	if reg == nil || strings.TrimSpace(reg.Name) == "" || reg.FCMToken == "" || !reg.HasLocation {
		return nil, ErrMissingRegistration
	}

	lat, lng := reg.Lat, reg.Lng
	if lng == 0 {
		lat, lng = fallbackLatitude, fallbackLongitude
	}

	user := &domain.User{
		ID:            uuid.New().String(),
		Phone:         phone,
		Name:          strings.TrimSpace(reg.Name),
		Address:       reg.Address,
		Latitude:      lat,
		Longitude:     lng,
		FCMToken:      reg.FCMToken,
		CloseContacts: domain.ContactMap{},
		CreatedAt:     time.Now(),
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	if err := s.locationStore.UpdateLocation(ctx, user.ID, lat, lng); err != nil {
		return nil, err
	}
	if err := s.otpStore.Delete(ctx, phone); err != nil {
		return nil, err
	}

	logging.Info("user registered",
		zap.String("user_id", user.ID),
		zap.String("phone", phone),
	)

	return s.issue(user)
}

func (s *AuthService) issue(user *domain.User) (*Session, error) {
	t, err := token.Generate(s.jwtSecret, user, s.tokenTTL)
	if err != nil {
		return nil, err
	}
	return &Session{Token: t, User: user}, nil
}

// generateCode returns a uniformly random 6-digit code.
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}
