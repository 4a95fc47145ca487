package tests

import (
	"context"
	"errors"
	"testing"
	"time"

	"helpme/internal/domain"
	"helpme/internal/service"
	"helpme/internal/token"
)

const testSecret = "test-secret"

func newAuthService(userRepo *MockUserRepository, otpStore *MockOTPStore, locationStore *MockLocationStore, sms *MockSMSSender) *service.AuthService {
	return service.NewAuthService(userRepo, otpStore, locationStore, sms,
		testSecret, 5*time.Hour, 10*time.Minute)
}

func registration(name, fcmToken string, lat, lng float64) *service.Registration {
	return &service.Registration{
		Name:        name,
		FCMToken:    fcmToken,
		HasLocation: true,
		Lat:         lat,
		Lng:         lng,
	}
}

// ──────────────────────────────────────────────
// 1. OTP REQUEST / VERIFY FLOW
// ──────────────────────────────────────────────

func TestRequestOTP_ThenVerify_CreatesUser(t *testing.T) {
	t.Parallel()

	userRepo := NewMockUserRepository()
	otpStore := NewMockOTPStore()
	locationStore := NewMockLocationStore()
	sms := NewMockSMSSender()

	auth := newAuthService(userRepo, otpStore, locationStore, sms)
	ctx := context.Background()

	challenge, err := auth.RequestOTP(ctx, "1234567890")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(challenge.Code) != 6 {
		t.Fatalf("expected 6-digit code, got %q", challenge.Code)
	}
	if challenge.DevMode {
		t.Error("expected devMode=false with configured sender")
	}
	if sms.CountSent() != 1 {
		t.Errorf("expected one OTP SMS, got %d", sms.CountSent())
	}

	session, err := auth.VerifyOTP(ctx, "1234567890", challenge.Code, registration("Asha", "fcm-1", 28.7041, 77.2090))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if session.Token == "" {
		t.Error("expected a session token")
	}
	if session.User.Phone != "1234567890" {
		t.Errorf("expected phone 1234567890, got %s", session.User.Phone)
	}
	if userRepo.CountUsers() != 1 {
		t.Errorf("expected exactly one user created, got %d", userRepo.CountUsers())
	}
	if !locationStore.HasLocation(session.User.ID) {
		t.Error("expected new user's location in the geo index")
	}

	claims, err := token.Parse(testSecret, session.Token)
	if err != nil {
		t.Fatalf("token failed to parse: %v", err)
	}
	if claims.UserID != session.User.ID {
		t.Errorf("token user id %s does not match user %s", claims.UserID, session.User.ID)
	}
}

func TestVerifyOTP_SingleUse(t *testing.T) {
	t.Parallel()

	userRepo := NewMockUserRepository()
	otpStore := NewMockOTPStore()
	auth := newAuthService(userRepo, otpStore, NewMockLocationStore(), NewMockSMSSender())
	ctx := context.Background()

	challenge, err := auth.RequestOTP(ctx, "1234567890")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := auth.VerifyOTP(ctx, "1234567890", challenge.Code, registration("Asha", "fcm-1", 28.7, 77.2)); err != nil {
		t.Fatalf("first verification failed: %v", err)
	}

	_, err = auth.VerifyOTP(ctx, "1234567890", challenge.Code, registration("Asha", "fcm-1", 28.7, 77.2))
	if !errors.Is(err, service.ErrInvalidOTP) {
		t.Errorf("expected ErrInvalidOTP on reuse, got %v", err)
	}
}

func TestVerifyOTP_ExpiredCode(t *testing.T) {
	t.Parallel()

	otpStore := NewMockOTPStore()
	auth := newAuthService(NewMockUserRepository(), otpStore, NewMockLocationStore(), NewMockSMSSender())
	ctx := context.Background()

	challenge, err := auth.RequestOTP(ctx, "1234567890")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	otpStore.Expire("1234567890")

	_, err = auth.VerifyOTP(ctx, "1234567890", challenge.Code, registration("Asha", "fcm-1", 28.7, 77.2))
	if !errors.Is(err, service.ErrInvalidOTP) {
		t.Errorf("expected ErrInvalidOTP for expired code, got %v", err)
	}
}

func TestVerifyOTP_NewPhoneRequiresRegistrationFields(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name string
		reg  *service.Registration
	}{
		{name: "nil registration", reg: nil},
		{name: "missing name", reg: registration("", "fcm-1", 28.7, 77.2)},
		{name: "whitespace name", reg: registration("   ", "fcm-1", 28.7, 77.2)},
		{name: "missing fcm token", reg: registration("Asha", "", 28.7, 77.2)},
		{
			name: "missing location",
			reg:  &service.Registration{Name: "Asha", FCMToken: "fcm-1"},
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			userRepo := NewMockUserRepository()
			auth := newAuthService(userRepo, NewMockOTPStore(), NewMockLocationStore(), NewMockSMSSender())
			ctx := context.Background()

			challenge, err := auth.RequestOTP(ctx, "1234567890")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			_, err = auth.VerifyOTP(ctx, "1234567890", challenge.Code, tc.reg)
			if !errors.Is(err, service.ErrMissingRegistration) {
				t.Errorf("expected ErrMissingRegistration, got %v", err)
			}
			if userRepo.CountUsers() != 0 {
				t.Errorf("expected no user created, got %d", userRepo.CountUsers())
			}
		})
	}
}

func TestRequestOTP_RejectsMalformedPhones(t *testing.T) {
	t.Parallel()

	auth := newAuthService(NewMockUserRepository(), NewMockOTPStore(), NewMockLocationStore(), NewMockSMSSender())

	for _, phone := range []string{"", "12345", "12345678901", "12345abcde", "+911234567890"} {
		if _, err := auth.RequestOTP(context.Background(), phone); !errors.Is(err, service.ErrInvalidPhone) {
			t.Errorf("phone %q: expected ErrInvalidPhone, got %v", phone, err)
		}
	}
}

func TestRequestOTP_NewCodeInvalidatesPrevious(t *testing.T) {
	t.Parallel()

	auth := newAuthService(NewMockUserRepository(), NewMockOTPStore(), NewMockLocationStore(), NewMockSMSSender())
	ctx := context.Background()

	first, err := auth.RequestOTP(ctx, "1234567890")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := auth.RequestOTP(ctx, "1234567890")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first.Code == second.Code {
		t.Skip("codes collided; cannot distinguish old from new")
	}

	if _, err := auth.VerifyOTP(ctx, "1234567890", first.Code, registration("Asha", "fcm-1", 28.7, 77.2)); !errors.Is(err, service.ErrInvalidOTP) {
		t.Errorf("expected superseded code to fail, got %v", err)
	}
	if _, err := auth.VerifyOTP(ctx, "1234567890", second.Code, registration("Asha", "fcm-1", 28.7, 77.2)); err != nil {
		t.Errorf("expected latest code to verify, got %v", err)
	}
}

// ──────────────────────────────────────────────
// 2. LOGIN PATH
// ──────────────────────────────────────────────

func TestVerifyOTP_ExistingUserLogsIn(t *testing.T) {
	t.Parallel()

	userRepo := NewMockUserRepository()
	userRepo.AddUser(&domain.User{
		ID:       "user-1",
		Phone:    "1234567890",
		Name:     "Asha",
		Latitude: 28.7041, Longitude: 77.2090,
		FCMToken:      "old-token",
		CloseContacts: domain.ContactMap{},
	})

	otpStore := NewMockOTPStore()
	locationStore := NewMockLocationStore()
	auth := newAuthService(userRepo, otpStore, locationStore, NewMockSMSSender())
	ctx := context.Background()

	challenge, err := auth.RequestOTP(ctx, "1234567890")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	session, err := auth.VerifyOTP(ctx, "1234567890", challenge.Code, registration("", "new-token", 12.9716, 77.5946))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if session.User.ID != "user-1" {
		t.Errorf("expected login as user-1, got %s", session.User.ID)
	}
	if userRepo.CountUsers() != 1 {
		t.Errorf("login must not create a user, have %d", userRepo.CountUsers())
	}

	stored := userRepo.GetUser("user-1")
	if stored.FCMToken != "new-token" {
		t.Errorf("expected fcm token overwrite, got %s", stored.FCMToken)
	}
	if stored.Latitude != 12.9716 || stored.Longitude != 77.5946 {
		t.Errorf("expected location update, got (%f, %f)", stored.Latitude, stored.Longitude)
	}
	if !locationStore.HasLocation("user-1") {
		t.Error("expected geo index update on login")
	}
	if otpStore.HasCode("1234567890") {
		t.Error("expected code to be consumed")
	}
}

func TestVerifyOTP_LoginKeepsLocationOnZeroSentinel(t *testing.T) {
	t.Parallel()

	userRepo := NewMockUserRepository()
	userRepo.AddUser(&domain.User{
		ID:       "user-1",
		Phone:    "1234567890",
		Latitude: 28.7041, Longitude: 77.2090,
		FCMToken: "old-token",
	})

	auth := newAuthService(userRepo, NewMockOTPStore(), NewMockLocationStore(), NewMockSMSSender())
	ctx := context.Background()

	challenge, err := auth.RequestOTP(ctx, "1234567890")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Zero-point coordinates mean "no fix yet": token updates, position stays.
	if _, err := auth.VerifyOTP(ctx, "1234567890", challenge.Code, registration("", "new-token", 0, 0)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	stored := userRepo.GetUser("user-1")
	if stored.Latitude != 28.7041 || stored.Longitude != 77.2090 {
		t.Errorf("expected location preserved, got (%f, %f)", stored.Latitude, stored.Longitude)
	}
	if stored.FCMToken != "new-token" {
		t.Errorf("expected fcm token overwrite, got %s", stored.FCMToken)
	}
}

func TestVerifyOTP_RegistrationZeroSentinelUsesFallback(t *testing.T) {
	t.Parallel()

	userRepo := NewMockUserRepository()
	auth := newAuthService(userRepo, NewMockOTPStore(), NewMockLocationStore(), NewMockSMSSender())
	ctx := context.Background()

	challenge, err := auth.RequestOTP(ctx, "1234567890")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	session, err := auth.VerifyOTP(ctx, "1234567890", challenge.Code, registration("Asha", "fcm-1", 0, 0))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if session.User.Longitude != 76.4180791 || session.User.Latitude != 29.8154373 {
		t.Errorf("expected fallback coordinates, got (%f, %f)", session.User.Longitude, session.User.Latitude)
	}
}

// ──────────────────────────────────────────────
// 3. DEV MODE
// ──────────────────────────────────────────────

func TestOTPFlow_DevModeWithoutProvider(t *testing.T) {
	t.Parallel()

	sms := NewMockSMSSender()
	sms.IsConfigured = false

	userRepo := NewMockUserRepository()
	auth := newAuthService(userRepo, NewMockOTPStore(), NewMockLocationStore(), sms)
	ctx := context.Background()

	challenge, err := auth.RequestOTP(ctx, "9999999999")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !challenge.DevMode {
		t.Error("expected devMode=true without a provider")
	}

	session, err := auth.VerifyOTP(ctx, "9999999999", challenge.Code, registration("Default User", "fcm-default", 28.7, 77.2))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if session.Token == "" {
		t.Error("expected a session token")
	}
	if session.User.Phone != "9999999999" {
		t.Errorf("expected phone 9999999999, got %s", session.User.Phone)
	}
}
