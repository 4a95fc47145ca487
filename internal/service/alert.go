package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"helpme/internal/domain"
	"helpme/internal/logging"
	"helpme/internal/repository"
)

// Radius used when an alert also notifies nearby users.
const nearbyAlertRadiusM = 5000.0

// Delivery statuses recorded per recipient.
const (
	DeliverySent    = "sent"
	DeliveryDevMode = "dev_mode"
	DeliveryFailed  = "failed"
)

// AlertService fans an emergency alert out to a user's close contacts over
// SMS and, when a location is known, to nearby users as push notifications.
type AlertService struct {
	userRepo repository.UserRepository
	location *LocationService
	sms      SMSSender
	pusher   Pusher
}

// NewAlertService creates a new AlertService.
func NewAlertService(userRepo repository.UserRepository, location *LocationService, sms SMSSender, pusher Pusher) *AlertService {
	return &AlertService{
		userRepo: userRepo,
		location: location,
		sms:      sms,
		pusher:   pusher,
	}
}

// Coordinates is an optional alert location.
type Coordinates struct {
	Latitude  float64
	Longitude float64
}

// DeliveryResult records the outcome of one contact's SMS attempt.
type DeliveryResult struct {
	Contact string `json:"contact"`
	Phone   string `json:"phone"`
	Status  string `json:"status"`
	SID     string `json:"sid,omitempty"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}

// AlertReport aggregates per-recipient outcomes. Dev-mode deliveries count
// as sent, matching what clients already rely on.
type AlertReport struct {
	Total   int              `json:"total"`
	Sent    int              `json:"sent"`
	Failed  int              `json:"failed"`
	Details []DeliveryResult `json:"details"`
}

// SendEmergencyAlert loads the triggering user, requires a non-empty contact
// map, and attempts one SMS per contact. Attempts are independent: a failed
// recipient never aborts the rest, and the overall call succeeds as long as
// the precondition held. When loc is known, nearby users are additionally
// notified through the push path.
func (s *AlertService) SendEmergencyAlert(ctx context.Context, userID string, loc *Coordinates) (*AlertReport, error) {
	if userID == "" {
		return nil, ErrInvalidUserID
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if len(user.CloseContacts) == 0 {
		return nil, ErrNoContacts
	}

	message := buildAlertMessage(user.DisplayName(), loc)

	report := &AlertReport{
		Total:   len(user.CloseContacts),
		Details: make([]DeliveryResult, 0, len(user.CloseContacts)),
	}

	for name, phone := range user.CloseContacts {
		result := DeliveryResult{Contact: name, Phone: phone}

		if !s.sms.Configured() {
			_, _ = s.sms.Send(ctx, phone, message)
			result.Status = DeliveryDevMode
			result.Message = message
			report.Sent++
		} else if sid, err := s.sms.Send(ctx, phone, message); err != nil {
			logging.Error("emergency SMS failed",
				zap.String("contact", name),
				zap.String("phone", phone),
				zap.Error(err),
			)
			result.Status = DeliveryFailed
			result.Error = err.Error()
			report.Failed++
		} else {
			result.Status = DeliverySent
			result.SID = sid
			report.Sent++
		}

		report.Details = append(report.Details, result)
	}

	logging.Info("emergency alert dispatched",
		zap.String("user_id", user.ID),
		zap.String("phone", user.Phone),
		zap.Int("sent", report.Sent),
		zap.Int("failed", report.Failed),
	)

	if loc != nil {
		s.notifyNearby(ctx, user, loc)
	}

	return report, nil
}

// notifyNearby pushes the alert to users around the event location and
// appends it to their notification logs. Strictly best effort: failures are
// logged and never surface in the SMS report.
func (s *AlertService) notifyNearby(ctx context.Context, sender *domain.User, loc *Coordinates) {
	nearby, err := s.location.FindNearby(ctx, loc.Latitude, loc.Longitude, nearbyAlertRadiusM)
	if err != nil {
		logging.Error("nearby lookup for alert failed",
			zap.String("user_id", sender.ID),
			zap.Error(err),
		)
		return
	}

	title := "Emergency Nearby"
	body := fmt.Sprintf("%s needs immediate help near you.", sender.DisplayName())

	for _, n := range nearby {
		if n.User.ID == sender.ID {
			continue
		}

		notification := &domain.Notification{
			ID:     uuid.New().String(),
			UserID: n.User.ID,
			Title:  title,
			Body:   body,
			Data: map[string]any{
				"senderId":  sender.ID,
				"latitude":  loc.Latitude,
				"longitude": loc.Longitude,
				"distanceM": n.DistanceM,
			},
		}

		if err := s.pusher.Push(ctx, n.User.FCMToken, notification); err != nil {
			logging.Warn("nearby push failed",
				zap.String("recipient_id", n.User.ID),
				zap.Error(err),
			)
			continue
		}
		if err := s.userRepo.AppendNotification(ctx, notification); err != nil {
			logging.Warn("failed to record notification",
				zap.String("recipient_id", n.User.ID),
				zap.Error(err),
			)
		}
	}
}

// buildAlertMessage renders the single SMS template shared by every
// recipient of one alert.
func buildAlertMessage(displayName string, loc *Coordinates) string {
	locationText := "Location not available"
	if loc != nil {
		locationText = fmt.Sprintf("Location: https://www.google.com/maps?q=%f,%f", loc.Latitude, loc.Longitude)
	}
	return fmt.Sprintf("EMERGENCY ALERT\n%s needs immediate help!\n%s\nPlease contact them or call emergency services if needed.",
		displayName, locationText)
}
