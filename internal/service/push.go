package service

import (
	"context"

	"go.uber.org/zap"

	"helpme/internal/domain"
	"helpme/internal/logging"
)

// Pusher delivers push notifications to a client's FCM token.
type Pusher interface {
	Push(ctx context.Context, fcmToken string, n *domain.Notification) error
}

// LogPusher stands in for a real FCM client and logs deliveries instead.
type LogPusher struct{}

// NewLogPusher creates a LogPusher.
func NewLogPusher() *LogPusher {
	return &LogPusher{}
}

// Push logs the notification and reports success.
func (p *LogPusher) Push(ctx context.Context, fcmToken string, n *domain.Notification) error {
	logging.Info("push notification",
		zap.String("fcm_token", fcmToken),
		zap.String("title", n.Title),
		zap.String("body", n.Body),
	)
	return nil
}

var _ Pusher = (*LogPusher)(nil)
