package service

import (
	"context"
	"strings"

	"github.com/twilio/twilio-go"
	twilioapi "github.com/twilio/twilio-go/rest/api/v2010"
	"go.uber.org/zap"

	"helpme/internal/config"
	"helpme/internal/logging"
)

// SMSSender delivers SMS messages. Configured reports whether a real
// provider backs the sender; when false the dispatcher records dev_mode
// outcomes instead of sent.
type SMSSender interface {
	// Send delivers body to the given phone number and returns the provider
	// message ID.
	Send(ctx context.Context, to, body string) (string, error)

	// Configured reports whether a real delivery channel is available.
	Configured() bool
}

// NewSMSSender builds the sender described by cfg. Missing credentials yield
// the logging dev-mode sender rather than an error, so the OTP and alert
// flows stay usable without a provider account.
func NewSMSSender(cfg config.TwilioConfig) SMSSender {
	if cfg.AccountSID == "" || cfg.AuthToken == "" || cfg.FromNumber == "" {
		return &LogSMSSender{}
	}
	return NewTwilioSender(cfg)
}

// TwilioSender sends SMS through the Twilio REST API.
type TwilioSender struct {
	client      *twilio.RestClient
	from        string
	countryCode string
}

// NewTwilioSender creates a TwilioSender from provider credentials.
func NewTwilioSender(cfg config.TwilioConfig) *TwilioSender {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: cfg.AccountSID,
		Password: cfg.AuthToken,
	})
	return &TwilioSender{
		client:      client,
		from:        cfg.FromNumber,
		countryCode: strings.TrimPrefix(cfg.CountryCode, "+"),
	}
}

// Send delivers body to the given phone number.
func (s *TwilioSender) Send(ctx context.Context, to, body string) (string, error) {
	params := &twilioapi.CreateMessageParams{}
	params.SetTo(s.normalize(to))
	params.SetFrom(s.from)
	params.SetBody(body)

	msg, err := s.client.Api.CreateMessage(params)
	if err != nil {
		return "", err
	}

	sid := ""
	if msg.Sid != nil {
		sid = *msg.Sid
	}
	return sid, nil
}

// Configured reports that a real provider is available.
func (s *TwilioSender) Configured() bool { return true }

// normalize prefixes the configured country code unless the number is
// already in E.164 form.
func (s *TwilioSender) normalize(phone string) string {
	if strings.HasPrefix(phone, "+") {
		return phone
	}
	return "+" + s.countryCode + phone
}

// LogSMSSender is the dev-mode null object: it logs message bodies instead
// of delivering them.
type LogSMSSender struct{}

// Send logs the message and reports success with no provider ID.
func (s *LogSMSSender) Send(ctx context.Context, to, body string) (string, error) {
	logging.Info("dev mode SMS",
		zap.String("to", to),
		zap.String("body", body),
	)
	return "", nil
}

// Configured reports that no real provider is available.
func (s *LogSMSSender) Configured() bool { return false }

// Interface checks.
var (
	_ SMSSender = (*TwilioSender)(nil)
	_ SMSSender = (*LogSMSSender)(nil)
)
