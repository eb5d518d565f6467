package notification

import (
	"context"
	"log/slog"
)

const (
	// KindEmailOTP carries a one-time code sent by email.
	KindEmailOTP = "email_otp"
	// KindPhoneOTP carries a one-time code sent by SMS.
	KindPhoneOTP = "phone_otp"
)

// Message describes a notification payload.
type Message struct {
	Kind        string
	Destination string
	Body        string
}

// Notifier delivers notifications to downstream systems.
type Notifier interface {
	Send(ctx context.Context, message Message) error
}

// LoggerNotifier stands in for the email and SMS gateways by writing each
// message to the logger, code included, so a developer can complete a login.
type LoggerNotifier struct {
	logger *slog.Logger
}

// NewLoggerNotifier constructs a logging notifier.
func NewLoggerNotifier(logger *slog.Logger) *LoggerNotifier {
	return &LoggerNotifier{logger: logger}
}

// Send writes the message to the structured logger.
func (n *LoggerNotifier) Send(_ context.Context, message Message) error {
	if n == nil || n.logger == nil {
		return nil
	}
	n.logger.Info("notification", "kind", message.Kind, "destination", message.Destination, "body", message.Body)
	return nil
}
