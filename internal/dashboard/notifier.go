package dashboard

import (
	"context"
	"log/slog"

	"github.com/bankdash/bankdash/internal/shared"
)

// Severity classifies a notification.
type Severity string

const (
	SeveritySuccess Severity = "success"
	SeverityError   Severity = "error"
)

// Notification is a transient, user-visible message.
type Notification struct {
	Severity Severity
	Message  string
}

// Notifier delivers notifications to the user.
type Notifier interface {
	Notify(ctx context.Context, n Notification)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, n Notification)

// Notify calls f.
func (f NotifierFunc) Notify(ctx context.Context, n Notification) {
	f(ctx, n)
}

// SessionNotifier queues notifications as flash messages on the session
// carried by ctx. Notifications raised outside a request are logged.
type SessionNotifier struct {
	logger *slog.Logger
}

// NewSessionNotifier constructs a SessionNotifier.
func NewSessionNotifier(logger *slog.Logger) *SessionNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionNotifier{logger: logger}
}

// Notify implements Notifier.
func (n *SessionNotifier) Notify(ctx context.Context, note Notification) {
	sess := shared.SessionFromContext(ctx)
	if sess == nil {
		n.logger.InfoContext(ctx, "notification without session",
			slog.String("severity", string(note.Severity)),
			slog.String("message", note.Message),
		)
		return
	}
	sess.AddFlash(shared.FlashMessage{Kind: string(note.Severity), Message: note.Message})
}
