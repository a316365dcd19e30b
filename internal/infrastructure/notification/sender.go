package notification

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Notification is a message pushed to a single user
type Notification struct {
	UserID uuid.UUID
	Kind   string
	Title  string
	Body   string
}

// Sender delivers notifications to users. Delivery transports (push, email)
// plug in behind this interface; the workflows only depend on it.
type Sender interface {
	Send(ctx context.Context, n Notification) error
}

// LogSender writes notifications to the log. It stands in for a real
// transport in development and keeps delivery observable in production
// until one exists.
type LogSender struct {
	logger *zap.Logger
}

// NewLogSender creates a log-backed sender
func NewLogSender(logger *zap.Logger) *LogSender {
	return &LogSender{logger: logger.Named("notification")}
}

// Send logs the notification
func (s *LogSender) Send(ctx context.Context, n Notification) error {
	s.logger.Info("notification sent",
		zap.String("user_id", n.UserID.String()),
		zap.String("kind", n.Kind),
		zap.String("title", n.Title),
		zap.String("body", n.Body),
	)
	return nil
}

// Recorder captures notifications in memory for tests
type Recorder struct {
	mu   sync.Mutex
	sent []Notification
}

// NewRecorder creates a recording sender
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Send records the notification
func (r *Recorder) Send(ctx context.Context, n Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, n)
	return nil
}

// Sent returns a copy of everything recorded so far
func (r *Recorder) Sent() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Notification, len(r.sent))
	copy(out, r.sent)
	return out
}

// SentTo returns the notifications recorded for one user
func (r *Recorder) SentTo(userID uuid.UUID) []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Notification
	for _, n := range r.sent {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	return out
}

var (
	_ Sender = (*LogSender)(nil)
	_ Sender = (*Recorder)(nil)
)
