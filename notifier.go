package auction

import (
	"context"
)

// DefaultClosureSubject is the subject line used when none is configured.
const DefaultClosureSubject = "Auction closed"

// Notification is the message queued when an auction closes. Delivery happens
// later, in a second stage consumer; the sweep's obligation ends at a
// successful enqueue.
type Notification struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// Notifier queues closure notifications for asynchronous delivery.
type Notifier interface {
	Enqueue(ctx context.Context, message Notification) error
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(ctx context.Context, message Notification) error

// Enqueue implements Notifier.
func (f NotifierFunc) Enqueue(ctx context.Context, message Notification) error {
	if f == nil {
		return nil
	}
	return f(ctx, message)
}

type noopNotifier struct{}

func (noopNotifier) Enqueue(context.Context, Notification) error {
	return nil
}

func normalizeNotifier(n Notifier) Notifier {
	if n == nil {
		return noopNotifier{}
	}
	return n
}

// LogMailer writes deliveries to the logger instead of a real transport.
type LogMailer struct {
	Logger Logger
}

// Send implements Mailer.
func (m LogMailer) Send(_ context.Context, to, subject, body string) error {
	logger := m.Logger
	if logger == nil {
		logger = defLogger{}
	}
	logger.Info("email to=%s subject=%q body=%q", to, subject, body)
	return nil
}
