package auction

import (
	"context"
	"encoding/json"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/nats-io/nats.go"
)

// DefaultNotificationsSubject is the queue subject closure notifications are
// published to when none is configured.
const DefaultNotificationsSubject = "auction.notifications.closure"

// NATSNotifier publishes closure notifications to a NATS subject. It only
// guarantees the enqueue; a DeliveryConsumer drains the subject later.
type NATSNotifier struct {
	conn    *nats.Conn
	subject string
	logger  Logger
}

type NATSNotifierOption func(*NATSNotifier)

// WithNATSSubject overrides the publish subject.
func WithNATSSubject(subject string) NATSNotifierOption {
	return func(n *NATSNotifier) {
		if subject != "" {
			n.subject = subject
		}
	}
}

// WithNATSLogger overrides the notifier logger.
func WithNATSLogger(logger Logger) NATSNotifierOption {
	return func(n *NATSNotifier) {
		if logger != nil {
			n.logger = logger
		}
	}
}

func NewNATSNotifier(conn *nats.Conn, opts ...NATSNotifierOption) *NATSNotifier {
	n := &NATSNotifier{
		conn:    conn,
		subject: DefaultNotificationsSubject,
		logger:  defLogger{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(n)
		}
	}
	return n
}

// Enqueue implements Notifier.
func (n *NATSNotifier) Enqueue(ctx context.Context, message Notification) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(ctx.Err(), goerrors.CategoryOperation, "context cancelled during notification enqueue")
	default:
	}

	payload, err := json.Marshal(message)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to encode notification")
	}

	if err := n.conn.Publish(n.subject, payload); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryOperation, "failed to publish notification").
			WithTextCode(textCodeEmitter).
			WithMetadata(map[string]any{"subject": n.subject})
	}

	n.logger.Debug("notification queued subject=%s to=%s", n.subject, message.To)
	return nil
}

// DeliveryConsumer is the second stage: it drains queued notifications and
// hands each one to the Mailer. Transport failures stay inside the consumer,
// they never reach back into the sweep.
type DeliveryConsumer struct {
	conn    *nats.Conn
	sub     *nats.Subscription
	mailer  Mailer
	subject string
	logger  Logger
	timeout time.Duration
}

type DeliveryConsumerOption func(*DeliveryConsumer)

// WithDeliverySubject overrides the subscribe subject.
func WithDeliverySubject(subject string) DeliveryConsumerOption {
	return func(c *DeliveryConsumer) {
		if subject != "" {
			c.subject = subject
		}
	}
}

// WithDeliveryLogger overrides the consumer logger.
func WithDeliveryLogger(logger Logger) DeliveryConsumerOption {
	return func(c *DeliveryConsumer) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithDeliveryTimeout bounds each mailer call.
func WithDeliveryTimeout(d time.Duration) DeliveryConsumerOption {
	return func(c *DeliveryConsumer) {
		if d > 0 {
			c.timeout = d
		}
	}
}

func NewDeliveryConsumer(conn *nats.Conn, mailer Mailer, opts ...DeliveryConsumerOption) *DeliveryConsumer {
	c := &DeliveryConsumer{
		conn:    conn,
		mailer:  mailer,
		subject: DefaultNotificationsSubject,
		logger:  defLogger{},
		timeout: time.Second * 10,
	}
	if c.mailer == nil {
		c.mailer = LogMailer{}
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// Start subscribes and blocks until the context is cancelled.
func (c *DeliveryConsumer) Start(ctx context.Context) error {
	sub, err := c.conn.Subscribe(c.subject, func(msg *nats.Msg) {
		c.handleMessage(ctx, msg)
	})
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryOperation, "failed to subscribe to notifications").
			WithMetadata(map[string]any{"subject": c.subject})
	}

	c.sub = sub
	c.logger.Info("delivery consumer subscribed subject=%s", c.subject)

	<-ctx.Done()
	return c.Stop()
}

// Stop drains the subscription.
func (c *DeliveryConsumer) Stop() error {
	if c.sub == nil {
		return nil
	}
	return c.sub.Drain()
}

func (c *DeliveryConsumer) handleMessage(ctx context.Context, msg *nats.Msg) {
	var message Notification
	if err := json.Unmarshal(msg.Data, &message); err != nil {
		c.logger.Error("failed to decode notification: %v", err)
		return
	}

	sendCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := c.mailer.Send(sendCtx, message.To, message.Subject, message.Body); err != nil {
		c.logger.Error("failed to deliver notification to=%s: %v", message.To, err)
		return
	}

	c.logger.Debug("notification delivered to=%s subject=%q", message.To, message.Subject)
}
