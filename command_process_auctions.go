package auction

import (
	"context"
	"errors"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

type ProcessAuctionsMessage struct {
	Now        time.Time `json:"now" doc:"Trigger timestamp carried by the external scheduler."`
	OnResponse func(resp *ProcessAuctionsResponse)
}

func (e ProcessAuctionsMessage) Type() string { return "auction.process" }

type ProcessAuctionsResponse struct {
	Candidates int `json:"candidates"`
	Closed     int `json:"closed"`
	Notified   int `json:"notified"`
	Skipped    int `json:"skipped"`
}

type ProcessAuctionsHandler struct {
	repo         RepositoryManager
	notifier     Notifier
	activitySink ActivitySink
	logger       Logger
	recipient    string
	subject      string
}

type ProcessAuctionsOption func(*ProcessAuctionsHandler)

// WithProcessAuctionsActivitySink publishes a closed event per transitioned auction.
func WithProcessAuctionsActivitySink(sink ActivitySink) ProcessAuctionsOption {
	return func(h *ProcessAuctionsHandler) {
		h.activitySink = normalizeActivitySink(sink)
	}
}

// WithProcessAuctionsLogger overrides the sweep logger.
func WithProcessAuctionsLogger(logger Logger) ProcessAuctionsOption {
	return func(h *ProcessAuctionsHandler) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// WithProcessAuctionsConfig pulls the closure recipient and subject line from
// the application config.
func WithProcessAuctionsConfig(cfg Config) ProcessAuctionsOption {
	return func(h *ProcessAuctionsHandler) {
		if cfg == nil {
			return
		}
		h.recipient = cfg.GetClosureRecipient()
		h.subject = cfg.GetClosureSubject()
	}
}

// WithClosureRecipient sets the address closure notifications go to.
func WithClosureRecipient(recipient string) ProcessAuctionsOption {
	return func(h *ProcessAuctionsHandler) {
		h.recipient = recipient
	}
}

// WithClosureSubject sets the subject line for closure notifications.
func WithClosureSubject(subject string) ProcessAuctionsOption {
	return func(h *ProcessAuctionsHandler) {
		if subject != "" {
			h.subject = subject
		}
	}
}

func NewProcessAuctionsHandler(repo RepositoryManager, notifier Notifier, opts ...ProcessAuctionsOption) *ProcessAuctionsHandler {
	h := &ProcessAuctionsHandler{
		repo:         repo,
		notifier:     normalizeNotifier(notifier),
		activitySink: noopActivitySink{},
		logger:       defLogger{},
		subject:      DefaultClosureSubject,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	return h
}

func (h *ProcessAuctionsHandler) Execute(ctx context.Context, event ProcessAuctionsMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(ctx.Err(), goerrors.CategoryOperation, "context cancelled during auction processing")
	default:
		return h.execute(ctx, event)
	}
}

// execute is the closing sweep. Overlapping invocations are safe: CloseIfOpen
// is the atomic gate, so a run that loses the race reads duplicate work but
// produces no duplicate transitions or notifications.
func (h *ProcessAuctionsHandler) execute(ctx context.Context, event ProcessAuctionsMessage) error {
	now := event.Now
	if now.IsZero() {
		now = time.Now()
	}

	resp := &ProcessAuctionsResponse{}

	if err := h.repo.Auctions().EnsureIndexes(ctx); err != nil {
		return err
	}

	candidates, err := h.repo.Auctions().ListDueForClosing(ctx, now)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to list auctions due for closing")
	}

	resp.Candidates = len(candidates)
	h.logger.Info("processing auctions: %d candidates at %s", len(candidates), now.Format(time.RFC3339))

	// candidates are independent, a failure on one never stops the rest
	var failures []error

	for _, candidate := range candidates {
		closed, err := h.repo.Auctions().CloseIfOpen(ctx, candidate.ID)
		if err != nil {
			h.logger.Error("failed to close auction %s: %v", candidate.ID, err)
			failures = append(failures, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to close auction").
				WithMetadata(map[string]any{"id": candidate.ID.String()}))
			continue
		}

		if !closed {
			// an overlapping run got there first; no second notification
			resp.Skipped++
			continue
		}

		resp.Closed++

		if err := h.activitySink.Record(ctx, ActivityEvent{
			EventType:  ActivityEventAuctionClosed,
			AuctionID:  candidate.ID.String(),
			FromStatus: StatusOpen,
			ToStatus:   StatusClosed,
			OccurredAt: now,
		}); err != nil {
			h.logger.Error("sweep activity sink error: %v", err)
		}

		if err := h.notify(ctx, candidate); err != nil {
			// the closed write already took effect and stays committed
			h.logger.Error("failed to enqueue closure notification for %s: %v", candidate.ID, err)
			failures = append(failures, err)
			continue
		}

		resp.Notified++
	}

	if event.OnResponse != nil {
		event.OnResponse(resp)
	}

	return errors.Join(failures...)
}

func (h *ProcessAuctionsHandler) notify(ctx context.Context, record *Auction) error {
	message := record.ClosureNotification(h.recipient, h.subject)

	if err := h.notifier.Enqueue(ctx, message); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryOperation, "failed to enqueue closure notification").
			WithTextCode(textCodeEmitter).
			WithMetadata(map[string]any{
				"id": record.ID.String(),
				"to": message.To,
			})
	}

	if err := h.activitySink.Record(ctx, ActivityEvent{
		EventType: ActivityEventClosureQueued,
		AuctionID: record.ID.String(),
	}); err != nil {
		h.logger.Error("sweep activity sink error: %v", err)
	}

	return nil
}
