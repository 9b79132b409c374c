package auction

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

type CreateAuctionMessage struct {
	Title      string        `json:"title" example:"Vintage Lamp" doc:"Auction title, 3 characters minimum."`
	Status     AuctionStatus `json:"status" example:"OPEN" doc:"Initial status, must be OPEN."`
	OnResponse func(record *Auction)
}

func (e CreateAuctionMessage) Type() string { return "auction.create" }

type CreateAuctionHandler struct {
	repo         RepositoryManager
	activitySink ActivitySink
	logger       Logger
	opts         []AuctionOption
}

type CreateAuctionOption func(*CreateAuctionHandler)

// WithCreateAuctionOptions forwards construction options (duration, clock) to
// every auction built by this handler.
func WithCreateAuctionOptions(opts ...AuctionOption) CreateAuctionOption {
	return func(h *CreateAuctionHandler) {
		h.opts = append(h.opts, opts...)
	}
}

// WithCreateAuctionActivitySink publishes a created event per accepted auction.
func WithCreateAuctionActivitySink(sink ActivitySink) CreateAuctionOption {
	return func(h *CreateAuctionHandler) {
		h.activitySink = normalizeActivitySink(sink)
	}
}

// WithCreateAuctionLogger overrides the logger used for sink failures.
func WithCreateAuctionLogger(logger Logger) CreateAuctionOption {
	return func(h *CreateAuctionHandler) {
		if logger != nil {
			h.logger = logger
		}
	}
}

func NewCreateAuctionHandler(repo RepositoryManager, opts ...CreateAuctionOption) *CreateAuctionHandler {
	h := &CreateAuctionHandler{
		repo:         repo,
		activitySink: noopActivitySink{},
		logger:       defLogger{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	return h
}

func (h *CreateAuctionHandler) Execute(ctx context.Context, event CreateAuctionMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(ctx.Err(), goerrors.CategoryOperation, "context cancelled during auction creation")
	default:
		return h.execute(ctx, event)
	}
}

func (h *CreateAuctionHandler) execute(ctx context.Context, event CreateAuctionMessage) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	record, err := NewAuction(event.Title, event.Status, h.opts...)
	if err != nil {
		return err
	}

	var created *Auction

	err = h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		created, err = h.repo.Auctions().CreateTx(ctx, tx, record)
		if err != nil {
			var richErr *goerrors.Error
			if goerrors.As(err, &richErr) {
				return richErr
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to create auction")
		}
		return nil
	})

	if err != nil {
		return err
	}

	if err := h.activitySink.Record(ctx, ActivityEvent{
		EventType: ActivityEventAuctionCreated,
		AuctionID: created.ID.String(),
		ToStatus:  created.Status,
	}); err != nil {
		h.logger.Error("create auction activity sink error: %v", err)
	}

	if event.OnResponse != nil {
		event.OnResponse(created)
	}

	return nil
}
