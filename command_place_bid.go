package auction

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

type PlaceBidMessage struct {
	AuctionID  string  `json:"auction_id" example:"350399bc-c095-4bdc-a59c-3352d44848e4" doc:"Target auction identifier."`
	Amount     float64 `json:"amount" example:"75" doc:"Bid amount, must beat the current highest bid."`
	OnResponse func(resp *PlaceBidResponse)
}

func (e PlaceBidMessage) Type() string { return "auction.place_bid" }

type PlaceBidResponse struct {
	AuctionID  string  `json:"auction_id"`
	HighestBid float64 `json:"highest_bid"`
}

type PlaceBidHandler struct {
	repo         RepositoryManager
	activitySink ActivitySink
	logger       Logger
}

type PlaceBidOption func(*PlaceBidHandler)

// WithPlaceBidActivitySink publishes a bid event per accepted bid.
func WithPlaceBidActivitySink(sink ActivitySink) PlaceBidOption {
	return func(h *PlaceBidHandler) {
		h.activitySink = normalizeActivitySink(sink)
	}
}

// WithPlaceBidLogger overrides the logger used for sink failures.
func WithPlaceBidLogger(logger Logger) PlaceBidOption {
	return func(h *PlaceBidHandler) {
		if logger != nil {
			h.logger = logger
		}
	}
}

func NewPlaceBidHandler(repo RepositoryManager, opts ...PlaceBidOption) *PlaceBidHandler {
	h := &PlaceBidHandler{
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

func (h *PlaceBidHandler) Execute(ctx context.Context, event PlaceBidMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(ctx.Err(), goerrors.CategoryOperation, "context cancelled during bid placement")
	default:
		return h.execute(ctx, event)
	}
}

// execute runs the bid acceptance sequence: snapshot check, then one
// conditional write. A failed write means the snapshot went stale under us, so
// we re-read once to report the right rejection and never retry beyond that.
func (h *PlaceBidHandler) execute(ctx context.Context, event PlaceBidMessage) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	id, err := uuid.Parse(event.AuctionID)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryBadInput, "invalid auction id").
			WithMetadata(map[string]any{"auction_id": event.AuctionID})
	}

	record, err := h.repo.Auctions().Get(ctx, id)
	if err != nil {
		return err
	}

	if _, err := record.WithHigherBid(event.Amount); err != nil {
		return err
	}

	modified, err := h.repo.Auctions().RaiseBid(ctx, id, event.Amount)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to persist bid")
	}

	if !modified {
		return h.rejectionReason(ctx, id, event.Amount)
	}

	if err := h.activitySink.Record(ctx, ActivityEvent{
		EventType: ActivityEventBidPlaced,
		AuctionID: id.String(),
		Amount:    event.Amount,
	}); err != nil {
		h.logger.Error("place bid activity sink error: %v", err)
	}

	if event.OnResponse != nil {
		event.OnResponse(&PlaceBidResponse{
			AuctionID:  id.String(),
			HighestBid: event.Amount,
		})
	}

	return nil
}

// rejectionReason re-reads the row a failed conditional write raced against.
func (h *PlaceBidHandler) rejectionReason(ctx context.Context, id uuid.UUID, amount float64) error {
	record, err := h.repo.Auctions().Get(ctx, id)
	if err != nil {
		return err
	}

	if err := h.activitySink.Record(ctx, ActivityEvent{
		EventType: ActivityEventBidRejected,
		AuctionID: id.String(),
		Amount:    amount,
	}); err != nil {
		h.logger.Error("place bid activity sink error: %v", err)
	}

	if !record.IsOpen() {
		return ErrAuctionNotOpen.WithMetadata(map[string]any{
			"id":     id.String(),
			"status": record.Status,
		})
	}

	return ErrBidTooLow.WithMetadata(map[string]any{
		"id":          id.String(),
		"amount":      amount,
		"highest_bid": record.HighestBid,
	})
}
