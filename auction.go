package auction

import (
	"strconv"
	"time"

	"github.com/google/uuid"
)

// TitleMinLength is the shortest title an auction can carry
const TitleMinLength = 3

// DefaultAuctionDuration is the window between creation and ending_at when no
// duration is configured
const DefaultAuctionDuration = time.Hour

var defaultStatusTransitions = map[AuctionStatus]map[AuctionStatus]struct{}{
	StatusOpen: {
		StatusClosed:    {},
		StatusCancelled: {},
	},
}

func canTransitionStatus(from, to AuctionStatus) bool {
	if allowed, ok := defaultStatusTransitions[from]; ok {
		_, exists := allowed[to]
		return exists
	}
	return false
}

// AuctionOption customizes auction construction
type AuctionOption func(*auctionOptions)

type auctionOptions struct {
	id       uuid.UUID
	duration time.Duration
	now      func() time.Time
}

// WithAuctionID overrides the generated identifier
func WithAuctionID(id uuid.UUID) AuctionOption {
	return func(o *auctionOptions) {
		o.id = id
	}
}

// WithAuctionDuration overrides the window between creation and ending_at
func WithAuctionDuration(d time.Duration) AuctionOption {
	return func(o *auctionOptions) {
		if d > 0 {
			o.duration = d
		}
	}
}

// WithAuctionClock injects a custom clock (useful for tests)
func WithAuctionClock(clock func() time.Time) AuctionOption {
	return func(o *auctionOptions) {
		if clock != nil {
			o.now = clock
		}
	}
}

// NewAuction builds a fresh auction snapshot. The status must be open, the
// title must pass the minimum length rule, and ending_at is stamped a fixed
// offset after creation. The caller commits the result through the repository.
func NewAuction(title string, status AuctionStatus, opts ...AuctionOption) (*Auction, error) {
	options := &auctionOptions{
		duration: DefaultAuctionDuration,
		now:      time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(options)
		}
	}

	record := &Auction{
		Title:  title,
		Status: status,
	}
	record.EnsureStatus()

	if record.Status != StatusOpen {
		return nil, ErrAuctionNotOpen.WithMetadata(map[string]any{
			"status": record.Status,
			"reason": "auctions can only be created open",
		})
	}

	if err := record.Validate(); err != nil {
		return nil, err
	}

	if options.id != uuid.Nil {
		record.ID = options.id
	} else {
		record.ID = uuid.New()
	}

	now := options.now()
	ending := now.Add(options.duration)
	record.CreatedAt = &now
	record.UpdatedAt = &now
	record.EndingAt = &ending

	return record, nil
}

// Validate checks the bid-affecting invariants: minimum title length and an
// open status. It never inspects storage.
func (a *Auction) Validate() error {
	if len(a.Title) < TitleMinLength {
		return ErrTitleTooShort.WithMetadata(map[string]any{
			"title": a.Title,
		})
	}

	if !a.IsOpen() {
		return ErrAuctionNotOpen.WithMetadata(map[string]any{
			"status": a.Status,
		})
	}

	return nil
}

// WithHigherBid returns a copy carrying the new highest bid. The amount must
// strictly beat the current value and the auction must be open; the receiver
// is never mutated.
func (a *Auction) WithHigherBid(amount float64) (*Auction, error) {
	if !a.IsOpen() {
		return nil, ErrAuctionNotOpen.WithMetadata(map[string]any{
			"id":     a.ID.String(),
			"status": a.Status,
		})
	}

	if amount <= a.HighestBid {
		return nil, ErrBidTooLow.WithMetadata(map[string]any{
			"id":          a.ID.String(),
			"amount":      amount,
			"highest_bid": a.HighestBid,
		})
	}

	clone := a.Clone()
	clone.HighestBid = amount
	return clone, nil
}

// WithStatus returns a copy carrying the target status if the transition is
// legal. Closed and cancelled are terminal; nothing re-enters open.
func (a *Auction) WithStatus(target AuctionStatus) (*Auction, error) {
	if target == "" {
		return nil, ErrInvalidTransition.WithMetadata(map[string]any{
			"reason": "target status is empty",
		})
	}

	from := a.Status
	if from == target {
		return a.Clone(), nil
	}

	if a.IsTerminal() {
		return nil, ErrTerminalState.WithMetadata(map[string]any{
			"from": from,
			"to":   target,
		})
	}

	if !canTransitionStatus(from, target) {
		return nil, ErrInvalidTransition.WithMetadata(map[string]any{
			"from": from,
			"to":   target,
		})
	}

	clone := a.Clone()
	clone.Status = target
	return clone, nil
}

// ClosureNotification builds the message queued when the sweep closes an
// auction. The recipient is a configuration input, not a property of the
// auction itself.
func (a *Auction) ClosureNotification(recipient, subject string) Notification {
	if subject == "" {
		subject = DefaultClosureSubject
	}
	return Notification{
		To:      recipient,
		Subject: subject,
		Body: "Auction " + a.Title + " (" + a.ID.String() + ") closed with a highest bid of " +
			formatAmount(a.HighestBid),
	}
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
