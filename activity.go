package auction

import (
	"context"
	"time"
)

// ActivityEventType enumerates supported activity categories.
type ActivityEventType string

const (
	ActivityEventStatusChanged  ActivityEventType = "auction.status.changed"
	ActivityEventBidPlaced      ActivityEventType = "auction.bid.placed"
	ActivityEventBidRejected    ActivityEventType = "auction.bid.rejected"
	ActivityEventAuctionCreated ActivityEventType = "auction.created"
	ActivityEventAuctionClosed  ActivityEventType = "auction.sweep.closed"
	ActivityEventClosureQueued  ActivityEventType = "auction.sweep.notified"
)

// ActivityEvent captures audit-friendly information about an action.
type ActivityEvent struct {
	EventType  ActivityEventType
	Actor      ActorRef
	AuctionID  string
	FromStatus AuctionStatus
	ToStatus   AuctionStatus
	Amount     float64
	Metadata   map[string]any
	OccurredAt time.Time
}

// ActivitySink consumes activity events for auditing/telemetry purposes.
type ActivitySink interface {
	Record(ctx context.Context, event ActivityEvent) error
}

// ActivitySinkFunc adapts a function to the ActivitySink interface.
type ActivitySinkFunc func(ctx context.Context, event ActivityEvent) error

// Record implements ActivitySink.
func (f ActivitySinkFunc) Record(ctx context.Context, event ActivityEvent) error {
	if f == nil {
		return nil
	}
	return f(ctx, event)
}

type noopActivitySink struct{}

func (noopActivitySink) Record(context.Context, ActivityEvent) error {
	return nil
}

func normalizeActivitySink(s ActivitySink) ActivitySink {
	if s == nil {
		return noopActivitySink{}
	}
	return s
}
