package auction

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// AuctionStatus is the auction's lifecycle status
type AuctionStatus = string

const (
	// StatusOpen accepts bids; the only status an auction can be created with
	StatusOpen AuctionStatus = "OPEN"
	// StatusClosed is the terminal status reached when ending_at elapses
	StatusClosed AuctionStatus = "CLOSED"
	// StatusCancelled is the terminal status for withdrawn auctions
	StatusCancelled AuctionStatus = "CANCELLED"
)

// Auction is the auction model
type Auction struct {
	bun.BaseModel `bun:"table:auctions,alias:auc"`
	ID            uuid.UUID     `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Title         string        `bun:"title,notnull" json:"title,omitempty"`
	Status        AuctionStatus `bun:"status,notnull" json:"status,omitempty"`
	HighestBid    float64       `bun:"highest_bid,notnull,default:0" json:"highest_bid"`
	CreatedAt     *time.Time    `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time    `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	EndingAt      *time.Time    `bun:"ending_at,nullzero" json:"ending_at,omitempty"`
}

// EnsureStatus defaults the status to open when unset
func (a *Auction) EnsureStatus() {
	if a.Status == "" {
		a.Status = StatusOpen
	}
}

// IsOpen reports whether the auction still accepts bids
func (a *Auction) IsOpen() bool {
	return a.Status == StatusOpen
}

// IsClosed reports whether the auction was closed by the sweep
func (a *Auction) IsClosed() bool {
	return a.Status == StatusClosed
}

// IsCancelled reports whether the auction was withdrawn
func (a *Auction) IsCancelled() bool {
	return a.Status == StatusCancelled
}

// IsTerminal reports whether the status admits no further transition
func (a *Auction) IsTerminal() bool {
	return a.Status == StatusClosed || a.Status == StatusCancelled
}

// IsDue reports whether the auction's end time has elapsed at the given instant
func (a *Auction) IsDue(now time.Time) bool {
	if a.EndingAt == nil {
		return false
	}
	return !a.EndingAt.After(now)
}

// Clone returns a shallow copy the caller can mutate freely
func (a *Auction) Clone() *Auction {
	if a == nil {
		return nil
	}
	clone := *a
	return &clone
}
