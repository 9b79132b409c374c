package auction

import (
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

const (
	textCodeTitleTooShort = "AUCTION_TITLE_TOO_SHORT"
	textCodeNotOpen       = "AUCTION_NOT_OPEN"
	textCodeBidTooLow     = "AUCTION_BID_TOO_LOW"
	textCodeNotFound      = "AUCTION_NOT_FOUND"
	textCodeDuplicate     = "AUCTION_DUPLICATE"
	textCodeEmitter       = "AUCTION_NOTIFY_FAILED"
)

// ErrTitleTooShort is returned when an auction title fails the minimum length rule
var ErrTitleTooShort = goerrors.New("auction title must be at least 3 characters long", goerrors.CategoryValidation).
	WithTextCode(textCodeTitleTooShort).
	WithCode(goerrors.CodeBadRequest)

// ErrAuctionNotOpen is returned for bid-affecting operations on a closed or cancelled auction
var ErrAuctionNotOpen = goerrors.New("auction is not open", goerrors.CategoryConflict).
	WithTextCode(textCodeNotOpen).
	WithCode(goerrors.CodeConflict)

// ErrBidTooLow is returned when a bid does not beat the stored highest bid
var ErrBidTooLow = goerrors.New("bid amount must be greater than the current highest bid", goerrors.CategoryBadInput).
	WithTextCode(textCodeBidTooLow).
	WithCode(goerrors.CodeBadRequest)

// ErrAuctionNotFound is returned when the target auction does not exist
var ErrAuctionNotFound = goerrors.New("auction not found", goerrors.CategoryNotFound).
	WithTextCode(textCodeNotFound).
	WithCode(goerrors.CodeNotFound)

// ErrDuplicateAuction is returned on an identifier collision at insert time.
// Not expected under uuid generation but surfaced as a conflict when it happens.
var ErrDuplicateAuction = goerrors.New("auction already exists", goerrors.CategoryConflict).
	WithTextCode(textCodeDuplicate).
	WithCode(goerrors.CodeConflict)

// IsUniqueConstraintError will check for driver level duplicate key failures
func IsUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed") ||
		strings.Contains(err.Error(), "duplicate key value")
}
