package auction

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Every mutating statement below is a single conditional write keyed on the
// previously stored value. That is what keeps concurrent bidders and an
// overlapping closing sweep safe without any in-process locking.

var RaiseBidSQL = `UPDATE "auctions" AS "auc"
SET
	"highest_bid" = ?,
	"updated_at" = ?
WHERE
	"auc"."status" = 'OPEN'
AND "auc"."highest_bid" < ?
AND (
	"auc"."id" = ?
) RETURNING *;`

var CloseAuctionSQL = `UPDATE "auctions" AS "auc"
SET
	"status" = 'CLOSED',
	"updated_at" = ?
WHERE
	"auc"."status" = 'OPEN'
AND (
	"auc"."id" = ?
) RETURNING *;`

var UpdateAuctionStatusSQL = `UPDATE "auctions" AS "auc"
SET
	"status" = ?,
	"updated_at" = ?
WHERE
	"auc"."status" = 'OPEN'
AND (
	"auc"."id" = ?
) RETURNING *;`

// EnsureAuctionIndexesSQL backs the sweep's scan; safe to run on every invocation.
var EnsureAuctionIndexesSQL = `CREATE INDEX IF NOT EXISTS "idx_auctions_status_ending_at"
ON "auctions" ("status", "ending_at");`

type Auctions interface {
	repository.Repository[*Auction]

	Create(ctx context.Context, record *Auction, criteria ...repository.InsertCriteria) (*Auction, error)
	CreateTx(ctx context.Context, tx bun.IDB, record *Auction, criteria ...repository.InsertCriteria) (*Auction, error)

	Get(ctx context.Context, id uuid.UUID) (*Auction, error)
	GetTx(ctx context.Context, tx bun.IDB, id uuid.UUID) (*Auction, error)
	ListAll(ctx context.Context) ([]*Auction, error)
	ListAllTx(ctx context.Context, tx bun.IDB) ([]*Auction, error)

	RaiseBid(ctx context.Context, id uuid.UUID, amount float64) (bool, error)
	RaiseBidTx(ctx context.Context, tx bun.IDB, id uuid.UUID, amount float64) (bool, error)
	CloseIfOpen(ctx context.Context, id uuid.UUID) (bool, error)
	CloseIfOpenTx(ctx context.Context, tx bun.IDB, id uuid.UUID) (bool, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status AuctionStatus) (*Auction, error)
	UpdateStatusTx(ctx context.Context, tx bun.IDB, id uuid.UUID, status AuctionStatus) (*Auction, error)

	ListDueForClosing(ctx context.Context, now time.Time) ([]*Auction, error)
	ListDueForClosingTx(ctx context.Context, tx bun.IDB, now time.Time) ([]*Auction, error)

	EnsureIndexes(ctx context.Context) error
}

type auctions struct {
	repository.Repository[*Auction]
	db       *bun.DB
	now      func() time.Time
	duration time.Duration
}

var (
	_ Auctions                        = (*auctions)(nil)
	_ repository.Repository[*Auction] = (*auctions)(nil)
)

type AuctionsOption func(*auctions)

// WithAuctionsClock injects a custom clock (useful for tests).
func WithAuctionsClock(clock func() time.Time) AuctionsOption {
	return func(a *auctions) {
		if clock != nil {
			a.now = clock
		}
	}
}

// WithAuctionsDuration sets the window between creation and ending_at for
// records created through this repository.
func WithAuctionsDuration(d time.Duration) AuctionsOption {
	return func(a *auctions) {
		if d > 0 {
			a.duration = d
		}
	}
}

func NewAuctionsRepository(db *bun.DB, opts ...AuctionsOption) Auctions {
	repo := repository.NewRepository[*Auction](db, repository.ModelHandlers[*Auction]{
		NewRecord: func() *Auction { return &Auction{} },
		GetID: func(a *Auction) uuid.UUID {
			if a == nil {
				return uuid.Nil
			}
			return a.ID
		},
		SetID: func(a *Auction, id uuid.UUID) {
			if a != nil {
				a.ID = id
			}
		},
	})

	repoAuctions := &auctions{
		Repository: repo,
		db:         db,
		now:        time.Now,
		duration:   DefaultAuctionDuration,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(repoAuctions)
		}
	}

	return repoAuctions
}

func (a *auctions) Create(ctx context.Context, record *Auction, criteria ...repository.InsertCriteria) (*Auction, error) {
	return a.CreateTx(ctx, a.db, record, criteria...)
}

func (a *auctions) CreateTx(ctx context.Context, tx bun.IDB, record *Auction, criteria ...repository.InsertCriteria) (*Auction, error) {
	a.prepareAuctionDefaults(record)

	created, err := a.Repository.CreateTx(ctx, tx, record, criteria...)
	if err != nil {
		if IsUniqueConstraintError(err) {
			return nil, ErrDuplicateAuction.WithMetadata(map[string]any{
				"id": record.ID.String(),
			})
		}
		return nil, err
	}

	return created, nil
}

func (a *auctions) Get(ctx context.Context, id uuid.UUID) (*Auction, error) {
	return a.GetTx(ctx, a.db, id)
}

func (a *auctions) GetTx(ctx context.Context, tx bun.IDB, id uuid.UUID) (*Auction, error) {
	record := &Auction{}
	err := tx.NewSelect().
		Model(record).
		Where("?TableAlias.id = ?", id.String()).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, ErrAuctionNotFound.WithMetadata(map[string]any{
				"id": id.String(),
			})
		}
		return nil, err
	}

	return record, nil
}

func (a *auctions) ListAll(ctx context.Context) ([]*Auction, error) {
	return a.ListAllTx(ctx, a.db)
}

func (a *auctions) ListAllTx(ctx context.Context, tx bun.IDB) ([]*Auction, error) {
	records := []*Auction{}
	err := tx.NewSelect().
		Model(&records).
		Scan(ctx)
	if err != nil {
		return nil, err
	}

	return records, nil
}

// RaiseBid applies a bid as one conditional write: the row changes only while
// the auction is open and the new amount strictly beats the stored value. The
// boolean reports whether a row was actually modified.
func (a *auctions) RaiseBid(ctx context.Context, id uuid.UUID, amount float64) (bool, error) {
	return a.RaiseBidTx(ctx, a.db, id, amount)
}

func (a *auctions) RaiseBidTx(ctx context.Context, tx bun.IDB, id uuid.UUID, amount float64) (bool, error) {
	res, err := a.Repository.RawTx(ctx, tx, RaiseBidSQL, amount, a.now(), amount, id.String())
	if err != nil {
		return false, err
	}

	return len(res) > 0, nil
}

// CloseIfOpen transitions open → closed and refreshes updated_at. Re-invoking
// on an already closed auction reports false, it is not an error.
func (a *auctions) CloseIfOpen(ctx context.Context, id uuid.UUID) (bool, error) {
	return a.CloseIfOpenTx(ctx, a.db, id)
}

func (a *auctions) CloseIfOpenTx(ctx context.Context, tx bun.IDB, id uuid.UUID) (bool, error) {
	res, err := a.Repository.RawTx(ctx, tx, CloseAuctionSQL, a.now(), id.String())
	if err != nil {
		return false, err
	}

	return len(res) > 0, nil
}

func (a *auctions) UpdateStatus(ctx context.Context, id uuid.UUID, status AuctionStatus) (*Auction, error) {
	return a.UpdateStatusTx(ctx, a.db, id, status)
}

func (a *auctions) UpdateStatusTx(ctx context.Context, tx bun.IDB, id uuid.UUID, status AuctionStatus) (*Auction, error) {
	if status != StatusClosed && status != StatusCancelled {
		return nil, ErrInvalidTransition.WithMetadata(map[string]any{
			"to": status,
		})
	}

	res, err := a.Repository.RawTx(ctx, tx, UpdateAuctionStatusSQL, status, a.now(), id.String())
	if err != nil {
		return nil, err
	}

	if len(res) == 0 {
		// no open row matched: either missing or already terminal
		if _, err := a.GetTx(ctx, tx, id); err != nil {
			return nil, err
		}
		return nil, ErrTerminalState.WithMetadata(map[string]any{
			"id": id.String(),
			"to": status,
		})
	}

	return res[0], nil
}

func (a *auctions) ListDueForClosing(ctx context.Context, now time.Time) ([]*Auction, error) {
	return a.ListDueForClosingTx(ctx, a.db, now)
}

func (a *auctions) ListDueForClosingTx(ctx context.Context, tx bun.IDB, now time.Time) ([]*Auction, error) {
	records := []*Auction{}
	err := tx.NewSelect().
		Model(&records).
		Where("?TableAlias.status = ?", StatusOpen).
		Where("?TableAlias.ending_at <= ?", now).
		Scan(ctx)
	if err != nil {
		return nil, err
	}

	return records, nil
}

func (a *auctions) EnsureIndexes(ctx context.Context) error {
	if _, err := a.db.NewRaw(EnsureAuctionIndexesSQL).Exec(ctx); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to ensure auction indexes")
	}
	return nil
}

func (a *auctions) prepareAuctionDefaults(record *Auction) {
	if record == nil {
		return
	}

	record.EnsureStatus()

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}

	now := a.now()
	if record.CreatedAt == nil {
		record.CreatedAt = &now
	}
	if record.UpdatedAt == nil {
		record.UpdatedAt = &now
	}
	if record.EndingAt == nil {
		ending := record.CreatedAt.Add(a.duration)
		record.EndingAt = &ending
	}
}
