package auction

import (
	"context"
	"database/sql"
	"errors"
	"log"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"
)

// RepositoryManager exposes all repositories
type RepositoryManager interface {
	repository.Validator
	repository.TransactionManager
	Auctions() Auctions
}

type mngr struct {
	db       *bun.DB
	auctions Auctions
}

func NewRepositoryManager(db *bun.DB, opts ...AuctionsOption) RepositoryManager {
	return &mngr{
		db:       db,
		auctions: NewAuctionsRepository(db, opts...),
	}
}

func (m mngr) Validate() error {
	if m.auctions == nil {
		return errors.New("repository auctions should be initialized")
	}

	return nil
}

func (m mngr) MustValidate() {
	if err := m.Validate(); err != nil {
		log.Panic(err)
	}
}

func (m mngr) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return m.db.RunInTx(ctx, opts, f)
	}
}

func (m mngr) Auctions() Auctions {
	return m.auctions
}
