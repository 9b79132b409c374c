package auction_test

import (
	"context"
	"database/sql"
	"time"

	auction "github.com/goliatone/go-auction"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-router"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/uptrace/bun"
)

// MockAuctions implements auction.Auctions. The embedded repository interface
// covers the generic surface; only the methods exercised by tests are mocked.
type MockAuctions struct {
	mock.Mock
	repository.Repository[*auction.Auction]
}

func (m *MockAuctions) Create(ctx context.Context, record *auction.Auction, criteria ...repository.InsertCriteria) (*auction.Auction, error) {
	args := m.Called(ctx, record, criteria)
	return getRecord(args.Get(0)), args.Error(1)
}

func (m *MockAuctions) CreateTx(ctx context.Context, tx bun.IDB, record *auction.Auction, criteria ...repository.InsertCriteria) (*auction.Auction, error) {
	args := m.Called(ctx, tx, record, criteria)
	return getRecord(args.Get(0)), args.Error(1)
}

func (m *MockAuctions) Get(ctx context.Context, id uuid.UUID) (*auction.Auction, error) {
	args := m.Called(ctx, id)
	return getRecord(args.Get(0)), args.Error(1)
}

func (m *MockAuctions) GetTx(ctx context.Context, tx bun.IDB, id uuid.UUID) (*auction.Auction, error) {
	args := m.Called(ctx, tx, id)
	return getRecord(args.Get(0)), args.Error(1)
}

func (m *MockAuctions) ListAll(ctx context.Context) ([]*auction.Auction, error) {
	args := m.Called(ctx)
	return getRecords(args.Get(0)), args.Error(1)
}

func (m *MockAuctions) ListAllTx(ctx context.Context, tx bun.IDB) ([]*auction.Auction, error) {
	args := m.Called(ctx, tx)
	return getRecords(args.Get(0)), args.Error(1)
}

func (m *MockAuctions) RaiseBid(ctx context.Context, id uuid.UUID, amount float64) (bool, error) {
	args := m.Called(ctx, id, amount)
	return args.Bool(0), args.Error(1)
}

func (m *MockAuctions) RaiseBidTx(ctx context.Context, tx bun.IDB, id uuid.UUID, amount float64) (bool, error) {
	args := m.Called(ctx, tx, id, amount)
	return args.Bool(0), args.Error(1)
}

func (m *MockAuctions) CloseIfOpen(ctx context.Context, id uuid.UUID) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockAuctions) CloseIfOpenTx(ctx context.Context, tx bun.IDB, id uuid.UUID) (bool, error) {
	args := m.Called(ctx, tx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockAuctions) UpdateStatus(ctx context.Context, id uuid.UUID, status auction.AuctionStatus) (*auction.Auction, error) {
	args := m.Called(ctx, id, status)
	return getRecord(args.Get(0)), args.Error(1)
}

func (m *MockAuctions) UpdateStatusTx(ctx context.Context, tx bun.IDB, id uuid.UUID, status auction.AuctionStatus) (*auction.Auction, error) {
	args := m.Called(ctx, tx, id, status)
	return getRecord(args.Get(0)), args.Error(1)
}

func (m *MockAuctions) ListDueForClosing(ctx context.Context, now time.Time) ([]*auction.Auction, error) {
	args := m.Called(ctx, now)
	return getRecords(args.Get(0)), args.Error(1)
}

func (m *MockAuctions) ListDueForClosingTx(ctx context.Context, tx bun.IDB, now time.Time) ([]*auction.Auction, error) {
	args := m.Called(ctx, tx, now)
	return getRecords(args.Get(0)), args.Error(1)
}

func (m *MockAuctions) EnsureIndexes(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func getRecord(v any) *auction.Auction {
	if v == nil {
		return nil
	}
	return v.(*auction.Auction)
}

func getRecords(v any) []*auction.Auction {
	if v == nil {
		return nil
	}
	return v.([]*auction.Auction)
}

// MockRepositoryManager implements auction.RepositoryManager
type MockRepositoryManager struct {
	mock.Mock
}

func (m *MockRepositoryManager) Auctions() auction.Auctions {
	args := m.Called()
	return args.Get(0).(auction.Auctions)
}

func (m *MockRepositoryManager) Validate() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockRepositoryManager) MustValidate() {
	m.Called()
}

func (m *MockRepositoryManager) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	args := m.Called(ctx, opts, f)
	return args.Error(0)
}

// MockActivitySink implements auction.ActivitySink
type MockActivitySink struct {
	mock.Mock
}

func (m *MockActivitySink) Record(ctx context.Context, event auction.ActivityEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

// MockNotifier implements auction.Notifier
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Enqueue(ctx context.Context, message auction.Notification) error {
	args := m.Called(ctx, message)
	return args.Error(0)
}

// capturingNotifier records every enqueued message
type capturingNotifier struct {
	messages []auction.Notification
}

func (c *capturingNotifier) Enqueue(_ context.Context, message auction.Notification) error {
	c.messages = append(c.messages, message)
	return nil
}

// MockContext mocks the router.Context. The embedded interface covers the
// surface the controller never touches; only the methods exercised by the
// route handlers are mocked.
type MockContext struct {
	mock.Mock
	router.Context
}

func (m *MockContext) Context() context.Context {
	args := m.Called()
	c, ok := args.Get(0).(context.Context)
	if !ok {
		panic("arg needs to be context.Context")
	}
	return c
}

func (m *MockContext) Bind(i any) error {
	args := m.Called(i)
	return args.Error(0)
}

func (m *MockContext) JSON(code int, val any) error {
	args := m.Called(code, val)
	return args.Error(0)
}

func (m *MockContext) Param(key string, defaultValue ...string) string {
	if len(defaultValue) > 0 {
		args := m.Called(key, defaultValue[0])
		return args.String(0)
	}
	args := m.Called(key)
	return args.String(0)
}
