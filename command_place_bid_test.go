package auction_test

import (
	"context"
	"testing"

	auction "github.com/goliatone/go-auction"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newBidFixture(highest float64) (*MockRepositoryManager, *MockAuctions, *auction.Auction) {
	repo := &MockRepositoryManager{}
	auctions := &MockAuctions{}
	repo.On("Auctions").Return(auctions)

	record := &auction.Auction{
		ID:         uuid.New(),
		Title:      "Vintage Lamp",
		Status:     auction.StatusOpen,
		HighestBid: highest,
	}

	return repo, auctions, record
}

func TestPlaceBidAcceptsHigherBid(t *testing.T) {
	repo, auctions, record := newBidFixture(50)

	auctions.On("Get", mock.Anything, record.ID).Return(record, nil).Once()
	auctions.On("RaiseBid", mock.Anything, record.ID, float64(75)).Return(true, nil).Once()

	var res *auction.PlaceBidResponse

	handler := auction.NewPlaceBidHandler(repo)
	err := handler.Execute(context.Background(), auction.PlaceBidMessage{
		AuctionID: record.ID.String(),
		Amount:    75,
		OnResponse: func(resp *auction.PlaceBidResponse) {
			res = resp
		},
	})
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Equal(t, float64(75), res.HighestBid)
	assert.Equal(t, record.ID.String(), res.AuctionID)
	auctions.AssertExpectations(t)
}

func TestPlaceBidRejectsLowBidWithoutWriting(t *testing.T) {
	repo, auctions, record := newBidFixture(50)

	auctions.On("Get", mock.Anything, record.ID).Return(record, nil).Once()

	handler := auction.NewPlaceBidHandler(repo)
	err := handler.Execute(context.Background(), auction.PlaceBidMessage{
		AuctionID: record.ID.String(),
		Amount:    30,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, auction.ErrBidTooLow)
	auctions.AssertNotCalled(t, "RaiseBid", mock.Anything, mock.Anything, mock.Anything)
}

func TestPlaceBidRejectsClosedAuction(t *testing.T) {
	repo, auctions, record := newBidFixture(50)
	record.Status = auction.StatusClosed

	auctions.On("Get", mock.Anything, record.ID).Return(record, nil).Once()

	handler := auction.NewPlaceBidHandler(repo)
	err := handler.Execute(context.Background(), auction.PlaceBidMessage{
		AuctionID: record.ID.String(),
		Amount:    100,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, auction.ErrAuctionNotOpen)
	auctions.AssertNotCalled(t, "RaiseBid", mock.Anything, mock.Anything, mock.Anything)
}

func TestPlaceBidUnknownAuction(t *testing.T) {
	repo := &MockRepositoryManager{}
	auctions := &MockAuctions{}
	repo.On("Auctions").Return(auctions)

	id := uuid.New()
	auctions.On("Get", mock.Anything, id).
		Return(nil, auction.ErrAuctionNotFound).Once()

	handler := auction.NewPlaceBidHandler(repo)
	err := handler.Execute(context.Background(), auction.PlaceBidMessage{
		AuctionID: id.String(),
		Amount:    100,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, auction.ErrAuctionNotFound)
}

func TestPlaceBidInvalidIdentifier(t *testing.T) {
	repo := &MockRepositoryManager{}

	handler := auction.NewPlaceBidHandler(repo)
	err := handler.Execute(context.Background(), auction.PlaceBidMessage{
		AuctionID: "not-a-uuid",
		Amount:    100,
	})
	require.Error(t, err)
	repo.AssertNotCalled(t, "Auctions")
}

func TestPlaceBidLostRaceToHigherBid(t *testing.T) {
	repo, auctions, record := newBidFixture(50)

	// snapshot says 50, the conditional write loses to a concurrent 80
	raced := record.Clone()
	raced.HighestBid = 80

	auctions.On("Get", mock.Anything, record.ID).Return(record, nil).Once()
	auctions.On("RaiseBid", mock.Anything, record.ID, float64(75)).Return(false, nil).Once()
	auctions.On("Get", mock.Anything, record.ID).Return(raced, nil).Once()

	handler := auction.NewPlaceBidHandler(repo)
	err := handler.Execute(context.Background(), auction.PlaceBidMessage{
		AuctionID: record.ID.String(),
		Amount:    75,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, auction.ErrBidTooLow)
	auctions.AssertExpectations(t)
}

func TestPlaceBidLostRaceToConcurrentClose(t *testing.T) {
	repo, auctions, record := newBidFixture(50)

	closed := record.Clone()
	closed.Status = auction.StatusClosed

	auctions.On("Get", mock.Anything, record.ID).Return(record, nil).Once()
	auctions.On("RaiseBid", mock.Anything, record.ID, float64(75)).Return(false, nil).Once()
	auctions.On("Get", mock.Anything, record.ID).Return(closed, nil).Once()

	handler := auction.NewPlaceBidHandler(repo)
	err := handler.Execute(context.Background(), auction.PlaceBidMessage{
		AuctionID: record.ID.String(),
		Amount:    75,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, auction.ErrAuctionNotOpen)
	auctions.AssertExpectations(t)
}

func TestPlaceBidRecordsActivity(t *testing.T) {
	repo, auctions, record := newBidFixture(0)
	sink := &MockActivitySink{}

	auctions.On("Get", mock.Anything, record.ID).Return(record, nil).Once()
	auctions.On("RaiseBid", mock.Anything, record.ID, float64(100)).Return(true, nil).Once()

	sink.On("Record", mock.Anything, mock.MatchedBy(func(evt auction.ActivityEvent) bool {
		return evt.EventType == auction.ActivityEventBidPlaced &&
			evt.AuctionID == record.ID.String() &&
			evt.Amount == 100
	})).Return(nil).Once()

	handler := auction.NewPlaceBidHandler(repo, auction.WithPlaceBidActivitySink(sink))
	err := handler.Execute(context.Background(), auction.PlaceBidMessage{
		AuctionID: record.ID.String(),
		Amount:    100,
	})
	require.NoError(t, err)
	sink.AssertExpectations(t)
}
