package auction_test

import (
	"context"
	"testing"
	"time"

	auction "github.com/goliatone/go-auction"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestAuctionStateMachineClosesOpenAuction(t *testing.T) {
	repo := &MockAuctions{}
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	record := &auction.Auction{
		ID:     uuid.New(),
		Status: auction.StatusOpen,
	}

	expected := &auction.Auction{
		ID:        record.ID,
		Status:    auction.StatusClosed,
		UpdatedAt: &now,
	}

	repo.On("UpdateStatus", mock.Anything, record.ID, auction.StatusClosed).
		Return(expected, nil).Once()

	sm := auction.NewAuctionStateMachine(repo, auction.WithStateMachineClock(func() time.Time { return now }))

	result, err := sm.Transition(context.Background(), auction.ActorRef{ID: "sweep"}, record, auction.StatusClosed)
	require.NoError(t, err)
	assert.True(t, result.IsClosed())
	require.NotNil(t, result.UpdatedAt)
	assert.Equal(t, now, result.UpdatedAt.UTC())
	repo.AssertExpectations(t)
}

func TestAuctionStateMachineCancelsOpenAuction(t *testing.T) {
	repo := &MockAuctions{}
	record := &auction.Auction{
		ID:     uuid.New(),
		Status: auction.StatusOpen,
	}

	repo.On("UpdateStatus", mock.Anything, record.ID, auction.StatusCancelled).
		Return(&auction.Auction{ID: record.ID, Status: auction.StatusCancelled}, nil).Once()

	sm := auction.NewAuctionStateMachine(repo)

	result, err := sm.Transition(context.Background(), auction.ActorRef{ID: "admin"}, record, auction.StatusCancelled)
	require.NoError(t, err)
	assert.True(t, result.IsCancelled())
	repo.AssertExpectations(t)
}

func TestAuctionStateMachineRejectsLeavingTerminalState(t *testing.T) {
	repo := &MockAuctions{}

	for _, status := range []auction.AuctionStatus{auction.StatusClosed, auction.StatusCancelled} {
		record := &auction.Auction{
			ID:     uuid.New(),
			Status: status,
		}

		sm := auction.NewAuctionStateMachine(repo)

		_, err := sm.Transition(context.Background(), auction.ActorRef{}, record, auction.StatusOpen)
		require.Error(t, err)
		assert.ErrorIs(t, err, auction.ErrTerminalState)
	}

	repo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
}

func TestAuctionStateMachineRejectsReopening(t *testing.T) {
	repo := &MockAuctions{}
	record := &auction.Auction{
		ID:     uuid.New(),
		Status: auction.StatusClosed,
	}

	sm := auction.NewAuctionStateMachine(repo)

	_, err := sm.Transition(context.Background(), auction.ActorRef{}, record, auction.StatusOpen)
	require.Error(t, err)
	repo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
}

func TestAuctionStateMachineSameStatusIsNoop(t *testing.T) {
	repo := &MockAuctions{}
	record := &auction.Auction{
		ID:     uuid.New(),
		Status: auction.StatusOpen,
	}

	sm := auction.NewAuctionStateMachine(repo)

	result, err := sm.Transition(context.Background(), auction.ActorRef{}, record, auction.StatusOpen)
	require.NoError(t, err)
	assert.Equal(t, auction.StatusOpen, result.Status)
	repo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
}

func TestAuctionStateMachineRecordsActivity(t *testing.T) {
	repo := &MockAuctions{}
	sink := &capturingSink{}
	record := &auction.Auction{
		ID:     uuid.New(),
		Status: auction.StatusOpen,
	}

	repo.On("UpdateStatus", mock.Anything, record.ID, auction.StatusClosed).
		Return(&auction.Auction{ID: record.ID, Status: auction.StatusClosed}, nil).Once()

	sm := auction.NewAuctionStateMachine(repo, auction.WithStateMachineActivitySink(sink))

	_, err := sm.Transition(
		context.Background(),
		auction.ActorRef{ID: "sweep", Type: "system"},
		record,
		auction.StatusClosed,
		auction.WithTransitionReason("ending time elapsed"),
	)
	require.NoError(t, err)

	require.Len(t, sink.events, 1)
	assert.Equal(t, auction.ActivityEventStatusChanged, sink.events[0].EventType)
	assert.Equal(t, auction.StatusOpen, sink.events[0].FromStatus)
	assert.Equal(t, auction.StatusClosed, sink.events[0].ToStatus)
	assert.Equal(t, "ending time elapsed", sink.events[0].Metadata["reason"])
	repo.AssertExpectations(t)
}

func TestAuctionStateMachineRunsHooks(t *testing.T) {
	repo := &MockAuctions{}
	record := &auction.Auction{
		ID:     uuid.New(),
		Status: auction.StatusOpen,
	}

	repo.On("UpdateStatus", mock.Anything, record.ID, auction.StatusClosed).
		Return(&auction.Auction{ID: record.ID, Status: auction.StatusClosed}, nil).Once()

	sm := auction.NewAuctionStateMachine(repo)

	var phases []string

	_, err := sm.Transition(
		context.Background(),
		auction.ActorRef{},
		record,
		auction.StatusClosed,
		auction.WithBeforeTransitionHook(func(ctx context.Context, tc auction.TransitionContext) error {
			phases = append(phases, "before")
			return nil
		}),
		auction.WithAfterTransitionHook(func(ctx context.Context, tc auction.TransitionContext) error {
			phases = append(phases, "after")
			return nil
		}),
	)
	require.NoError(t, err)
	assert.Equal(t, []string{"before", "after"}, phases)
	repo.AssertExpectations(t)
}

type capturingSink struct {
	events []auction.ActivityEvent
}

func (c *capturingSink) Record(ctx context.Context, evt auction.ActivityEvent) error {
	c.events = append(c.events, evt)
	return nil
}
