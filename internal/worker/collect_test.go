package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/sunzhengang/github-topics-trending/internal/github"
	"github.com/sunzhengang/github-topics-trending/internal/queue"
)

type MockCollector struct {
	mock.Mock
}

func (m *MockCollector) Collect(ctx context.Context, sort github.SortKey, limit int) (*queue.Batch, error) {
	args := m.Called(ctx, sort, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*queue.Batch), args.Error(1)
}

func TestCollectWorker_RunsImmediatelyAndStops(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	collector := new(MockCollector)
	collector.On("Collect", ctx, github.SortStars, 100).
		Return(&queue.Batch{ID: "b-1", Count: 3}, nil).
		Run(func(mock.Arguments) { cancel() }).
		Once()

	done := make(chan struct{})
	go func() {
		NewCollectWorker(collector, time.Hour, github.SortStars, 100).Run(ctx)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop after cancellation")
	}
	collector.AssertExpectations(t)
}

func TestCollectWorker_KeepsGoingAfterFailure(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	calls := make(chan struct{}, 3)
	collector := new(MockCollector)
	collector.On("Collect", ctx, github.SortForks, 10).
		Return(nil, errors.New("rate limited")).
		Run(func(mock.Arguments) {
			select {
			case calls <- struct{}{}:
			default:
			}
		})

	go NewCollectWorker(collector, 10*time.Millisecond, github.SortForks, 10).Run(ctx)

	for i := 0; i < 3; i++ {
		select {
		case <-calls:
		case <-time.After(2 * time.Second):
			t.Fatalf("expected collection %d to run", i+1)
		}
	}
}
