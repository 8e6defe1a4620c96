package worker

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/gameia/engine/internal/model"
)

type fakeSettler struct {
	mu       sync.Mutex
	settled  []string
	rescans  int
	settleCh chan string
}

func (f *fakeSettler) SettleWithRetry(_ context.Context, goalID string) (*model.Payout, error) {
	f.mu.Lock()
	f.settled = append(f.settled, goalID)
	f.mu.Unlock()
	f.settleCh <- goalID
	return &model.Payout{GoalID: goalID}, nil
}

func (f *fakeSettler) SettlePending(context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rescans++
	return 0, nil
}

func (f *fakeSettler) rescanCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.rescans
}

type fakeSweeper struct {
	calls chan struct{}
}

func (f *fakeSweeper) FailExpired(context.Context) ([]string, error) {
	select {
	case f.calls <- struct{}{}:
	default:
	}
	return []string{"g1"}, nil
}

func TestSettlementWorkerSettlesTriggeredGoals(t *testing.T) {
	settler := &fakeSettler{settleCh: make(chan string, 4)}
	w := NewSettlementWorker(settler, time.Hour, 4)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	w.Trigger("g1")
	w.Trigger("g2")

	for _, want := range []string{"g1", "g2"} {
		select {
		case got := <-settler.settleCh:
			if got != want {
				t.Errorf("settled %s, want %s", got, want)
			}
		case <-time.After(time.Second):
			t.Fatalf("goal %s was not settled", want)
		}
	}

	cancel()
	if err := <-done; err != nil {
		t.Errorf("Run returned %v", err)
	}
	if settler.rescanCount() != 1 {
		t.Errorf("rescans = %d, want 1 at startup", settler.rescanCount())
	}
}

func TestSettlementTriggerNeverBlocks(t *testing.T) {
	w := NewSettlementWorker(&fakeSettler{}, time.Hour, 1)

	done := make(chan struct{})
	go func() {
		w.Trigger("g1")
		w.Trigger("g2")
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Trigger blocked on a full queue")
	}
}

func TestDeadlineSweeperRunsOnInterval(t *testing.T) {
	sweeper := &fakeSweeper{calls: make(chan struct{}, 8)}
	w := NewDeadlineSweeper(sweeper, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	for i := 0; i < 3; i++ {
		select {
		case <-sweeper.calls:
		case <-time.After(time.Second):
			t.Fatalf("sweep %d did not run", i+1)
		}
	}

	cancel()
	if err := <-done; err != nil {
		t.Errorf("Run returned %v", err)
	}
}
