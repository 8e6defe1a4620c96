package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gameia/engine/internal/model"
)

// setupSupportedGoal creates the reference goal: target 100, 100 XP and 50
// coins, two participants and three supporters staking 10 coins each.
func setupSupportedGoal(t *testing.T, env *testEnv) *model.Goal {
	t.Helper()

	goal := env.createGoal(t, goalInput(100))
	env.join(t, goal.ID, "p1", "p2")
	for _, u := range []string{"s1", "s2", "s3"} {
		env.grant(t, u, 30)
		env.support(t, goal.ID, u, 10)
	}
	return goal
}

func TestSettleCompletedGoal(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	goal := setupSupportedGoal(t, env)

	_, err := env.goals.ApplyProgress(ctx, model.Actor{UserID: "p1", Role: model.RoleUser}, goal.ID, ProgressInput{Value: 100})
	if err != nil {
		t.Fatalf("ApplyProgress: %v", err)
	}

	payout, err := env.settlements.Settle(ctx, goal.ID)
	if err != nil {
		t.Fatalf("Settle: %v", err)
	}

	if payout.Outcome != model.SettlementOutcomeCompleted {
		t.Errorf("outcome = %s", payout.Outcome)
	}
	for _, p := range payout.Participants {
		if p.XP != 106 || p.Coins != 53 {
			t.Errorf("participant %s got %d XP %d coins, want 106 and 53", p.UserID, p.XP, p.Coins)
		}
	}
	for _, u := range []string{"p1", "p2"} {
		b := env.balance(t, u)
		if b.XP != 106 || b.Coins != 53 {
			t.Errorf("%s balance = %d XP %d coins, want 106 and 53", u, b.XP, b.Coins)
		}
	}

	// pool = floor(30 * 0.2) = 6, split evenly
	if payout.BonusPool != 6 {
		t.Errorf("bonus pool = %d, want 6", payout.BonusPool)
	}
	for _, u := range []string{"s1", "s2", "s3"} {
		if b := env.balance(t, u); b.Coins != 32 {
			t.Errorf("%s coins = %d, want 32", u, b.Coins)
		}
	}

	receipt, ok := env.archive.Get("receipts/" + goal.ID + ".json")
	if !ok {
		t.Fatal("receipt not archived")
	}
	var archived model.Payout
	if err := json.Unmarshal(receipt, &archived); err != nil {
		t.Fatalf("decode receipt: %v", err)
	}
	if archived.GoalID != goal.ID || len(archived.Supporters) != 3 {
		t.Errorf("unexpected receipt: %+v", archived)
	}
}

func TestSettleFailedGoalForfeitsStakes(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	goal := setupSupportedGoal(t, env)

	_, err := env.goals.ApplyProgress(ctx, model.Actor{UserID: "p1", Role: model.RoleUser}, goal.ID, ProgressInput{Value: 40})
	if err != nil {
		t.Fatal(err)
	}

	env.goals.SetClock(func() time.Time { return time.Now().UTC().Add(48 * time.Hour) })
	if _, err := env.goals.FailExpired(ctx); err != nil {
		t.Fatal(err)
	}

	payout, err := env.settlements.Settle(ctx, goal.ID)
	if err != nil {
		t.Fatalf("Settle: %v", err)
	}

	if payout.Outcome != model.SettlementOutcomeFailed || payout.Forfeited != 30 {
		t.Errorf("outcome=%s forfeited=%d, want failed and 30", payout.Outcome, payout.Forfeited)
	}
	if len(payout.Participants) != 0 {
		t.Errorf("failed goal paid participants: %+v", payout.Participants)
	}
	for _, u := range []string{"p1", "p2"} {
		if b := env.balance(t, u); b.XP != 0 || b.Coins != 0 {
			t.Errorf("%s balance = %+v, want zero", u, b)
		}
	}
	for _, u := range []string{"s1", "s2", "s3"} {
		if b := env.balance(t, u); b.Coins != 20 {
			t.Errorf("%s coins = %d, want 20", u, b.Coins)
		}
	}
}

func TestSettleCancelledGoalRefundsStakes(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	goal := setupSupportedGoal(t, env)

	if _, err := env.goals.Cancel(ctx, admin, goal.ID); err != nil {
		t.Fatal(err)
	}

	payout, err := env.settlements.Settle(ctx, goal.ID)
	if err != nil {
		t.Fatalf("Settle: %v", err)
	}
	if payout.BonusPool != 0 || payout.Forfeited != 0 {
		t.Errorf("unexpected payout: %+v", payout)
	}
	for _, u := range []string{"s1", "s2", "s3"} {
		if b := env.balance(t, u); b.Coins != 30 {
			t.Errorf("%s coins = %d, want 30", u, b.Coins)
		}
	}
}

func TestSettleIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	goal := setupSupportedGoal(t, env)

	_, err := env.goals.ApplyProgress(ctx, creator, goal.ID, ProgressInput{Value: 100})
	if err != nil {
		t.Fatal(err)
	}

	first, err := env.settlements.Settle(ctx, goal.ID)
	if err != nil {
		t.Fatal(err)
	}
	before := map[string]*model.UserBalance{}
	for _, u := range []string{"p1", "p2", "s1", "s2", "s3"} {
		before[u] = env.balance(t, u)
	}

	second, err := env.settlements.Settle(ctx, goal.ID)
	if err != nil {
		t.Fatalf("second Settle: %v", err)
	}
	if second.BonusPool != first.BonusPool || len(second.Participants) != len(first.Participants) {
		t.Errorf("second payout differs: %+v vs %+v", second, first)
	}

	for u, b := range before {
		after := env.balance(t, u)
		if after.Coins != b.Coins || after.XP != b.XP {
			t.Errorf("%s balance changed on second settle: %+v -> %+v", u, b, after)
		}
	}

	settled, err := env.settlements.SettlePending(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if settled != 0 {
		t.Errorf("SettlePending settled %d goals, want 0", settled)
	}
}

func TestSettleRejectsActiveGoal(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	goal := env.createGoal(t, goalInput(10))

	_, err := env.settlements.Settle(ctx, goal.ID)
	if !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition, got %v", err)
	}

	_, err = env.settlements.SettleWithRetry(ctx, goal.ID)
	if !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("retry must not mask non-transient errors, got %v", err)
	}
}

func TestSettleWithRetryRecoversFromTransientFailure(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	goal := env.createGoal(t, goalInput(10))
	env.join(t, goal.ID, "p1")
	_, err := env.goals.ApplyProgress(ctx, model.Actor{UserID: "p1", Role: model.RoleUser}, goal.ID, ProgressInput{Value: 10})
	if err != nil {
		t.Fatalf("ApplyProgress: %v", err)
	}

	// Settlement writes fail until the trigger is dropped.
	_, err = env.db.Exec(`CREATE TRIGGER reject_settlement BEFORE INSERT ON settlements
		BEGIN SELECT RAISE(ABORT, 'storage unavailable'); END`)
	if err != nil {
		t.Fatalf("create trigger: %v", err)
	}

	settler := NewSettlementService(env.store, NewGoalLocks(), env.archive, env.bus, DefaultRules(), RetryPolicy{
		Base:    10 * time.Millisecond,
		Max:     50 * time.Millisecond,
		Timeout: 10 * time.Second,
	})

	var (
		attempts atomic.Int32
		heal     sync.Once
		healed   = make(chan error, 1)
	)
	settler.SetClock(func() time.Time {
		attempts.Add(1)
		heal.Do(func() {
			// Runs once the failed transaction releases the connection
			go func() {
				_, err := env.db.Exec(`DROP TRIGGER reject_settlement`)
				healed <- err
			}()
		})
		return time.Now().UTC()
	})

	payout, err := settler.SettleWithRetry(ctx, goal.ID)
	if err != nil {
		t.Fatalf("SettleWithRetry: %v", err)
	}
	if err := <-healed; err != nil {
		t.Fatalf("drop trigger: %v", err)
	}

	if n := attempts.Load(); n < 2 {
		t.Errorf("attempts = %d, want a failed attempt before success", n)
	}
	if len(payout.Participants) != 1 || payout.Participants[0].XP != 100 {
		t.Errorf("payout participants = %+v", payout.Participants)
	}
	if b := env.balance(t, "p1"); b.XP != 100 || b.Coins != 50 {
		t.Errorf("p1 balance = %d XP %d coins, want 100 and 50", b.XP, b.Coins)
	}
}

func TestSettlePendingPicksUpTerminalGoals(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	a := setupSupportedGoal(t, env)
	b := env.createGoal(t, goalInput(10))
	if _, err := env.goals.Cancel(ctx, admin, a.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := env.goals.Cancel(ctx, admin, b.ID); err != nil {
		t.Fatal(err)
	}

	settled, err := env.settlements.SettlePending(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if settled != 2 {
		t.Errorf("settled = %d, want 2", settled)
	}
}

func TestSettleAwardsInsignia(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	insignia, err := env.insignias.Create(ctx, admin, CreateInsigniaInput{
		Name:   "Finisher",
		Policy: model.InsigniaPolicyAllRequired,
		Criteria: []CriterionInput{
			{Type: "goal", Key: "goals_completed", Operator: model.OperatorGTE, Target: 1, Weight: 1},
		},
	})
	if err != nil {
		t.Fatalf("create insignia: %v", err)
	}

	input := goalInput(10)
	input.RewardType = model.RewardTypeInsignia
	input.InsigniaID = insignia.ID
	goal := env.createGoal(t, input)
	env.join(t, goal.ID, "p1")

	_, err = env.goals.ApplyProgress(ctx, creator, goal.ID, ProgressInput{Value: 10})
	if err != nil {
		t.Fatal(err)
	}

	payout, err := env.settlements.Settle(ctx, goal.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(payout.Participants) != 1 || payout.Participants[0].InsigniaID != insignia.ID {
		t.Errorf("unexpected participants: %+v", payout.Participants)
	}
	if b := env.balance(t, "p1"); b.XP != 0 || b.Coins != 0 {
		t.Errorf("insignia reward must not pay XP or coins: %+v", b)
	}

	awards, err := env.insignias.UserInsignias(ctx, "p1")
	if err != nil {
		t.Fatal(err)
	}
	if len(awards) != 1 || awards[0].GoalID == nil || *awards[0].GoalID != goal.ID {
		t.Errorf("unexpected awards: %+v", awards)
	}
}
