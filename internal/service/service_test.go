package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/gameia/engine/internal/db"
	"github.com/gameia/engine/internal/events"
	"github.com/gameia/engine/internal/model"
	"github.com/gameia/engine/internal/repository"
	"github.com/gameia/engine/internal/storage"
	"github.com/jmoiron/sqlx"
)

type recordingTrigger struct {
	mu  sync.Mutex
	ids []string
}

func (r *recordingTrigger) Trigger(goalID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ids = append(r.ids, goalID)
}

func (r *recordingTrigger) triggered() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.ids...)
}

type testEnv struct {
	db          *sqlx.DB
	store       *repository.Store
	bus         *events.Bus
	trigger     *recordingTrigger
	archive     *storage.MemoryStorage
	goals       *GoalService
	settlements *SettlementService
	ledger      *LedgerService
	insignias   *InsigniaService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	database, err := db.Open("sqlite", "file::memory:?_pragma=foreign_keys(1)")
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	store := repository.NewStore(database)
	locks := NewGoalLocks()
	bus := events.NewBus()
	trigger := &recordingTrigger{}
	archive := storage.NewMemoryStorage()
	rules := DefaultRules()

	return &testEnv{
		db:          database,
		store:       store,
		bus:         bus,
		trigger:     trigger,
		archive:     archive,
		goals:       NewGoalService(store, locks, bus, trigger, rules),
		settlements: NewSettlementService(store, locks, archive, bus, rules, DefaultRetryPolicy()),
		ledger:      NewLedgerService(store),
		insignias:   NewInsigniaService(store),
	}
}

var (
	creator = model.Actor{UserID: "creator", Role: model.RoleUser}
	admin   = model.Actor{UserID: "admin", Role: model.RoleAdmin}
)

func goalInput(target float64) CreateGoalInput {
	now := time.Now().UTC()
	return CreateGoalInput{
		Title:       "Complete onboarding track",
		Scope:       model.GoalScopeTeam,
		Source:      model.GoalSourceExternal,
		TargetValue: target,
		StartsAt:    now.Add(-time.Hour),
		EndsAt:      now.Add(24 * time.Hour),
		RewardType:  model.RewardTypeBoth,
		XPReward:    100,
		CoinsReward: 50,
		Activate:    true,
	}
}

func (e *testEnv) createGoal(t *testing.T, input CreateGoalInput) *model.Goal {
	t.Helper()
	goal, err := e.goals.Create(context.Background(), creator, input)
	if err != nil {
		t.Fatalf("create goal: %v", err)
	}
	return goal
}

func (e *testEnv) join(t *testing.T, goalID string, users ...string) {
	t.Helper()
	for _, u := range users {
		_, err := e.goals.Join(context.Background(), goalID, u)
		if err != nil {
			t.Fatalf("join %s: %v", u, err)
		}
	}
}

func (e *testEnv) grant(t *testing.T, userID string, coins int64) {
	t.Helper()
	_, err := e.ledger.Grant(context.Background(), admin, GrantInput{UserID: userID, Coins: coins})
	if err != nil {
		t.Fatalf("grant %s: %v", userID, err)
	}
}

func (e *testEnv) support(t *testing.T, goalID, userID string, coins int64) {
	t.Helper()
	_, err := e.goals.AddSupport(context.Background(), goalID, userID, SupportInput{Coins: coins})
	if err != nil {
		t.Fatalf("support %s: %v", userID, err)
	}
}

func (e *testEnv) balance(t *testing.T, userID string) *model.UserBalance {
	t.Helper()
	b, err := e.ledger.Balance(context.Background(), userID)
	if err != nil {
		t.Fatalf("balance %s: %v", userID, err)
	}
	return b
}
