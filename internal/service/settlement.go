package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gameia/engine/internal/events"
	"github.com/gameia/engine/internal/model"
	"github.com/gameia/engine/internal/repository"
	"github.com/gameia/engine/internal/scoring"
	"github.com/gameia/engine/internal/storage"
	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"
	"golang.org/x/sync/singleflight"
)

// RetryPolicy bounds background settlement retries.
type RetryPolicy struct {
	Base    time.Duration
	Max     time.Duration
	Timeout time.Duration
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		Base:    200 * time.Millisecond,
		Max:     30 * time.Second,
		Timeout: 5 * time.Minute,
	}
}

type SettlementService struct {
	store     *repository.Store
	locks     *GoalLocks
	archive   storage.Storage
	publisher events.Publisher
	rules     Rules
	policy    RetryPolicy
	group     singleflight.Group
	now       func() time.Time
}

func NewSettlementService(
	store *repository.Store,
	locks *GoalLocks,
	archive storage.Storage,
	publisher events.Publisher,
	rules Rules,
	policy RetryPolicy,
) *SettlementService {
	if archive == nil {
		archive = storage.NewLogStorage()
	}
	if publisher == nil {
		publisher = events.Discard{}
	}
	return &SettlementService{
		store:     store,
		locks:     locks,
		archive:   archive,
		publisher: publisher,
		rules:     rules,
		policy:    policy,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// SetClock replaces the time source.
func (s *SettlementService) SetClock(now func() time.Time) {
	s.now = now
}

// Settle applies rewards or forfeitures for a terminal goal exactly once.
// Settling an already settled goal returns the stored payout and changes nothing.
func (s *SettlementService) Settle(ctx context.Context, goalID string) (*model.Payout, error) {
	v, err, _ := s.group.Do(goalID, func() (any, error) {
		return s.settle(ctx, goalID)
	})
	if err != nil {
		return nil, err
	}
	return v.(*model.Payout), nil
}

// SettleWithRetry retries Settle with capped exponential backoff while it fails
// with ErrSettlementFailure. A goal that still fails stays unsettled for the
// next rescan.
func (s *SettlementService) SettleWithRetry(ctx context.Context, goalID string) (*model.Payout, error) {
	b := retry.NewExponential(s.policy.Base)
	b = retry.WithCappedDuration(s.policy.Max, b)
	b = retry.WithMaxDuration(s.policy.Timeout, b)

	var payout *model.Payout
	attempt := 0
	err := retry.Do(ctx, b, func(ctx context.Context) error {
		attempt++
		var err error
		payout, err = s.Settle(ctx, goalID)
		if errors.Is(err, ErrSettlementFailure) {
			slog.Warn("settlement attempt failed", "error", err, "goal_id", goalID, "attempt", attempt)
			return retry.RetryableError(err)
		}
		return err
	})
	if err != nil {
		if errors.Is(err, ErrSettlementFailure) {
			slog.Error("settlement gave up", "error", err, "goal_id", goalID, "attempts", attempt)
		}
		return nil, err
	}

	return payout, nil
}

// SettlePending settles every terminal goal that has no settlement yet and
// returns how many were settled.
func (s *SettlementService) SettlePending(ctx context.Context) (int, error) {
	goals, err := s.store.Goals.Unsettled(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list unsettled goals: %w", err)
	}

	settled := 0
	for _, goal := range goals {
		if ctx.Err() != nil {
			return settled, ctx.Err()
		}

		_, err := s.Settle(ctx, goal.ID)
		if err != nil {
			slog.Error("failed to settle pending goal", "error", err, "goal_id", goal.ID)
			continue
		}
		settled++
	}

	return settled, nil
}

// Payout returns the stored payout of a settled goal.
func (s *SettlementService) Payout(ctx context.Context, goalID string) (*model.Payout, error) {
	settlement, err := s.store.Settlements.ByGoal(ctx, goalID)
	if err != nil {
		return nil, err
	}
	return decodePayout(settlement)
}

func (s *SettlementService) settle(ctx context.Context, goalID string) (*model.Payout, error) {
	unlock := s.locks.Lock(goalID)
	defer unlock()

	var (
		payout  *model.Payout
		already bool
	)
	err := s.store.InTx(ctx, func(r *repository.Repositories) error {
		goal, err := r.Goals.ByID(ctx, goalID)
		if err != nil {
			return err
		}

		if !goal.IsTerminal() {
			return fmt.Errorf("%w: goal is %s", ErrInvalidTransition, goal.Status)
		}

		if goal.IsSettled() {
			settlement, err := r.Settlements.ByGoal(ctx, goalID)
			if err != nil {
				return err
			}
			payout, err = decodePayout(settlement)
			already = true
			return err
		}

		now := s.now()
		payout, err = s.apply(ctx, r, goal, now)
		if err != nil {
			return err
		}

		goal.SettledAt = &now
		err = r.Goals.MarkSettled(ctx, goal)
		if err != nil {
			return err
		}

		data, err := json.Marshal(payout)
		if err != nil {
			return err
		}

		return r.Settlements.Create(ctx, &model.Settlement{
			GoalID:     goal.ID,
			Outcome:    payout.Outcome,
			Multiplier: payout.Multiplier,
			Payout:     string(data),
			SettledAt:  now,
		})
	})
	if errors.Is(err, repository.ErrAlreadySettled) {
		// Settled by another process between our read and our write
		return s.Payout(ctx, goalID)
	}
	if errors.Is(err, ErrInvalidTransition) || errors.Is(err, repository.ErrGoalNotFound) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("%w: goal %s: %w", ErrSettlementFailure, goalID, err)
	}

	if already {
		return payout, nil
	}

	slog.Info("goal settled",
		"goal_id", goalID,
		"outcome", payout.Outcome,
		"multiplier", payout.Multiplier,
		"participants", len(payout.Participants),
		"supporters", len(payout.Supporters),
		"forfeited", payout.Forfeited,
	)

	s.archiveReceipt(ctx, payout)
	s.publisher.Publish(events.Event{
		Type:   events.TypeGoalSettled,
		GoalID: goalID,
		At:     payout.SettledAt,
		Data:   payout,
	})

	return payout, nil
}

// apply credits balances for the goal's outcome and returns what was paid.
func (s *SettlementService) apply(ctx context.Context, r *repository.Repositories, goal *model.Goal, now time.Time) (*model.Payout, error) {
	participants, err := r.Participants.Participants(ctx, goal.ID)
	if err != nil {
		return nil, err
	}
	supporters, err := r.Supporters.Supporters(ctx, goal.ID)
	if err != nil {
		return nil, err
	}

	payout := &model.Payout{
		GoalID:       goal.ID,
		Outcome:      goal.Status,
		Multiplier:   goal.SupporterMultiplier,
		Participants: make([]model.ParticipantPayout, 0, len(participants)),
		Supporters:   make([]model.SupporterPayout, 0, len(supporters)),
		SettledAt:    now,
	}

	l := &ledger{repo: r.Ledger, goalID: goal.ID, now: now}

	switch goal.Status {
	case model.GoalStatusCompleted:
		for _, p := range participants {
			pp, err := s.rewardParticipant(ctx, r, l, goal, p.UserID, now)
			if err != nil {
				return nil, err
			}
			payout.Participants = append(payout.Participants, pp)
		}

		stakes := make([]scoring.Stake, len(supporters))
		for i, sup := range supporters {
			stakes[i] = scoring.Stake{UserID: sup.UserID, Amount: sup.CoinsStaked}
		}
		payout.BonusPool = scoring.BonusPool(goal.TotalStaked, s.rules.SupporterBonusRate)
		shares := scoring.DistributePool(payout.BonusPool, stakes)

		for i, sup := range supporters {
			err := l.credit(ctx, sup.UserID, model.LedgerKindStakeRefund, sup.CoinsStaked, 0)
			if err != nil {
				return nil, err
			}
			err = l.credit(ctx, sup.UserID, model.LedgerKindPoolBonus, shares[i], 0)
			if err != nil {
				return nil, err
			}
			payout.Supporters = append(payout.Supporters, model.SupporterPayout{
				UserID:   sup.UserID,
				Staked:   sup.CoinsStaked,
				Refunded: sup.CoinsStaked,
				Bonus:    shares[i],
			})
		}

	case model.GoalStatusFailed:
		for _, sup := range supporters {
			payout.Forfeited += sup.CoinsStaked
			payout.Supporters = append(payout.Supporters, model.SupporterPayout{
				UserID: sup.UserID,
				Staked: sup.CoinsStaked,
			})
		}

	case model.GoalStatusCancelled:
		for _, sup := range supporters {
			err := l.credit(ctx, sup.UserID, model.LedgerKindStakeRefund, sup.CoinsStaked, 0)
			if err != nil {
				return nil, err
			}
			payout.Supporters = append(payout.Supporters, model.SupporterPayout{
				UserID:   sup.UserID,
				Staked:   sup.CoinsStaked,
				Refunded: sup.CoinsStaked,
			})
		}
	}

	return payout, nil
}

func (s *SettlementService) rewardParticipant(
	ctx context.Context,
	r *repository.Repositories,
	l *ledger,
	goal *model.Goal,
	userID string,
	now time.Time,
) (model.ParticipantPayout, error) {
	pp := model.ParticipantPayout{UserID: userID}
	m := goal.SupporterMultiplier

	switch goal.RewardType {
	case model.RewardTypeCoins:
		pp.Coins = scoring.Reward(goal.CoinsReward, m)
	case model.RewardTypeXP:
		pp.XP = scoring.Reward(goal.XPReward, m)
	case model.RewardTypeBoth:
		pp.Coins = scoring.Reward(goal.CoinsReward, m)
		pp.XP = scoring.Reward(goal.XPReward, m)
	case model.RewardTypeInsignia:
		if goal.InsigniaID == nil {
			return pp, fmt.Errorf("goal %s rewards an insignia but has none", goal.ID)
		}
		goalID := goal.ID
		_, err := r.Insignias.Award(ctx, &model.UserInsignia{
			UserID:     userID,
			InsigniaID: *goal.InsigniaID,
			GoalID:     &goalID,
			AwardedAt:  now,
		})
		if err != nil {
			return pp, fmt.Errorf("failed to award insignia: %w", err)
		}
		pp.InsigniaID = *goal.InsigniaID
		return pp, nil
	}

	return pp, l.credit(ctx, userID, model.LedgerKindReward, pp.Coins, pp.XP)
}

func (s *SettlementService) archiveReceipt(ctx context.Context, payout *model.Payout) {
	data, err := json.MarshalIndent(payout, "", "  ")
	if err != nil {
		slog.Error("failed to encode settlement receipt", "error", err, "goal_id", payout.GoalID)
		return
	}

	key := receiptKey(payout.GoalID)
	err = s.archive.Save(ctx, key, "application/json", bytes.NewReader(data))
	if err != nil {
		slog.Error("failed to archive settlement receipt", "error", err, "goal_id", payout.GoalID, "key", key)
		return
	}

	slog.Debug("settlement receipt archived", "goal_id", payout.GoalID, "url", s.archive.URL(key))
}

func receiptKey(goalID string) string {
	return "receipts/" + goalID + ".json"
}

func decodePayout(settlement *model.Settlement) (*model.Payout, error) {
	payout := &model.Payout{}
	err := json.Unmarshal([]byte(settlement.Payout), payout)
	if err != nil {
		return nil, fmt.Errorf("failed to decode payout for goal %s: %w", settlement.GoalID, err)
	}
	return payout, nil
}

// ledger pairs each balance credit with its ledger entry.
type ledger struct {
	repo   repository.LedgerRepository
	goalID string
	now    time.Time
}

func (l *ledger) credit(ctx context.Context, userID, kind string, coins, xp int64) error {
	if coins == 0 && xp == 0 {
		return nil
	}

	err := l.repo.Credit(ctx, userID, coins, xp, l.now)
	if err != nil {
		return fmt.Errorf("failed to credit %s: %w", userID, err)
	}

	goalID := l.goalID
	return l.repo.AddEntry(ctx, &model.LedgerEntry{
		ID:         uuid.New().String(),
		UserID:     userID,
		Kind:       kind,
		CoinsDelta: coins,
		XPDelta:    xp,
		GoalID:     &goalID,
		CreatedAt:  l.now,
	})
}
