package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/gameia/engine/internal/events"
	"github.com/gameia/engine/internal/model"
	"github.com/gameia/engine/internal/repository"
	"github.com/gameia/engine/internal/scoring"
	"github.com/gameia/engine/internal/validation"
	"github.com/google/uuid"
)

type SupportInput struct {
	Coins int64 `json:"coins" validate:"gte=1"`
}

// AddSupport escrows coins from the user's balance on an active goal and
// recomputes the goal's supporter multiplier.
func (s *GoalService) AddSupport(ctx context.Context, goalID, userID string, input SupportInput) (*model.Goal, error) {
	err := validation.Struct(input)
	if err != nil {
		return nil, err
	}
	if input.Coins > s.rules.MaxSupportCoins {
		return nil, validation.Field("coins", "must be at most "+strconv.FormatInt(s.rules.MaxSupportCoins, 10))
	}

	unlock := s.locks.Lock(goalID)
	defer unlock()

	var goal *model.Goal
	err = withConflictRetry(ctx, s.rules.MaxConflictRetries, goalID, func(ctx context.Context) error {
		return s.store.InTx(ctx, func(r *repository.Repositories) error {
			var err error
			goal, err = r.Goals.ByID(ctx, goalID)
			if err != nil {
				return err
			}

			now := s.now()
			if goal.Status != model.GoalStatusActive || goal.Expired(now) {
				return fmt.Errorf("%w: cannot support a %s goal", ErrInvalidTransition, goal.Status)
			}

			_, err = r.Participants.Participant(ctx, goalID, userID)
			if err == nil {
				return fmt.Errorf("%w: participants cannot support their own goal", ErrInvalidTransition)
			}
			if !errors.Is(err, repository.ErrParticipantNotFound) {
				return err
			}

			err = r.Supporters.Add(ctx, &model.Supporter{
				GoalID:      goalID,
				UserID:      userID,
				CoinsStaked: input.Coins,
				JoinedAt:    now,
			})
			if errors.Is(err, repository.ErrAlreadySupporter) {
				return fmt.Errorf("%w: %w", ErrInvalidTransition, err)
			}
			if err != nil {
				return err
			}

			err = r.Ledger.Debit(ctx, userID, input.Coins, now)
			if errors.Is(err, repository.ErrInsufficientFunds) {
				return fmt.Errorf("%w: cannot stake %d coins", ErrInsufficientBalance, input.Coins)
			}
			if err != nil {
				return err
			}

			err = r.Ledger.AddEntry(ctx, &model.LedgerEntry{
				ID:         uuid.New().String(),
				UserID:     userID,
				Kind:       model.LedgerKindStake,
				CoinsDelta: -input.Coins,
				GoalID:     &goalID,
				CreatedAt:  now,
			})
			if err != nil {
				return err
			}

			goal.SupportersCount++
			goal.TotalStaked += input.Coins
			goal.SupporterMultiplier = scoring.Multiplier(goal.SupportersCount)
			goal.UpdatedAt = now
			return r.Goals.Update(ctx, goal)
		})
	})
	if err != nil {
		return nil, err
	}

	slog.Info("goal supported",
		"goal_id", goalID,
		"user_id", userID,
		"coins", input.Coins,
		"multiplier", goal.SupporterMultiplier,
	)
	s.publisher.Publish(events.Event{
		Type:   events.TypeGoalMultiplierChanged,
		GoalID: goalID,
		At:     goal.UpdatedAt,
		Data: events.MultiplierChange{
			Multiplier:      goal.SupporterMultiplier,
			SupportersCount: goal.SupportersCount,
			TotalStaked:     goal.TotalStaked,
		},
	})

	return withPercent(goal), nil
}
