package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/gameia/engine/internal/events"
	"github.com/gameia/engine/internal/model"
	"github.com/gameia/engine/internal/repository"
	"github.com/gameia/engine/internal/scoring"
	"github.com/gameia/engine/internal/validation"
	"github.com/google/uuid"
)

type ProgressInput struct {
	Value float64 `json:"value" validate:"gte=0"`
	Note  string  `json:"note" validate:"max=500"`
}

type ProgressResult struct {
	Goal       *model.Goal        `json:"goal"`
	Log        *model.ProgressLog `json:"log"`
	LargeSwing bool               `json:"large_swing"`
	Completed  bool               `json:"completed"`
}

// ApplyProgress sets the goal's current value and appends an audit log entry.
// Reaching the target completes the goal. An update arriving after the deadline
// fails the goal instead and is rejected.
func (s *GoalService) ApplyProgress(ctx context.Context, actor model.Actor, goalID string, input ProgressInput) (*ProgressResult, error) {
	err := validation.Struct(input)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(goalID)
	defer unlock()

	var (
		result  *ProgressResult
		from    string
		expired bool
	)
	err = withConflictRetry(ctx, s.rules.MaxConflictRetries, goalID, func(ctx context.Context) error {
		expired = false
		return s.store.InTx(ctx, func(r *repository.Repositories) error {
			goal, err := r.Goals.ByID(ctx, goalID)
			if err != nil {
				return err
			}

			if goal.Status != model.GoalStatusActive {
				return fmt.Errorf("%w: cannot log progress on a %s goal", ErrInvalidTransition, goal.Status)
			}

			err = s.authorizeProgress(ctx, r, goal, actor)
			if err != nil {
				return err
			}

			now := s.now()
			from = goal.Status
			if goal.Expired(now) {
				goal.Status = model.GoalStatusFailed
				goal.UpdatedAt = now
				expired = true
				result = &ProgressResult{Goal: goal}
				return r.Goals.Update(ctx, goal)
			}

			source := model.ProgressSourceManual
			if actor.IsSystem() {
				source = model.ProgressSourceAutomatic
			}

			change := input.Value - goal.CurrentValue
			entry := &model.ProgressLog{
				ID:            uuid.New().String(),
				GoalID:        goal.ID,
				PreviousValue: goal.CurrentValue,
				NewValue:      input.Value,
				ChangeAmount:  change,
				Source:        source,
				LoggerID:      actor.UserID,
				Note:          input.Note,
				LargeSwing:    scoring.IsLargeSwing(change, goal.TargetValue),
				CreatedAt:     now,
			}

			goal.CurrentValue = input.Value
			goal.UpdatedAt = now
			completed := goal.CurrentValue >= goal.TargetValue
			if completed {
				goal.Status = model.GoalStatusCompleted
			}

			// The versioned update takes the goal row first so a concurrent
			// writer fails on the version instead of on the log sequence.
			err = r.Goals.Update(ctx, goal)
			if err != nil {
				return err
			}

			err = r.ProgressLogs.Append(ctx, entry)
			if err != nil {
				return fmt.Errorf("failed to append progress log: %w", err)
			}

			if !actor.IsSystem() {
				err = r.Participants.MarkContributed(ctx, goal.ID, actor.UserID)
				if err != nil {
					return err
				}
			}

			result = &ProgressResult{
				Goal:       goal,
				Log:        entry,
				LargeSwing: entry.LargeSwing,
				Completed:  completed,
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	goal := withPercent(result.Goal)
	if expired {
		s.statusChanged(goal, from)
		return nil, fmt.Errorf("%w: goal deadline passed, goal failed", ErrInvalidTransition)
	}

	if result.LargeSwing {
		slog.Warn("large progress swing",
			"goal_id", goal.ID,
			"logger_id", actor.UserID,
			"previous_value", result.Log.PreviousValue,
			"new_value", result.Log.NewValue,
		)
	}

	s.publisher.Publish(events.Event{
		Type:   events.TypeGoalProgress,
		GoalID: goal.ID,
		At:     goal.UpdatedAt,
		Data: events.Progress{
			CurrentValue:    goal.CurrentValue,
			PercentComplete: goal.PercentComplete,
			LargeSwing:      result.LargeSwing,
		},
	})
	s.statusChanged(goal, from)

	return result, nil
}

// authorizeProgress enforces who may feed a goal: internal goals take only
// automated updates, external goals take updates from their people.
func (s *GoalService) authorizeProgress(ctx context.Context, r *repository.Repositories, goal *model.Goal, actor model.Actor) error {
	if actor.IsSystem() {
		return nil
	}

	if goal.Source == model.GoalSourceInternal {
		return fmt.Errorf("%w: internal goals are tracked automatically", ErrForbidden)
	}

	if actor.IsAdmin() || goal.CreatorID == actor.UserID {
		return nil
	}

	_, err := r.Participants.Participant(ctx, goal.ID, actor.UserID)
	if errors.Is(err, repository.ErrParticipantNotFound) {
		return fmt.Errorf("%w: only participants can log progress", ErrForbidden)
	}
	return err
}
