package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gameia/engine/internal/events"
	"github.com/gameia/engine/internal/model"
	"github.com/gameia/engine/internal/repository"
	"github.com/gameia/engine/internal/scoring"
	"github.com/gameia/engine/internal/validation"
	"github.com/google/uuid"
)

// Rules are the tunable engine constants.
type Rules struct {
	SupporterBonusRate float64
	MaxSupportCoins    int64
	MaxConflictRetries uint64
}

func DefaultRules() Rules {
	return Rules{
		SupporterBonusRate: 0.2,
		MaxSupportCoins:    500,
		MaxConflictRetries: 5,
	}
}

// SettlementTrigger is notified after a goal enters a terminal state.
type SettlementTrigger interface {
	Trigger(goalID string)
}

type noopTrigger struct{}

func (noopTrigger) Trigger(string) {}

type CreateGoalInput struct {
	Title       string    `json:"title" validate:"required,max=200"`
	Description string    `json:"description" validate:"max=2000"`
	Scope       string    `json:"scope" validate:"required,oneof=personal team global"`
	Source      string    `json:"source" validate:"required,oneof=internal external"`
	TargetValue float64   `json:"target_value" validate:"gt=0"`
	StartsAt    time.Time `json:"starts_at" validate:"required"`
	EndsAt      time.Time `json:"ends_at" validate:"required,gtfield=StartsAt"`
	RewardType  string    `json:"reward_type" validate:"required,oneof=coins xp both insignia"`
	InsigniaID  string    `json:"insignia_id" validate:"required_if=RewardType insignia"`
	XPReward    int64     `json:"xp_reward" validate:"gte=0"`
	CoinsReward int64     `json:"coins_reward" validate:"gte=0"`
	Activate    bool      `json:"activate"`
}

type GoalService struct {
	store     *repository.Store
	locks     *GoalLocks
	publisher events.Publisher
	trigger   SettlementTrigger
	rules     Rules
	now       func() time.Time
}

func NewGoalService(
	store *repository.Store,
	locks *GoalLocks,
	publisher events.Publisher,
	trigger SettlementTrigger,
	rules Rules,
) *GoalService {
	if trigger == nil {
		trigger = noopTrigger{}
	}
	if publisher == nil {
		publisher = events.Discard{}
	}
	return &GoalService{
		store:     store,
		locks:     locks,
		publisher: publisher,
		trigger:   trigger,
		rules:     rules,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// SetClock replaces the time source.
func (s *GoalService) SetClock(now func() time.Time) {
	s.now = now
}

func (s *GoalService) Create(ctx context.Context, actor model.Actor, input CreateGoalInput) (*model.Goal, error) {
	err := validation.Merge(
		validation.Struct(input),
		validation.ValidateTitle("title", input.Title),
	)
	if err != nil {
		return nil, err
	}

	// Global goals belong to the organization
	if input.Scope == model.GoalScopeGlobal && !actor.IsAdmin() {
		return nil, fmt.Errorf("%w: only admins create global goals", ErrForbidden)
	}

	if input.RewardType == model.RewardTypeInsignia {
		_, err := s.store.Insignias.ByID(ctx, input.InsigniaID)
		if errors.Is(err, repository.ErrInsigniaNotFound) {
			return nil, validation.Field("insignia_id", "does not exist")
		}
		if err != nil {
			return nil, err
		}
	}

	now := s.now()
	goal := &model.Goal{
		ID:                  uuid.New().String(),
		CreatorID:           actor.UserID,
		Title:               input.Title,
		Description:         input.Description,
		Scope:               input.Scope,
		Source:              input.Source,
		Status:              model.GoalStatusDraft,
		CurrentValue:        0,
		TargetValue:         input.TargetValue,
		StartsAt:            input.StartsAt.UTC(),
		EndsAt:              input.EndsAt.UTC(),
		RewardType:          input.RewardType,
		XPReward:            input.XPReward,
		CoinsReward:         input.CoinsReward,
		SupporterMultiplier: scoring.Multiplier(0),
		Version:             1,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	if input.InsigniaID != "" {
		id := input.InsigniaID
		goal.InsigniaID = &id
	}
	if input.Activate {
		if goal.Expired(now) {
			return nil, validation.Field("ends_at", "must be in the future to activate")
		}
		goal.Status = model.GoalStatusActive
	}

	err = s.store.InTx(ctx, func(r *repository.Repositories) error {
		err := r.Goals.Create(ctx, goal)
		if err != nil {
			return fmt.Errorf("failed to create goal: %w", err)
		}

		// A personal goal's only possible participant is its creator
		if goal.Scope != model.GoalScopePersonal {
			return nil
		}
		return r.Participants.Add(ctx, &model.Participant{
			GoalID:   goal.ID,
			UserID:   actor.UserID,
			JoinedAt: now,
		})
	})
	if err != nil {
		return nil, err
	}

	if goal.Scope == model.GoalScopePersonal {
		goal.ParticipantsCount = 1
	}

	slog.Info("goal created", "goal_id", goal.ID, "creator_id", actor.UserID, "status", goal.Status)
	return withPercent(goal), nil
}

// ByID returns the goal with its computed percentage and participant count.
func (s *GoalService) ByID(ctx context.Context, goalID string) (*model.Goal, error) {
	goal, err := s.store.Goals.ByID(ctx, goalID)
	if err != nil {
		return nil, err
	}

	goal.ParticipantsCount, err = s.store.Participants.Count(ctx, goalID)
	if err != nil {
		return nil, fmt.Errorf("failed to count participants: %w", err)
	}
	return withPercent(goal), nil
}

func (s *GoalService) Goals(ctx context.Context, filter model.GoalFilter) ([]*model.Goal, error) {
	goals, err := s.store.Goals.Goals(ctx, filter)
	if err != nil {
		return nil, err
	}
	for _, g := range goals {
		withPercent(g)
	}
	return goals, nil
}

// Activate moves a draft goal to active. Only its creator or an admin may do so.
func (s *GoalService) Activate(ctx context.Context, actor model.Actor, goalID string) (*model.Goal, error) {
	return s.transition(ctx, goalID, func(goal *model.Goal) error {
		if goal.CreatorID != actor.UserID && !actor.IsAdmin() {
			return fmt.Errorf("%w: only the creator can activate a goal", ErrForbidden)
		}
		if goal.Status != model.GoalStatusDraft {
			return fmt.Errorf("%w: goal is %s, not draft", ErrInvalidTransition, goal.Status)
		}
		if goal.Expired(s.now()) {
			return fmt.Errorf("%w: goal deadline already passed", ErrInvalidTransition)
		}
		goal.Status = model.GoalStatusActive
		return nil
	})
}

// Cancel is an admin-only terminal transition. In-flight progress updates that
// acquire the goal afterwards see the cancelled state and are rejected.
func (s *GoalService) Cancel(ctx context.Context, actor model.Actor, goalID string) (*model.Goal, error) {
	return s.transition(ctx, goalID, func(goal *model.Goal) error {
		if !actor.IsAdmin() {
			return fmt.Errorf("%w: only admins cancel goals", ErrForbidden)
		}
		if goal.IsTerminal() {
			return fmt.Errorf("%w: goal is already %s", ErrInvalidTransition, goal.Status)
		}
		goal.Status = model.GoalStatusCancelled
		return nil
	})
}

// FailExpired fails every active goal whose deadline has passed and returns their ids.
func (s *GoalService) FailExpired(ctx context.Context) ([]string, error) {
	active, err := s.store.Goals.ByStatus(ctx, model.GoalStatusActive)
	if err != nil {
		return nil, err
	}

	now := s.now()
	var failed []string
	for _, g := range active {
		if !g.Expired(now) {
			continue
		}

		_, err := s.transition(ctx, g.ID, func(goal *model.Goal) error {
			if goal.Status != model.GoalStatusActive || !goal.Expired(now) {
				return errSkip
			}
			goal.Status = model.GoalStatusFailed
			return nil
		})
		if errors.Is(err, errSkip) {
			continue
		}
		if err != nil {
			slog.Error("failed to expire goal", "error", err, "goal_id", g.ID)
			continue
		}
		failed = append(failed, g.ID)
	}

	return failed, nil
}

var errSkip = errors.New("skip")

// transition applies a status change under the goal lock with conflict retry,
// then publishes the change and triggers settlement for terminal states.
func (s *GoalService) transition(ctx context.Context, goalID string, mutate func(goal *model.Goal) error) (*model.Goal, error) {
	unlock := s.locks.Lock(goalID)
	defer unlock()

	var (
		goal *model.Goal
		from string
	)
	err := withConflictRetry(ctx, s.rules.MaxConflictRetries, goalID, func(ctx context.Context) error {
		return s.store.InTx(ctx, func(r *repository.Repositories) error {
			var err error
			goal, err = r.Goals.ByID(ctx, goalID)
			if err != nil {
				return err
			}

			from = goal.Status
			err = mutate(goal)
			if err != nil {
				return err
			}

			goal.UpdatedAt = s.now()
			return r.Goals.Update(ctx, goal)
		})
	})
	if err != nil {
		return nil, err
	}

	s.statusChanged(goal, from)
	return withPercent(goal), nil
}

// statusChanged emits the status event and triggers settlement when the goal became terminal.
func (s *GoalService) statusChanged(goal *model.Goal, from string) {
	if goal.Status == from {
		return
	}

	slog.Info("goal status changed", "goal_id", goal.ID, "from", from, "to", goal.Status)
	s.publisher.Publish(events.Event{
		Type:   events.TypeGoalStatusChanged,
		GoalID: goal.ID,
		At:     goal.UpdatedAt,
		Data:   events.StatusChange{From: from, To: goal.Status},
	})

	if goal.IsTerminal() {
		s.trigger.Trigger(goal.ID)
	}
}

// Join adds the user as participant of an active goal. Personal goals only
// admit their creator.
func (s *GoalService) Join(ctx context.Context, goalID, userID string) (*model.Participant, error) {
	unlock := s.locks.Lock(goalID)
	defer unlock()

	participant := &model.Participant{
		GoalID:   goalID,
		UserID:   userID,
		JoinedAt: s.now(),
	}

	err := s.store.InTx(ctx, func(r *repository.Repositories) error {
		goal, err := r.Goals.ByID(ctx, goalID)
		if err != nil {
			return err
		}

		if goal.Status != model.GoalStatusActive {
			return fmt.Errorf("%w: cannot join a %s goal", ErrInvalidTransition, goal.Status)
		}
		if goal.Expired(s.now()) {
			return fmt.Errorf("%w: goal deadline already passed", ErrInvalidTransition)
		}
		if goal.Scope == model.GoalScopePersonal && goal.CreatorID != userID {
			return fmt.Errorf("%w: personal goals only admit their creator", ErrForbidden)
		}

		supporting, err := r.Supporters.Exists(ctx, goalID, userID)
		if err != nil {
			return err
		}
		if supporting {
			return fmt.Errorf("%w: supporters cannot participate", ErrInvalidTransition)
		}

		err = r.Participants.Add(ctx, participant)
		if errors.Is(err, repository.ErrAlreadyParticipant) {
			return fmt.Errorf("%w: %w", ErrInvalidTransition, err)
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	slog.Info("participant joined", "goal_id", goalID, "user_id", userID)
	return participant, nil
}

// Leave removes the participant. Progress already applied stays.
func (s *GoalService) Leave(ctx context.Context, goalID, userID string) error {
	unlock := s.locks.Lock(goalID)
	defer unlock()

	return s.store.InTx(ctx, func(r *repository.Repositories) error {
		goal, err := r.Goals.ByID(ctx, goalID)
		if err != nil {
			return err
		}

		if goal.IsTerminal() {
			return fmt.Errorf("%w: goal is %s", ErrInvalidTransition, goal.Status)
		}

		err = r.Participants.Remove(ctx, goalID, userID)
		if errors.Is(err, repository.ErrParticipantNotFound) {
			return fmt.Errorf("%w: %w", ErrInvalidTransition, err)
		}
		return err
	})
}

func (s *GoalService) Participants(ctx context.Context, goalID string) ([]*model.Participant, error) {
	return s.store.Participants.Participants(ctx, goalID)
}

func (s *GoalService) Supporters(ctx context.Context, goalID string) ([]*model.Supporter, error) {
	return s.store.Supporters.Supporters(ctx, goalID)
}

func (s *GoalService) Logs(ctx context.Context, goalID string) ([]*model.ProgressLog, error) {
	_, err := s.store.Goals.ByID(ctx, goalID)
	if err != nil {
		return nil, err
	}
	return s.store.ProgressLogs.Logs(ctx, goalID)
}

func withPercent(goal *model.Goal) *model.Goal {
	goal.PercentComplete = scoring.PercentComplete(goal.CurrentValue, goal.TargetValue)
	return goal
}
