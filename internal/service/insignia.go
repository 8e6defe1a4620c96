package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/gameia/engine/internal/model"
	"github.com/gameia/engine/internal/repository"
	"github.com/gameia/engine/internal/scoring"
	"github.com/gameia/engine/internal/validation"
	"github.com/google/uuid"
)

type CreateInsigniaInput struct {
	Name        string           `json:"name" validate:"required,max=100"`
	Description string           `json:"description" validate:"max=1000"`
	Policy      string           `json:"policy" validate:"required,oneof=all_required weighted_threshold"`
	Threshold   float64          `json:"threshold" validate:"gte=0,lte=1"`
	Criteria    []CriterionInput `json:"criteria" validate:"required,min=1,dive"`
}

type CriterionInput struct {
	Type     string  `json:"type" validate:"required"`
	Key      string  `json:"key" validate:"required"`
	Operator string  `json:"operator" validate:"required,oneof=gte gt eq lte lt"`
	Target   float64 `json:"target"`
	Weight   float64 `json:"weight" validate:"gt=0"`
}

// Evaluation reports how a user's metrics measure against an insignia.
type Evaluation struct {
	InsigniaID string                    `json:"insignia_id"`
	Policy     string                    `json:"policy"`
	Score      float64                   `json:"score"`
	Earned     bool                      `json:"earned"`
	Awarded    bool                      `json:"awarded"`
	Criteria   []scoring.CriterionResult `json:"criteria"`
}

type InsigniaService struct {
	store *repository.Store
	now   func() time.Time
}

func NewInsigniaService(store *repository.Store) *InsigniaService {
	return &InsigniaService{
		store: store,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

func (s *InsigniaService) Create(ctx context.Context, actor model.Actor, input CreateInsigniaInput) (*model.Insignia, error) {
	if !actor.IsAdmin() {
		return nil, fmt.Errorf("%w: only admins define insignias", ErrForbidden)
	}

	err := validation.Struct(input)
	if err != nil {
		return nil, err
	}
	if input.Policy == model.InsigniaPolicyWeightedThreshold && input.Threshold <= 0 {
		return nil, validation.Field("threshold", "is required for weighted_threshold")
	}

	insignia := &model.Insignia{
		ID:          uuid.New().String(),
		Name:        input.Name,
		Description: input.Description,
		Policy:      input.Policy,
		Threshold:   input.Threshold,
		CreatedAt:   s.now(),
	}
	for _, c := range input.Criteria {
		insignia.Criteria = append(insignia.Criteria, &model.Criterion{
			ID:            uuid.New().String(),
			InsigniaID:    insignia.ID,
			CriterionType: c.Type,
			CriterionKey:  c.Key,
			Operator:      c.Operator,
			TargetValue:   c.Target,
			Weight:        c.Weight,
		})
	}

	err = s.store.InTx(ctx, func(r *repository.Repositories) error {
		return r.Insignias.Create(ctx, insignia)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create insignia: %w", err)
	}

	slog.Info("insignia created", "insignia_id", insignia.ID, "policy", insignia.Policy, "criteria", len(insignia.Criteria))
	return insignia, nil
}

func (s *InsigniaService) ByID(ctx context.Context, insigniaID string) (*model.Insignia, error) {
	return s.store.Insignias.ByID(ctx, insigniaID)
}

// Evaluate scores metrics against the insignia's criteria under its own policy.
// When award is set and the insignia is earned, it is awarded to userID.
func (s *InsigniaService) Evaluate(ctx context.Context, insigniaID, userID string, metrics map[string]float64, award bool) (*Evaluation, error) {
	insignia, err := s.store.Insignias.ByID(ctx, insigniaID)
	if err != nil {
		return nil, err
	}

	results, err := scoring.EvaluateCriteria(insignia.Criteria, metrics)
	if err != nil {
		return nil, fmt.Errorf("insignia %s: %w", insigniaID, err)
	}

	score, earned, err := scoring.Aggregate(insignia.Policy, insignia.Threshold, results)
	if err != nil {
		return nil, fmt.Errorf("insignia %s: %w", insigniaID, err)
	}

	eval := &Evaluation{
		InsigniaID: insigniaID,
		Policy:     insignia.Policy,
		Score:      score,
		Earned:     earned,
		Criteria:   results,
	}

	if earned && award {
		eval.Awarded, err = s.Award(ctx, userID, insigniaID, nil)
		if err != nil {
			return nil, err
		}
	}

	return eval, nil
}

// Award grants the insignia once; it reports false if the user already held it.
func (s *InsigniaService) Award(ctx context.Context, userID, insigniaID string, goalID *string) (bool, error) {
	awarded, err := s.store.Insignias.Award(ctx, &model.UserInsignia{
		UserID:     userID,
		InsigniaID: insigniaID,
		GoalID:     goalID,
		AwardedAt:  s.now(),
	})
	if err != nil {
		return false, fmt.Errorf("failed to award insignia: %w", err)
	}

	if awarded {
		slog.Info("insignia awarded", "insignia_id", insigniaID, "user_id", userID)
	}
	return awarded, nil
}

func (s *InsigniaService) UserInsignias(ctx context.Context, userID string) ([]*model.UserInsignia, error) {
	return s.store.Insignias.UserInsignias(ctx, userID)
}
