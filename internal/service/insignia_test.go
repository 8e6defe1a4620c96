package service

import (
	"context"
	"errors"
	"testing"

	"github.com/gameia/engine/internal/model"
	"github.com/gameia/engine/internal/repository"
)

func TestInsigniaEvaluate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	input := CreateInsigniaInput{
		Name:      "Steady Learner",
		Policy:    model.InsigniaPolicyWeightedThreshold,
		Threshold: 0.6,
		Criteria: []CriterionInput{
			{Type: "module", Key: "modules_completed", Operator: model.OperatorGTE, Target: 5, Weight: 3},
			{Type: "streak", Key: "streak_days", Operator: model.OperatorGTE, Target: 7, Weight: 1},
		},
	}

	_, err := env.insignias.Create(ctx, creator, input)
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}

	insignia, err := env.insignias.Create(ctx, admin, input)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	eval, err := env.insignias.Evaluate(ctx, insignia.ID, "u1", map[string]float64{"modules_completed": 6, "streak_days": 2}, true)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if !eval.Earned || !eval.Awarded || eval.Score != 0.75 {
		t.Errorf("unexpected evaluation: %+v", eval)
	}

	eval, err = env.insignias.Evaluate(ctx, insignia.ID, "u1", map[string]float64{"modules_completed": 6}, true)
	if err != nil {
		t.Fatal(err)
	}
	if !eval.Earned || eval.Awarded {
		t.Errorf("second award should be a no-op: %+v", eval)
	}

	eval, err = env.insignias.Evaluate(ctx, insignia.ID, "u2", map[string]float64{"streak_days": 30}, true)
	if err != nil {
		t.Fatal(err)
	}
	if eval.Earned || eval.Awarded {
		t.Errorf("0.25 must not reach 0.6: %+v", eval)
	}

	_, err = env.insignias.Evaluate(ctx, "missing", "u1", nil, false)
	if !errors.Is(err, repository.ErrInsigniaNotFound) {
		t.Errorf("expected ErrInsigniaNotFound, got %v", err)
	}
}

func TestInsigniaCreateValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		input CreateInsigniaInput
	}{
		{"no criteria", CreateInsigniaInput{Name: "x", Policy: model.InsigniaPolicyAllRequired}},
		{"unknown policy", CreateInsigniaInput{Name: "x", Policy: "majority", Criteria: []CriterionInput{
			{Type: "t", Key: "k", Operator: model.OperatorGTE, Target: 1, Weight: 1},
		}}},
		{"weighted without threshold", CreateInsigniaInput{Name: "x", Policy: model.InsigniaPolicyWeightedThreshold, Criteria: []CriterionInput{
			{Type: "t", Key: "k", Operator: model.OperatorGTE, Target: 1, Weight: 1},
		}}},
		{"zero weight", CreateInsigniaInput{Name: "x", Policy: model.InsigniaPolicyAllRequired, Criteria: []CriterionInput{
			{Type: "t", Key: "k", Operator: model.OperatorGTE, Target: 1},
		}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.insignias.Create(ctx, admin, tt.input)
			if !isValidation(err) {
				t.Errorf("expected validation error, got %v", err)
			}
		})
	}
}
