package scoring

import (
	"errors"
	"fmt"

	"github.com/gameia/engine/internal/model"
)

var (
	ErrUnknownPolicy   = errors.New("unknown insignia policy")
	ErrUnknownOperator = errors.New("unknown criterion operator")
)

// CriterionResult is the outcome of one criterion against the supplied metrics.
type CriterionResult struct {
	CriterionID string  `json:"criterion_id"`
	Key         string  `json:"key"`
	Operator    string  `json:"operator"`
	Target      float64 `json:"target"`
	Value       float64 `json:"value"`
	Weight      float64 `json:"weight"`
	Present     bool    `json:"present"`
	Satisfied   bool    `json:"satisfied"`
}

// Compare applies op as "value op target".
func Compare(op string, value, target float64) (bool, error) {
	switch op {
	case model.OperatorGTE:
		return value >= target, nil
	case model.OperatorGT:
		return value > target, nil
	case model.OperatorEQ:
		return value == target, nil
	case model.OperatorLTE:
		return value <= target, nil
	case model.OperatorLT:
		return value < target, nil
	}
	return false, fmt.Errorf("%w: %q", ErrUnknownOperator, op)
}

// EvaluateCriteria checks each criterion against metrics keyed by criterion key.
// A missing metric never satisfies its criterion.
func EvaluateCriteria(criteria []*model.Criterion, metrics map[string]float64) ([]CriterionResult, error) {
	results := make([]CriterionResult, 0, len(criteria))
	for _, c := range criteria {
		value, ok := metrics[c.CriterionKey]
		res := CriterionResult{
			CriterionID: c.ID,
			Key:         c.CriterionKey,
			Operator:    c.Operator,
			Target:      c.TargetValue,
			Value:       value,
			Weight:      c.Weight,
			Present:     ok,
		}

		satisfied, err := Compare(c.Operator, value, c.TargetValue)
		if err != nil {
			return nil, err
		}
		res.Satisfied = ok && satisfied

		results = append(results, res)
	}
	return results, nil
}

// Aggregate combines criterion results under policy. Score is the satisfied
// share of total weight in [0,1].
func Aggregate(policy string, threshold float64, results []CriterionResult) (score float64, earned bool, err error) {
	var total, satisfied float64
	all := len(results) > 0
	for _, r := range results {
		total += r.Weight
		if r.Satisfied {
			satisfied += r.Weight
		} else {
			all = false
		}
	}
	if total > 0 {
		score = satisfied / total
	}

	switch policy {
	case model.InsigniaPolicyAllRequired:
		return score, all, nil
	case model.InsigniaPolicyWeightedThreshold:
		return score, total > 0 && score >= threshold, nil
	}
	return 0, false, fmt.Errorf("%w: %q", ErrUnknownPolicy, policy)
}
