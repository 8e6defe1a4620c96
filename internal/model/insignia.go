package model

import (
	"time"
)

// Aggregation policies for combining an insignia's criteria. Each insignia states its own.
const (
	InsigniaPolicyAllRequired       = "all_required"
	InsigniaPolicyWeightedThreshold = "weighted_threshold"
)

const (
	OperatorGTE = "gte"
	OperatorGT  = "gt"
	OperatorEQ  = "eq"
	OperatorLTE = "lte"
	OperatorLT  = "lt"
)

type Insignia struct {
	ID          string    `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Description string    `db:"description" json:"description"`
	Policy      string    `db:"policy" json:"policy"`
	Threshold   float64   `db:"threshold" json:"threshold"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`

	Criteria []*Criterion `db:"-" json:"criteria,omitempty"`
}

// Criterion is a weighted threshold condition over a named metric.
type Criterion struct {
	ID            string  `db:"id" json:"id"`
	InsigniaID    string  `db:"insignia_id" json:"insignia_id"`
	CriterionType string  `db:"criterion_type" json:"criterion_type"`
	CriterionKey  string  `db:"criterion_key" json:"criterion_key"`
	Operator      string  `db:"operator" json:"operator"`
	TargetValue   float64 `db:"target_value" json:"target_value"`
	Weight        float64 `db:"weight" json:"weight"`
}

type UserInsignia struct {
	UserID     string    `db:"user_id" json:"user_id"`
	InsigniaID string    `db:"insignia_id" json:"insignia_id"`
	GoalID     *string   `db:"goal_id" json:"goal_id,omitempty"`
	AwardedAt  time.Time `db:"awarded_at" json:"awarded_at"`
}
