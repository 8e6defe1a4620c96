package model

import (
	"time"
)

const (
	ProgressSourceAutomatic = "automatic"
	ProgressSourceManual    = "manual"
)

// ProgressLog is an append-only audit record of a single accepted progress update.
// Seq orders entries per goal in acceptance order.
type ProgressLog struct {
	ID            string    `db:"id" json:"id"`
	GoalID        string    `db:"goal_id" json:"goal_id"`
	Seq           int64     `db:"seq" json:"seq"`
	PreviousValue float64   `db:"previous_value" json:"previous_value"`
	NewValue      float64   `db:"new_value" json:"new_value"`
	ChangeAmount  float64   `db:"change_amount" json:"change_amount"`
	Source        string    `db:"source" json:"source"`
	LoggerID      string    `db:"logger_id" json:"logger_id"`
	Note          string    `db:"note" json:"note"`
	LargeSwing    bool      `db:"large_swing" json:"large_swing"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}
