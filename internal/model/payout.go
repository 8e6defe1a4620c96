package model

import (
	"time"
)

const (
	SettlementOutcomeCompleted = "completed"
	SettlementOutcomeFailed    = "failed"
	SettlementOutcomeCancelled = "cancelled"
)

// Payout summarises what a settlement credited or forfeited.
type Payout struct {
	GoalID       string              `json:"goal_id"`
	Outcome      string              `json:"outcome"`
	Multiplier   float64             `json:"multiplier"`
	Participants []ParticipantPayout `json:"participants"`
	Supporters   []SupporterPayout   `json:"supporters"`
	BonusPool    int64               `json:"bonus_pool"`
	Forfeited    int64               `json:"forfeited"`
	SettledAt    time.Time           `json:"settled_at"`
}

type ParticipantPayout struct {
	UserID     string `json:"user_id"`
	XP         int64  `json:"xp"`
	Coins      int64  `json:"coins"`
	InsigniaID string `json:"insignia_id,omitempty"`
}

type SupporterPayout struct {
	UserID   string `json:"user_id"`
	Staked   int64  `json:"staked"`
	Refunded int64  `json:"refunded"`
	Bonus    int64  `json:"bonus"`
}

// Settlement is the persisted record of an applied payout.
type Settlement struct {
	GoalID     string    `db:"goal_id"`
	Outcome    string    `db:"outcome"`
	Multiplier float64   `db:"multiplier"`
	Payout     string    `db:"payout"`
	SettledAt  time.Time `db:"settled_at"`
}
