package model

import (
	"time"
)

// Participant links a user to a goal they are working on.
type Participant struct {
	GoalID      string    `db:"goal_id" json:"goal_id"`
	UserID      string    `db:"user_id" json:"user_id"`
	Contributed bool      `db:"contributed" json:"contributed"`
	JoinedAt    time.Time `db:"joined_at" json:"joined_at"`
}

// Supporter is a user who staked coins on a goal without participating.
type Supporter struct {
	GoalID      string    `db:"goal_id" json:"goal_id"`
	UserID      string    `db:"user_id" json:"user_id"`
	CoinsStaked int64     `db:"coins_staked" json:"coins_staked"`
	JoinedAt    time.Time `db:"joined_at" json:"joined_at"`
}
