package model

import (
	"time"
)

const (
	LedgerKindStake       = "stake"
	LedgerKindStakeRefund = "stake_refund"
	LedgerKindPoolBonus   = "pool_bonus"
	LedgerKindReward      = "reward"
	LedgerKindPurchase    = "purchase"
	LedgerKindGrant       = "grant"
)

// UserBalance is the authoritative coin and XP counter of a user.
type UserBalance struct {
	UserID    string    `db:"user_id" json:"user_id"`
	Coins     int64     `db:"coins" json:"coins"`
	XP        int64     `db:"xp" json:"xp"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// LedgerEntry records one balance mutation.
type LedgerEntry struct {
	ID         string    `db:"id" json:"id"`
	UserID     string    `db:"user_id" json:"user_id"`
	Kind       string    `db:"kind" json:"kind"`
	CoinsDelta int64     `db:"coins_delta" json:"coins_delta"`
	XPDelta    int64     `db:"xp_delta" json:"xp_delta"`
	GoalID     *string   `db:"goal_id" json:"goal_id,omitempty"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}
