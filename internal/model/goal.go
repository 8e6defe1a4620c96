package model

import (
	"time"
)

const (
	GoalStatusDraft     = "draft"
	GoalStatusActive    = "active"
	GoalStatusCompleted = "completed"
	GoalStatusFailed    = "failed"
	GoalStatusCancelled = "cancelled"
)

const (
	GoalScopePersonal = "personal"
	GoalScopeTeam     = "team"
	GoalScopeGlobal   = "global"
)

// Internal goals are fed by automatically tracked metrics, external goals by manual input.
const (
	GoalSourceInternal = "internal"
	GoalSourceExternal = "external"
)

const (
	RewardTypeCoins    = "coins"
	RewardTypeXP       = "xp"
	RewardTypeBoth     = "both"
	RewardTypeInsignia = "insignia"
)

// Goal unifies challenges and commitments.
type Goal struct {
	ID                  string     `db:"id" json:"id"`
	CreatorID           string     `db:"creator_id" json:"creator_id"`
	Title               string     `db:"title" json:"title"`
	Description         string     `db:"description" json:"description"`
	Scope               string     `db:"scope" json:"scope"`
	Source              string     `db:"source" json:"source"`
	Status              string     `db:"status" json:"status"`
	CurrentValue        float64    `db:"current_value" json:"current_value"`
	TargetValue         float64    `db:"target_value" json:"target_value"`
	StartsAt            time.Time  `db:"starts_at" json:"starts_at"`
	EndsAt              time.Time  `db:"ends_at" json:"ends_at"`
	RewardType          string     `db:"reward_type" json:"reward_type"`
	InsigniaID          *string    `db:"insignia_id" json:"insignia_id,omitempty"`
	XPReward            int64      `db:"xp_reward" json:"xp_reward"`
	CoinsReward         int64      `db:"coins_reward" json:"coins_reward"`
	SupporterMultiplier float64    `db:"supporter_multiplier" json:"supporter_multiplier"`
	SupportersCount     int        `db:"supporters_count" json:"supporters_count"`
	TotalStaked         int64      `db:"total_staked" json:"total_staked"`
	SettledAt           *time.Time `db:"settled_at" json:"settled_at,omitempty"`
	Version             int64      `db:"version" json:"version"`
	CreatedAt           time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time  `db:"updated_at" json:"updated_at"`

	// Computed fields (not in database)
	PercentComplete   int `db:"-" json:"percent_complete"`
	ParticipantsCount int `db:"-" json:"participants_count"`
}

// IsTerminal reports whether the goal reached a state that can no longer change.
func (g *Goal) IsTerminal() bool {
	return IsTerminalStatus(g.Status)
}

// IsSettled reports whether rewards or forfeitures were already applied.
func (g *Goal) IsSettled() bool {
	return g.SettledAt != nil
}

// Expired reports whether the goal deadline has passed at the given instant.
func (g *Goal) Expired(now time.Time) bool {
	return now.After(g.EndsAt)
}

func IsTerminalStatus(status string) bool {
	switch status {
	case GoalStatusCompleted, GoalStatusFailed, GoalStatusCancelled:
		return true
	}
	return false
}

// GoalFilter narrows goal listings. Empty fields do not filter.
type GoalFilter struct {
	Scope     string
	Status    string
	Source    string
	CreatorID string
	UserID    string // goals the user participates in
	Sort      string
	Limit     int
}
