package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/gameia/engine/internal/model"
)

const (
	GoalSortRecent   = "recent"
	GoalSortProgress = "progress"
	GoalSortEnding   = "ending"
	GoalSortTitle    = "title"
)

var (
	ErrGoalNotFound    = errors.New("goal not found")
	ErrVersionConflict = errors.New("goal was modified concurrently")
	ErrAlreadySettled  = errors.New("goal already settled")
)

type GoalRepository interface {
	Create(ctx context.Context, goal *model.Goal) error
	ByID(ctx context.Context, goalID string) (*model.Goal, error)
	Goals(ctx context.Context, filter model.GoalFilter) ([]*model.Goal, error)
	ByStatus(ctx context.Context, status string) ([]*model.Goal, error)
	Unsettled(ctx context.Context) ([]*model.Goal, error)
	Update(ctx context.Context, goal *model.Goal) error
	MarkSettled(ctx context.Context, goal *model.Goal) error
}

type goalRepository struct {
	db DBTX
}

func NewGoalRepository(db DBTX) GoalRepository {
	return &goalRepository{db: db}
}

const goalColumns = `id, creator_id, title, description, scope, source, status, current_value, target_value,
	starts_at, ends_at, reward_type, insignia_id, xp_reward, coins_reward, supporter_multiplier,
	supporters_count, total_staked, settled_at, version, created_at, updated_at`

func (r *goalRepository) Create(ctx context.Context, goal *model.Goal) error {
	query := `INSERT INTO goals (` + goalColumns + `)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22)`

	_, err := r.db.ExecContext(ctx, query,
		goal.ID,
		goal.CreatorID,
		goal.Title,
		goal.Description,
		goal.Scope,
		goal.Source,
		goal.Status,
		goal.CurrentValue,
		goal.TargetValue,
		goal.StartsAt,
		goal.EndsAt,
		goal.RewardType,
		goal.InsigniaID,
		goal.XPReward,
		goal.CoinsReward,
		goal.SupporterMultiplier,
		goal.SupportersCount,
		goal.TotalStaked,
		goal.SettledAt,
		goal.Version,
		goal.CreatedAt,
		goal.UpdatedAt,
	)

	return err
}

func (r *goalRepository) ByID(ctx context.Context, goalID string) (*model.Goal, error) {
	goal := &model.Goal{}
	query := `SELECT ` + goalColumns + ` FROM goals WHERE id = $1`

	err := r.db.GetContext(ctx, goal, query, goalID)
	if err == sql.ErrNoRows {
		return nil, ErrGoalNotFound
	}
	if err != nil {
		return nil, err
	}

	return goal, nil
}

func (r *goalRepository) Goals(ctx context.Context, filter model.GoalFilter) ([]*model.Goal, error) {
	var (
		where []string
		args  []any
	)

	add := func(clause string, arg any) {
		args = append(args, arg)
		where = append(where, fmt.Sprintf(clause, len(args)))
	}

	if filter.Scope != "" {
		add("scope = $%d", filter.Scope)
	}
	if filter.Status != "" {
		add("status = $%d", filter.Status)
	}
	if filter.Source != "" {
		add("source = $%d", filter.Source)
	}
	if filter.CreatorID != "" {
		add("creator_id = $%d", filter.CreatorID)
	}
	if filter.UserID != "" {
		add("id IN (SELECT goal_id FROM goal_participants WHERE user_id = $%d)", filter.UserID)
	}

	// Validate and build ORDER BY clause
	var orderBy string
	switch filter.Sort {
	case GoalSortProgress:
		orderBy = "ORDER BY current_value / target_value DESC, updated_at DESC"
	case GoalSortEnding:
		orderBy = "ORDER BY ends_at ASC"
	case GoalSortTitle:
		orderBy = "ORDER BY LOWER(title) ASC"
	default: // GoalSortRecent or empty
		orderBy = "ORDER BY updated_at DESC"
	}

	query := `SELECT ` + goalColumns + ` FROM goals`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ` + orderBy

	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	var goals []*model.Goal
	err := r.db.SelectContext(ctx, &goals, query, args...)
	if err != nil {
		return nil, err
	}

	return goals, nil
}

func (r *goalRepository) ByStatus(ctx context.Context, status string) ([]*model.Goal, error) {
	var goals []*model.Goal
	query := `SELECT ` + goalColumns + ` FROM goals WHERE status = $1 ORDER BY ends_at ASC`

	err := r.db.SelectContext(ctx, &goals, query, status)
	if err != nil {
		return nil, err
	}

	return goals, nil
}

// Unsettled returns goals in a terminal state whose settlement has not been applied.
func (r *goalRepository) Unsettled(ctx context.Context) ([]*model.Goal, error) {
	var goals []*model.Goal
	query := `SELECT ` + goalColumns + ` FROM goals
	          WHERE status IN ($1, $2, $3) AND settled_at IS NULL
	          ORDER BY updated_at ASC`

	err := r.db.SelectContext(ctx, &goals, query,
		model.GoalStatusCompleted,
		model.GoalStatusFailed,
		model.GoalStatusCancelled,
	)
	if err != nil {
		return nil, err
	}

	return goals, nil
}

// Update writes the mutable goal fields if the stored version still matches
// goal.Version, then bumps goal.Version. A stale version yields ErrVersionConflict.
func (r *goalRepository) Update(ctx context.Context, goal *model.Goal) error {
	query := `UPDATE goals
	          SET title = $1, description = $2, status = $3, current_value = $4,
	              supporter_multiplier = $5, supporters_count = $6, total_staked = $7,
	              version = version + 1, updated_at = $8
	          WHERE id = $9 AND version = $10`

	result, err := r.db.ExecContext(ctx, query,
		goal.Title,
		goal.Description,
		goal.Status,
		goal.CurrentValue,
		goal.SupporterMultiplier,
		goal.SupportersCount,
		goal.TotalStaked,
		goal.UpdatedAt,
		goal.ID,
		goal.Version,
	)
	if err != nil {
		return err
	}

	rows, err := rowsAffected(result)
	if err != nil {
		return err
	}

	if rows == 0 {
		_, err := r.ByID(ctx, goal.ID)
		if err != nil {
			return err
		}
		return ErrVersionConflict
	}

	goal.Version++
	return nil
}

// MarkSettled sets the settlement flag once. A second call yields ErrAlreadySettled.
func (r *goalRepository) MarkSettled(ctx context.Context, goal *model.Goal) error {
	query := `UPDATE goals SET settled_at = $1 WHERE id = $2 AND settled_at IS NULL`

	result, err := r.db.ExecContext(ctx, query, goal.SettledAt, goal.ID)
	if err != nil {
		return err
	}

	rows, err := rowsAffected(result)
	if err != nil {
		return err
	}

	if rows == 0 {
		return ErrAlreadySettled
	}

	return nil
}
