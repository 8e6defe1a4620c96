package repository

import (
	"context"
	"errors"

	"github.com/gameia/engine/internal/model"
)

var (
	ErrAlreadySupporter = errors.New("user already supports goal")
)

type SupporterRepository interface {
	Add(ctx context.Context, s *model.Supporter) error
	Supporters(ctx context.Context, goalID string) ([]*model.Supporter, error)
	Exists(ctx context.Context, goalID, userID string) (bool, error)
}

type supporterRepository struct {
	db DBTX
}

func NewSupporterRepository(db DBTX) SupporterRepository {
	return &supporterRepository{db: db}
}

func (r *supporterRepository) Add(ctx context.Context, s *model.Supporter) error {
	query := `INSERT INTO goal_supporters (goal_id, user_id, coins_staked, joined_at)
	          VALUES ($1, $2, $3, $4)
	          ON CONFLICT (goal_id, user_id) DO NOTHING`

	result, err := r.db.ExecContext(ctx, query, s.GoalID, s.UserID, s.CoinsStaked, s.JoinedAt)
	if err != nil {
		return err
	}

	rows, err := rowsAffected(result)
	if err != nil {
		return err
	}

	if rows == 0 {
		return ErrAlreadySupporter
	}

	return nil
}

// Supporters returns supporters in join order.
func (r *supporterRepository) Supporters(ctx context.Context, goalID string) ([]*model.Supporter, error) {
	var supporters []*model.Supporter
	query := `SELECT goal_id, user_id, coins_staked, joined_at FROM goal_supporters
	          WHERE goal_id = $1 ORDER BY joined_at ASC, user_id ASC`

	err := r.db.SelectContext(ctx, &supporters, query, goalID)
	if err != nil {
		return nil, err
	}

	return supporters, nil
}

func (r *supporterRepository) Exists(ctx context.Context, goalID, userID string) (bool, error) {
	var count int
	query := `SELECT COUNT(*) FROM goal_supporters WHERE goal_id = $1 AND user_id = $2`
	err := r.db.GetContext(ctx, &count, query, goalID, userID)
	return count > 0, err
}
