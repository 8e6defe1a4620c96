package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/gameia/engine/internal/model"
)

var (
	ErrSettlementNotFound = errors.New("settlement not found")
)

type SettlementRepository interface {
	Create(ctx context.Context, s *model.Settlement) error
	ByGoal(ctx context.Context, goalID string) (*model.Settlement, error)
}

type settlementRepository struct {
	db DBTX
}

func NewSettlementRepository(db DBTX) SettlementRepository {
	return &settlementRepository{db: db}
}

func (r *settlementRepository) Create(ctx context.Context, s *model.Settlement) error {
	query := `INSERT INTO settlements (goal_id, outcome, multiplier, payout, settled_at)
	          VALUES ($1, $2, $3, $4, $5)`

	_, err := r.db.ExecContext(ctx, query, s.GoalID, s.Outcome, s.Multiplier, s.Payout, s.SettledAt)
	return err
}

func (r *settlementRepository) ByGoal(ctx context.Context, goalID string) (*model.Settlement, error) {
	settlement := &model.Settlement{}
	query := `SELECT goal_id, outcome, multiplier, payout, settled_at FROM settlements WHERE goal_id = $1`

	err := r.db.GetContext(ctx, settlement, query, goalID)
	if err == sql.ErrNoRows {
		return nil, ErrSettlementNotFound
	}
	if err != nil {
		return nil, err
	}

	return settlement, nil
}
