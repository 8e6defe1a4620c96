package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/gameia/engine/internal/model"
)

var (
	ErrInsufficientFunds = errors.New("insufficient coins")
)

// LedgerRepository applies balance mutations as single atomic statements.
type LedgerRepository interface {
	Balance(ctx context.Context, userID string) (*model.UserBalance, error)
	Credit(ctx context.Context, userID string, coins, xp int64, at time.Time) error
	Debit(ctx context.Context, userID string, coins int64, at time.Time) error
	AddEntry(ctx context.Context, entry *model.LedgerEntry) error
	Entries(ctx context.Context, userID string, limit int) ([]*model.LedgerEntry, error)
}

type ledgerRepository struct {
	db DBTX
}

func NewLedgerRepository(db DBTX) LedgerRepository {
	return &ledgerRepository{db: db}
}

// Balance returns the user's balance, or a zero balance if none was ever credited.
func (r *ledgerRepository) Balance(ctx context.Context, userID string) (*model.UserBalance, error) {
	balance := &model.UserBalance{}
	query := `SELECT user_id, coins, xp, updated_at FROM user_balances WHERE user_id = $1`

	err := r.db.GetContext(ctx, balance, query, userID)
	if err == sql.ErrNoRows {
		return &model.UserBalance{UserID: userID}, nil
	}
	if err != nil {
		return nil, err
	}

	return balance, nil
}

// Credit increments coins and XP, creating the balance row on first use.
func (r *ledgerRepository) Credit(ctx context.Context, userID string, coins, xp int64, at time.Time) error {
	query := `INSERT INTO user_balances (user_id, coins, xp, updated_at)
	          VALUES ($1, $2, $3, $4)
	          ON CONFLICT (user_id) DO UPDATE
	          SET coins = user_balances.coins + excluded.coins,
	              xp = user_balances.xp + excluded.xp,
	              updated_at = excluded.updated_at`

	_, err := r.db.ExecContext(ctx, query, userID, coins, xp, at)
	return err
}

// Debit removes coins only if the balance covers them. The check and the
// decrement are one statement, so concurrent debits cannot overdraw.
func (r *ledgerRepository) Debit(ctx context.Context, userID string, coins int64, at time.Time) error {
	query := `UPDATE user_balances
	          SET coins = coins - $1, updated_at = $2
	          WHERE user_id = $3 AND coins >= $1`

	result, err := r.db.ExecContext(ctx, query, coins, at, userID)
	if err != nil {
		return err
	}

	rows, err := rowsAffected(result)
	if err != nil {
		return err
	}

	if rows == 0 {
		return ErrInsufficientFunds
	}

	return nil
}

func (r *ledgerRepository) AddEntry(ctx context.Context, entry *model.LedgerEntry) error {
	query := `INSERT INTO ledger_entries (id, user_id, kind, coins_delta, xp_delta, goal_id, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.db.ExecContext(ctx, query,
		entry.ID,
		entry.UserID,
		entry.Kind,
		entry.CoinsDelta,
		entry.XPDelta,
		entry.GoalID,
		entry.CreatedAt,
	)
	return err
}

func (r *ledgerRepository) Entries(ctx context.Context, userID string, limit int) ([]*model.LedgerEntry, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	var entries []*model.LedgerEntry
	query := `SELECT id, user_id, kind, coins_delta, xp_delta, goal_id, created_at
	          FROM ledger_entries WHERE user_id = $1
	          ORDER BY created_at DESC LIMIT $2`

	err := r.db.SelectContext(ctx, &entries, query, userID, limit)
	if err != nil {
		return nil, err
	}

	return entries, nil
}
