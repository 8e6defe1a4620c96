package repository

import (
	"context"
	"errors"

	"github.com/gameia/engine/internal/model"
	"github.com/jackc/pgx/v5/pgconn"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

type ProgressLogRepository interface {
	Append(ctx context.Context, log *model.ProgressLog) error
	Logs(ctx context.Context, goalID string) ([]*model.ProgressLog, error)
}

type progressLogRepository struct {
	db DBTX
}

func NewProgressLogRepository(db DBTX) ProgressLogRepository {
	return &progressLogRepository{db: db}
}

// Append assigns the next per-goal sequence number and inserts the entry.
// Callers serialize appends per goal; an append that loses a race on
// UNIQUE (goal_id, seq) yields ErrVersionConflict.
func (r *progressLogRepository) Append(ctx context.Context, log *model.ProgressLog) error {
	var seq int64
	err := r.db.GetContext(ctx, &seq, `SELECT COALESCE(MAX(seq), 0) + 1 FROM progress_logs WHERE goal_id = $1`, log.GoalID)
	if err != nil {
		return err
	}

	query := `INSERT INTO progress_logs (id, goal_id, seq, previous_value, new_value, change_amount, source, logger_id, note, large_swing, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err = r.db.ExecContext(ctx, query,
		log.ID,
		log.GoalID,
		seq,
		log.PreviousValue,
		log.NewValue,
		log.ChangeAmount,
		log.Source,
		log.LoggerID,
		log.Note,
		log.LargeSwing,
		log.CreatedAt,
	)
	if isUniqueViolation(err) {
		return ErrVersionConflict
	}
	if err != nil {
		return err
	}

	log.Seq = seq
	return nil
}

func (r *progressLogRepository) Logs(ctx context.Context, goalID string) ([]*model.ProgressLog, error) {
	var logs []*model.ProgressLog
	query := `SELECT id, goal_id, seq, previous_value, new_value, change_amount, source, logger_id, note, large_swing, created_at
	          FROM progress_logs WHERE goal_id = $1 ORDER BY seq ASC`

	err := r.db.SelectContext(ctx, &logs, query, goalID)
	if err != nil {
		return nil, err
	}

	return logs, nil
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}

	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		return liteErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE
	}

	return false
}
