package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// DBTX is satisfied by both *sqlx.DB and *sqlx.Tx so repositories can run
// inside or outside a transaction.
type DBTX interface {
	sqlx.ExtContext
	GetContext(ctx context.Context, dest any, query string, args ...any) error
	SelectContext(ctx context.Context, dest any, query string, args ...any) error
}

// Repositories bundles every repository bound to the same DBTX.
type Repositories struct {
	Goals        GoalRepository
	Participants ParticipantRepository
	Supporters   SupporterRepository
	ProgressLogs ProgressLogRepository
	Ledger       LedgerRepository
	Settlements  SettlementRepository
	Insignias    InsigniaRepository
	Contents     ContentRepository
}

func newRepositories(q DBTX) *Repositories {
	return &Repositories{
		Goals:        NewGoalRepository(q),
		Participants: NewParticipantRepository(q),
		Supporters:   NewSupporterRepository(q),
		ProgressLogs: NewProgressLogRepository(q),
		Ledger:       NewLedgerRepository(q),
		Settlements:  NewSettlementRepository(q),
		Insignias:    NewInsigniaRepository(q),
		Contents:     NewContentRepository(q),
	}
}

// Store exposes repositories on the pool and runs transactional units of work.
type Store struct {
	*Repositories
	db *sqlx.DB
}

func NewStore(db *sqlx.DB) *Store {
	return &Store{
		Repositories: newRepositories(db),
		db:           db,
	}
}

// InTx runs fn with repositories bound to a single transaction. The transaction
// commits when fn returns nil and rolls back otherwise, so a failed operation
// leaves no partial writes behind. fn must not use the Store's own repositories:
// with SQLite's single connection that would deadlock.
func (s *Store) InTx(ctx context.Context, fn func(r *Repositories) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	err = fn(newRepositories(tx))
	if err != nil {
		return err
	}

	err = tx.Commit()
	if err != nil && err != sql.ErrTxDone {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func rowsAffected(result sql.Result) (int64, error) {
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	return rows, nil
}
