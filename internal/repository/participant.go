package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/gameia/engine/internal/model"
)

var (
	ErrAlreadyParticipant  = errors.New("user already participates in goal")
	ErrParticipantNotFound = errors.New("participant not found")
)

type ParticipantRepository interface {
	Add(ctx context.Context, p *model.Participant) error
	Remove(ctx context.Context, goalID, userID string) error
	Participant(ctx context.Context, goalID, userID string) (*model.Participant, error)
	Participants(ctx context.Context, goalID string) ([]*model.Participant, error)
	Count(ctx context.Context, goalID string) (int, error)
	MarkContributed(ctx context.Context, goalID, userID string) error
}

type participantRepository struct {
	db DBTX
}

func NewParticipantRepository(db DBTX) ParticipantRepository {
	return &participantRepository{db: db}
}

// Add inserts the relation; a second join by the same user yields ErrAlreadyParticipant.
func (r *participantRepository) Add(ctx context.Context, p *model.Participant) error {
	query := `INSERT INTO goal_participants (goal_id, user_id, contributed, joined_at)
	          VALUES ($1, $2, $3, $4)
	          ON CONFLICT (goal_id, user_id) DO NOTHING`

	result, err := r.db.ExecContext(ctx, query, p.GoalID, p.UserID, p.Contributed, p.JoinedAt)
	if err != nil {
		return err
	}

	rows, err := rowsAffected(result)
	if err != nil {
		return err
	}

	if rows == 0 {
		return ErrAlreadyParticipant
	}

	return nil
}

func (r *participantRepository) Remove(ctx context.Context, goalID, userID string) error {
	query := `DELETE FROM goal_participants WHERE goal_id = $1 AND user_id = $2`

	result, err := r.db.ExecContext(ctx, query, goalID, userID)
	if err != nil {
		return err
	}

	rows, err := rowsAffected(result)
	if err != nil {
		return err
	}

	if rows == 0 {
		return ErrParticipantNotFound
	}

	return nil
}

func (r *participantRepository) Participant(ctx context.Context, goalID, userID string) (*model.Participant, error) {
	participant := &model.Participant{}
	query := `SELECT goal_id, user_id, contributed, joined_at FROM goal_participants WHERE goal_id = $1 AND user_id = $2`

	err := r.db.GetContext(ctx, participant, query, goalID, userID)
	if err == sql.ErrNoRows {
		return nil, ErrParticipantNotFound
	}
	if err != nil {
		return nil, err
	}

	return participant, nil
}

func (r *participantRepository) Participants(ctx context.Context, goalID string) ([]*model.Participant, error) {
	var participants []*model.Participant
	query := `SELECT goal_id, user_id, contributed, joined_at FROM goal_participants
	          WHERE goal_id = $1 ORDER BY joined_at ASC, user_id ASC`

	err := r.db.SelectContext(ctx, &participants, query, goalID)
	if err != nil {
		return nil, err
	}

	return participants, nil
}

func (r *participantRepository) Count(ctx context.Context, goalID string) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM goal_participants WHERE goal_id = $1`
	err := r.db.GetContext(ctx, &count, query, goalID)
	return count, err
}

func (r *participantRepository) MarkContributed(ctx context.Context, goalID, userID string) error {
	query := `UPDATE goal_participants SET contributed = $1 WHERE goal_id = $2 AND user_id = $3`
	_, err := r.db.ExecContext(ctx, query, true, goalID, userID)
	return err
}
