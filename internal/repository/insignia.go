package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/gameia/engine/internal/model"
)

var (
	ErrInsigniaNotFound = errors.New("insignia not found")
)

type InsigniaRepository interface {
	Create(ctx context.Context, insignia *model.Insignia) error
	ByID(ctx context.Context, insigniaID string) (*model.Insignia, error)
	Award(ctx context.Context, award *model.UserInsignia) (bool, error)
	UserInsignias(ctx context.Context, userID string) ([]*model.UserInsignia, error)
}

type insigniaRepository struct {
	db DBTX
}

func NewInsigniaRepository(db DBTX) InsigniaRepository {
	return &insigniaRepository{db: db}
}

// Create inserts the insignia and its criteria. Run it inside a transaction.
func (r *insigniaRepository) Create(ctx context.Context, insignia *model.Insignia) error {
	query := `INSERT INTO insignias (id, name, description, policy, threshold, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.db.ExecContext(ctx, query,
		insignia.ID,
		insignia.Name,
		insignia.Description,
		insignia.Policy,
		insignia.Threshold,
		insignia.CreatedAt,
	)
	if err != nil {
		return err
	}

	criterionQuery := `INSERT INTO insignia_criteria (id, insignia_id, criterion_type, criterion_key, operator, target_value, weight)
	                   VALUES ($1, $2, $3, $4, $5, $6, $7)`

	for _, c := range insignia.Criteria {
		_, err := r.db.ExecContext(ctx, criterionQuery,
			c.ID,
			insignia.ID,
			c.CriterionType,
			c.CriterionKey,
			c.Operator,
			c.TargetValue,
			c.Weight,
		)
		if err != nil {
			return err
		}
	}

	return nil
}

func (r *insigniaRepository) ByID(ctx context.Context, insigniaID string) (*model.Insignia, error) {
	insignia := &model.Insignia{}
	query := `SELECT id, name, description, policy, threshold, created_at FROM insignias WHERE id = $1`

	err := r.db.GetContext(ctx, insignia, query, insigniaID)
	if err == sql.ErrNoRows {
		return nil, ErrInsigniaNotFound
	}
	if err != nil {
		return nil, err
	}

	criteriaQuery := `SELECT id, insignia_id, criterion_type, criterion_key, operator, target_value, weight
	                  FROM insignia_criteria WHERE insignia_id = $1 ORDER BY id ASC`

	err = r.db.SelectContext(ctx, &insignia.Criteria, criteriaQuery, insigniaID)
	if err != nil {
		return nil, err
	}

	return insignia, nil
}

// Award records the insignia for the user. It reports false if the user already held it.
func (r *insigniaRepository) Award(ctx context.Context, award *model.UserInsignia) (bool, error) {
	query := `INSERT INTO user_insignias (user_id, insignia_id, goal_id, awarded_at)
	          VALUES ($1, $2, $3, $4)
	          ON CONFLICT (user_id, insignia_id) DO NOTHING`

	result, err := r.db.ExecContext(ctx, query, award.UserID, award.InsigniaID, award.GoalID, award.AwardedAt)
	if err != nil {
		return false, err
	}

	rows, err := rowsAffected(result)
	if err != nil {
		return false, err
	}

	return rows > 0, nil
}

func (r *insigniaRepository) UserInsignias(ctx context.Context, userID string) ([]*model.UserInsignia, error) {
	var awards []*model.UserInsignia
	query := `SELECT user_id, insignia_id, goal_id, awarded_at FROM user_insignias
	          WHERE user_id = $1 ORDER BY awarded_at DESC`

	err := r.db.SelectContext(ctx, &awards, query, userID)
	if err != nil {
		return nil, err
	}

	return awards, nil
}
