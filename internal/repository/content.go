package repository

import (
	"context"

	"github.com/gameia/engine/internal/model"
)

type ContentRepository interface {
	Create(ctx context.Context, content *model.TrainingContent) error
	ByModule(ctx context.Context, moduleID string) ([]*model.TrainingContent, error)
}

type contentRepository struct {
	db DBTX
}

func NewContentRepository(db DBTX) ContentRepository {
	return &contentRepository{db: db}
}

func (r *contentRepository) Create(ctx context.Context, content *model.TrainingContent) error {
	query := `INSERT INTO training_contents (id, module_id, title, content_type, position, content_data, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.db.ExecContext(ctx, query,
		content.ID,
		content.ModuleID,
		content.Title,
		content.ContentType,
		content.Position,
		content.ContentData,
		content.CreatedAt,
	)
	return err
}

// ByModule returns the raw rows; decoding ContentData into Body is the caller's job.
func (r *contentRepository) ByModule(ctx context.Context, moduleID string) ([]*model.TrainingContent, error) {
	var contents []*model.TrainingContent
	query := `SELECT id, module_id, title, content_type, position, content_data, created_at
	          FROM training_contents WHERE module_id = $1 ORDER BY position ASC, created_at ASC`

	err := r.db.SelectContext(ctx, &contents, query, moduleID)
	if err != nil {
		return nil, err
	}

	return contents, nil
}
