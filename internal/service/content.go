package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/gameia/engine/internal/markdown"
	"github.com/gameia/engine/internal/model"
	"github.com/gameia/engine/internal/repository"
	"github.com/gameia/engine/internal/validation"
	"github.com/google/uuid"
)

type CreateContentInput struct {
	ModuleID    string          `json:"module_id" validate:"required,max=100"`
	Title       string          `json:"title" validate:"required,max=200"`
	ContentType string          `json:"content_type" validate:"required,oneof=video text quiz pdf link"`
	Position    int             `json:"position" validate:"gte=0"`
	Data        json.RawMessage `json:"data" validate:"required"`
}

// contentMeta is the frontmatter of an importable content file. Text items
// take their body from the markdown; other types describe it under data.
type contentMeta struct {
	Title    string         `yaml:"title"`
	Type     string         `yaml:"type"`
	Position int            `yaml:"position"`
	Data     map[string]any `yaml:"data"`
}

type ContentService struct {
	store       *repository.Store
	parser      *markdown.Parser
	contentPath string
	now         func() time.Time
}

func NewContentService(store *repository.Store, contentPath string) *ContentService {
	return &ContentService{
		store:       store,
		parser:      markdown.NewParser(),
		contentPath: contentPath,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Create decodes and validates the variant for the content type before storing it.
// Text content gets its HTML rendered from markdown.
func (s *ContentService) Create(ctx context.Context, input CreateContentInput) (*model.TrainingContent, error) {
	err := validation.Struct(input)
	if err != nil {
		return nil, err
	}

	body, err := model.DecodeContent(input.ContentType, input.Data)
	if err != nil {
		return nil, validation.Field("data", err.Error())
	}

	err = validation.Struct(body)
	if err != nil {
		var verr *validation.Error
		if errors.As(err, &verr) {
			fields := make(map[string]string, len(verr.Fields))
			for k, v := range verr.Fields {
				fields["data."+k] = v
			}
			return nil, &validation.Error{Fields: fields}
		}
		return nil, err
	}

	switch b := body.(type) {
	case *model.QuizContent:
		if !b.AnswersValid() {
			return nil, validation.Field("data.questions", "answer must index an option")
		}
	case *model.TextContent:
		b.HTML, err = s.parser.Render([]byte(b.Markdown))
		if err != nil {
			return nil, fmt.Errorf("failed to render markdown: %w", err)
		}
	}

	data, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	content := &model.TrainingContent{
		ID:          uuid.New().String(),
		ModuleID:    input.ModuleID,
		Title:       input.Title,
		ContentType: input.ContentType,
		Position:    input.Position,
		ContentData: string(data),
		CreatedAt:   s.now(),
		Body:        body,
	}

	err = s.store.Contents.Create(ctx, content)
	if err != nil {
		return nil, fmt.Errorf("failed to create content: %w", err)
	}

	return content, nil
}

// ByModule returns a module's contents in position order with bodies decoded.
func (s *ContentService) ByModule(ctx context.Context, moduleID string) ([]*model.TrainingContent, error) {
	contents, err := s.store.Contents.ByModule(ctx, moduleID)
	if err != nil {
		return nil, err
	}

	for _, c := range contents {
		c.Body, err = model.DecodeContent(c.ContentType, []byte(c.ContentData))
		if err != nil {
			return nil, fmt.Errorf("content %s: %w", c.ID, err)
		}
	}

	return contents, nil
}

// ImportModule loads every markdown file under <contentPath>/<moduleID> as
// module content. Files are imported in name order; a frontmatter position
// overrides it.
func (s *ContentService) ImportModule(ctx context.Context, moduleID string) ([]*model.TrainingContent, error) {
	pattern := filepath.Join(s.contentPath, moduleID, "*.md")
	files, err := filepath.Glob(pattern)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no content files match %s", pattern)
	}
	sort.Strings(files)

	var imported []*model.TrainingContent
	for i, file := range files {
		input, err := s.readContentFile(file, moduleID, i)
		if err != nil {
			return imported, err
		}

		content, err := s.Create(ctx, *input)
		if err != nil {
			return imported, fmt.Errorf("%s: %w", filepath.Base(file), err)
		}
		imported = append(imported, content)
	}

	slog.Info("content module imported", "module_id", moduleID, "items", len(imported))
	return imported, nil
}

func (s *ContentService) readContentFile(path, moduleID string, index int) (*CreateContentInput, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	meta := contentMeta{Type: model.ContentTypeText, Position: index}
	_, err = s.parser.Parse(source, &meta)
	if err != nil {
		return nil, fmt.Errorf("%s: invalid frontmatter: %w", filepath.Base(path), err)
	}

	if meta.Title == "" {
		meta.Title = strings.TrimSuffix(filepath.Base(path), ".md")
	}

	var data []byte
	if meta.Type == model.ContentTypeText {
		data, err = json.Marshal(model.TextContent{Markdown: string(markdown.Body(source))})
	} else {
		data, err = json.Marshal(meta.Data)
	}
	if err != nil {
		return nil, err
	}

	return &CreateContentInput{
		ModuleID:    moduleID,
		Title:       meta.Title,
		ContentType: meta.Type,
		Position:    meta.Position,
		Data:        data,
	}, nil
}
