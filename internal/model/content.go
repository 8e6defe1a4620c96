package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

const (
	ContentTypeVideo = "video"
	ContentTypeText  = "text"
	ContentTypeQuiz  = "quiz"
	ContentTypePDF   = "pdf"
	ContentTypeLink  = "link"
)

var ErrUnknownContentType = errors.New("unknown content type")

// TrainingContent is one item of a training module. ContentData holds the JSON
// encoding of Body, whose concrete type is selected by ContentType.
type TrainingContent struct {
	ID          string    `db:"id" json:"id"`
	ModuleID    string    `db:"module_id" json:"module_id"`
	Title       string    `db:"title" json:"title"`
	ContentType string    `db:"content_type" json:"content_type"`
	Position    int       `db:"position" json:"position"`
	ContentData string    `db:"content_data" json:"-"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`

	Body ContentBody `db:"-" json:"body"`
}

// ContentBody is implemented by every content variant.
type ContentBody interface {
	ContentType() string
}

type VideoContent struct {
	URL             string `json:"url" validate:"required,url"`
	DurationSeconds int    `json:"duration_seconds" validate:"gte=0"`
}

type TextContent struct {
	Markdown string `json:"markdown" validate:"required"`
	HTML     string `json:"html,omitempty"`
}

type QuizContent struct {
	Questions    []QuizQuestion `json:"questions" validate:"required,min=1,dive"`
	PassingScore int            `json:"passing_score" validate:"gte=0,lte=100"`
}

type QuizQuestion struct {
	Prompt  string   `json:"prompt" validate:"required"`
	Options []string `json:"options" validate:"required,min=2,dive,required"`
	Answer  int      `json:"answer" validate:"gte=0"`
}

type PDFContent struct {
	URL   string `json:"url" validate:"required,url"`
	Pages int    `json:"pages" validate:"gte=0"`
}

type LinkContent struct {
	URL   string `json:"url" validate:"required,url"`
	Label string `json:"label"`
}

func (VideoContent) ContentType() string { return ContentTypeVideo }
func (TextContent) ContentType() string  { return ContentTypeText }
func (QuizContent) ContentType() string  { return ContentTypeQuiz }
func (PDFContent) ContentType() string   { return ContentTypePDF }
func (LinkContent) ContentType() string  { return ContentTypeLink }

// DecodeContent decodes raw content data into the variant for contentType.
// Unknown fields are rejected.
func DecodeContent(contentType string, data []byte) (ContentBody, error) {
	var body ContentBody
	switch contentType {
	case ContentTypeVideo:
		body = &VideoContent{}
	case ContentTypeText:
		body = &TextContent{}
	case ContentTypeQuiz:
		body = &QuizContent{}
	case ContentTypePDF:
		body = &PDFContent{}
	case ContentTypeLink:
		body = &LinkContent{}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownContentType, contentType)
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	err := dec.Decode(body)
	if err != nil {
		return nil, fmt.Errorf("invalid %s content: %w", contentType, err)
	}

	return body, nil
}

// AnswersValid reports whether every question's answer points at an option.
func (q *QuizContent) AnswersValid() bool {
	for _, question := range q.Questions {
		if question.Answer >= len(question.Options) {
			return false
		}
	}
	return true
}
