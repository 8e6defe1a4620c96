package service

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gameia/engine/internal/model"
)

func TestContentCreateAndList(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	s := NewContentService(env.store, t.TempDir())

	_, err := s.Create(ctx, CreateContentInput{
		ModuleID:    "onboarding",
		Title:       "Welcome",
		ContentType: model.ContentTypeText,
		Position:    1,
		Data:        json.RawMessage(`{"markdown":"# Welcome\n\nGlad you're here."}`),
	})
	if err != nil {
		t.Fatalf("create text: %v", err)
	}

	_, err = s.Create(ctx, CreateContentInput{
		ModuleID:    "onboarding",
		Title:       "Intro video",
		ContentType: model.ContentTypeVideo,
		Position:    0,
		Data:        json.RawMessage(`{"url":"https://cdn.example.com/intro.mp4","duration_seconds":95}`),
	})
	if err != nil {
		t.Fatalf("create video: %v", err)
	}

	contents, err := s.ByModule(ctx, "onboarding")
	if err != nil {
		t.Fatalf("ByModule: %v", err)
	}
	if len(contents) != 2 {
		t.Fatalf("got %d contents, want 2", len(contents))
	}

	video, ok := contents[0].Body.(*model.VideoContent)
	if !ok || video.DurationSeconds != 95 {
		t.Errorf("first item should be the video: %+v", contents[0].Body)
	}
	text, ok := contents[1].Body.(*model.TextContent)
	if !ok || !strings.Contains(text.HTML, "<h1") {
		t.Errorf("text html not rendered: %+v", contents[1].Body)
	}
}

func TestContentCreateRejectsBadData(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	s := NewContentService(env.store, t.TempDir())

	tests := []struct {
		name        string
		contentType string
		data        string
		field       string
	}{
		{"unknown type", "hologram", `{}`, "content_type"},
		{"unknown field", model.ContentTypeLink, `{"url":"https://x.dev","colour":"red"}`, "data"},
		{"bad url", model.ContentTypePDF, `{"url":"not a url"}`, "data.url"},
		{"quiz answer out of range", model.ContentTypeQuiz,
			`{"questions":[{"prompt":"2+2?","options":["3","4"],"answer":2}],"passing_score":50}`, "data.questions"},
		{"quiz without questions", model.ContentTypeQuiz, `{"questions":[],"passing_score":50}`, "data.questions"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Create(ctx, CreateContentInput{
				ModuleID:    "m1",
				Title:       "Item",
				ContentType: tt.contentType,
				Data:        json.RawMessage(tt.data),
			})
			if !isValidation(err) {
				t.Fatalf("expected validation error, got %v", err)
			}
			if _, ok := err.(*ValidationError).Fields[tt.field]; !ok {
				t.Errorf("expected error on %s, got %v", tt.field, err)
			}
		})
	}
}

func TestImportModule(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	dir := t.TempDir()
	moduleDir := filepath.Join(dir, "safety")
	if err := os.MkdirAll(moduleDir, 0o755); err != nil {
		t.Fatal(err)
	}

	files := map[string]string{
		"01-intro.md": "---\ntitle: Safety basics\n---\n# Stay safe\n\nAlways wear gloves.\n",
		"02-quiz.md": "---\ntitle: Safety quiz\ntype: quiz\ndata:\n  passing_score: 70\n  questions:\n" +
			"    - prompt: Gloves?\n      options: [\"yes\", \"no\"]\n      answer: 0\n---\n",
		"03-link.md": "---\ntype: link\nposition: 9\ndata:\n  url: https://example.com/manual\n  label: Manual\n---\n",
	}
	for name, body := range files {
		if err := os.WriteFile(filepath.Join(moduleDir, name), []byte(body), 0o600); err != nil {
			t.Fatal(err)
		}
	}

	s := NewContentService(env.store, dir)
	imported, err := s.ImportModule(ctx, "safety")
	if err != nil {
		t.Fatalf("ImportModule: %v", err)
	}
	if len(imported) != 3 {
		t.Fatalf("imported %d, want 3", len(imported))
	}

	contents, err := s.ByModule(ctx, "safety")
	if err != nil {
		t.Fatal(err)
	}

	text, ok := contents[0].Body.(*model.TextContent)
	if !ok || contents[0].Title != "Safety basics" || strings.Contains(text.Markdown, "title:") {
		t.Errorf("unexpected text item: %+v %+v", contents[0], contents[0].Body)
	}
	quiz, ok := contents[1].Body.(*model.QuizContent)
	if !ok || quiz.PassingScore != 70 || len(quiz.Questions[0].Options) != 2 {
		t.Errorf("unexpected quiz item: %+v", contents[1].Body)
	}
	if contents[2].Title != "03-link" || contents[2].Position != 9 {
		t.Errorf("unexpected link item: %+v", contents[2])
	}
}
