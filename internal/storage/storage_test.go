package storage

import (
	"context"
	"strings"
	"testing"
)

func TestMemoryStorage(t *testing.T) {
	s := NewMemoryStorage()

	err := s.Save(context.Background(), "receipts/g1.json", "application/json", strings.NewReader(`{"goal_id":"g1"}`))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, ok := s.Get("receipts/g1.json")
	if !ok || string(got) != `{"goal_id":"g1"}` {
		t.Errorf("Get = %q, %v", got, ok)
	}
	if _, ok := s.Get("receipts/missing.json"); ok {
		t.Error("unexpected document for missing key")
	}
	if url := s.URL("receipts/g1.json"); url != "memory://receipts/g1.json" {
		t.Errorf("URL = %q", url)
	}
}

func TestLogStorage(t *testing.T) {
	s := NewLogStorage()

	err := s.Save(context.Background(), "receipts/g1.json", "application/json", strings.NewReader("{}"))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if url := s.URL("receipts/g1.json"); url != "log://receipts/g1.json" {
		t.Errorf("URL = %q", url)
	}
}
