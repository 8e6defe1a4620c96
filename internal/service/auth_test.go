package service

import (
	"errors"
	"testing"
	"time"

	"github.com/gameia/engine/internal/model"
)

func TestJWTRoundTrip(t *testing.T) {
	s := NewAuthService("test-secret", time.Hour)

	token, err := s.GenerateJWT(model.Actor{UserID: "u1", Role: model.RoleAdmin})
	if err != nil {
		t.Fatalf("GenerateJWT: %v", err)
	}

	actor, err := s.VerifyJWT(token)
	if err != nil {
		t.Fatalf("VerifyJWT: %v", err)
	}
	if actor.UserID != "u1" || !actor.IsAdmin() {
		t.Errorf("unexpected actor: %+v", actor)
	}
}

func TestVerifyJWTRejects(t *testing.T) {
	s := NewAuthService("test-secret", time.Hour)
	other := NewAuthService("other-secret", time.Hour)
	expired := NewAuthService("test-secret", -time.Minute)

	foreign, _ := other.GenerateJWT(model.Actor{UserID: "u1", Role: model.RoleUser})
	stale, _ := expired.GenerateJWT(model.Actor{UserID: "u1", Role: model.RoleUser})
	badRole, _ := s.GenerateJWT(model.Actor{UserID: "u1", Role: "root"})
	noUser, _ := s.GenerateJWT(model.Actor{Role: model.RoleUser})

	tests := map[string]string{
		"garbage":      "not-a-token",
		"wrong secret": foreign,
		"expired":      stale,
		"unknown role": badRole,
		"missing user": noUser,
	}

	for name, token := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := s.VerifyJWT(token)
			if !errors.Is(err, ErrInvalidToken) {
				t.Errorf("expected ErrInvalidToken, got %v", err)
			}
		})
	}
}
