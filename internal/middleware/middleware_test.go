package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gameia/engine/internal/ctxkeys"
	"github.com/gameia/engine/internal/model"
)

type stubVerifier map[string]model.Actor

func (s stubVerifier) VerifyJWT(token string) (model.Actor, error) {
	actor, ok := s[token]
	if !ok {
		return model.Actor{}, errors.New("bad token")
	}
	return actor, nil
}

func TestAuthMiddleware(t *testing.T) {
	verifier := stubVerifier{
		"user-token":  {UserID: "u1", Role: model.RoleUser},
		"admin-token": {UserID: "a1", Role: model.RoleAdmin},
	}

	ok := func(w http.ResponseWriter, r *http.Request) {
		actor, _ := ctxkeys.Actor(r.Context())
		w.Write([]byte(actor.UserID))
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /me", RequireAuth(ok))
	mux.HandleFunc("GET /admin", RequireAdmin(ok))
	handler := Chain(mux, AuthMiddleware(verifier))

	tests := []struct {
		name   string
		path   string
		token  string
		status int
		body   string
	}{
		{"no token", "/me", "", http.StatusUnauthorized, ""},
		{"bad token", "/me", "forged", http.StatusUnauthorized, ""},
		{"user", "/me", "user-token", http.StatusOK, "u1"},
		{"user on admin route", "/admin", "user-token", http.StatusForbidden, ""},
		{"admin", "/admin", "admin-token", http.StatusOK, "a1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.token != "" {
				req.Header.Set("Authorization", "Bearer "+tt.token)
			}
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d", rec.Code, tt.status)
			}
			if tt.body != "" && rec.Body.String() != tt.body {
				t.Errorf("body = %q, want %q", rec.Body.String(), tt.body)
			}
		})
	}
}

func TestWriteErrorEscapesMessage(t *testing.T) {
	rec := httptest.NewRecorder()
	message := `token "abc" rejected\ here`

	writeError(rec, http.StatusUnauthorized, message)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}

	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON %q: %v", rec.Body.String(), err)
	}
	if body["error"] != message {
		t.Errorf("error = %q, want %q", body["error"], message)
	}
}

func TestRateLimitMutatingRequests(t *testing.T) {
	limiter := NewRateLimiter(2, time.Minute)
	defer limiter.Stop()

	handler := Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}),
		AuthMiddleware(stubVerifier{"t": {UserID: "u1", Role: model.RoleUser}}),
		RateLimit(limiter),
	)

	do := func(method string) int {
		req := httptest.NewRequest(method, "/api/goals", nil)
		req.Header.Set("Authorization", "Bearer t")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	for i := 0; i < 2; i++ {
		if code := do(http.MethodPost); code != http.StatusOK {
			t.Fatalf("request %d: status %d", i+1, code)
		}
	}
	if code := do(http.MethodPost); code != http.StatusTooManyRequests {
		t.Errorf("third POST: status %d, want 429", code)
	}
	if code := do(http.MethodGet); code != http.StatusOK {
		t.Errorf("GET must not be limited: status %d", code)
	}
}

func TestRequestID(t *testing.T) {
	var seen string
	handler := Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = ctxkeys.RequestID(r.Context())
	}), RequestID, RequestLogging)

	req := httptest.NewRequest(http.MethodGet, "/api/goals", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if seen != "abc-123" || rec.Header().Get("X-Request-ID") != "abc-123" {
		t.Errorf("request id not propagated: ctx=%q header=%q", seen, rec.Header().Get("X-Request-ID"))
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/goals", nil))
	if seen == "" || seen == "abc-123" {
		t.Errorf("expected generated id, got %q", seen)
	}
}
