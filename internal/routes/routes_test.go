package routes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gameia/engine/internal/app"
	"github.com/gameia/engine/internal/config"
	"github.com/gameia/engine/internal/model"
)

func newTestApp(t *testing.T) *app.App {
	t.Helper()

	cfg := &config.Config{
		AppName:            "Gameia",
		AppEnv:             "development",
		DBDriver:           "sqlite",
		DBConnection:       "file::memory:?_pragma=foreign_keys(1)",
		JWTSecret:          "test-secret",
		JWTExpiry:          time.Hour,
		SupporterBonusRate: 0.2,
		MaxSupportCoins:    500,
		MaxConflictRetries: 5,
		SettleRetryBase:    time.Millisecond,
		SettleRetryMax:     10 * time.Millisecond,
		SettleRetryTimeout: time.Second,
		SweepInterval:      time.Minute,
		SettleInterval:     time.Minute,
	}

	a, err := app.New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("app.New: %v", err)
	}
	t.Cleanup(func() { a.Close() })
	return a
}

func TestSetupRoutes(t *testing.T) {
	a := newTestApp(t)
	handler := SetupRoutes(a)

	userToken, err := a.AuthService.GenerateJWT(model.Actor{UserID: "u1", Role: model.RoleUser})
	if err != nil {
		t.Fatalf("GenerateJWT: %v", err)
	}

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		status int
	}{
		{"healthz", http.MethodGet, "/healthz", "", http.StatusOK},
		{"health score is public", http.MethodGet, "/api/health-score?streak_days=3", "", http.StatusOK},
		{"goals need auth", http.MethodGet, "/api/goals", "", http.StatusUnauthorized},
		{"goals with token", http.MethodGet, "/api/goals", userToken, http.StatusOK},
		{"balance", http.MethodGet, "/api/me/balance", userToken, http.StatusOK},
		{"admin route as user", http.MethodPost, "/api/grants", userToken, http.StatusForbidden},
		{"unknown module is empty", http.MethodGet, "/api/modules/intro/contents", userToken, http.StatusOK},
		{"unknown route", http.MethodGet, "/wp-login.php", "", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			if tt.token != "" {
				req.Header.Set("Authorization", "Bearer "+tt.token)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d (body %s)", rec.Code, tt.status, rec.Body)
			}
			if rec.Header().Get("X-Request-ID") == "" {
				t.Error("missing X-Request-ID")
			}
			if rec.Header().Get("X-Content-Type-Options") != "nosniff" {
				t.Error("missing security headers")
			}
		})
	}
}
