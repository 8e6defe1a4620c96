package middleware

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gameia/engine/internal/ctxkeys"
	"github.com/gameia/engine/internal/model"
)

// TokenVerifier resolves a bearer token to the actor it names.
type TokenVerifier interface {
	VerifyJWT(token string) (model.Actor, error)
}

// AuthMiddleware reads the bearer token and adds the actor to the context if valid.
// Requests without a valid token continue unauthenticated.
func AuthMiddleware(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			actor, err := verifier.VerifyJWT(token)
			if err != nil {
				slog.Debug("rejected bearer token", "error", err, "path", r.URL.Path)
				next.ServeHTTP(w, r)
				return
			}

			ctx := ctxkeys.WithActor(r.Context(), actor)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAuth ensures the request carries a valid token
func RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, ok := ctxkeys.Actor(r.Context())
		if !ok {
			w.Header().Set("WWW-Authenticate", `Bearer realm="gameia"`)
			writeError(w, http.StatusUnauthorized, "authentication required")
			return
		}
		next.ServeHTTP(w, r)
	}
}

// RequireAdmin ensures the caller is an admin
func RequireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return RequireAuth(func(w http.ResponseWriter, r *http.Request) {
		actor, _ := ctxkeys.Actor(r.Context())
		if !actor.IsAdmin() {
			writeError(w, http.StatusForbidden, "admin role required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if token, ok := strings.CutPrefix(header, "Bearer "); ok {
		return strings.TrimSpace(token)
	}

	// Browsers cannot set headers on websocket upgrades
	if r.URL.Path == "/api/events" {
		return r.URL.Query().Get("access_token")
	}

	return ""
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	err := json.NewEncoder(w).Encode(map[string]string{"error": message})
	if err != nil {
		slog.Error("failed to encode error response", "error", err)
	}
}
