package routes

import (
	"net/http"

	"github.com/gameia/engine/internal/app"
	"github.com/gameia/engine/internal/handler"
	"github.com/gameia/engine/internal/middleware"
)

func SetupRoutes(app *app.App) http.Handler {
	// Handlers
	goal := handler.NewGoalHandler(app.GoalService, app.SettlementService)
	balance := handler.NewBalanceHandler(app.LedgerService, app.InsigniaService)
	health := handler.NewHealthHandler(app.HealthService)
	insignia := handler.NewInsigniaHandler(app.InsigniaService)
	content := handler.NewContentHandler(app.ContentService)
	stream := handler.NewEventsHandler(app.Bus)
	status := handler.NewStatusHandler(app.DB)

	mux := http.NewServeMux()

	// ============================================================================
	// PUBLIC ROUTES
	// ============================================================================

	mux.HandleFunc("GET /healthz", status.Healthz)

	// Health score is a pure function of the submitted signals
	mux.HandleFunc("GET /api/health-score", health.Score)
	mux.HandleFunc("POST /api/health-score", health.ScoreJSON)

	// ============================================================================
	// AUTHENTICATED ROUTES (/api/*)
	// ============================================================================

	// Goals
	mux.HandleFunc("GET /api/goals", middleware.RequireAuth(goal.List))
	mux.HandleFunc("POST /api/goals", middleware.RequireAuth(goal.Create))
	mux.HandleFunc("GET /api/goals/{id}", middleware.RequireAuth(goal.Get))
	mux.HandleFunc("POST /api/goals/{id}/activate", middleware.RequireAuth(goal.Activate))
	mux.HandleFunc("POST /api/goals/{id}/progress", middleware.RequireAuth(goal.Progress))
	mux.HandleFunc("GET /api/goals/{id}/logs", middleware.RequireAuth(goal.Logs))
	mux.HandleFunc("GET /api/goals/{id}/payout", middleware.RequireAuth(goal.Payout))

	// Participation
	mux.HandleFunc("GET /api/goals/{id}/participants", middleware.RequireAuth(goal.Participants))
	mux.HandleFunc("POST /api/goals/{id}/participants", middleware.RequireAuth(goal.Join))
	mux.HandleFunc("DELETE /api/goals/{id}/participants", middleware.RequireAuth(goal.Leave))
	mux.HandleFunc("GET /api/goals/{id}/supporters", middleware.RequireAuth(goal.Supporters))
	mux.HandleFunc("POST /api/goals/{id}/supporters", middleware.RequireAuth(goal.Support))

	// Balance
	mux.HandleFunc("GET /api/me/balance", middleware.RequireAuth(balance.Balance))
	mux.HandleFunc("GET /api/me/ledger", middleware.RequireAuth(balance.Ledger))
	mux.HandleFunc("GET /api/me/insignias", middleware.RequireAuth(balance.Insignias))
	mux.HandleFunc("POST /api/me/purchases", middleware.RequireAuth(balance.Purchase))

	// Insignias
	mux.HandleFunc("GET /api/insignias/{id}", middleware.RequireAuth(insignia.Get))
	mux.HandleFunc("POST /api/insignias/{id}/evaluate", middleware.RequireAuth(insignia.Evaluate))

	// Training content
	mux.HandleFunc("GET /api/modules/{id}/contents", middleware.RequireAuth(content.List))

	// Event stream
	mux.HandleFunc("GET /api/events", middleware.RequireAuth(stream.Stream))

	// ============================================================================
	// ADMIN ROUTES
	// ============================================================================

	mux.HandleFunc("POST /api/goals/{id}/cancel", middleware.RequireAdmin(goal.Cancel))
	mux.HandleFunc("POST /api/goals/{id}/settle", middleware.RequireAdmin(goal.Settle))
	mux.HandleFunc("POST /api/grants", middleware.RequireAdmin(balance.Grant))
	mux.HandleFunc("POST /api/insignias", middleware.RequireAdmin(insignia.Create))
	mux.HandleFunc("POST /api/modules/{id}/contents", middleware.RequireAdmin(content.Create))

	// ============================================================================
	// FALLBACK
	// ============================================================================

	mux.HandleFunc("/{path...}", handler.NotFound)

	// Global middleware - executed in order (top to bottom)
	handler := middleware.Chain(
		mux,
		middleware.RequestID, // Request id first so every log line carries it
		middleware.SecurityHeaders,
		middleware.AuthMiddleware(app.AuthService),
		middleware.RequestLogging, // After auth so user_id is logged
		middleware.RateLimit(app.RateLimiter),
	)

	return handler
}
