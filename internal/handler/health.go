package handler

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/gameia/engine/internal/scoring"
	"github.com/gameia/engine/internal/service"
	"github.com/gameia/engine/internal/validation"
)

type HealthHandler struct {
	healthService *service.HealthService
}

func NewHealthHandler(healthService *service.HealthService) *HealthHandler {
	return &HealthHandler{
		healthService: healthService,
	}
}

// Score reads signals from the query string: streak, weekly_completions,
// pending_actions, weak_skills and weekly_xp. Missing values count as zero.
func (h *HealthHandler) Score(w http.ResponseWriter, r *http.Request) {
	signals, err := signalsFromQuery(r.URL.Query())
	if err != nil {
		writeError(w, r, err)
		return
	}

	h.assess(w, r, signals)
}

func (h *HealthHandler) ScoreJSON(w http.ResponseWriter, r *http.Request) {
	var signals scoring.Signals
	if err := decodeJSON(w, r, &signals); err != nil {
		writeError(w, r, err)
		return
	}

	h.assess(w, r, signals)
}

func (h *HealthHandler) assess(w http.ResponseWriter, r *http.Request, signals scoring.Signals) {
	err := service.ValidateSignals(signals)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, h.healthService.Assess(signals))
}

func signalsFromQuery(q url.Values) (scoring.Signals, error) {
	var errs []error
	read := func(name string) int {
		raw := q.Get(name)
		if raw == "" {
			return 0
		}
		v, err := strconv.Atoi(raw)
		if err != nil {
			errs = append(errs, validation.Field(name, "must be an integer"))
		}
		return v
	}

	signals := scoring.Signals{
		StreakDays:        read("streak_days"),
		WeeklyCompletions: read("weekly_completions"),
		PendingActions:    read("pending_actions"),
		WeakSkills:        read("weak_skills"),
		WeeklyXP:          read("weekly_xp"),
	}

	return signals, validation.Merge(errs...)
}
