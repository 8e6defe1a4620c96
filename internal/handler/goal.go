package handler

import (
	"net/http"
	"strconv"

	"github.com/gameia/engine/internal/model"
	"github.com/gameia/engine/internal/service"
	"github.com/gameia/engine/internal/validation"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

type GoalHandler struct {
	goalService       *service.GoalService
	settlementService *service.SettlementService
}

func NewGoalHandler(goalService *service.GoalService, settlementService *service.SettlementService) *GoalHandler {
	return &GoalHandler{
		goalService:       goalService,
		settlementService: settlementService,
	}
}

func (h *GoalHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input service.CreateGoalInput
	if err := decodeJSON(w, r, &input); err != nil {
		writeError(w, r, err)
		return
	}

	goal, err := h.goalService.Create(r.Context(), actor(r), input)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, goal)
}

// List supports ?scope=&status=&source=&sort=&limit= plus creator=me and
// participant=me to narrow to the caller's goals.
func (h *GoalHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	caller := actor(r)

	limit, err := parseLimit(q.Get("limit"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	filter := model.GoalFilter{
		Scope:     q.Get("scope"),
		Status:    q.Get("status"),
		Source:    q.Get("source"),
		CreatorID: q.Get("creator"),
		UserID:    q.Get("participant"),
		Sort:      q.Get("sort"),
		Limit:     limit,
	}
	if filter.CreatorID == "me" {
		filter.CreatorID = caller.UserID
	}
	if filter.UserID == "me" {
		filter.UserID = caller.UserID
	}

	goals, err := h.goalService.Goals(r.Context(), filter)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, goals)
}

func (h *GoalHandler) Get(w http.ResponseWriter, r *http.Request) {
	goal, err := h.goalService.ByID(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, goal)
}

func (h *GoalHandler) Activate(w http.ResponseWriter, r *http.Request) {
	goal, err := h.goalService.Activate(r.Context(), actor(r), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, goal)
}

func (h *GoalHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	goal, err := h.goalService.Cancel(r.Context(), actor(r), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, goal)
}

func (h *GoalHandler) Join(w http.ResponseWriter, r *http.Request) {
	participant, err := h.goalService.Join(r.Context(), r.PathValue("id"), actor(r).UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, participant)
}

func (h *GoalHandler) Leave(w http.ResponseWriter, r *http.Request) {
	err := h.goalService.Leave(r.Context(), r.PathValue("id"), actor(r).UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *GoalHandler) Participants(w http.ResponseWriter, r *http.Request) {
	participants, err := h.goalService.Participants(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, participants)
}

func (h *GoalHandler) Progress(w http.ResponseWriter, r *http.Request) {
	var input service.ProgressInput
	if err := decodeJSON(w, r, &input); err != nil {
		writeError(w, r, err)
		return
	}

	result, err := h.goalService.ApplyProgress(r.Context(), actor(r), r.PathValue("id"), input)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (h *GoalHandler) Support(w http.ResponseWriter, r *http.Request) {
	var input service.SupportInput
	if err := decodeJSON(w, r, &input); err != nil {
		writeError(w, r, err)
		return
	}

	goal, err := h.goalService.AddSupport(r.Context(), r.PathValue("id"), actor(r).UserID, input)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, goal)
}

func (h *GoalHandler) Supporters(w http.ResponseWriter, r *http.Request) {
	supporters, err := h.goalService.Supporters(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, supporters)
}

func (h *GoalHandler) Logs(w http.ResponseWriter, r *http.Request) {
	logs, err := h.goalService.Logs(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, logs)
}

// Settle runs settlement synchronously for a terminal goal. Admin only.
func (h *GoalHandler) Settle(w http.ResponseWriter, r *http.Request) {
	payout, err := h.settlementService.Settle(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, payout)
}

func (h *GoalHandler) Payout(w http.ResponseWriter, r *http.Request) {
	payout, err := h.settlementService.Payout(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, payout)
}

func parseLimit(raw string) (int, error) {
	if raw == "" {
		return defaultListLimit, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 1 {
		return 0, validation.Field("limit", "must be a positive integer")
	}
	return min(limit, maxListLimit), nil
}
