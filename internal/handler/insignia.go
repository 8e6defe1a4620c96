package handler

import (
	"net/http"

	"github.com/gameia/engine/internal/service"
	"github.com/gameia/engine/internal/validation"
)

type InsigniaHandler struct {
	insigniaService *service.InsigniaService
}

func NewInsigniaHandler(insigniaService *service.InsigniaService) *InsigniaHandler {
	return &InsigniaHandler{
		insigniaService: insigniaService,
	}
}

type evaluateRequest struct {
	UserID  string             `json:"user_id"`
	Metrics map[string]float64 `json:"metrics"`
	Award   bool               `json:"award"`
}

func (h *InsigniaHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input service.CreateInsigniaInput
	if err := decodeJSON(w, r, &input); err != nil {
		writeError(w, r, err)
		return
	}

	insignia, err := h.insigniaService.Create(r.Context(), actor(r), input)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, insignia)
}

func (h *InsigniaHandler) Get(w http.ResponseWriter, r *http.Request) {
	insignia, err := h.insigniaService.ByID(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, insignia)
}

// Evaluate scores metrics for the caller. Admins and system actors may
// evaluate on behalf of another user through user_id.
func (h *InsigniaHandler) Evaluate(w http.ResponseWriter, r *http.Request) {
	var req evaluateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.Metrics == nil {
		writeError(w, r, validation.Field("metrics", "is required"))
		return
	}

	caller := actor(r)
	userID := caller.UserID
	if req.UserID != "" && req.UserID != caller.UserID {
		if !caller.IsAdmin() && !caller.IsSystem() {
			writeError(w, r, service.ErrForbidden)
			return
		}
		userID = req.UserID
	}

	eval, err := h.insigniaService.Evaluate(r.Context(), r.PathValue("id"), userID, req.Metrics, req.Award)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, eval)
}
