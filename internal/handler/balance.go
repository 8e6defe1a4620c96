package handler

import (
	"net/http"

	"github.com/gameia/engine/internal/service"
)

type BalanceHandler struct {
	ledgerService   *service.LedgerService
	insigniaService *service.InsigniaService
}

func NewBalanceHandler(ledgerService *service.LedgerService, insigniaService *service.InsigniaService) *BalanceHandler {
	return &BalanceHandler{
		ledgerService:   ledgerService,
		insigniaService: insigniaService,
	}
}

func (h *BalanceHandler) Balance(w http.ResponseWriter, r *http.Request) {
	balance, err := h.ledgerService.Balance(r.Context(), actor(r).UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, balance)
}

func (h *BalanceHandler) Ledger(w http.ResponseWriter, r *http.Request) {
	limit, err := parseLimit(r.URL.Query().Get("limit"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	entries, err := h.ledgerService.History(r.Context(), actor(r).UserID, limit)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, entries)
}

func (h *BalanceHandler) Insignias(w http.ResponseWriter, r *http.Request) {
	awards, err := h.insigniaService.UserInsignias(r.Context(), actor(r).UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, awards)
}

func (h *BalanceHandler) Purchase(w http.ResponseWriter, r *http.Request) {
	var input service.PurchaseInput
	if err := decodeJSON(w, r, &input); err != nil {
		writeError(w, r, err)
		return
	}

	balance, err := h.ledgerService.Spend(r.Context(), actor(r).UserID, input)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, balance)
}

// Grant credits a user. Admin only.
func (h *BalanceHandler) Grant(w http.ResponseWriter, r *http.Request) {
	var input service.GrantInput
	if err := decodeJSON(w, r, &input); err != nil {
		writeError(w, r, err)
		return
	}

	balance, err := h.ledgerService.Grant(r.Context(), actor(r), input)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, balance)
}
