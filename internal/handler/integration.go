package handler

import (
	"net/http"
	"strconv"

	"github.com/sakif/waform/internal/apperror"
	"github.com/sakif/waform/internal/service"
)

// IntegrationHandler lists and removes connected accounts and browses
// their spreadsheets.
type IntegrationHandler struct {
	accounts *service.AccountService
}

func NewIntegrationHandler(accounts *service.AccountService) *IntegrationHandler {
	return &IntegrationHandler{accounts: accounts}
}

// HTTP: GET /api/integrations/accounts
func (h *IntegrationHandler) HandleListAccounts(w http.ResponseWriter, r *http.Request) {
	accts, err := h.accounts.List(r.Context(), currentUser(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, accts)
}

// HTTP: DELETE /api/integrations/accounts/{id}
func (h *IntegrationHandler) HandleDisconnect(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.accounts.Disconnect(r.Context(), currentUser(r), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HTTP: GET /api/integrations/google/sheets?accountId=3
func (h *IntegrationHandler) HandleListSheets(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.URL.Query().Get("accountId"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, apperror.ValidationFailed("accountId", "accountId must be a positive integer"))
		return
	}
	sheets, err := h.accounts.Spreadsheets(r.Context(), currentUser(r), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sheets)
}
