package handlers

import (
	"net/http"

	"github.com/eshaffer321/zenmoney-reconcile/internal/api/dto"
	"github.com/eshaffer321/zenmoney-reconcile/internal/domain/ledger"
)

// AccountsHandler serves accounts from a user's ledger snapshot.
type AccountsHandler struct {
	*Base
}

// NewAccountsHandler creates a new accounts handler.
func NewAccountsHandler(base *Base) *AccountsHandler {
	return &AccountsHandler{Base: base}
}

// List handles GET /api/users/{user}/accounts?title=&type=
func (h *AccountsHandler) List(w http.ResponseWriter, r *http.Request) {
	_, repo, ok := h.userLedger(w, r)
	if !ok {
		return
	}

	accounts, err := repo.GetAccounts(ledger.AccountFilter{
		Title: r.URL.Query().Get("title"),
		Type:  ledger.AccountType(r.URL.Query().Get("type")),
	})
	if err != nil {
		h.WriteError(w, http.StatusInternalServerError, dto.InternalError())
		return
	}

	response := dto.AccountListResponse{
		Accounts: make([]dto.AccountResponse, 0, len(accounts)),
		Count:    len(accounts),
	}
	for _, a := range accounts {
		response.Accounts = append(response.Accounts, dto.NewAccountResponse(a))
	}
	h.WriteJSON(w, http.StatusOK, response)
}
