package handlers

import (
	"net/http"

	"github.com/eshaffer321/zenmoney-reconcile/internal/api/dto"
	"github.com/eshaffer321/zenmoney-reconcile/internal/domain/ledger"
)

// TransactionsHandler serves transactions from a user's ledger snapshot.
type TransactionsHandler struct {
	*Base
}

// NewTransactionsHandler creates a new transactions handler.
func NewTransactionsHandler(base *Base) *TransactionsHandler {
	return &TransactionsHandler{Base: base}
}

// List handles GET /api/users/{user}/transactions?from=&to=&account=&payee=&merchant=&limit=
func (h *TransactionsHandler) List(w http.ResponseWriter, r *http.Request) {
	_, repo, ok := h.userLedger(w, r)
	if !ok {
		return
	}

	from, err := ParseDateParam(r, "from")
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, dto.BadRequestError("invalid from date"))
		return
	}
	to, err := ParseDateParam(r, "to")
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, dto.BadRequestError("invalid to date"))
		return
	}
	if !from.IsZero() && !to.IsZero() && to.Before(from) {
		h.WriteError(w, http.StatusBadRequest, dto.ValidationError("to must not be before from"))
		return
	}

	accountID := r.URL.Query().Get("account")
	txs, err := repo.GetTransactions(ledger.Filter{
		From:      from,
		To:        to,
		AccountID: accountID,
		Payee:     r.URL.Query().Get("payee"),
		Merchant:  r.URL.Query().Get("merchant"),
	})
	if err != nil {
		h.WriteError(w, http.StatusInternalServerError, dto.InternalError())
		return
	}

	if limit := ParseIntParam(r, "limit", 0); limit > 0 && len(txs) > limit {
		txs = txs[:limit]
	}

	response := dto.TransactionListResponse{
		Transactions: make([]dto.TransactionResponse, 0, len(txs)),
		Count:        len(txs),
	}
	for _, tx := range txs {
		response.Transactions = append(response.Transactions, dto.NewTransactionResponse(tx, accountID))
	}
	h.WriteJSON(w, http.StatusOK, response)
}
