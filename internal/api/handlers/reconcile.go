package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/eshaffer321/zenmoney-reconcile/internal/api/dto"
	"github.com/eshaffer321/zenmoney-reconcile/internal/application/reconcile"
	"github.com/eshaffer321/zenmoney-reconcile/internal/domain/ledger"
	"github.com/eshaffer321/zenmoney-reconcile/internal/infrastructure/storage"
)

var errReadOnly = errors.New("ledger snapshot is read-only over HTTP")

// snapshotLedger exposes a stored snapshot as a reconcile.Ledger that
// cannot push changes.
type snapshotLedger struct {
	storage.LedgerRepository
	owner string
}

func (s snapshotLedger) Owner() string { return s.owner }

func (s snapshotLedger) Sync(context.Context, *ledger.Diff) error { return errReadOnly }

// ReconcileHandler runs dry-run comparisons against stored snapshots.
type ReconcileHandler struct {
	*Base
	deps reconcile.Deps
}

// NewReconcileHandler creates a new reconcile handler.
func NewReconcileHandler(base *Base, deps reconcile.Deps) *ReconcileHandler {
	if deps.Runs == nil {
		deps.Runs = base.repo
	}
	return &ReconcileHandler{Base: base, deps: deps}
}

// Bank handles POST /api/users/{user}/reconcile/bank.
// It compares the posted statement lines with the snapshot and never
// writes to the remote ledger.
func (h *ReconcileHandler) Bank(w http.ResponseWriter, r *http.Request) {
	user, repo, ok := h.userLedger(w, r)
	if !ok {
		return
	}

	var body dto.BankReconcileRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.WriteError(w, http.StatusBadRequest, dto.BadRequestError("invalid JSON body"))
		return
	}
	bankTxs, err := body.ToBankTransactions()
	switch {
	case errors.Is(err, dto.ErrEmptyStatement):
		h.WriteError(w, http.StatusBadRequest, dto.EmptyStatementError())
		return
	case err != nil:
		h.WriteError(w, http.StatusBadRequest, dto.ValidationError(err.Error()))
		return
	}

	reconciler := reconcile.NewBankReconciler(snapshotLedger{LedgerRepository: repo, owner: user}, h.deps)
	report, err := reconciler.Reconcile(r.Context(), reconcile.BankRequest{
		AccountID:    body.AccountID,
		Transactions: bankTxs,
		DryRun:       true,
	})
	switch {
	case errors.Is(err, reconcile.ErrAccountNotFound):
		h.WriteError(w, http.StatusNotFound, dto.AccountNotFoundError(body.AccountID))
		return
	case errors.Is(err, reconcile.ErrNoBankTransactions):
		h.WriteError(w, http.StatusBadRequest, dto.EmptyStatementError())
		return
	case err != nil:
		h.WriteError(w, http.StatusInternalServerError, dto.InternalError())
		return
	}

	response := dto.NewBankCompareResponse(report.Account.ID, report.From, report.To, report.RunID, report.Result)
	h.WriteJSON(w, http.StatusOK, response.WithTotals(report.Totals))
}
