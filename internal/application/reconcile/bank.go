package reconcile

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/eshaffer321/zenmoney-reconcile/internal/adapters/bankfile"
	"github.com/eshaffer321/zenmoney-reconcile/internal/domain/ledger"
	"github.com/eshaffer321/zenmoney-reconcile/internal/domain/validator"
	"github.com/eshaffer321/zenmoney-reconcile/internal/infrastructure/storage"
)

// BankReconciler compares a bank statement with one account of a ledger.
type BankReconciler struct {
	ledger Ledger
	deps   Deps
	logger *slog.Logger
}

// NewBankReconciler creates a reconciler for l.
func NewBankReconciler(l Ledger, deps Deps) *BankReconciler {
	deps = deps.withDefaults()
	return &BankReconciler{
		ledger: l,
		deps:   deps,
		logger: deps.Logger.With("user", l.Owner(), "kind", storage.RunKindBank),
	}
}

// Reconcile compares the statement with the ledger and, unless this is
// a dry run or the user declines, adds the missing lines to the ledger.
func (r *BankReconciler) Reconcile(ctx context.Context, req BankRequest) (*BankReport, error) {
	if req.Refresh {
		if err := r.ledger.Sync(ctx, nil); err != nil {
			return nil, fmt.Errorf("failed to refresh ledger: %w", err)
		}
	}

	account, err := r.ledger.GetAccount(req.AccountID)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, fmt.Errorf("%w: %s", ErrAccountNotFound, req.AccountID)
	}

	bankTxs := req.Transactions
	if len(bankTxs) == 0 && req.FilePath != "" {
		bankTxs, err = bankfile.LoadFile(req.FilePath, *account)
		if err != nil {
			return nil, err
		}
	}
	if len(bankTxs) == 0 {
		return nil, ErrNoBankTransactions
	}

	from, to := statementWindow(bankTxs)
	run := startRun(r.deps, storage.RunStart{
		Kind:      storage.RunKindBank,
		Owner:     r.ledger.Owner(),
		AccountID: account.ID,
		DryRun:    req.DryRun,
	})

	report, err := r.reconcile(ctx, req, *account, bankTxs, from, to)
	counts := storage.RunCounts{}
	outcome := Outcome("")
	if report != nil {
		report.RunID = run.id
		outcome = report.Outcome
		counts.Created = len(report.Created)
		if report.Result != nil {
			counts.Missing = len(report.Result.MissingInLedger)
			counts.Extra = len(report.Result.ExtraInLedger)
			counts.Matched = len(report.Result.Matches)
		}
	}
	run.finish(counts, outcome, err)
	return report, err
}

func (r *BankReconciler) reconcile(
	ctx context.Context,
	req BankRequest,
	account ledger.Account,
	bankTxs []ledger.BankTransaction,
	from, to ledger.Date,
) (*BankReport, error) {
	ledgerTxs, err := r.ledger.GetTransactions(ledger.Filter{
		From:      from,
		To:        to,
		AccountID: account.ID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load ledger transactions: %w", err)
	}

	result, err := r.deps.Matcher.CompareBank(ledgerTxs, bankTxs, account.ID)
	if err != nil {
		return nil, err
	}

	report := &BankReport{
		Account: account,
		From:    from,
		To:      to,
		Result:  result,
		Totals:  validator.ValidateTotals(bankTxs, ledgerTxs, account.ID),
		Outcome: OutcomeInSync,
	}
	if !report.Totals.Valid {
		r.logger.Warn("Statement total differs from ledger", "reason", report.Totals.Reason)
	}

	for _, bt := range result.MissingInLedger {
		r.logger.Debug("Missing in ledger", "date", bt.Date, "amount", bt.Amount, "comment", bt.Comment)
	}
	for _, tx := range result.ExtraInLedger {
		r.logger.Debug("Extra in ledger", "date", tx.Date, "amount", ledger.NetAmount(tx, account.ID), "comment", tx.Comment)
	}
	r.deps.Metrics.RecordUnmatched(storage.RunKindBank, "missing", len(result.MissingInLedger))
	r.deps.Metrics.RecordUnmatched(storage.RunKindBank, "extra", len(result.ExtraInLedger))

	r.logger.Info("Compared statement",
		"account", account.Title,
		"from", from,
		"to", to,
		"bank", len(bankTxs),
		"ledger", len(ledgerTxs),
		"missing", len(result.MissingInLedger),
		"extra", len(result.ExtraInLedger))

	if len(result.MissingInLedger) == 0 {
		return report, nil
	}
	if req.DryRun {
		report.Outcome = OutcomeDryRun
		return report, nil
	}

	prompt := fmt.Sprintf("Add %d missing transaction(s) to %s?", len(result.MissingInLedger), account.Title)
	ok, err := confirm(ctx, req.Confirmer, prompt)
	if err != nil {
		return report, err
	}
	if !ok {
		r.logger.Info("Skipping adding transactions")
		report.Outcome = OutcomeDeclined
		return report, nil
	}

	entries := r.deps.Synthesizer.BankBatch(result.MissingInLedger, account)
	err = r.ledger.Sync(ctx, &ledger.Diff{
		Transactions: entries,
		Accounts:     []ledger.AccountUpdate{account.ToUpdate()},
	})
	if err != nil {
		return report, fmt.Errorf("failed to push corrective entries: %w", err)
	}

	report.Created = entries
	report.Outcome = OutcomeApplied
	r.logger.Info("Transactions added", "count", len(entries))
	return report, nil
}

// statementWindow returns the earliest and latest statement dates.
func statementWindow(bankTxs []ledger.BankTransaction) (ledger.Date, ledger.Date) {
	from, to := bankTxs[0].Date, bankTxs[0].Date
	for _, bt := range bankTxs[1:] {
		if bt.Date.Before(from) {
			from = bt.Date
		}
		if bt.Date.After(to) {
			to = bt.Date
		}
	}
	return from, to
}

func confirm(ctx context.Context, c Confirmer, prompt string) (bool, error) {
	if c == nil {
		return false, nil
	}
	ok, err := c.Confirm(ctx, prompt)
	if err != nil {
		return false, fmt.Errorf("confirmation failed: %w", err)
	}
	return ok, nil
}
