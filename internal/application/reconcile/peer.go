package reconcile

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/eshaffer321/zenmoney-reconcile/internal/domain/ledger"
	"github.com/eshaffer321/zenmoney-reconcile/internal/domain/matcher"
	"github.com/eshaffer321/zenmoney-reconcile/internal/domain/synthesizer"
	"github.com/eshaffer321/zenmoney-reconcile/internal/infrastructure/storage"
)

// PeerReconciler mirrors debt postings the peer recorded but I did not.
type PeerReconciler struct {
	mine      Ledger
	theirs    Ledger
	debtTitle string
	deps      Deps
	logger    *slog.Logger
}

// NewPeerReconciler creates a reconciler that writes to mine.
// An empty debtTitle means DefaultDebtAccountTitle.
func NewPeerReconciler(mine, theirs Ledger, debtTitle string, deps Deps) *PeerReconciler {
	deps = deps.withDefaults()
	if debtTitle == "" {
		debtTitle = DefaultDebtAccountTitle
	}
	return &PeerReconciler{
		mine:      mine,
		theirs:    theirs,
		debtTitle: debtTitle,
		deps:      deps,
		logger:    deps.Logger.With("user", mine.Owner(), "peer", theirs.Owner(), "kind", storage.RunKindPeer),
	}
}

// Reconcile diffs the two users' debt postings and, unless this is a dry
// run or the user declines, adds the missed postings to my ledger.
func (r *PeerReconciler) Reconcile(ctx context.Context, req PeerRequest) (*PeerReport, error) {
	if req.Refresh {
		if err := r.refresh(ctx); err != nil {
			return nil, err
		}
	}

	myDebt, err := debtAccount(r.mine, r.debtTitle)
	if err != nil {
		return nil, err
	}
	theirDebt, err := debtAccount(r.theirs, r.debtTitle)
	if err != nil {
		return nil, err
	}

	run := startRun(r.deps, storage.RunStart{
		Kind:      storage.RunKindPeer,
		Owner:     r.mine.Owner(),
		Peer:      r.theirs.Owner(),
		AccountID: myDebt.ID,
		DryRun:    req.DryRun,
	})

	report, err := r.reconcile(ctx, req, *myDebt, *theirDebt)
	counts := storage.RunCounts{}
	outcome := Outcome("")
	if report != nil {
		report.RunID = run.id
		outcome = report.Outcome
		counts.Created = len(report.Created)
		if report.Result != nil {
			counts.Missing = len(report.Result.Missed)
			counts.Extra = len(report.Result.Extra)
			counts.Matched = len(report.Result.Matched)
		}
	}
	run.finish(counts, outcome, err)
	return report, err
}

// refresh syncs both ledgers concurrently.
func (r *PeerReconciler) refresh(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, l := range []Ledger{r.mine, r.theirs} {
		l := l
		g.Go(func() error {
			if err := l.Sync(gctx, nil); err != nil {
				return fmt.Errorf("failed to refresh %s: %w", l.Owner(), err)
			}
			return nil
		})
	}
	return g.Wait()
}

func (r *PeerReconciler) reconcile(ctx context.Context, req PeerRequest, myDebt, theirDebt ledger.Account) (*PeerReport, error) {
	mine, err := r.mine.GetTransactions(ledger.Filter{
		From:      req.From,
		To:        req.To,
		Payee:     req.MyPayee,
		AccountID: myDebt.ID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load %s transactions: %w", r.mine.Owner(), err)
	}
	theirs, err := r.theirs.GetTransactions(ledger.Filter{
		From:      req.From,
		To:        req.To,
		Payee:     req.TheirPayee,
		AccountID: theirDebt.ID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load %s transactions: %w", r.theirs.Owner(), err)
	}

	result, err := r.deps.Matcher.DiffPeers(mine, theirs, myDebt.ID, theirDebt.ID)
	if err != nil {
		return nil, err
	}

	report := &PeerReport{
		MyDebtAccount:    myDebt,
		TheirDebtAccount: theirDebt,
		Result:           result,
		Outcome:          OutcomeInSync,
	}

	for _, tx := range result.Missed {
		r.logger.Debug("Missed transaction", "date", tx.Date,
			"amount", matcher.TheirSettlementAmount(tx, theirDebt.ID), "comment", tx.Comment)
	}
	for _, tx := range result.Extra {
		r.logger.Debug("Extra transaction", "date", tx.Date,
			"amount", matcher.MySettlementAmount(tx, myDebt.ID), "comment", tx.Comment)
	}
	r.deps.Metrics.RecordUnmatched(storage.RunKindPeer, "missed", len(result.Missed))
	r.deps.Metrics.RecordUnmatched(storage.RunKindPeer, "extra", len(result.Extra))

	r.logger.Info("Compared debt postings",
		"mine", len(mine),
		"theirs", len(theirs),
		"missed", len(result.Missed),
		"extra", len(result.Extra))

	if len(result.Missed) == 0 {
		return report, nil
	}
	if req.DryRun {
		report.Outcome = OutcomeDryRun
		return report, nil
	}

	prompt := fmt.Sprintf("Add %d transaction(s) recorded by %s?", len(result.Missed), r.theirs.Owner())
	ok, err := confirm(ctx, req.Confirmer, prompt)
	if err != nil {
		return report, err
	}
	if !ok {
		r.logger.Info("Skipping adding transactions")
		report.Outcome = OutcomeDeclined
		return report, nil
	}

	expense, err := r.mine.GetAccount(req.ExpenseAccountID)
	if err != nil {
		return report, err
	}
	if expense == nil {
		return report, fmt.Errorf("%w: %s", ErrAccountNotFound, req.ExpenseAccountID)
	}
	merchant, err := r.mine.GetMerchant(req.MyPayee)
	if err != nil {
		return report, err
	}
	if merchant == nil {
		return report, fmt.Errorf("%w: %q", ErrMerchantNotFound, req.MyPayee)
	}

	entries, err := r.deps.Synthesizer.PeerBatch(result.Missed, synthesizer.DebtContext{
		DebtAccount:       myDebt,
		ExpenseAccount:    *expense,
		Merchant:          *merchant,
		PeerDebtAccountID: theirDebt.ID,
	})
	if err != nil {
		return report, err
	}

	err = r.mine.Sync(ctx, &ledger.Diff{
		Transactions: entries,
		Accounts:     []ledger.AccountUpdate{expense.ToUpdate(), myDebt.ToUpdate()},
	})
	if err != nil {
		return report, fmt.Errorf("failed to push corrective entries: %w", err)
	}

	report.Created = entries
	report.Outcome = OutcomeApplied
	r.logger.Info("Transactions added", "count", len(entries))
	return report, nil
}

// debtAccount returns the first account of l whose title contains title.
func debtAccount(l Ledger, title string) (*ledger.Account, error) {
	accounts, err := l.GetAccounts(ledger.AccountFilter{Title: title})
	if err != nil {
		return nil, err
	}
	if len(accounts) == 0 {
		return nil, fmt.Errorf("%w: %s has no %q account", ErrDebtAccountNotFound, l.Owner(), title)
	}
	return &accounts[0], nil
}
