// Package reconcile runs bank and peer reconciliations against a user's
// ledger snapshot and pushes corrective entries after confirmation.
package reconcile

import (
	"context"
	"errors"
	"log/slog"

	"github.com/eshaffer321/zenmoney-reconcile/internal/domain/ledger"
	"github.com/eshaffer321/zenmoney-reconcile/internal/domain/matcher"
	"github.com/eshaffer321/zenmoney-reconcile/internal/domain/synthesizer"
	"github.com/eshaffer321/zenmoney-reconcile/internal/domain/validator"
	"github.com/eshaffer321/zenmoney-reconcile/internal/infrastructure/metrics"
	"github.com/eshaffer321/zenmoney-reconcile/internal/infrastructure/storage"
)

var (
	// ErrAccountNotFound is returned when a referenced account is not in the snapshot.
	ErrAccountNotFound = errors.New("account not found")

	// ErrMerchantNotFound is returned when the payee has no merchant record.
	ErrMerchantNotFound = errors.New("merchant not found")

	// ErrNoBankTransactions is returned when a statement yields no lines.
	ErrNoBankTransactions = errors.New("no bank transactions found")

	// ErrDebtAccountNotFound is returned when a user has no debt account.
	ErrDebtAccountNotFound = matcher.ErrDebtAccountNotFound
)

// DefaultDebtAccountTitle is the title searched for when none is configured.
const DefaultDebtAccountTitle = "Debts"

// Ledger is one user's ledger: snapshot reads plus a sync that pushes changes.
type Ledger interface {
	Owner() string
	GetTransactions(filter ledger.Filter) ([]ledger.Transaction, error)
	GetAccounts(filter ledger.AccountFilter) ([]ledger.Account, error)
	GetAccount(id string) (*ledger.Account, error)
	GetMerchant(title string) (*ledger.Merchant, error)
	Sync(ctx context.Context, update *ledger.Diff) error
}

// Confirmer asks whether corrective entries should be pushed.
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) (bool, error)
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(ctx context.Context, prompt string) (bool, error)

// Confirm calls f.
func (f ConfirmFunc) Confirm(ctx context.Context, prompt string) (bool, error) {
	return f(ctx, prompt)
}

// AutoConfirm approves every prompt.
var AutoConfirm Confirmer = ConfirmFunc(func(context.Context, string) (bool, error) {
	return true, nil
})

// Deps are the collaborators shared by both reconcilers. Only Matcher
// and Synthesizer fall back to defaults; Runs and Metrics may be nil.
type Deps struct {
	Matcher     *matcher.Matcher
	Synthesizer *synthesizer.Synthesizer
	Runs        storage.RunRepository
	Metrics     *metrics.Metrics
	Logger      *slog.Logger
}

func (d Deps) withDefaults() Deps {
	if d.Matcher == nil {
		d.Matcher = matcher.NewMatcher(matcher.DefaultConfig())
	}
	if d.Synthesizer == nil {
		d.Synthesizer = synthesizer.New(synthesizer.Options{})
	}
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	return d
}

// Outcome describes how a run ended.
type Outcome string

const (
	OutcomeInSync   Outcome = "in_sync"
	OutcomeDryRun   Outcome = "dry_run"
	OutcomeDeclined Outcome = "declined"
	OutcomeApplied  Outcome = "applied"
)

// BankRequest parameterizes a bank reconciliation.
type BankRequest struct {
	AccountID string

	// FilePath is a .qif or .csv statement. Ignored when Transactions is set.
	FilePath     string
	Transactions []ledger.BankTransaction

	// Refresh syncs the ledger before comparing.
	Refresh bool
	DryRun  bool

	// Confirmer is asked before pushing. A nil Confirmer declines.
	Confirmer Confirmer
}

// BankReport is the result of a bank reconciliation.
type BankReport struct {
	RunID   int64
	Account ledger.Account
	From    ledger.Date
	To      ledger.Date
	Result  *matcher.BankResult
	Totals  *validator.TotalsValidation
	Created []ledger.TransactionUpdate
	Outcome Outcome
}

// PeerRequest parameterizes a peer reconciliation.
type PeerRequest struct {
	From       ledger.Date
	To         ledger.Date
	MyPayee    string
	TheirPayee string

	// ExpenseAccountID is where the expense side of new debts is posted.
	ExpenseAccountID string

	Refresh   bool
	DryRun    bool
	Confirmer Confirmer
}

// PeerReport is the result of a peer reconciliation.
type PeerReport struct {
	RunID            int64
	MyDebtAccount    ledger.Account
	TheirDebtAccount ledger.Account
	Result           *matcher.PeerResult
	Created          []ledger.TransactionUpdate
	Outcome          Outcome
}
