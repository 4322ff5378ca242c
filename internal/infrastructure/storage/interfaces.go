package storage

import (
	"errors"

	"github.com/eshaffer321/zenmoney-reconcile/internal/domain/ledger"
)

// ErrNotFound is returned when a requested run does not exist.
var ErrNotFound = errors.New("not found")

// Repository defines the complete storage interface.
// This interface allows swapping implementations and makes testing
// with mocks straightforward.
type Repository interface {
	// Ledger returns the snapshot store scoped to one configured user.
	Ledger(owner string) LedgerRepository

	RunRepository
	CallLogRepository
	Close() error
}

// LedgerRepository holds the local snapshot of one user's remote ledger.
type LedgerRepository interface {
	// GetState returns the stored credentials and sync cursor.
	// A user that never synced gets a zero state with Owner set.
	GetState() (*UserState, error)

	// SaveState stores credentials and sync cursor.
	SaveState(state *UserState) error

	// ApplyDiff merges a downloaded diff into the snapshot atomically.
	ApplyDiff(diff *SnapshotDiff) error

	// GetTransactions returns transactions matching the filter,
	// newest date first and most recently inserted first within a date.
	GetTransactions(filter ledger.Filter) ([]ledger.Transaction, error)

	// GetAccounts returns accounts matching the filter ordered by title.
	GetAccounts(filter ledger.AccountFilter) ([]ledger.Account, error)

	// GetAccount returns nil, nil when the account is unknown.
	GetAccount(id string) (*ledger.Account, error)

	// GetMerchant looks a merchant up by title, ignoring case.
	// Returns nil, nil when no merchant has that title.
	GetMerchant(title string) (*ledger.Merchant, error)
}

// RunRepository handles reconciliation run tracking
type RunRepository interface {
	// StartRun records the start of a run and returns the run ID
	StartRun(run RunStart) (int64, error)

	// CompleteRun records the outcome of a run
	CompleteRun(runID int64, counts RunCounts, status, errMsg string) error

	// ListRuns returns recent runs, newest first
	ListRuns(limit int) ([]ReconcileRun, error)

	// GetRun retrieves a run by ID, or ErrNotFound
	GetRun(runID int64) (*ReconcileRun, error)
}

// CallLogRepository handles remote ledger call logging
type CallLogRepository interface {
	// LogCall logs one call to the remote ledger
	LogCall(call *RemoteCall) error

	// ListCalls returns the most recent calls made for owner
	ListCalls(owner string, limit int) ([]RemoteCall, error)
}
