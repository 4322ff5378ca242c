package matcher

import (
	"errors"

	"github.com/eshaffer321/zenmoney-reconcile/internal/domain/ledger"
)

var (
	// ErrEmptyAccountID is returned when no reference account is given.
	ErrEmptyAccountID = errors.New("account id is required")

	// ErrDebtAccountNotFound is returned when a peer debt account is missing.
	ErrDebtAccountNotFound = errors.New("debt account not found")
)

// Config holds matcher configuration
type Config struct {
	BankDateTolerance int // Days tolerance for bank lines (default: 2)
	PeerDateTolerance int // Days tolerance between peer ledgers (default: 1)
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		BankDateTolerance: 2,
		PeerDateTolerance: 1,
	}
}

// BankMatch pairs a statement line with the ledger record it matched
type BankMatch struct {
	Bank     ledger.BankTransaction
	Ledger   ledger.Transaction
	DateDiff int // Days difference
}

// BankResult is the outcome of comparing a statement against the ledger
type BankResult struct {
	MissingInLedger []ledger.BankTransaction
	ExtraInLedger   []ledger.Transaction
	Matches         []BankMatch
}

// InSync reports whether the statement and ledger agree completely
func (r *BankResult) InSync() bool {
	return len(r.MissingInLedger) == 0 && len(r.ExtraInLedger) == 0
}

// PeerMatch pairs a record in my ledger with its counterpart in the peer's
type PeerMatch struct {
	Mine   ledger.Transaction
	Theirs ledger.Transaction
}

// PeerResult is the outcome of diffing two users' debt postings
type PeerResult struct {
	Missed  []ledger.Transaction // in the peer's ledger only
	Extra   []ledger.Transaction // in my ledger only
	Matched []PeerMatch
}

// InSync reports whether both ledgers record the same debt operations
func (r *PeerResult) InSync() bool {
	return len(r.Missed) == 0 && len(r.Extra) == 0
}
