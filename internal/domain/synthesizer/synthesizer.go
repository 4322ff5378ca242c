// Package synthesizer builds corrective ledger entries for statement lines
// and peer debt postings that are missing from a user's ledger.
//
// Entries carry the full record shape the remote ledger expects: a fresh
// id, created set to now, changed offset from created by a small jitter,
// and every provider placeholder left null.
//
// Example usage:
//
//	s := synthesizer.New(synthesizer.Options{})
//	entries := s.BankBatch(result.MissingInLedger, account)
package synthesizer

import (
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/eshaffer321/zenmoney-reconcile/internal/domain/ledger"
)

// ErrUnrelatedTransaction is returned for a peer record that touches
// neither side of the peer's debt account.
var ErrUnrelatedTransaction = errors.New("transaction does not touch the peer debt account")

// JitterPolicy decides how many seconds after creation an entry is marked changed
type JitterPolicy interface {
	Offset() int64
}

// RandomJitter picks a uniform offset in [Min, Max]
type RandomJitter struct {
	Min int64
	Max int64
}

// Offset implements JitterPolicy
func (j RandomJitter) Offset() int64 {
	if j.Max <= j.Min {
		return j.Min
	}
	return j.Min + rand.Int63n(j.Max-j.Min+1)
}

// FixedJitter always returns the same offset
type FixedJitter int64

// Offset implements JitterPolicy
func (j FixedJitter) Offset() int64 {
	return int64(j)
}

// DefaultJitter mimics the save latency of the mobile client
func DefaultJitter() RandomJitter {
	return RandomJitter{Min: 5, Max: 14}
}

// Options configures a Synthesizer. Zero fields fall back to defaults.
type Options struct {
	Now    func() time.Time
	Jitter JitterPolicy
	NewID  func() string
}

// Synthesizer creates corrective entries
type Synthesizer struct {
	now    func() time.Time
	jitter JitterPolicy
	newID  func() string
}

// New creates a synthesizer, filling unset options with defaults
func New(opts Options) *Synthesizer {
	s := &Synthesizer{
		now:    opts.Now,
		jitter: opts.Jitter,
		newID:  opts.NewID,
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.jitter == nil {
		s.jitter = DefaultJitter()
	}
	if s.newID == nil {
		s.newID = uuid.NewString
	}
	return s
}

// Target is the account a simple entry is posted to
type Target struct {
	User       int
	AccountID  string
	Instrument int
}

// TargetFor derives a Target from an account
func TargetFor(account ledger.Account) Target {
	return Target{
		User:       account.User,
		AccountID:  account.ID,
		Instrument: account.Instrument,
	}
}

// FromBank creates a simple income or expense entry for a statement line
func (s *Synthesizer) FromBank(bt ledger.BankTransaction, target Target) ledger.TransactionUpdate {
	entry := s.base(target.User, bt.Date, bt.Comment)

	amount := ledger.RoundAmount(bt.Amount)
	magnitude := amount.Abs().InexactFloat64()
	if amount.IsPositive() {
		entry.Income = magnitude
	} else {
		entry.Outcome = magnitude
	}

	entry.IncomeAccount = target.AccountID
	entry.OutcomeAccount = target.AccountID
	entry.IncomeInstrument = target.Instrument
	entry.OutcomeInstrument = target.Instrument
	return entry
}

// BankBatch creates one entry per missing statement line
func (s *Synthesizer) BankBatch(missing []ledger.BankTransaction, account ledger.Account) []ledger.TransactionUpdate {
	target := TargetFor(account)
	entries := make([]ledger.TransactionUpdate, 0, len(missing))
	for _, bt := range missing {
		entries = append(entries, s.FromBank(bt, target))
	}
	return entries
}

// DebtContext describes my side of a peer relationship
type DebtContext struct {
	DebtAccount       ledger.Account
	ExpenseAccount    ledger.Account
	Merchant          ledger.Merchant
	PeerDebtAccountID string
}

// PeerAmount is the signed amount of a peer record from my point of view:
// positive when the peer lent to me, negative when the peer borrowed.
func PeerAmount(peerTx ledger.Transaction, peerDebtAccountID string) (decimal.Decimal, error) {
	switch {
	case peerTx.IncomeAccount == peerDebtAccountID:
		return ledger.RoundAmount(decimal.NewFromFloat(peerTx.Income)), nil
	case peerTx.OutcomeAccount == peerDebtAccountID:
		return ledger.RoundAmount(decimal.NewFromFloat(peerTx.Outcome).Neg()), nil
	default:
		return decimal.Zero, fmt.Errorf("%w: %s", ErrUnrelatedTransaction, peerTx.ID)
	}
}

// FromPeerDebt mirrors a peer's debt posting into my ledger.
//
// The debt posting moves money between my debt account and the expense
// account. When the peer lent to me, a companion expense of the same
// amount is posted on the expense account.
func (s *Synthesizer) FromPeerDebt(peerTx ledger.Transaction, ctx DebtContext) ([]ledger.TransactionUpdate, error) {
	amount, err := PeerAmount(peerTx, ctx.PeerDebtAccountID)
	if err != nil {
		return nil, err
	}

	debt := s.debtPosting(amount, peerTx.Date, peerTx.Comment, ctx)
	entries := []ledger.TransactionUpdate{debt}

	if amount.IsPositive() {
		expense := s.FromBank(ledger.BankTransaction{
			Date:    peerTx.Date,
			Amount:  amount.Neg(),
			Comment: peerTx.Comment,
		}, Target{
			User:       ctx.DebtAccount.User,
			AccountID:  ctx.ExpenseAccount.ID,
			Instrument: ctx.ExpenseAccount.Instrument,
		})
		entries = append(entries, expense)
	}

	return entries, nil
}

// PeerBatch mirrors every missed peer record. It fails without returning
// partial output if any record cannot be converted.
func (s *Synthesizer) PeerBatch(missed []ledger.Transaction, ctx DebtContext) ([]ledger.TransactionUpdate, error) {
	entries := make([]ledger.TransactionUpdate, 0, len(missed)*2)
	for _, tx := range missed {
		created, err := s.FromPeerDebt(tx, ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to synthesize entry for %s: %w", tx.ID, err)
		}
		entries = append(entries, created...)
	}
	return entries, nil
}

func (s *Synthesizer) debtPosting(amount decimal.Decimal, date ledger.Date, comment string, ctx DebtContext) ledger.TransactionUpdate {
	entry := s.base(ctx.DebtAccount.User, date, comment)

	magnitude := amount.Abs().InexactFloat64()
	entry.Income = magnitude
	entry.Outcome = magnitude

	from, to := ctx.ExpenseAccount, ctx.DebtAccount
	if amount.IsPositive() {
		from, to = ctx.DebtAccount, ctx.ExpenseAccount
	}
	entry.OutcomeAccount = from.ID
	entry.OutcomeInstrument = from.Instrument
	entry.IncomeAccount = to.ID
	entry.IncomeInstrument = to.Instrument

	merchantID := ctx.Merchant.ID
	entry.Merchant = &merchantID
	entry.Payee = ledger.OptionalString(ctx.Merchant.Title)
	return entry
}

func (s *Synthesizer) base(user int, date ledger.Date, comment string) ledger.TransactionUpdate {
	created := s.now().Unix()
	return ledger.TransactionUpdate{
		ID:      s.newID(),
		User:    user,
		Date:    date,
		Comment: comment,
		Tag:     []string{},
		Created: created,
		Changed: created + s.jitter.Offset(),
		Viewed:  0,
	}
}
