package reconcile

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/eshaffer321/zenmoney-reconcile/internal/domain/ledger"
	"github.com/eshaffer321/zenmoney-reconcile/internal/domain/synthesizer"
	"github.com/eshaffer321/zenmoney-reconcile/internal/infrastructure/logging"
	"github.com/eshaffer321/zenmoney-reconcile/internal/infrastructure/metrics"
	"github.com/eshaffer321/zenmoney-reconcile/internal/infrastructure/storage"
)

// mockLedger serves reads from an in-memory snapshot and records syncs.
type mockLedger struct {
	*storage.MockLedger
	mock.Mock
	owner string
}

func newMockLedger(owner string) *mockLedger {
	return &mockLedger{MockLedger: storage.NewMockLedger(owner), owner: owner}
}

func (m *mockLedger) Owner() string { return m.owner }

func (m *mockLedger) Sync(ctx context.Context, update *ledger.Diff) error {
	args := m.Called(ctx, update)
	return args.Error(0)
}

func testDeps(runs storage.RunRepository) Deps {
	n := 0
	return Deps{
		Synthesizer: synthesizer.New(synthesizer.Options{
			Now:    func() time.Time { return time.Unix(1754000000, 0) },
			Jitter: synthesizer.FixedJitter(7),
			NewID: func() string {
				n++
				return fmt.Sprintf("new-%d", n)
			},
		}),
		Runs:    runs,
		Metrics: metrics.New("test"),
		Logger:  logging.Discard(),
	}
}

func bankLine(date, amount, comment string) ledger.BankTransaction {
	return ledger.BankTransaction{
		Date:    ledger.MustParseDate(date),
		Amount:  decimal.RequireFromString(amount),
		Comment: comment,
	}
}

func simpleTx(id, date string, income, outcome float64, account string) ledger.Transaction {
	return ledger.Transaction{
		ID:             id,
		User:           1,
		Date:           ledger.MustParseDate(date),
		Income:         income,
		Outcome:        outcome,
		IncomeAccount:  account,
		OutcomeAccount: account,
	}
}

var visa = ledger.Account{ID: "acc-card", User: 1, Title: "Visa", Type: ledger.AccountCard, Instrument: 840}

func seededBankLedger() *mockLedger {
	l := newMockLedger("alice")
	l.Seed([]ledger.Account{visa}, nil, []ledger.Transaction{
		simpleTx("t-1", "2025-08-02", 0, 10, "acc-card"),
		simpleTx("t-old", "2025-07-01", 0, 99, "acc-card"),
	})
	return l
}

func TestBankReconciler_AddsMissingLines(t *testing.T) {
	// Arrange
	l := seededBankLedger()
	runs := storage.NewMockRepository()
	l.On("Sync", mock.Anything, mock.MatchedBy(func(d *ledger.Diff) bool {
		return d != nil &&
			len(d.Transactions) == 1 &&
			d.Transactions[0].Income == 5 &&
			d.Transactions[0].IncomeAccount == "acc-card" &&
			len(d.Accounts) == 1 &&
			d.Accounts[0].ID == "acc-card"
	})).Return(nil).Once()

	var prompt string
	confirmer := ConfirmFunc(func(_ context.Context, p string) (bool, error) {
		prompt = p
		return true, nil
	})

	// Act
	report, err := NewBankReconciler(l, testDeps(runs)).Reconcile(context.Background(), BankRequest{
		AccountID: "acc-card",
		Transactions: []ledger.BankTransaction{
			bankLine("2025-08-02", "-10.00", "Coffee"),
			bankLine("2025-08-03", "5.00", "Refund"),
		},
		Confirmer: confirmer,
	})

	// Assert
	require.NoError(t, err)
	l.AssertExpectations(t)
	assert.Equal(t, OutcomeApplied, report.Outcome)
	assert.Equal(t, "2025-08-02", report.From.String())
	assert.Equal(t, "2025-08-03", report.To.String())
	require.Len(t, report.Result.MissingInLedger, 1)
	assert.Equal(t, "Refund", report.Result.MissingInLedger[0].Comment)
	assert.Empty(t, report.Result.ExtraInLedger, "t-1 matched, t-old is outside the window")
	require.Len(t, report.Created, 1)
	assert.Equal(t, "new-1", report.Created[0].ID)
	assert.Equal(t, 840, report.Created[0].IncomeInstrument)
	assert.Contains(t, prompt, "Visa")
	require.NotNil(t, report.Totals)
	assert.False(t, report.Totals.Valid)
	assert.Equal(t, "5.00", ledger.AmountKey(report.Totals.Difference))

	run, err := runs.GetRun(report.RunID)
	require.NoError(t, err)
	assert.Equal(t, storage.RunStatusCompleted, run.Status)
	assert.Equal(t, storage.RunCounts{Missing: 1, Extra: 0, Matched: 1, Created: 1}, run.Counts)
}

func TestBankReconciler_DryRunDoesNotPush(t *testing.T) {
	l := seededBankLedger()
	runs := storage.NewMockRepository()
	confirmer := ConfirmFunc(func(context.Context, string) (bool, error) {
		t.Fatal("dry run must not ask")
		return false, nil
	})

	report, err := NewBankReconciler(l, testDeps(runs)).Reconcile(context.Background(), BankRequest{
		AccountID:    "acc-card",
		Transactions: []ledger.BankTransaction{bankLine("2025-08-03", "5.00", "Refund")},
		DryRun:       true,
		Confirmer:    confirmer,
	})

	require.NoError(t, err)
	l.AssertNotCalled(t, "Sync", mock.Anything, mock.Anything)
	assert.Equal(t, OutcomeDryRun, report.Outcome)
	assert.Empty(t, report.Created)

	run, err := runs.GetRun(report.RunID)
	require.NoError(t, err)
	assert.True(t, run.DryRun)
}

func TestBankReconciler_DeclinedAndNilConfirmer(t *testing.T) {
	for name, confirmer := range map[string]Confirmer{
		"declined": ConfirmFunc(func(context.Context, string) (bool, error) { return false, nil }),
		"nil":      nil,
	} {
		t.Run(name, func(t *testing.T) {
			l := seededBankLedger()
			runs := storage.NewMockRepository()

			report, err := NewBankReconciler(l, testDeps(runs)).Reconcile(context.Background(), BankRequest{
				AccountID:    "acc-card",
				Transactions: []ledger.BankTransaction{bankLine("2025-08-03", "5.00", "Refund")},
				Confirmer:    confirmer,
			})

			require.NoError(t, err)
			l.AssertNotCalled(t, "Sync", mock.Anything, mock.Anything)
			assert.Equal(t, OutcomeDeclined, report.Outcome)
			run, err := runs.GetRun(report.RunID)
			require.NoError(t, err)
			assert.Equal(t, storage.RunStatusDeclined, run.Status)
		})
	}
}

func TestBankReconciler_InSyncSkipsPrompt(t *testing.T) {
	l := seededBankLedger()
	confirmer := ConfirmFunc(func(context.Context, string) (bool, error) {
		t.Fatal("nothing to confirm")
		return false, nil
	})

	report, err := NewBankReconciler(l, testDeps(nil)).Reconcile(context.Background(), BankRequest{
		AccountID:    "acc-card",
		Transactions: []ledger.BankTransaction{bankLine("2025-08-02", "-10", "Coffee")},
		Confirmer:    confirmer,
	})

	require.NoError(t, err)
	assert.Equal(t, OutcomeInSync, report.Outcome)
	assert.True(t, report.Result.InSync())
	assert.True(t, report.Totals.Valid)
	assert.Zero(t, report.RunID)
}

func TestBankReconciler_Errors(t *testing.T) {
	t.Run("unknown account", func(t *testing.T) {
		_, err := NewBankReconciler(seededBankLedger(), testDeps(nil)).Reconcile(context.Background(), BankRequest{
			AccountID:    "missing",
			Transactions: []ledger.BankTransaction{bankLine("2025-08-01", "1", "")},
		})
		assert.ErrorIs(t, err, ErrAccountNotFound)
	})

	t.Run("empty statement", func(t *testing.T) {
		_, err := NewBankReconciler(seededBankLedger(), testDeps(nil)).Reconcile(context.Background(), BankRequest{
			AccountID: "acc-card",
		})
		assert.ErrorIs(t, err, ErrNoBankTransactions)
	})

	t.Run("push failure is recorded", func(t *testing.T) {
		l := seededBankLedger()
		runs := storage.NewMockRepository()
		l.On("Sync", mock.Anything, mock.Anything).Return(assert.AnError)

		report, err := NewBankReconciler(l, testDeps(runs)).Reconcile(context.Background(), BankRequest{
			AccountID:    "acc-card",
			Transactions: []ledger.BankTransaction{bankLine("2025-08-03", "5.00", "Refund")},
			Confirmer:    AutoConfirm,
		})

		assert.ErrorIs(t, err, assert.AnError)
		require.NotNil(t, report)
		run, err := runs.GetRun(report.RunID)
		require.NoError(t, err)
		assert.Equal(t, storage.RunStatusFailed, run.Status)
		assert.NotEmpty(t, run.ErrorMessage)
	})

	t.Run("refresh failure", func(t *testing.T) {
		l := seededBankLedger()
		l.On("Sync", mock.Anything, (*ledger.Diff)(nil)).Return(assert.AnError)

		_, err := NewBankReconciler(l, testDeps(nil)).Reconcile(context.Background(), BankRequest{
			AccountID: "acc-card",
			Refresh:   true,
		})
		assert.ErrorIs(t, err, assert.AnError)
	})
}

func TestBankReconciler_LoadsStatementFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "statement.qif")
	qif := "!Type:Bank\nD08/03/2025\nT5.00\nPRefund\n^\nD08/01/2025\nT-10.00\nPCoffee\n^\n"
	require.NoError(t, os.WriteFile(path, []byte(qif), 0o600))

	l := seededBankLedger()
	l.On("Sync", mock.Anything, (*ledger.Diff)(nil)).Return(nil).Once()

	report, err := NewBankReconciler(l, testDeps(nil)).Reconcile(context.Background(), BankRequest{
		AccountID: "acc-card",
		FilePath:  path,
		Refresh:   true,
		DryRun:    true,
	})

	require.NoError(t, err)
	l.AssertExpectations(t)
	require.Len(t, report.Result.MissingInLedger, 1)
	assert.Equal(t, "Refund", report.Result.MissingInLedger[0].Comment)
	assert.Len(t, report.Result.Matches, 1)
}

// Peer fixtures: alice writes, bob is the peer.
var (
	aliceDebt    = ledger.Account{ID: "alice-debt", User: 1, Title: "Debts", Type: ledger.AccountDebt, Instrument: 840}
	aliceCash    = ledger.Account{ID: "alice-cash", User: 1, Title: "Cash", Type: ledger.AccountCash, Instrument: 840}
	aliceExpense = ledger.Account{ID: "alice-expense", User: 1, Title: "Shared", Type: ledger.AccountCard, Instrument: 840}
	bobDebt      = ledger.Account{ID: "bob-debt", User: 2, Title: "Debts", Type: ledger.AccountDebt, Instrument: 840}
	bobCard      = ledger.Account{ID: "bob-card", User: 2, Title: "Card", Type: ledger.AccountCard, Instrument: 840}
)

func debtTx(id, date, payee string, amount float64, incomeAcc, outcomeAcc string) ledger.Transaction {
	return ledger.Transaction{
		ID:             id,
		Date:           ledger.MustParseDate(date),
		Payee:          ledger.OptionalString(payee),
		Income:         amount,
		Outcome:        amount,
		IncomeAccount:  incomeAcc,
		OutcomeAccount: outcomeAcc,
	}
}

func peerLedgers() (*mockLedger, *mockLedger) {
	alice := newMockLedger("alice")
	alice.Seed(
		[]ledger.Account{aliceDebt, aliceCash, aliceExpense},
		[]ledger.Merchant{{ID: "m-bob", User: 1, Title: "Bob"}},
		[]ledger.Transaction{
			// alice paid bob back 15
			debtTx("a-1", "2025-08-02", "Bob", 15, "alice-cash", "alice-debt"),
		},
	)

	bob := newMockLedger("bob")
	bob.Seed(
		[]ledger.Account{bobDebt, bobCard},
		nil,
		[]ledger.Transaction{
			debtTx("b-1", "2025-08-01", "Alice", 15, "bob-debt", "bob-card"),
			// never recorded by alice
			debtTx("b-2", "2025-08-05", "Alice", 20, "bob-debt", "bob-card"),
			debtTx("b-3", "2025-08-06", "Carol", 99, "bob-debt", "bob-card"),
		},
	)
	return alice, bob
}

func peerRequest() PeerRequest {
	return PeerRequest{
		From:             ledger.MustParseDate("2025-08-01"),
		To:               ledger.MustParseDate("2025-08-31"),
		MyPayee:          "Bob",
		TheirPayee:       "Alice",
		ExpenseAccountID: "alice-expense",
		Confirmer:        AutoConfirm,
	}
}

func TestPeerReconciler_MirrorsMissedPostings(t *testing.T) {
	// Arrange
	alice, bob := peerLedgers()
	runs := storage.NewMockRepository()
	var pushed *ledger.Diff
	alice.On("Sync", mock.Anything, mock.AnythingOfType("*ledger.Diff")).
		Run(func(args mock.Arguments) { pushed = args.Get(1).(*ledger.Diff) }).
		Return(nil).Once()

	// Act
	report, err := NewPeerReconciler(alice, bob, "", testDeps(runs)).Reconcile(context.Background(), peerRequest())

	// Assert
	require.NoError(t, err)
	alice.AssertExpectations(t)
	bob.AssertNotCalled(t, "Sync", mock.Anything, mock.Anything)

	assert.Equal(t, OutcomeApplied, report.Outcome)
	require.Len(t, report.Result.Missed, 1)
	assert.Equal(t, "b-2", report.Result.Missed[0].ID)
	assert.Empty(t, report.Result.Extra)
	require.Len(t, report.Result.Matched, 1)

	require.NotNil(t, pushed)
	require.Len(t, pushed.Transactions, 2)
	debt, expense := pushed.Transactions[0], pushed.Transactions[1]
	assert.Equal(t, "alice-debt", debt.OutcomeAccount)
	assert.Equal(t, "alice-expense", debt.IncomeAccount)
	assert.Equal(t, 20.0, debt.Income)
	require.NotNil(t, debt.Merchant)
	assert.Equal(t, "m-bob", *debt.Merchant)
	assert.Equal(t, "alice-expense", expense.OutcomeAccount)
	assert.Equal(t, 20.0, expense.Outcome)

	require.Len(t, pushed.Accounts, 2)
	assert.Equal(t, "alice-expense", pushed.Accounts[0].ID)
	assert.Equal(t, "alice-debt", pushed.Accounts[1].ID)

	run, err := runs.GetRun(report.RunID)
	require.NoError(t, err)
	assert.Equal(t, "bob", run.Peer)
	assert.Equal(t, storage.RunCounts{Missing: 1, Extra: 0, Matched: 1, Created: 2}, run.Counts)
}

func TestPeerReconciler_RefreshesBothLedgers(t *testing.T) {
	alice, bob := peerLedgers()
	alice.On("Sync", mock.Anything, (*ledger.Diff)(nil)).Return(nil).Once()
	bob.On("Sync", mock.Anything, (*ledger.Diff)(nil)).Return(nil).Once()

	req := peerRequest()
	req.Refresh = true
	req.DryRun = true
	report, err := NewPeerReconciler(alice, bob, "Debts", testDeps(nil)).Reconcile(context.Background(), req)

	require.NoError(t, err)
	alice.AssertExpectations(t)
	bob.AssertExpectations(t)
	assert.Equal(t, OutcomeDryRun, report.Outcome)
}

func TestPeerReconciler_RefreshFailure(t *testing.T) {
	alice, bob := peerLedgers()
	alice.On("Sync", mock.Anything, (*ledger.Diff)(nil)).Return(nil).Maybe()
	bob.On("Sync", mock.Anything, (*ledger.Diff)(nil)).Return(assert.AnError)

	req := peerRequest()
	req.Refresh = true
	_, err := NewPeerReconciler(alice, bob, "", testDeps(nil)).Reconcile(context.Background(), req)

	assert.ErrorIs(t, err, assert.AnError)
	assert.Contains(t, err.Error(), "bob")
}

func TestPeerReconciler_Errors(t *testing.T) {
	t.Run("missing debt account", func(t *testing.T) {
		alice, _ := peerLedgers()
		empty := newMockLedger("carol")

		_, err := NewPeerReconciler(alice, empty, "", testDeps(nil)).Reconcile(context.Background(), peerRequest())

		assert.ErrorIs(t, err, ErrDebtAccountNotFound)
	})

	t.Run("missing merchant", func(t *testing.T) {
		alice, bob := peerLedgers()
		req := peerRequest()
		req.MyPayee = "Robert"
		req.TheirPayee = "Alice"

		_, err := NewPeerReconciler(alice, bob, "", testDeps(nil)).Reconcile(context.Background(), req)

		assert.ErrorIs(t, err, ErrMerchantNotFound)
		alice.AssertNotCalled(t, "Sync", mock.Anything, mock.Anything)
	})

	t.Run("missing expense account", func(t *testing.T) {
		alice, bob := peerLedgers()
		req := peerRequest()
		req.ExpenseAccountID = "nope"

		_, err := NewPeerReconciler(alice, bob, "", testDeps(nil)).Reconcile(context.Background(), req)

		assert.ErrorIs(t, err, ErrAccountNotFound)
	})

	t.Run("confirmer error", func(t *testing.T) {
		alice, bob := peerLedgers()
		req := peerRequest()
		req.Confirmer = ConfirmFunc(func(context.Context, string) (bool, error) { return false, assert.AnError })

		_, err := NewPeerReconciler(alice, bob, "", testDeps(nil)).Reconcile(context.Background(), req)

		assert.ErrorIs(t, err, assert.AnError)
	})
}
