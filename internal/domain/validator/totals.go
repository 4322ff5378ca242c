// Package validator checks that a statement and the ledger agree in total
// over the statement window.
//
// Matching explains which lines differ; the totals check answers the
// simpler question of how far apart the balances moved. A statement can
// match line by line yet still disagree in total when a ledger record has
// a wrong amount that happened to match nothing.
package validator

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/eshaffer321/zenmoney-reconcile/internal/domain/ledger"
)

// TotalsValidation contains the result of comparing window totals.
type TotalsValidation struct {
	// Valid is true if both sides moved the account by the same amount
	Valid bool

	// BankSum is the sum of all statement lines
	BankSum decimal.Decimal

	// LedgerSum is the net effect of the ledger records on the account
	LedgerSum decimal.Decimal

	// Difference is BankSum - LedgerSum
	Difference decimal.Decimal

	// Reason explains why validation failed (empty if valid)
	Reason string
}

// ValidateTotals compares the statement total with the ledger's net movement
// on accountID. Both sides are rounded to currency precision first.
func ValidateTotals(bankTxs []ledger.BankTransaction, ledgerTxs []ledger.Transaction, accountID string) *TotalsValidation {
	bankSum := decimal.Zero
	for _, bt := range bankTxs {
		bankSum = bankSum.Add(ledger.RoundAmount(bt.Amount))
	}

	ledgerSum := decimal.Zero
	for _, tx := range ledgerTxs {
		ledgerSum = ledgerSum.Add(ledger.NetAmount(tx, accountID))
	}

	diff := bankSum.Sub(ledgerSum)
	v := &TotalsValidation{
		Valid:      diff.IsZero(),
		BankSum:    bankSum,
		LedgerSum:  ledgerSum,
		Difference: diff,
	}

	switch {
	case diff.IsNegative():
		v.Reason = fmt.Sprintf("statement total (%s) is below the ledger (%s) by %s",
			ledger.AmountKey(bankSum), ledger.AmountKey(ledgerSum), ledger.AmountKey(diff.Neg()))
	case diff.IsPositive():
		v.Reason = fmt.Sprintf("statement total (%s) exceeds the ledger (%s) by %s",
			ledger.AmountKey(bankSum), ledger.AmountKey(ledgerSum), ledger.AmountKey(diff))
	}
	return v
}
