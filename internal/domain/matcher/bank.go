package matcher

import (
	"github.com/eshaffer321/zenmoney-reconcile/internal/domain/ledger"
)

// CompareBank matches statement lines against ledger records of accountID.
//
// Ledger records are bucketed by their net amount on the account. Each
// statement line, in input order, takes the unmatched candidate of equal
// amount with the smallest date distance within tolerance; on a tie the
// earliest candidate in input order wins. The inputs are not modified.
func (m *Matcher) CompareBank(
	ledgerTxs []ledger.Transaction,
	bankTxs []ledger.BankTransaction,
	accountID string,
) (*BankResult, error) {
	if accountID == "" {
		return nil, ErrEmptyAccountID
	}

	// Bucket ledger records by amount, keeping input order within a bucket
	byAmount := make(map[string][]int)
	for i, tx := range ledgerTxs {
		key := ledger.AmountKey(ledger.NetAmount(tx, accountID))
		byAmount[key] = append(byAmount[key], i)
	}

	matched := make([]bool, len(ledgerTxs))
	result := &BankResult{
		MissingInLedger: []ledger.BankTransaction{},
		ExtraInLedger:   []ledger.Transaction{},
		Matches:         []BankMatch{},
	}

	for _, bt := range bankTxs {
		key := ledger.AmountKey(ledger.RoundAmount(bt.Amount))

		best := -1
		bestDiff := 0
		for _, idx := range byAmount[key] {
			if matched[idx] {
				continue
			}

			diff := ledger.DaysBetween(ledgerTxs[idx].Date, bt.Date)
			if diff > m.config.BankDateTolerance {
				continue
			}

			// Strict comparison keeps the first candidate on ties
			if best == -1 || diff < bestDiff {
				best = idx
				bestDiff = diff
			}
		}

		if best == -1 {
			result.MissingInLedger = append(result.MissingInLedger, bt)
			continue
		}

		matched[best] = true
		result.Matches = append(result.Matches, BankMatch{
			Bank:     bt,
			Ledger:   ledgerTxs[best],
			DateDiff: bestDiff,
		})
	}

	for i, tx := range ledgerTxs {
		if !matched[i] {
			result.ExtraInLedger = append(result.ExtraInLedger, tx)
		}
	}

	return result, nil
}
