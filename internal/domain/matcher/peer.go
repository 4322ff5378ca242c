package matcher

import (
	"github.com/shopspring/decimal"

	"github.com/eshaffer321/zenmoney-reconcile/internal/domain/ledger"
)

// DiffPeers compares my debt postings against the peer's.
//
// A pair is the same operation when the settlement amount seen from each
// side is equal and the dates are within tolerance. Each of my records, in
// order, consumes the first matching record from a working copy of the
// peer's list. Records of mine left unmatched are Extra; peer records never
// consumed are Missed.
func (m *Matcher) DiffPeers(
	mine []ledger.Transaction,
	theirs []ledger.Transaction,
	myDebtAccountID string,
	theirDebtAccountID string,
) (*PeerResult, error) {
	if myDebtAccountID == "" || theirDebtAccountID == "" {
		return nil, ErrDebtAccountNotFound
	}

	pool := make([]ledger.Transaction, len(theirs))
	copy(pool, theirs)

	result := &PeerResult{
		Missed:  []ledger.Transaction{},
		Extra:   []ledger.Transaction{},
		Matched: []PeerMatch{},
	}

	for _, tx := range mine {
		amount := MySettlementAmount(tx, myDebtAccountID)

		found := -1
		for i, candidate := range pool {
			if !amount.Equal(TheirSettlementAmount(candidate, theirDebtAccountID)) {
				continue
			}
			if ledger.DaysBetween(tx.Date, candidate.Date) > m.config.PeerDateTolerance {
				continue
			}
			found = i
			break
		}

		if found == -1 {
			result.Extra = append(result.Extra, tx)
			continue
		}

		result.Matched = append(result.Matched, PeerMatch{Mine: tx, Theirs: pool[found]})
		pool = append(pool[:found], pool[found+1:]...)
	}

	result.Missed = append(result.Missed, pool...)
	return result, nil
}

// MySettlementAmount is the amount of tx seen from my debt account:
// -Outcome when money left the debt account, otherwise +Income.
func MySettlementAmount(tx ledger.Transaction, myDebtAccountID string) decimal.Decimal {
	if tx.OutcomeAccount == myDebtAccountID {
		return ledger.RoundAmount(decimal.NewFromFloat(tx.Outcome).Neg())
	}
	return ledger.RoundAmount(decimal.NewFromFloat(tx.Income))
}

// TheirSettlementAmount is the amount of tx mirrored onto my side: -Income
// when money entered the peer's debt account, otherwise +Outcome.
func TheirSettlementAmount(tx ledger.Transaction, theirDebtAccountID string) decimal.Decimal {
	if tx.IncomeAccount == theirDebtAccountID {
		return ledger.RoundAmount(decimal.NewFromFloat(tx.Income).Neg())
	}
	return ledger.RoundAmount(decimal.NewFromFloat(tx.Outcome))
}
