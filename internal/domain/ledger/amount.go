package ledger

import "github.com/shopspring/decimal"

// CurrencyPlaces is the precision amounts are compared at.
const CurrencyPlaces = 2

// NetAmount returns the signed effect of tx on accountID.
//
// For a transfer or debt pair the receiving side sees +Income and the
// paying side sees -Outcome. A simple entry nets Income - Outcome.
func NetAmount(tx Transaction, accountID string) decimal.Decimal {
	income := decimal.NewFromFloat(tx.Income)
	outcome := decimal.NewFromFloat(tx.Outcome)

	if tx.IsTransfer() {
		if tx.IncomeAccount == accountID {
			return RoundAmount(income)
		}
		return RoundAmount(outcome.Neg())
	}
	return RoundAmount(income.Sub(outcome))
}

// RoundAmount rounds to currency precision.
func RoundAmount(d decimal.Decimal) decimal.Decimal {
	return d.Round(CurrencyPlaces)
}

// AmountKey renders an amount at currency precision for use as a map key.
func AmountKey(d decimal.Decimal) string {
	return d.StringFixed(CurrencyPlaces)
}
