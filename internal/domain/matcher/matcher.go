// Package matcher reconciles ledger records against bank statements and
// against a peer's ledger.
//
// Bank matching criteria:
//   - Net amount on the reference account must equal the statement amount
//     at two decimals
//   - Date must be within tolerance (default 2 days)
//   - Each ledger record matches at most one statement line
//
// Peer matching criteria:
//   - Settlement amounts seen from each user's debt account must be equal
//   - Date must be within tolerance (default 1 day)
//
// Example usage:
//
//	m := matcher.NewMatcher(matcher.DefaultConfig())
//	result, err := m.CompareBank(ledgerTxs, bankTxs, accountID)
//	for _, missing := range result.MissingInLedger {
//		// create a corrective entry
//	}
package matcher

// Matcher matches statements and peer ledgers against a user's ledger
type Matcher struct {
	config Config
}

// NewMatcher creates a new matcher with the given config
func NewMatcher(config Config) *Matcher {
	return &Matcher{
		config: config,
	}
}

// Config returns the matcher's configuration
func (m *Matcher) Config() Config {
	return m.config
}
