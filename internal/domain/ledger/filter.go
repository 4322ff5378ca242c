package ledger

import "strings"

// Filter selects transactions from a snapshot. Zero fields match anything;
// date bounds are inclusive.
type Filter struct {
	From      Date
	To        Date
	Payee     string
	Merchant  string
	AccountID string
}

// Matches reports whether tx passes the filter.
func (f Filter) Matches(tx Transaction) bool {
	if !f.From.IsZero() && tx.Date.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && tx.Date.After(f.To) {
		return false
	}
	if f.Payee != "" && tx.PayeeName() != f.Payee {
		return false
	}
	if f.Merchant != "" && (tx.Merchant == nil || *tx.Merchant != f.Merchant) {
		return false
	}
	if f.AccountID != "" && !tx.Touches(f.AccountID) {
		return false
	}
	return true
}

// AccountFilter selects accounts. Title is a case-insensitive substring.
type AccountFilter struct {
	Title string
	Type  AccountType
}

// Matches reports whether a passes the filter.
func (f AccountFilter) Matches(a Account) bool {
	if f.Title != "" && !strings.Contains(strings.ToLower(a.Title), strings.ToLower(f.Title)) {
		return false
	}
	if f.Type != "" && a.Type != f.Type {
		return false
	}
	return true
}
