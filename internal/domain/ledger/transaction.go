package ledger

import (
	"github.com/shopspring/decimal"
)

// ProviderFields are the bank-import and geolocation fields the remote
// ledger keeps on every transaction. Locally created entries leave them
// nil, which serializes as an explicit null.
type ProviderFields struct {
	OpIncome            *float64 `json:"opIncome"`
	OpOutcome           *float64 `json:"opOutcome"`
	OpIncomeInstrument  *int     `json:"opIncomeInstrument"`
	OpOutcomeInstrument *int     `json:"opOutcomeInstrument"`
	OriginalPayee       *string  `json:"originalPayee"`
	Source              *string  `json:"source"`
	Hold                *bool    `json:"hold"`
	QRCode              *string  `json:"qrCode"`
	MCC                 *int     `json:"mcc"`
	Latitude            *float64 `json:"latitude"`
	Longitude           *float64 `json:"longitude"`
	IncomeBankID        *string  `json:"incomeBankID"`
	OutcomeBankID       *string  `json:"outcomeBankID"`
	ReminderMarker      *string  `json:"reminderMarker"`
}

// Transaction is a ledger record as the remote service returns it.
// Income and Outcome are non-negative magnitudes; a record with distinct
// income and outcome accounts is a transfer or debt pair.
type Transaction struct {
	ID                string   `json:"id"`
	User              int      `json:"user"`
	Date              Date     `json:"date"`
	Income            float64  `json:"income"`
	Outcome           float64  `json:"outcome"`
	IncomeAccount     string   `json:"incomeAccount"`
	OutcomeAccount    string   `json:"outcomeAccount"`
	IncomeInstrument  int      `json:"incomeInstrument"`
	OutcomeInstrument int      `json:"outcomeInstrument"`
	Payee             *string  `json:"payee"`
	Merchant          *string  `json:"merchant"`
	Comment           string   `json:"comment"`
	Tag               []string `json:"tag"`
	Created           int64    `json:"created"`
	Changed           int64    `json:"changed"`
	Deleted           bool     `json:"deleted"`
	Viewed            bool     `json:"viewed"`
	ProviderFields
}

// PayeeName returns the payee, or an empty string when none is set.
func (t Transaction) PayeeName() string {
	if t.Payee == nil {
		return ""
	}
	return *t.Payee
}

// IsTransfer reports whether the record moves value between two accounts.
func (t Transaction) IsTransfer() bool {
	return t.IncomeAccount != t.OutcomeAccount
}

// Touches reports whether accountID is on either side of the record.
func (t Transaction) Touches(accountID string) bool {
	return t.IncomeAccount == accountID || t.OutcomeAccount == accountID
}

// TransactionUpdate is the write shape sent back to the remote service.
// It differs from Transaction only in encoding viewed as 0/1.
type TransactionUpdate struct {
	ID                string   `json:"id"`
	User              int      `json:"user"`
	Date              Date     `json:"date"`
	Income            float64  `json:"income"`
	Outcome           float64  `json:"outcome"`
	IncomeAccount     string   `json:"incomeAccount"`
	OutcomeAccount    string   `json:"outcomeAccount"`
	IncomeInstrument  int      `json:"incomeInstrument"`
	OutcomeInstrument int      `json:"outcomeInstrument"`
	Payee             *string  `json:"payee"`
	Merchant          *string  `json:"merchant"`
	Comment           string   `json:"comment"`
	Tag               []string `json:"tag"`
	Created           int64    `json:"created"`
	Changed           int64    `json:"changed"`
	Deleted           bool     `json:"deleted"`
	Viewed            int      `json:"viewed"`
	ProviderFields
}

// ToTransaction converts an update into the read shape.
func (u TransactionUpdate) ToTransaction() Transaction {
	return Transaction{
		ID:                u.ID,
		User:              u.User,
		Date:              u.Date,
		Income:            u.Income,
		Outcome:           u.Outcome,
		IncomeAccount:     u.IncomeAccount,
		OutcomeAccount:    u.OutcomeAccount,
		IncomeInstrument:  u.IncomeInstrument,
		OutcomeInstrument: u.OutcomeInstrument,
		Payee:             u.Payee,
		Merchant:          u.Merchant,
		Comment:           u.Comment,
		Tag:               u.Tag,
		Created:           u.Created,
		Changed:           u.Changed,
		Deleted:           u.Deleted,
		Viewed:            u.Viewed != 0,
		ProviderFields:    u.ProviderFields,
	}
}

// OptionalString returns nil for an empty string, so the field
// serializes as null.
func OptionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// BankTransaction is one line of a bank statement. Amount is signed:
// positive is money in, negative is money out.
type BankTransaction struct {
	Date     Date            `json:"date"`
	Amount   decimal.Decimal `json:"amount"`
	Payee    string          `json:"payee,omitempty"`
	Comment  string          `json:"comment,omitempty"`
	Number   string          `json:"number,omitempty"`
	Category string          `json:"category,omitempty"`
}

// Merchant is a named counterparty in the ledger.
type Merchant struct {
	ID      string `json:"id"`
	User    int    `json:"user"`
	Title   string `json:"title"`
	Changed int64  `json:"changed"`
}

// Diff is a batch of changes pushed to the remote ledger in one request.
type Diff struct {
	Transactions []TransactionUpdate `json:"transaction,omitempty"`
	Accounts     []AccountUpdate     `json:"account,omitempty"`
}

// IsEmpty reports whether the diff carries no changes.
func (d *Diff) IsEmpty() bool {
	return d == nil || (len(d.Transactions) == 0 && len(d.Accounts) == 0)
}
