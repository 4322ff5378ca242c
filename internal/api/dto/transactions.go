package dto

import (
	"github.com/eshaffer321/zenmoney-reconcile/internal/domain/ledger"
	"github.com/eshaffer321/zenmoney-reconcile/internal/domain/matcher"
	"github.com/eshaffer321/zenmoney-reconcile/internal/domain/validator"
)

// AccountResponse represents a ledger account.
type AccountResponse struct {
	ID         string  `json:"id"`
	Title      string  `json:"title"`
	Type       string  `json:"type"`
	Instrument int     `json:"instrument"`
	Balance    float64 `json:"balance"`
	Archive    bool    `json:"archive"`
}

// AccountListResponse is returned when listing accounts.
type AccountListResponse struct {
	Accounts []AccountResponse `json:"accounts"`
	Count    int               `json:"count"`
}

// NewAccountResponse converts a ledger account.
func NewAccountResponse(a ledger.Account) AccountResponse {
	return AccountResponse{
		ID:         a.ID,
		Title:      a.Title,
		Type:       string(a.Type),
		Instrument: a.Instrument,
		Balance:    a.Balance,
		Archive:    a.Archive,
	}
}

// TransactionResponse represents a ledger transaction.
type TransactionResponse struct {
	ID             string  `json:"id"`
	Date           string  `json:"date"`
	Income         float64 `json:"income"`
	Outcome        float64 `json:"outcome"`
	IncomeAccount  string  `json:"income_account"`
	OutcomeAccount string  `json:"outcome_account"`
	Payee          string  `json:"payee,omitempty"`
	Merchant       string  `json:"merchant,omitempty"`
	Comment        string  `json:"comment,omitempty"`
	// Net is set when the listing is scoped to one account.
	Net string `json:"net,omitempty"`
}

// TransactionListResponse is returned when listing transactions.
type TransactionListResponse struct {
	Transactions []TransactionResponse `json:"transactions"`
	Count        int                   `json:"count"`
}

// NewTransactionResponse converts a ledger transaction. accountID may be empty.
func NewTransactionResponse(tx ledger.Transaction, accountID string) TransactionResponse {
	resp := TransactionResponse{
		ID:             tx.ID,
		Date:           tx.Date.String(),
		Income:         tx.Income,
		Outcome:        tx.Outcome,
		IncomeAccount:  tx.IncomeAccount,
		OutcomeAccount: tx.OutcomeAccount,
		Payee:          tx.PayeeName(),
		Comment:        tx.Comment,
	}
	if tx.Merchant != nil {
		resp.Merchant = *tx.Merchant
	}
	if accountID != "" {
		resp.Net = ledger.AmountKey(ledger.NetAmount(tx, accountID))
	}
	return resp
}

// BankLineResponse is a statement line in a comparison result.
type BankLineResponse struct {
	Date    string `json:"date"`
	Amount  string `json:"amount"`
	Comment string `json:"comment,omitempty"`
}

// BankMatchResponse pairs a statement line with its ledger record.
type BankMatchResponse struct {
	Bank     BankLineResponse `json:"bank"`
	LedgerID string           `json:"ledger_id"`
	DateDiff int              `json:"date_diff"`
}

// BankCompareResponse is returned by the bank comparison endpoint.
type BankCompareResponse struct {
	RunID           int64                 `json:"run_id,omitempty"`
	AccountID       string                `json:"account_id"`
	From            string                `json:"from"`
	To              string                `json:"to"`
	InSync          bool                  `json:"in_sync"`
	BankTotal       string                `json:"bank_total,omitempty"`
	LedgerTotal     string                `json:"ledger_total,omitempty"`
	TotalsAgree     bool                  `json:"totals_agree"`
	MissingInLedger []BankLineResponse    `json:"missing_in_ledger"`
	ExtraInLedger   []TransactionResponse `json:"extra_in_ledger"`
	Matches         []BankMatchResponse   `json:"matches"`
}

func newBankLineResponse(bt ledger.BankTransaction) BankLineResponse {
	return BankLineResponse{
		Date:    bt.Date.String(),
		Amount:  ledger.AmountKey(bt.Amount),
		Comment: bt.Comment,
	}
}

// NewBankCompareResponse converts a comparison result for accountID.
func NewBankCompareResponse(accountID string, from, to ledger.Date, runID int64, result *matcher.BankResult) BankCompareResponse {
	resp := BankCompareResponse{
		RunID:           runID,
		AccountID:       accountID,
		From:            from.String(),
		To:              to.String(),
		InSync:          result.InSync(),
		MissingInLedger: make([]BankLineResponse, 0, len(result.MissingInLedger)),
		ExtraInLedger:   make([]TransactionResponse, 0, len(result.ExtraInLedger)),
		Matches:         make([]BankMatchResponse, 0, len(result.Matches)),
	}
	for _, bt := range result.MissingInLedger {
		resp.MissingInLedger = append(resp.MissingInLedger, newBankLineResponse(bt))
	}
	for _, tx := range result.ExtraInLedger {
		resp.ExtraInLedger = append(resp.ExtraInLedger, NewTransactionResponse(tx, accountID))
	}
	for _, m := range result.Matches {
		resp.Matches = append(resp.Matches, BankMatchResponse{
			Bank:     newBankLineResponse(m.Bank),
			LedgerID: m.Ledger.ID,
			DateDiff: m.DateDiff,
		})
	}
	return resp
}

// WithTotals adds the window totals to the response.
func (r BankCompareResponse) WithTotals(v *validator.TotalsValidation) BankCompareResponse {
	if v == nil {
		return r
	}
	r.BankTotal = ledger.AmountKey(v.BankSum)
	r.LedgerTotal = ledger.AmountKey(v.LedgerSum)
	r.TotalsAgree = v.Valid
	return r
}
