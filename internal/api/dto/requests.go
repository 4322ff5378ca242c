package dto

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/eshaffer321/zenmoney-reconcile/internal/domain/ledger"
)

// ErrEmptyStatement is returned for a reconcile request without lines.
var ErrEmptyStatement = errors.New("transactions must not be empty")

// BankLine is one statement line in a reconcile request.
type BankLine struct {
	Date    string `json:"date"`
	Amount  string `json:"amount"`
	Payee   string `json:"payee,omitempty"`
	Comment string `json:"comment,omitempty"`
}

// BankReconcileRequest is the body of POST /api/users/{user}/reconcile/bank.
type BankReconcileRequest struct {
	AccountID    string     `json:"account_id"`
	Transactions []BankLine `json:"transactions"`
}

// ToBankTransactions validates the request and converts its lines.
func (r BankReconcileRequest) ToBankTransactions() ([]ledger.BankTransaction, error) {
	if r.AccountID == "" {
		return nil, errors.New("account_id is required")
	}
	if len(r.Transactions) == 0 {
		return nil, ErrEmptyStatement
	}

	out := make([]ledger.BankTransaction, 0, len(r.Transactions))
	for i, line := range r.Transactions {
		date, err := ledger.ParseDate(line.Date)
		if err != nil {
			return nil, fmt.Errorf("transactions[%d]: %w", i, err)
		}
		amount, err := decimal.NewFromString(line.Amount)
		if err != nil {
			return nil, fmt.Errorf("transactions[%d]: invalid amount %q", i, line.Amount)
		}
		comment := line.Comment
		if comment == "" {
			comment = line.Payee
		}
		out = append(out, ledger.BankTransaction{
			Date:    date,
			Amount:  amount,
			Payee:   line.Payee,
			Comment: comment,
		})
	}
	return out, nil
}
