package cli

import (
	"fmt"

	"github.com/eshaffer321/zenmoney-reconcile/internal/application/reconcile"
	"github.com/eshaffer321/zenmoney-reconcile/internal/domain/ledger"
)

// GlobalFlags are shared by every command
type GlobalFlags struct {
	ConfigPath string
	Verbose    bool
	User       string
}

// BankFlags are the flags of the bank command
type BankFlags struct {
	AccountID string
	File      string
	DryRun    bool
	Yes       bool
	Offline   bool
}

// ToRequest converts BankFlags to a reconcile.BankRequest
func (f BankFlags) ToRequest(confirmer reconcile.Confirmer) reconcile.BankRequest {
	if f.Yes {
		confirmer = reconcile.AutoConfirm
	}
	return reconcile.BankRequest{
		AccountID: f.AccountID,
		FilePath:  f.File,
		Refresh:   !f.Offline,
		DryRun:    f.DryRun,
		Confirmer: confirmer,
	}
}

// PeerFlags are the flags of the peer command
type PeerFlags struct {
	PeerUser       string
	From           string
	To             string
	MyPayee        string
	TheirPayee     string
	ExpenseAccount string
	DryRun         bool
	Yes            bool
	Offline        bool
}

// ToRequest validates the dates and converts PeerFlags to a reconcile.PeerRequest
func (f PeerFlags) ToRequest(confirmer reconcile.Confirmer) (reconcile.PeerRequest, error) {
	from, err := ledger.ParseDate(f.From)
	if err != nil {
		return reconcile.PeerRequest{}, fmt.Errorf("invalid --from: %w", err)
	}
	to := ledger.Date{}
	if f.To != "" {
		to, err = ledger.ParseDate(f.To)
		if err != nil {
			return reconcile.PeerRequest{}, fmt.Errorf("invalid --to: %w", err)
		}
		if to.Before(from) {
			return reconcile.PeerRequest{}, fmt.Errorf("--to %s is before --from %s", to, from)
		}
	}
	if f.Yes {
		confirmer = reconcile.AutoConfirm
	}
	return reconcile.PeerRequest{
		From:             from,
		To:               to,
		MyPayee:          f.MyPayee,
		TheirPayee:       f.TheirPayee,
		ExpenseAccountID: f.ExpenseAccount,
		Refresh:          !f.Offline,
		DryRun:           f.DryRun,
		Confirmer:        confirmer,
	}, nil
}
