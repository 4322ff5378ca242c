// Package bankfile reads bank and card statement exports (QIF and CSV)
// into statement lines.
//
// Example usage:
//
//	lines, err := bankfile.LoadFile("statement.qif", account)
package bankfile

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/eshaffer321/zenmoney-reconcile/internal/domain/ledger"
)

// invertedIssuers export charges as positive amounts
var invertedIssuers = []string{"amex", "american express"}

// InvertsSign reports whether exports for this account need their sign flipped
func InvertsSign(account ledger.Account) bool {
	title := strings.ToLower(account.Title)
	for _, issuer := range invertedIssuers {
		if strings.Contains(title, issuer) {
			return true
		}
	}
	return false
}

// LoadFile parses a statement file, choosing the parser by extension
func LoadFile(path string, account ledger.Account) ([]ledger.BankTransaction, error) {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	if ext != "csv" && ext != "qif" {
		return nil, fmt.Errorf("unsupported file extension: %s", ext)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open statement: %w", err)
	}
	defer func() { _ = f.Close() }()

	switch ext {
	case "csv":
		lines, err := ParseCSV(f, InvertsSign(account))
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
		}
		return lines, nil
	default:
		doc, err := ParseQIF(f, QIFOptions{DateFormat: DateFormatUS})
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
		}
		return doc.BankTransactions(), nil
	}
}
