package bankfile

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/eshaffer321/zenmoney-reconcile/internal/domain/ledger"
)

// ErrMissingColumns is returned when a CSV header lacks required columns
var ErrMissingColumns = errors.New("missing required column(s)")

type csvColumns struct {
	date        int
	description int
	amount      int
}

// ParseCSV reads a header-driven CSV export. Columns are located by a
// case-insensitive substring of the header: "date" and "amount" are
// required, "description" is optional. When invertSign is set, charges
// reported as positive become outflows.
func ParseCSV(r io.Reader, invertSign bool) ([]ledger.BankTransaction, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%w: Date, Amount", ErrMissingColumns)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read csv header: %w", err)
	}

	cols, err := locateColumns(header)
	if err != nil {
		return nil, err
	}

	var out []ledger.BankTransaction
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read csv: %w", err)
		}
		line, _ := reader.FieldPos(0)

		if isBlankRow(row) {
			continue
		}

		bt, err := convertRow(row, cols, invertSign)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		out = append(out, bt)
	}

	return out, nil
}

func locateColumns(header []string) (csvColumns, error) {
	find := func(needle string) int {
		for i, col := range header {
			name := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(col, "\ufeff")))
			if strings.Contains(name, needle) {
				return i
			}
		}
		return -1
	}

	cols := csvColumns{
		date:        find("date"),
		description: find("description"),
		amount:      find("amount"),
	}

	var missing []string
	if cols.date < 0 {
		missing = append(missing, "Date")
	}
	if cols.amount < 0 {
		missing = append(missing, "Amount")
	}
	if len(missing) > 0 {
		return cols, fmt.Errorf("%w: %s", ErrMissingColumns, strings.Join(missing, ", "))
	}
	return cols, nil
}

func convertRow(row []string, cols csvColumns, invertSign bool) (ledger.BankTransaction, error) {
	field := func(idx int) string {
		if idx < 0 || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	date, err := ToISODate(field(cols.date))
	if err != nil {
		return ledger.BankTransaction{}, err
	}

	raw := field(cols.amount)
	amount, err := decimal.NewFromString(strings.ReplaceAll(raw, ",", ""))
	if err != nil {
		return ledger.BankTransaction{}, fmt.Errorf("invalid amount %q in row %q", raw, strings.Join(row, ","))
	}
	if invertSign {
		amount = amount.Neg()
	}

	return ledger.BankTransaction{
		Date:    date,
		Amount:  amount,
		Comment: field(cols.description),
	}, nil
}

func isBlankRow(row []string) bool {
	for _, f := range row {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
