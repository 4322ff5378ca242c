package bankfile

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/eshaffer321/zenmoney-reconcile/internal/domain/ledger"
)

// DateFormat selects the day/month order of QIF dates
type DateFormat string

const (
	// DateFormatUS reads dates as MM/DD/YY[YY]
	DateFormatUS DateFormat = "us"
	// DateFormatDMY reads dates as DD/MM/YY[YY]
	DateFormatDMY DateFormat = "dmy"
)

// QIFOptions controls QIF parsing
type QIFOptions struct {
	DateFormat DateFormat
	// IgnoreType accepts files without a !Type: header
	IgnoreType bool
	// Now anchors two-digit year expansion; defaults to time.Now
	Now func() time.Time
}

// QIF is a parsed QIF document
type QIF struct {
	Type    string
	Records []QIFRecord
}

// QIFRecord is one ^-terminated QIF entry
type QIFRecord struct {
	Date          ledger.Date
	Amount        decimal.Decimal
	Number        string
	Memo          string
	Address       []string
	Payee         string
	Category      string
	Subcategory   string
	ClearedStatus string
	Splits        []QIFSplit
}

// QIFSplit is a category split inside a record (S, E, $ codes)
type QIFSplit struct {
	Category    string
	Subcategory string
	Description string
	Amount      decimal.Decimal
}

var qifTypeHeader = regexp.MustCompile(`^!Type:(.*)$`)

// ParseQIF parses a QIF document
func ParseQIF(r io.Reader, opts QIFOptions) (*QIF, error) {
	if opts.Now == nil {
		opts.Now = time.Now
	}

	scanner := bufio.NewScanner(r)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("failed to read qif: %w", err)
		}
		return nil, fmt.Errorf("file does not appear to be a valid qif file: empty input")
	}

	header := strings.TrimSpace(strings.TrimPrefix(scanner.Text(), "\ufeff"))
	doc := &QIF{}
	if m := qifTypeHeader.FindStringSubmatch(header); m != nil {
		doc.Type = m[1]
	} else if opts.IgnoreType {
		doc.Type = header
	} else {
		return nil, fmt.Errorf("file does not appear to be a valid qif file: %s", header)
	}

	var (
		record  QIFRecord
		split   QIFSplit
		touched bool
		lineNo  = 1
	)

	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "^" {
			// An empty record, such as a doubled ^, is dropped
			if touched {
				if record.Date.IsZero() {
					return nil, fmt.Errorf("line %d: record without date", lineNo)
				}
				doc.Records = append(doc.Records, record)
			}
			record = QIFRecord{}
			touched = false
			continue
		}

		value := line[1:]
		switch line[0] {
		case '!':
			// Some exporters repeat the type header before every record
			if !strings.Contains(line, "!Type:") {
				return nil, fmt.Errorf("unknown detail code %q on line %d: %s", line[0], lineNo, line)
			}
			continue
		case 'D':
			date, err := parseQIFDate(value, opts.DateFormat, opts.Now())
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
			record.Date = date
		case 'T', 'U':
			amount, err := parseQIFAmount(value)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
			record.Amount = amount
		case 'N':
			record.Number = value
		case 'M':
			record.Memo = value
		case 'A':
			record.Address = append(record.Address, value)
		case 'P':
			record.Payee = strings.ReplaceAll(value, "&amp;", "&")
		case 'L':
			record.Category, record.Subcategory = splitCategory(value)
		case 'C':
			record.ClearedStatus = value
		case 'S':
			split.Category, split.Subcategory = splitCategory(value)
		case 'E':
			split.Description = value
		case '$':
			amount, err := parseQIFAmount(value)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
			split.Amount = amount
			record.Splits = append(record.Splits, split)
			split = QIFSplit{}
		default:
			return nil, fmt.Errorf("unknown detail code %q on line %d: %s", line[0], lineNo, line)
		}
		touched = true
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read qif: %w", err)
	}

	// A trailing record without a closing ^ is still kept
	if touched {
		if record.Date.IsZero() {
			return nil, fmt.Errorf("line %d: record without date", lineNo)
		}
		doc.Records = append(doc.Records, record)
	}

	return doc, nil
}

// BankTransactions converts the records into statement lines
func (q *QIF) BankTransactions() []ledger.BankTransaction {
	out := make([]ledger.BankTransaction, 0, len(q.Records))
	for _, r := range q.Records {
		out = append(out, ledger.BankTransaction{
			Date:     r.Date,
			Amount:   r.Amount,
			Payee:    r.Payee,
			Comment:  r.Payee,
			Number:   r.Number,
			Category: r.Category,
		})
	}
	return out
}

func splitCategory(value string) (string, string) {
	category, sub, _ := strings.Cut(value, ":")
	return category, sub
}

func parseQIFAmount(value string) (decimal.Decimal, error) {
	cleaned := strings.ReplaceAll(strings.TrimSpace(value), ",", "")
	amount, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q", value)
	}
	return amount, nil
}

var nonDigits = regexp.MustCompile(`[^0-9]+`)

// parseQIFDate reads D/M/Y or M/D/Y with any separator. Two-digit years
// land in the 2000s unless that would be in the future.
func parseQIFDate(value string, format DateFormat, now time.Time) (ledger.Date, error) {
	parts := nonDigits.Split(strings.TrimSpace(value), -1)
	if len(parts) > 0 && parts[0] == "" {
		parts = parts[1:]
	}
	if len(parts) < 3 {
		return ledger.Date{}, fmt.Errorf("unrecognized date format: %q", value)
	}

	day, month, yearText := parts[0], parts[1], parts[2]
	if format == DateFormatUS {
		day, month = month, day
	}

	d, errDay := strconv.Atoi(day)
	m, errMonth := strconv.Atoi(month)
	y, errYear := strconv.Atoi(yearText)
	if errDay != nil || errMonth != nil || errYear != nil {
		return ledger.Date{}, fmt.Errorf("unrecognized date format: %q", value)
	}

	if len(yearText) <= 2 {
		if 2000+y > now.Year() {
			y += 1900
		} else {
			y += 2000
		}
	}

	date := ledger.NewDate(y, time.Month(m), d)
	if date.Day() != d || int(date.Month()) != m {
		return ledger.Date{}, fmt.Errorf("unrecognized date format: %q", value)
	}
	return date, nil
}
