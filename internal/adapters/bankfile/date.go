package bankfile

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/eshaffer321/zenmoney-reconcile/internal/domain/ledger"
)

var usSlashDate = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})/(\d{4})$`)

// ToISODate accepts YYYY-MM-DD or M/D/YYYY
func ToISODate(text string) (ledger.Date, error) {
	trimmed := strings.TrimSpace(text)

	if d, err := ledger.ParseDate(trimmed); err == nil {
		return d, nil
	}

	if m := usSlashDate.FindStringSubmatch(trimmed); m != nil {
		month, _ := strconv.Atoi(m[1])
		day, _ := strconv.Atoi(m[2])
		year, _ := strconv.Atoi(m[3])
		d := ledger.NewDate(year, time.Month(month), day)
		if d.Day() == day && int(d.Month()) == month {
			return d, nil
		}
	}

	return ledger.Date{}, fmt.Errorf("unrecognized date format: %q", text)
}
