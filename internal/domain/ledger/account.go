package ledger

// AccountType enumerates the remote ledger account kinds.
type AccountType string

const (
	AccountCash     AccountType = "cash"
	AccountCard     AccountType = "ccard"
	AccountChecking AccountType = "checking"
	AccountLoan     AccountType = "loan"
	AccountDeposit  AccountType = "deposit"
	AccountEMoney   AccountType = "emoney"
	AccountDebt     AccountType = "debt"
)

// Account is a ledger account as the remote service returns it.
type Account struct {
	ID                    string      `json:"id"`
	User                  int         `json:"user"`
	Instrument            int         `json:"instrument"`
	Type                  AccountType `json:"type"`
	Role                  *int        `json:"role"`
	Private               bool        `json:"private"`
	Savings               bool        `json:"savings"`
	Title                 string      `json:"title"`
	InBalance             bool        `json:"inBalance"`
	CreditLimit           float64     `json:"creditLimit"`
	StartBalance          float64     `json:"startBalance"`
	Balance               float64     `json:"balance"`
	Company               *int        `json:"company"`
	Archive               bool        `json:"archive"`
	EnableCorrection      bool        `json:"enableCorrection"`
	EnableSMS             bool        `json:"enableSMS"`
	SyncID                []string    `json:"syncID"`
	Changed               int64       `json:"changed"`
	Capitalization        *bool       `json:"capitalization"`
	Percent               *float64    `json:"percent"`
	StartDate             *string     `json:"startDate"`
	EndDateOffset         *int        `json:"endDateOffset"`
	EndDateOffsetInterval *string     `json:"endDateOffsetInterval"`
	PayoffStep            *int        `json:"payoffStep"`
	PayoffInterval        *string     `json:"payoffInterval"`
}

// AccountUpdate is the write shape of an account. Booleans travel as 0/1
// and enableCorrection is omitted because the service rejects it on write.
type AccountUpdate struct {
	ID                    string      `json:"id"`
	User                  int         `json:"user"`
	Instrument            int         `json:"instrument"`
	Type                  AccountType `json:"type"`
	Role                  *int        `json:"role"`
	Private               int         `json:"private"`
	Savings               int         `json:"savings"`
	Title                 string      `json:"title"`
	InBalance             int         `json:"inBalance"`
	CreditLimit           float64     `json:"creditLimit"`
	StartBalance          float64     `json:"startBalance"`
	Balance               float64     `json:"balance"`
	Company               *int        `json:"company"`
	Archive               int         `json:"archive"`
	EnableSMS             int         `json:"enableSMS"`
	SyncID                []string    `json:"syncID"`
	Changed               int64       `json:"changed"`
	Capitalization        *int        `json:"capitalization"`
	Percent               *float64    `json:"percent"`
	StartDate             *string     `json:"startDate"`
	EndDateOffset         *int        `json:"endDateOffset"`
	EndDateOffsetInterval *string     `json:"endDateOffsetInterval"`
	PayoffStep            *int        `json:"payoffStep"`
	PayoffInterval        *string     `json:"payoffInterval"`
}

// ToUpdate converts the account into its write shape.
func (a Account) ToUpdate() AccountUpdate {
	var capitalization *int
	if a.Capitalization != nil {
		v := boolToInt(*a.Capitalization)
		capitalization = &v
	}
	return AccountUpdate{
		ID:                    a.ID,
		User:                  a.User,
		Instrument:            a.Instrument,
		Type:                  a.Type,
		Role:                  a.Role,
		Private:               boolToInt(a.Private),
		Savings:               boolToInt(a.Savings),
		Title:                 a.Title,
		InBalance:             boolToInt(a.InBalance),
		CreditLimit:           a.CreditLimit,
		StartBalance:          a.StartBalance,
		Balance:               a.Balance,
		Company:               a.Company,
		Archive:               boolToInt(a.Archive),
		EnableSMS:             boolToInt(a.EnableSMS),
		SyncID:                a.SyncID,
		Changed:               a.Changed,
		Capitalization:        capitalization,
		Percent:               a.Percent,
		StartDate:             a.StartDate,
		EndDateOffset:         a.EndDateOffset,
		EndDateOffsetInterval: a.EndDateOffsetInterval,
		PayoffStep:            a.PayoffStep,
		PayoffInterval:        a.PayoffInterval,
	}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
