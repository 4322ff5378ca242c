package ledger

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNetAmount(t *testing.T) {
	tests := []struct {
		name     string
		tx       Transaction
		account  string
		expected string
	}{
		{
			name:     "simple expense",
			tx:       Transaction{IncomeAccount: "a", OutcomeAccount: "a", Outcome: 12.5},
			account:  "a",
			expected: "-12.50",
		},
		{
			name:     "simple income",
			tx:       Transaction{IncomeAccount: "a", OutcomeAccount: "a", Income: 100},
			account:  "a",
			expected: "100.00",
		},
		{
			name:     "transfer into account",
			tx:       Transaction{IncomeAccount: "a", OutcomeAccount: "b", Income: 50, Outcome: 50},
			account:  "a",
			expected: "50.00",
		},
		{
			name:     "transfer out of account",
			tx:       Transaction{IncomeAccount: "b", OutcomeAccount: "a", Income: 50, Outcome: 50},
			account:  "a",
			expected: "-50.00",
		},
		{
			name:     "float noise is rounded away",
			tx:       Transaction{IncomeAccount: "a", OutcomeAccount: "a", Income: 0.1 + 0.2},
			account:  "a",
			expected: "0.30",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, AmountKey(NetAmount(tt.tx, tt.account)))
		})
	}
}

func TestDaysBetween(t *testing.T) {
	a := MustParseDate("2023-07-31")
	b := MustParseDate("2023-08-02")

	assert.Equal(t, 2, DaysBetween(a, b))
	assert.Equal(t, 2, DaysBetween(b, a))
	assert.Equal(t, 0, DaysBetween(a, a))
	assert.Equal(t, 3, DaysBetween(a, MustParseDate("2023-08-03")))
}

func TestDate_JSON(t *testing.T) {
	t.Run("round trips as YYYY-MM-DD", func(t *testing.T) {
		d := NewDate(2024, time.March, 5)
		data, err := json.Marshal(d)
		require.NoError(t, err)
		assert.Equal(t, `"2024-03-05"`, string(data))

		var back Date
		require.NoError(t, json.Unmarshal(data, &back))
		assert.Equal(t, d, back)
	})

	t.Run("rejects malformed dates", func(t *testing.T) {
		var d Date
		err := json.Unmarshal([]byte(`"05/03/2024"`), &d)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid date")
	})

	t.Run("null is the zero date", func(t *testing.T) {
		var d Date
		require.NoError(t, json.Unmarshal([]byte(`null`), &d))
		assert.True(t, d.IsZero())
	})
}

func TestTransactionUpdate_PlaceholdersSerializeAsNull(t *testing.T) {
	u := TransactionUpdate{ID: "x", Date: MustParseDate("2024-01-01"), Tag: []string{}}

	data, err := json.Marshal(u)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	for _, key := range []string{"payee", "merchant", "opIncome", "originalPayee", "hold", "qrCode", "mcc", "latitude", "reminderMarker"} {
		value, ok := raw[key]
		assert.True(t, ok, "missing key %s", key)
		assert.Nil(t, value, "key %s should be null", key)
	}
	assert.Equal(t, float64(0), raw["viewed"])
}

func TestTransactionUpdate_ToTransaction(t *testing.T) {
	u := TransactionUpdate{ID: "x", Income: 5, IncomeAccount: "a", OutcomeAccount: "a", Viewed: 1, Payee: OptionalString("Alice")}

	tx := u.ToTransaction()

	assert.Equal(t, "x", tx.ID)
	assert.True(t, tx.Viewed)
	assert.Equal(t, "Alice", tx.PayeeName())
	assert.Empty(t, TransactionUpdate{}.ToTransaction().PayeeName())
	assert.True(t, NetAmount(tx, "a").Equal(decimal.NewFromInt(5)))
}

func TestAccount_ToUpdate(t *testing.T) {
	capitalization := true
	a := Account{
		ID:               "acc",
		Title:            "Debts",
		Type:             AccountDebt,
		InBalance:        true,
		Archive:          false,
		EnableCorrection: true,
		Capitalization:   &capitalization,
	}

	u := a.ToUpdate()

	assert.Equal(t, 1, u.InBalance)
	assert.Equal(t, 0, u.Archive)
	require.NotNil(t, u.Capitalization)
	assert.Equal(t, 1, *u.Capitalization)

	data, err := json.Marshal(u)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "enableCorrection")
}

func TestFilter_Matches(t *testing.T) {
	merchant := "m1"
	tx := Transaction{
		Date:           MustParseDate("2024-02-10"),
		Payee:          OptionalString("Alice"),
		Merchant:       &merchant,
		IncomeAccount:  "debt",
		OutcomeAccount: "cash",
	}

	tests := []struct {
		name     string
		filter   Filter
		expected bool
	}{
		{"empty filter", Filter{}, true},
		{"inside range", Filter{From: MustParseDate("2024-02-10"), To: MustParseDate("2024-02-10")}, true},
		{"before range", Filter{From: MustParseDate("2024-02-11")}, false},
		{"after range", Filter{To: MustParseDate("2024-02-09")}, false},
		{"payee", Filter{Payee: "Alice"}, true},
		{"other payee", Filter{Payee: "Bob"}, false},
		{"merchant", Filter{Merchant: "m1"}, true},
		{"other merchant", Filter{Merchant: "m2"}, false},
		{"income side account", Filter{AccountID: "debt"}, true},
		{"outcome side account", Filter{AccountID: "cash"}, true},
		{"unrelated account", Filter{AccountID: "card"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.filter.Matches(tx))
		})
	}
}

func TestAccountFilter_Matches(t *testing.T) {
	a := Account{Title: "Main Debts", Type: AccountDebt}

	assert.True(t, AccountFilter{Title: "debts"}.Matches(a))
	assert.True(t, AccountFilter{Title: "DEBT", Type: AccountDebt}.Matches(a))
	assert.False(t, AccountFilter{Type: AccountCash}.Matches(a))
	assert.False(t, AccountFilter{Title: "savings"}.Matches(a))
}

func TestDiff_IsEmpty(t *testing.T) {
	var nilDiff *Diff
	assert.True(t, nilDiff.IsEmpty())
	assert.True(t, (&Diff{}).IsEmpty())
	assert.False(t, (&Diff{Accounts: []AccountUpdate{{ID: "a"}}}).IsEmpty())
}
