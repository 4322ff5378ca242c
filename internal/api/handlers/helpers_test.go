package handlers_test

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/eshaffer321/zenmoney-reconcile/internal/domain/ledger"
	"github.com/eshaffer321/zenmoney-reconcile/internal/infrastructure/storage"
)

// serve routes a single request through a chi router so URL params resolve.
func serve(t *testing.T, method, pattern, target string, body []byte, h http.HandlerFunc) *httptest.ResponseRecorder {
	t.Helper()
	r := chi.NewRouter()
	r.MethodFunc(method, pattern, h)

	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func seededRepo() *storage.MockRepository {
	repo := storage.NewMockRepository()
	merchant := "m-coffee"
	repo.MockLedger("alice").Seed(
		[]ledger.Account{
			{ID: "card", Title: "Main Card", Type: ledger.AccountCard, Balance: 90},
			{ID: "debts", Title: "Debts", Type: ledger.AccountDebt},
		},
		[]ledger.Merchant{{ID: "m-coffee", Title: "Coffee"}},
		[]ledger.Transaction{
			{ID: "t-1", Date: ledger.MustParseDate("2025-08-02"), Outcome: 10, IncomeAccount: "card", OutcomeAccount: "card", Payee: ledger.OptionalString("Coffee"), Merchant: &merchant},
			{ID: "t-2", Date: ledger.MustParseDate("2025-08-05"), Income: 100, IncomeAccount: "card", OutcomeAccount: "card", Payee: ledger.OptionalString("Salary")},
			{ID: "t-3", Date: ledger.MustParseDate("2025-07-01"), Outcome: 5, IncomeAccount: "card", OutcomeAccount: "card", Payee: ledger.OptionalString("Kiosk")},
		},
	)
	return repo
}
