package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/eshaffer321/zenmoney-reconcile/internal/api/dto"
	"github.com/eshaffer321/zenmoney-reconcile/internal/domain/ledger"
	"github.com/eshaffer321/zenmoney-reconcile/internal/infrastructure/storage"
)

// Base provides shared functionality for all handlers.
type Base struct {
	repo  storage.Repository
	users map[string]bool
}

// NewBase creates a new base handler with the given repository and the
// configured user names served under /api/users/{user}.
func NewBase(repo storage.Repository, users []string) *Base {
	known := make(map[string]bool, len(users))
	for _, u := range users {
		known[u] = true
	}
	return &Base{repo: repo, users: known}
}

// WriteJSON writes a JSON response with the given status code.
func (b *Base) WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// WriteError writes an error response with the given status code.
func (b *Base) WriteError(w http.ResponseWriter, status int, err dto.APIError) {
	b.WriteJSON(w, status, err)
}

// userLedger resolves the {user} URL parameter. It writes a 404 and
// returns ok=false for users that are not configured.
func (b *Base) userLedger(w http.ResponseWriter, r *http.Request) (string, storage.LedgerRepository, bool) {
	user := chi.URLParam(r, "user")
	if !b.users[user] {
		b.WriteError(w, http.StatusNotFound, dto.UnknownUserError(user))
		return "", nil, false
	}
	return user, b.repo.Ledger(user), true
}

// ParseIntParam parses an integer query parameter with a default value.
func ParseIntParam(r *http.Request, name string, defaultVal int) int {
	val := r.URL.Query().Get(name)
	if val == "" {
		return defaultVal
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return parsed
}

// ParseDateParam parses a YYYY-MM-DD query parameter. Empty yields a zero date.
func ParseDateParam(r *http.Request, name string) (ledger.Date, error) {
	val := r.URL.Query().Get(name)
	if val == "" {
		return ledger.Date{}, nil
	}
	return ledger.ParseDate(val)
}
