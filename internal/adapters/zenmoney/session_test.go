package zenmoney

import (
	"context"
	"encoding/json"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eshaffer321/zenmoney-reconcile/internal/domain/ledger"
	"github.com/eshaffer321/zenmoney-reconcile/internal/infrastructure/config"
	"github.com/eshaffer321/zenmoney-reconcile/internal/infrastructure/logging"
	"github.com/eshaffer321/zenmoney-reconcile/internal/infrastructure/storage"
)

const diffBody = `{
	"serverTimestamp": 300,
	"user": [{"id": 11}],
	"account": [{"id": "acc-1", "title": "Visa", "type": "ccard", "instrument": 1}],
	"merchant": [{"id": "m-1", "title": "Bob", "user": 11}],
	"transaction": [{"id": "t-1", "date": "2025-08-01", "outcome": 10, "incomeAccount": "acc-1", "outcomeAccount": "acc-1"}]
}`

func newSession(client *Client, repo *storage.MockRepository, user config.UserConfig) *Session {
	return NewSession(client, "alice", user, repo.Ledger("alice"), repo, logging.Discard())
}

func TestSession_SyncLogsInAndStoresSnapshot(t *testing.T) {
	// Arrange
	var logins int32
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case tokenPath:
			atomic.AddInt32(&logins, 1)
			writeToken(w, "fresh")
		case diffPath:
			assert.Equal(t, "Bearer fresh", r.Header.Get("Authorization"))
			_, _ = w.Write([]byte(diffBody))
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	})
	repo := storage.NewMockRepository()
	session := newSession(client, repo, config.UserConfig{Username: "alice", Password: "pw"})

	// Act
	err := session.Sync(context.Background(), nil)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&logins))

	state, err := repo.Ledger("alice").GetState()
	require.NoError(t, err)
	assert.Equal(t, int64(300), state.ServerTimestamp)
	assert.Equal(t, 11, state.UserID)
	assert.Equal(t, "fresh", state.Credentials.AccessToken)

	txs, err := session.GetTransactions(ledger.Filter{AccountID: "acc-1"})
	require.NoError(t, err)
	require.Len(t, txs, 1)

	account, err := session.GetAccount("acc-1")
	require.NoError(t, err)
	require.NotNil(t, account)

	merchant, err := session.GetMerchant("BOB")
	require.NoError(t, err)
	require.NotNil(t, merchant)

	calls, err := repo.ListCalls("alice", 10)
	require.NoError(t, err)
	require.Len(t, calls, 2)
	assert.Equal(t, "diff", calls[0].Operation)
	assert.Equal(t, 3, calls[0].Received)
	assert.Equal(t, "login", calls[1].Operation)
}

func TestSession_ReusesStoredToken(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == tokenPath {
			t.Fatal("login should not be called")
		}
		assert.Equal(t, "Bearer stored", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"serverTimestamp": 10}`))
	})
	repo := storage.NewMockRepository()
	require.NoError(t, repo.Ledger("alice").SaveState(&storage.UserState{
		ServerTimestamp: 5,
		Credentials: storage.Credentials{
			AccessToken: "stored",
			TokenType:   "bearer",
			ExpiresAt:   time.Now().Add(time.Hour),
		},
	}))
	session := newSession(client, repo, config.UserConfig{})

	require.NoError(t, session.Sync(context.Background(), nil))

	state, err := repo.Ledger("alice").GetState()
	require.NoError(t, err)
	assert.Equal(t, int64(10), state.ServerTimestamp)
}

func TestSession_PushesUpdate(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == tokenPath {
			writeToken(w, "abc")
			return
		}
		var req DiffRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Transactions, 1)
		require.Len(t, req.Accounts, 1)
		assert.Equal(t, "new-tx", req.Transactions[0].ID)
		_, _ = w.Write([]byte(`{"serverTimestamp": 400}`))
	})
	repo := storage.NewMockRepository()
	session := newSession(client, repo, config.UserConfig{Username: "alice", Password: "pw"})

	err := session.Sync(context.Background(), &ledger.Diff{
		Transactions: []ledger.TransactionUpdate{{ID: "new-tx", Date: ledger.MustParseDate("2025-08-01"), Tag: []string{}}},
		Accounts:     []ledger.AccountUpdate{{ID: "acc-1", Title: "Visa"}},
	})

	require.NoError(t, err)
	calls, err := repo.ListCalls("alice", 1)
	require.NoError(t, err)
	require.Len(t, calls, 1)
	assert.Equal(t, 2, calls[0].Pushed)
}

func TestSession_LogsInAgainWhenTokenRejected(t *testing.T) {
	var logins int32
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == tokenPath:
			atomic.AddInt32(&logins, 1)
			writeToken(w, "new")
		case r.Header.Get("Authorization") == "Bearer old":
			w.WriteHeader(http.StatusUnauthorized)
		default:
			_, _ = w.Write([]byte(`{"serverTimestamp": 20}`))
		}
	})
	repo := storage.NewMockRepository()
	require.NoError(t, repo.Ledger("alice").SaveState(&storage.UserState{
		Credentials: storage.Credentials{AccessToken: "old", ExpiresAt: time.Now().Add(time.Hour)},
	}))
	session := newSession(client, repo, config.UserConfig{Username: "alice", Password: "pw"})

	require.NoError(t, session.Sync(context.Background(), nil))

	assert.Equal(t, int32(1), atomic.LoadInt32(&logins))
	state, err := repo.Ledger("alice").GetState()
	require.NoError(t, err)
	assert.Equal(t, "new", state.Credentials.AccessToken)
	assert.Equal(t, int64(20), state.ServerTimestamp)
}

func TestSession_NoCredentials(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected")
	})
	session := newSession(client, storage.NewMockRepository(), config.UserConfig{})

	err := session.EnsureLogin(context.Background())

	assert.ErrorIs(t, err, ErrNoCredentials)
}

func TestSession_StoreFailure(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == tokenPath {
			writeToken(w, "abc")
			return
		}
		_, _ = w.Write([]byte(diffBody))
	})
	repo := storage.NewMockRepository()
	repo.MockLedger("alice").ApplyDiffErr = assert.AnError
	session := newSession(client, repo, config.UserConfig{Username: "alice", Password: "pw"})

	err := session.Sync(context.Background(), nil)

	assert.ErrorIs(t, err, assert.AnError)
}
