package storage

import (
	"time"

	"github.com/eshaffer321/zenmoney-reconcile/internal/domain/ledger"
)

// Run kinds
const (
	RunKindBank = "bank"
	RunKindPeer = "peer"
)

// Run statuses
const (
	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
	RunStatusDeclined  = "declined"
	RunStatusFailed    = "failed"
)

// Credentials is the stored OAuth2 token for a remote ledger user.
type Credentials struct {
	AccessToken  string    `json:"-"`
	RefreshToken string    `json:"-"`
	TokenType    string    `json:"token_type"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// Valid reports whether the token is present and not expired.
func (c Credentials) Valid(now time.Time) bool {
	if c.AccessToken == "" {
		return false
	}
	return c.ExpiresAt.IsZero() || now.Before(c.ExpiresAt)
}

// UserState is the per-user sync state.
type UserState struct {
	Owner           string      `json:"owner"`
	UserID          int         `json:"user_id"`
	Credentials     Credentials `json:"credentials"`
	ServerTimestamp int64       `json:"server_timestamp"`
}

// Deletion is a tombstone returned by the remote ledger.
type Deletion struct {
	ID     string `json:"id"`
	Object string `json:"object"`
	User   int    `json:"user"`
	Stamp  int64  `json:"stamp"`
}

// SnapshotDiff is the set of changes to merge into a local snapshot.
type SnapshotDiff struct {
	ServerTimestamp int64
	Accounts        []ledger.Account
	Merchants       []ledger.Merchant
	Transactions    []ledger.Transaction
	Deletions       []Deletion
}

// RunStart describes a run being started.
type RunStart struct {
	Kind      string
	Owner     string
	Peer      string
	AccountID string
	DryRun    bool
}

// RunCounts are the result sizes of a finished run.
type RunCounts struct {
	Missing int `json:"missing"`
	Extra   int `json:"extra"`
	Matched int `json:"matched"`
	Created int `json:"created"`
}

// ReconcileRun represents a reconciliation run record
type ReconcileRun struct {
	ID           int64      `json:"id"`
	Kind         string     `json:"kind"`
	Owner        string     `json:"owner"`
	Peer         string     `json:"peer,omitempty"`
	AccountID    string     `json:"account_id,omitempty"`
	StartedAt    time.Time  `json:"started_at"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
	DryRun       bool       `json:"dry_run"`
	Counts       RunCounts  `json:"counts"`
	Status       string     `json:"status"`
	ErrorMessage string     `json:"error_message,omitempty"`
}

// RemoteCall is one logged call to the remote ledger.
type RemoteCall struct {
	ID         int64     `json:"id"`
	Owner      string    `json:"owner"`
	Operation  string    `json:"operation"`
	Pushed     int       `json:"pushed"`
	Received   int       `json:"received"`
	Error      string    `json:"error,omitempty"`
	DurationMs int64     `json:"duration_ms"`
	CalledAt   time.Time `json:"called_at"`
}
