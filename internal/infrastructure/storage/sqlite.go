package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/eshaffer321/zenmoney-reconcile/internal/domain/ledger"
)

// Storage provides SQLite database access for ledger snapshots and runs.
// It implements the Repository interface.
type Storage struct {
	db *sql.DB
}

// Compile-time check that Storage implements Repository
var _ Repository = (*Storage)(nil)

// NewStorage creates a new storage instance with SQLite database
func NewStorage(dbPath string) (*Storage, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	// Enable foreign key constraints (SQLite-specific)
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	if err := runMigrations(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Storage{db: db}, nil
}

// Close closes the database connection
func (s *Storage) Close() error {
	return s.db.Close()
}

// Ledger returns the snapshot store for owner.
func (s *Storage) Ledger(owner string) LedgerRepository {
	return &ledgerStore{db: s.db, owner: owner}
}

type ledgerStore struct {
	db    *sql.DB
	owner string
}

var _ LedgerRepository = (*ledgerStore)(nil)

func (l *ledgerStore) GetState() (*UserState, error) {
	state := &UserState{Owner: l.owner}
	var expires sql.NullTime

	err := l.db.QueryRow(`
		SELECT user_id, access_token, refresh_token, token_type, expires_at, server_timestamp
		FROM ledger_users WHERE owner = ?`, l.owner).Scan(
		&state.UserID,
		&state.Credentials.AccessToken,
		&state.Credentials.RefreshToken,
		&state.Credentials.TokenType,
		&expires,
		&state.ServerTimestamp,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return state, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load state for %s: %w", l.owner, err)
	}
	if expires.Valid {
		state.Credentials.ExpiresAt = expires.Time
	}
	return state, nil
}

func (l *ledgerStore) SaveState(state *UserState) error {
	var expires sql.NullTime
	if !state.Credentials.ExpiresAt.IsZero() {
		expires = sql.NullTime{Time: state.Credentials.ExpiresAt, Valid: true}
	}

	_, err := l.db.Exec(`
		INSERT INTO ledger_users
		(owner, user_id, access_token, refresh_token, token_type, expires_at, server_timestamp, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(owner) DO UPDATE SET
			user_id = excluded.user_id,
			access_token = excluded.access_token,
			refresh_token = excluded.refresh_token,
			token_type = excluded.token_type,
			expires_at = excluded.expires_at,
			server_timestamp = excluded.server_timestamp,
			updated_at = excluded.updated_at`,
		l.owner,
		state.UserID,
		state.Credentials.AccessToken,
		state.Credentials.RefreshToken,
		state.Credentials.TokenType,
		expires,
		state.ServerTimestamp,
		time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to save state for %s: %w", l.owner, err)
	}
	return nil
}

func (l *ledgerStore) ApplyDiff(diff *SnapshotDiff) error {
	if diff == nil {
		return nil
	}

	tx, err := l.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, a := range diff.Accounts {
		data, err := json.Marshal(a)
		if err != nil {
			return fmt.Errorf("failed to encode account %s: %w", a.ID, err)
		}
		_, err = tx.Exec(`
			INSERT INTO ledger_accounts (owner, id, title, type, changed, data_json)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT(owner, id) DO UPDATE SET
				title = excluded.title,
				type = excluded.type,
				changed = excluded.changed,
				data_json = excluded.data_json`,
			l.owner, a.ID, a.Title, string(a.Type), a.Changed, string(data))
		if err != nil {
			return fmt.Errorf("failed to save account %s: %w", a.ID, err)
		}
	}

	for _, m := range diff.Merchants {
		data, err := json.Marshal(m)
		if err != nil {
			return fmt.Errorf("failed to encode merchant %s: %w", m.ID, err)
		}
		_, err = tx.Exec(`
			INSERT INTO ledger_merchants (owner, id, title, changed, data_json)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(owner, id) DO UPDATE SET
				title = excluded.title,
				changed = excluded.changed,
				data_json = excluded.data_json`,
			l.owner, m.ID, m.Title, m.Changed, string(data))
		if err != nil {
			return fmt.Errorf("failed to save merchant %s: %w", m.ID, err)
		}
	}

	for _, t := range diff.Transactions {
		if t.Deleted {
			if err := deleteObject(tx, "ledger_transactions", l.owner, t.ID); err != nil {
				return err
			}
			continue
		}
		data, err := json.Marshal(t)
		if err != nil {
			return fmt.Errorf("failed to encode transaction %s: %w", t.ID, err)
		}
		merchant := ""
		if t.Merchant != nil {
			merchant = *t.Merchant
		}
		_, err = tx.Exec(`
			INSERT INTO ledger_transactions
			(owner, id, date, payee, merchant, income_account, outcome_account, changed, data_json)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(owner, id) DO UPDATE SET
				date = excluded.date,
				payee = excluded.payee,
				merchant = excluded.merchant,
				income_account = excluded.income_account,
				outcome_account = excluded.outcome_account,
				changed = excluded.changed,
				data_json = excluded.data_json`,
			l.owner, t.ID, t.Date.String(), t.PayeeName(), merchant,
			t.IncomeAccount, t.OutcomeAccount, t.Changed, string(data))
		if err != nil {
			return fmt.Errorf("failed to save transaction %s: %w", t.ID, err)
		}
	}

	for _, d := range diff.Deletions {
		table, ok := deletionTables[d.Object]
		if !ok {
			continue
		}
		if err := deleteObject(tx, table, l.owner, d.ID); err != nil {
			return err
		}
	}

	if diff.ServerTimestamp > 0 {
		_, err = tx.Exec(`
			INSERT INTO ledger_users (owner, server_timestamp) VALUES (?, ?)
			ON CONFLICT(owner) DO UPDATE SET server_timestamp = excluded.server_timestamp`,
			l.owner, diff.ServerTimestamp)
		if err != nil {
			return fmt.Errorf("failed to advance server timestamp: %w", err)
		}
	}

	return tx.Commit()
}

var deletionTables = map[string]string{
	"transaction": "ledger_transactions",
	"account":     "ledger_accounts",
	"merchant":    "ledger_merchants",
}

func deleteObject(tx *sql.Tx, table, owner, id string) error {
	// table always comes from deletionTables or a literal
	if _, err := tx.Exec("DELETE FROM "+table+" WHERE owner = ? AND id = ?", owner, id); err != nil {
		return fmt.Errorf("failed to delete %s from %s: %w", id, table, err)
	}
	return nil
}

func (l *ledgerStore) GetTransactions(filter ledger.Filter) ([]ledger.Transaction, error) {
	where := []string{"owner = ?"}
	args := []interface{}{l.owner}

	if !filter.From.IsZero() {
		where = append(where, "date >= ?")
		args = append(args, filter.From.String())
	}
	if !filter.To.IsZero() {
		where = append(where, "date <= ?")
		args = append(args, filter.To.String())
	}
	if filter.AccountID != "" {
		where = append(where, "(income_account = ? OR outcome_account = ?)")
		args = append(args, filter.AccountID, filter.AccountID)
	}
	if filter.Payee != "" {
		where = append(where, "payee = ?")
		args = append(args, filter.Payee)
	}
	if filter.Merchant != "" {
		where = append(where, "merchant = ?")
		args = append(args, filter.Merchant)
	}

	query := "SELECT data_json FROM ledger_transactions WHERE " +
		strings.Join(where, " AND ") + " ORDER BY date DESC, seq DESC"

	rows, err := l.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	txs := make([]ledger.Transaction, 0)
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		var t ledger.Transaction
		if err := json.Unmarshal([]byte(data), &t); err != nil {
			return nil, fmt.Errorf("failed to decode transaction: %w", err)
		}
		if filter.Matches(t) {
			txs = append(txs, t)
		}
	}
	return txs, rows.Err()
}

func (l *ledgerStore) GetAccounts(filter ledger.AccountFilter) ([]ledger.Account, error) {
	rows, err := l.db.Query(
		"SELECT data_json FROM ledger_accounts WHERE owner = ? ORDER BY title, id", l.owner)
	if err != nil {
		return nil, fmt.Errorf("failed to query accounts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	accounts := make([]ledger.Account, 0)
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		var a ledger.Account
		if err := json.Unmarshal([]byte(data), &a); err != nil {
			return nil, fmt.Errorf("failed to decode account: %w", err)
		}
		if filter.Matches(a) {
			accounts = append(accounts, a)
		}
	}
	return accounts, rows.Err()
}

func (l *ledgerStore) GetAccount(id string) (*ledger.Account, error) {
	var data string
	err := l.db.QueryRow(
		"SELECT data_json FROM ledger_accounts WHERE owner = ? AND id = ?", l.owner, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query account %s: %w", id, err)
	}

	var a ledger.Account
	if err := json.Unmarshal([]byte(data), &a); err != nil {
		return nil, fmt.Errorf("failed to decode account %s: %w", id, err)
	}
	return &a, nil
}

func (l *ledgerStore) GetMerchant(title string) (*ledger.Merchant, error) {
	rows, err := l.db.Query(
		"SELECT title, data_json FROM ledger_merchants WHERE owner = ? ORDER BY id", l.owner)
	if err != nil {
		return nil, fmt.Errorf("failed to query merchants: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var stored, data string
		if err := rows.Scan(&stored, &data); err != nil {
			return nil, err
		}
		if !strings.EqualFold(stored, title) {
			continue
		}
		var m ledger.Merchant
		if err := json.Unmarshal([]byte(data), &m); err != nil {
			return nil, fmt.Errorf("failed to decode merchant: %w", err)
		}
		return &m, nil
	}
	return nil, rows.Err()
}

// StartRun records the start of a reconciliation run
func (s *Storage) StartRun(run RunStart) (int64, error) {
	result, err := s.db.Exec(`
		INSERT INTO reconcile_runs (kind, owner, peer, account_id, started_at, dry_run, status)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		run.Kind, run.Owner, run.Peer, run.AccountID, time.Now().UTC(), run.DryRun, RunStatusRunning)
	if err != nil {
		return 0, fmt.Errorf("failed to start run: %w", err)
	}
	return result.LastInsertId()
}

// CompleteRun records the outcome of a run
func (s *Storage) CompleteRun(runID int64, counts RunCounts, status, errMsg string) error {
	result, err := s.db.Exec(`
		UPDATE reconcile_runs
		SET completed_at = ?, missing_count = ?, extra_count = ?, matched_count = ?,
		    created_count = ?, status = ?, error_message = ?
		WHERE id = ?`,
		time.Now().UTC(), counts.Missing, counts.Extra, counts.Matched, counts.Created,
		status, errMsg, runID)
	if err != nil {
		return fmt.Errorf("failed to complete run %d: %w", runID, err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("run %d: %w", runID, ErrNotFound)
	}
	return nil
}

const runColumns = `id, kind, owner, peer, account_id, started_at, completed_at, dry_run,
	missing_count, extra_count, matched_count, created_count, status, error_message`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(row rowScanner) (*ReconcileRun, error) {
	var run ReconcileRun
	var completed sql.NullTime
	err := row.Scan(
		&run.ID, &run.Kind, &run.Owner, &run.Peer, &run.AccountID,
		&run.StartedAt, &completed, &run.DryRun,
		&run.Counts.Missing, &run.Counts.Extra, &run.Counts.Matched, &run.Counts.Created,
		&run.Status, &run.ErrorMessage,
	)
	if err != nil {
		return nil, err
	}
	if completed.Valid {
		t := completed.Time
		run.CompletedAt = &t
	}
	return &run, nil
}

// ListRuns returns recent runs, newest first
func (s *Storage) ListRuns(limit int) ([]ReconcileRun, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.Query(
		"SELECT "+runColumns+" FROM reconcile_runs ORDER BY started_at DESC, id DESC LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	runs := make([]ReconcileRun, 0)
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

// GetRun retrieves a run by ID
func (s *Storage) GetRun(runID int64) (*ReconcileRun, error) {
	run, err := scanRun(s.db.QueryRow("SELECT "+runColumns+" FROM reconcile_runs WHERE id = ?", runID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run %d: %w", runID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load run %d: %w", runID, err)
	}
	return run, nil
}

// LogCall logs one call to the remote ledger
func (s *Storage) LogCall(call *RemoteCall) error {
	calledAt := call.CalledAt
	if calledAt.IsZero() {
		calledAt = time.Now().UTC()
	}
	result, err := s.db.Exec(`
		INSERT INTO remote_calls (owner, operation, pushed, received, error, duration_ms, called_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		call.Owner, call.Operation, call.Pushed, call.Received, call.Error, call.DurationMs, calledAt)
	if err != nil {
		return fmt.Errorf("failed to log remote call: %w", err)
	}
	call.ID, _ = result.LastInsertId()
	return nil
}

// ListCalls returns the most recent calls made for owner
func (s *Storage) ListCalls(owner string, limit int) ([]RemoteCall, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.Query(`
		SELECT id, owner, operation, pushed, received, error, duration_ms, called_at
		FROM remote_calls WHERE owner = ? ORDER BY called_at DESC, id DESC LIMIT ?`, owner, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query remote calls: %w", err)
	}
	defer func() { _ = rows.Close() }()

	calls := make([]RemoteCall, 0)
	for rows.Next() {
		var c RemoteCall
		if err := rows.Scan(&c.ID, &c.Owner, &c.Operation, &c.Pushed, &c.Received,
			&c.Error, &c.DurationMs, &c.CalledAt); err != nil {
			return nil, err
		}
		calls = append(calls, c)
	}
	return calls, rows.Err()
}
