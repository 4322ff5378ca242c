package zenmoney

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/oauth2"

	"github.com/eshaffer321/zenmoney-reconcile/internal/domain/ledger"
	"github.com/eshaffer321/zenmoney-reconcile/internal/infrastructure/config"
	"github.com/eshaffer321/zenmoney-reconcile/internal/infrastructure/storage"
)

// ErrNoCredentials is returned when a login is needed but no password is configured.
var ErrNoCredentials = errors.New("no credentials configured")

// Session is one user's view of the remote ledger: a client for
// pushing and pulling changes plus the local snapshot for reads.
type Session struct {
	client *Client
	owner  string
	user   config.UserConfig
	repo   storage.LedgerRepository
	calls  storage.CallLogRepository
	logger *slog.Logger
	now    func() time.Time

	mu    sync.Mutex
	token *oauth2.Token
}

// NewSession binds client to the snapshot of owner. calls may be nil.
func NewSession(client *Client, owner string, user config.UserConfig, repo storage.LedgerRepository, calls storage.CallLogRepository, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{
		client: client,
		owner:  owner,
		user:   user,
		repo:   repo,
		calls:  calls,
		logger: logger.With("user", owner),
		now:    time.Now,
	}
}

// Owner is the configured name of the session's user.
func (s *Session) Owner() string {
	return s.owner
}

// EnsureLogin reuses stored credentials or logs in and stores new ones.
func (s *Session) EnsureLogin(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ensureLogin(ctx)
}

func (s *Session) ensureLogin(ctx context.Context) error {
	if s.token != nil {
		return nil
	}

	state, err := s.repo.GetState()
	if err != nil {
		return err
	}

	creds := state.Credentials
	if creds.Valid(s.now()) || (creds.AccessToken != "" && creds.RefreshToken != "") {
		s.token = tokenFromCredentials(creds)
		return nil
	}

	return s.login(ctx, state)
}

func (s *Session) login(ctx context.Context, state *storage.UserState) error {
	if s.user.Username == "" || s.user.Password == "" {
		return fmt.Errorf("user %s: %w", s.owner, ErrNoCredentials)
	}

	s.logger.Info("Logging in", "username", s.user.Username)
	token, err := s.client.Login(ctx, s.user.Username, s.user.Password)
	s.logCall("login", 0, 0, err, 0)
	if err != nil {
		return err
	}

	state.Credentials = credentialsFromToken(token)
	if err := s.repo.SaveState(state); err != nil {
		return err
	}
	s.token = token
	return nil
}

// Sync pushes update, when non-empty, and merges the server's changes
// into the local snapshot.
func (s *Session) Sync(ctx context.Context, update *ledger.Diff) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureLogin(ctx); err != nil {
		return err
	}

	resp, err := s.diff(ctx, update)
	if IsUnauthorized(err) {
		// Stored token was rejected: log in again once.
		s.logger.Warn("Stored token rejected, logging in again")
		state, stateErr := s.repo.GetState()
		if stateErr != nil {
			return stateErr
		}
		s.token = nil
		if err := s.login(ctx, state); err != nil {
			return err
		}
		resp, err = s.diff(ctx, update)
	}
	if err != nil {
		return fmt.Errorf("sync failed for %s: %w", s.owner, err)
	}

	err = s.repo.ApplyDiff(&storage.SnapshotDiff{
		ServerTimestamp: resp.ServerTimestamp,
		Accounts:        resp.Accounts,
		Merchants:       resp.Merchants,
		Transactions:    resp.Transactions,
		Deletions:       resp.Deletions,
	})
	if err != nil {
		return fmt.Errorf("failed to store diff for %s: %w", s.owner, err)
	}

	if len(resp.Users) > 0 {
		state, err := s.repo.GetState()
		if err != nil {
			return err
		}
		if state.UserID != resp.Users[0].ID {
			state.UserID = resp.Users[0].ID
			if err := s.repo.SaveState(state); err != nil {
				return err
			}
		}
	}

	s.logger.Info("Synchronized",
		"server_timestamp", resp.ServerTimestamp,
		"accounts", len(resp.Accounts),
		"transactions", len(resp.Transactions),
		"deletions", len(resp.Deletions))
	return nil
}

func (s *Session) diff(ctx context.Context, update *ledger.Diff) (*DiffResponse, error) {
	state, err := s.repo.GetState()
	if err != nil {
		return nil, err
	}

	now := s.now()
	_, offset := now.Zone()
	req := DiffRequest{
		ServerTimestamp:             state.ServerTimestamp,
		CurrentClientTimestamp:      now.Unix(),
		CurrentClientTimezoneOffset: -offset / 60,
	}
	pushed := 0
	if !update.IsEmpty() {
		req.Transactions = update.Transactions
		req.Accounts = update.Accounts
		pushed = len(update.Transactions) + len(update.Accounts)
	}

	ts := s.client.TokenSource(ctx, s.token)
	start := time.Now()
	resp, err := s.client.Diff(ctx, ts, req)
	received := 0
	if resp != nil {
		received = resp.Size()
	}
	s.logCall("diff", pushed, received, err, time.Since(start))
	if err != nil {
		return nil, err
	}

	s.persistRefreshedToken(ts, state)
	return resp, nil
}

// persistRefreshedToken stores the token if oauth2 refreshed it during the call.
func (s *Session) persistRefreshedToken(ts oauth2.TokenSource, state *storage.UserState) {
	token, err := ts.Token()
	if err != nil || token.AccessToken == s.token.AccessToken {
		return
	}
	s.token = token
	state.Credentials = credentialsFromToken(token)
	if err := s.repo.SaveState(state); err != nil {
		s.logger.Warn("Failed to save refreshed token", "error", err)
	}
}

func (s *Session) logCall(operation string, pushed, received int, err error, d time.Duration) {
	if s.calls == nil {
		return
	}
	call := &storage.RemoteCall{
		Owner:      s.owner,
		Operation:  operation,
		Pushed:     pushed,
		Received:   received,
		DurationMs: d.Milliseconds(),
		CalledAt:   s.now().UTC(),
	}
	if err != nil {
		call.Error = err.Error()
	}
	if logErr := s.calls.LogCall(call); logErr != nil {
		s.logger.Warn("Failed to log remote call", "error", logErr)
	}
}

// GetTransactions reads from the local snapshot.
func (s *Session) GetTransactions(filter ledger.Filter) ([]ledger.Transaction, error) {
	return s.repo.GetTransactions(filter)
}

// GetAccounts reads from the local snapshot.
func (s *Session) GetAccounts(filter ledger.AccountFilter) ([]ledger.Account, error) {
	return s.repo.GetAccounts(filter)
}

// GetAccount reads from the local snapshot.
func (s *Session) GetAccount(id string) (*ledger.Account, error) {
	return s.repo.GetAccount(id)
}

// GetMerchant reads from the local snapshot.
func (s *Session) GetMerchant(title string) (*ledger.Merchant, error) {
	return s.repo.GetMerchant(title)
}

func tokenFromCredentials(c storage.Credentials) *oauth2.Token {
	return &oauth2.Token{
		AccessToken:  c.AccessToken,
		RefreshToken: c.RefreshToken,
		TokenType:    c.TokenType,
		Expiry:       c.ExpiresAt,
	}
}

func credentialsFromToken(t *oauth2.Token) storage.Credentials {
	return storage.Credentials{
		AccessToken:  t.AccessToken,
		RefreshToken: t.RefreshToken,
		TokenType:    t.TokenType,
		ExpiresAt:    t.Expiry,
	}
}
