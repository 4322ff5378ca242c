package storage

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/eshaffer321/zenmoney-reconcile/internal/domain/ledger"
)

// MockRepository is an in-memory implementation of Repository for testing.
// It stores all data in maps and slices, making tests fast and isolated.
type MockRepository struct {
	mu        sync.Mutex
	ledgers   map[string]*MockLedger
	runs      map[int64]*ReconcileRun
	calls     []RemoteCall
	nextRunID int64

	// Hooks for test assertions
	StartRunCalled    bool
	CompleteRunCalled bool
	LogCallCalled     bool

	// Error injection for testing error paths
	StartRunErr    error
	CompleteRunErr error
	ListRunsErr    error
	LogCallErr     error
}

// NewMockRepository creates a new mock repository for testing
func NewMockRepository() *MockRepository {
	return &MockRepository{
		ledgers:   make(map[string]*MockLedger),
		runs:      make(map[int64]*ReconcileRun),
		calls:     make([]RemoteCall, 0),
		nextRunID: 1,
	}
}

// Compile-time check that MockRepository implements Repository
var _ Repository = (*MockRepository)(nil)

// Close does nothing for mock
func (m *MockRepository) Close() error {
	return nil
}

// Ledger returns the in-memory snapshot for owner, creating it on first use.
func (m *MockRepository) Ledger(owner string) LedgerRepository {
	return m.MockLedger(owner)
}

// MockLedger is Ledger with the concrete type, for seeding and error injection.
func (m *MockRepository) MockLedger(owner string) *MockLedger {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.ledgers[owner]
	if !ok {
		l = NewMockLedger(owner)
		m.ledgers[owner] = l
	}
	return l
}

// StartRun records a run in memory
func (m *MockRepository) StartRun(run RunStart) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.StartRunCalled = true
	if m.StartRunErr != nil {
		return 0, m.StartRunErr
	}
	id := m.nextRunID
	m.nextRunID++
	m.runs[id] = &ReconcileRun{
		ID:        id,
		Kind:      run.Kind,
		Owner:     run.Owner,
		Peer:      run.Peer,
		AccountID: run.AccountID,
		StartedAt: time.Now().UTC(),
		DryRun:    run.DryRun,
		Status:    RunStatusRunning,
	}
	return id, nil
}

// CompleteRun marks a run complete
func (m *MockRepository) CompleteRun(runID int64, counts RunCounts, status, errMsg string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CompleteRunCalled = true
	if m.CompleteRunErr != nil {
		return m.CompleteRunErr
	}
	run, ok := m.runs[runID]
	if !ok {
		return fmt.Errorf("run %d: %w", runID, ErrNotFound)
	}
	now := time.Now().UTC()
	run.CompletedAt = &now
	run.Counts = counts
	run.Status = status
	run.ErrorMessage = errMsg
	return nil
}

// ListRuns returns runs newest first
func (m *MockRepository) ListRuns(limit int) ([]ReconcileRun, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ListRunsErr != nil {
		return nil, m.ListRunsErr
	}
	runs := make([]ReconcileRun, 0, len(m.runs))
	for _, r := range m.runs {
		runs = append(runs, *r)
	}
	sort.Slice(runs, func(i, j int) bool { return runs[i].ID > runs[j].ID })
	if limit > 0 && len(runs) > limit {
		runs = runs[:limit]
	}
	return runs, nil
}

// GetRun retrieves a run by ID
func (m *MockRepository) GetRun(runID int64) (*ReconcileRun, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	run, ok := m.runs[runID]
	if !ok {
		return nil, fmt.Errorf("run %d: %w", runID, ErrNotFound)
	}
	copied := *run
	return &copied, nil
}

// LogCall appends a call to the in-memory log
func (m *MockRepository) LogCall(call *RemoteCall) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LogCallCalled = true
	if m.LogCallErr != nil {
		return m.LogCallErr
	}
	call.ID = int64(len(m.calls) + 1)
	m.calls = append(m.calls, *call)
	return nil
}

// ListCalls returns logged calls for owner, newest first
func (m *MockRepository) ListCalls(owner string, limit int) ([]RemoteCall, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	calls := make([]RemoteCall, 0)
	for i := len(m.calls) - 1; i >= 0; i-- {
		if m.calls[i].Owner == owner {
			calls = append(calls, m.calls[i])
		}
		if limit > 0 && len(calls) == limit {
			break
		}
	}
	return calls, nil
}

// MockLedger is an in-memory LedgerRepository.
type MockLedger struct {
	mu           sync.Mutex
	owner        string
	state        UserState
	accounts     map[string]ledger.Account
	merchants    map[string]ledger.Merchant
	transactions []ledger.Transaction // insertion order

	// Hooks for test assertions
	ApplyDiffCalled bool
	LastDiff        *SnapshotDiff

	// Error injection for testing error paths
	ApplyDiffErr       error
	GetTransactionsErr error
	GetAccountsErr     error
	SaveStateErr       error
}

var _ LedgerRepository = (*MockLedger)(nil)

// NewMockLedger creates an empty in-memory snapshot for owner.
func NewMockLedger(owner string) *MockLedger {
	return &MockLedger{
		owner:     owner,
		state:     UserState{Owner: owner},
		accounts:  make(map[string]ledger.Account),
		merchants: make(map[string]ledger.Merchant),
	}
}

// Seed loads snapshot records directly, bypassing hooks and errors.
func (l *MockLedger) Seed(accounts []ledger.Account, merchants []ledger.Merchant, txs []ledger.Transaction) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.apply(&SnapshotDiff{Accounts: accounts, Merchants: merchants, Transactions: txs})
}

func (l *MockLedger) GetState() (*UserState, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	state := l.state
	return &state, nil
}

func (l *MockLedger) SaveState(state *UserState) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.SaveStateErr != nil {
		return l.SaveStateErr
	}
	l.state = *state
	l.state.Owner = l.owner
	return nil
}

func (l *MockLedger) ApplyDiff(diff *SnapshotDiff) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.ApplyDiffCalled = true
	l.LastDiff = diff
	if l.ApplyDiffErr != nil {
		return l.ApplyDiffErr
	}
	if diff != nil {
		l.apply(diff)
	}
	return nil
}

func (l *MockLedger) apply(diff *SnapshotDiff) {
	for _, a := range diff.Accounts {
		l.accounts[a.ID] = a
	}
	for _, m := range diff.Merchants {
		l.merchants[m.ID] = m
	}
	for _, t := range diff.Transactions {
		idx := l.indexOf(t.ID)
		switch {
		case t.Deleted && idx >= 0:
			l.transactions = append(l.transactions[:idx], l.transactions[idx+1:]...)
		case t.Deleted:
		case idx >= 0:
			l.transactions[idx] = t
		default:
			l.transactions = append(l.transactions, t)
		}
	}
	for _, d := range diff.Deletions {
		switch d.Object {
		case "transaction":
			if idx := l.indexOf(d.ID); idx >= 0 {
				l.transactions = append(l.transactions[:idx], l.transactions[idx+1:]...)
			}
		case "account":
			delete(l.accounts, d.ID)
		case "merchant":
			delete(l.merchants, d.ID)
		}
	}
	if diff.ServerTimestamp > 0 {
		l.state.ServerTimestamp = diff.ServerTimestamp
	}
}

func (l *MockLedger) indexOf(id string) int {
	for i, t := range l.transactions {
		if t.ID == id {
			return i
		}
	}
	return -1
}

func (l *MockLedger) GetTransactions(filter ledger.Filter) ([]ledger.Transaction, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.GetTransactionsErr != nil {
		return nil, l.GetTransactionsErr
	}
	txs := make([]ledger.Transaction, 0)
	for i := len(l.transactions) - 1; i >= 0; i-- {
		if filter.Matches(l.transactions[i]) {
			txs = append(txs, l.transactions[i])
		}
	}
	sort.SliceStable(txs, func(i, j int) bool { return txs[i].Date.After(txs[j].Date) })
	return txs, nil
}

func (l *MockLedger) GetAccounts(filter ledger.AccountFilter) ([]ledger.Account, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.GetAccountsErr != nil {
		return nil, l.GetAccountsErr
	}
	accounts := make([]ledger.Account, 0)
	for _, a := range l.accounts {
		if filter.Matches(a) {
			accounts = append(accounts, a)
		}
	}
	sort.Slice(accounts, func(i, j int) bool {
		if accounts[i].Title != accounts[j].Title {
			return accounts[i].Title < accounts[j].Title
		}
		return accounts[i].ID < accounts[j].ID
	})
	return accounts, nil
}

func (l *MockLedger) GetAccount(id string) (*ledger.Account, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.GetAccountsErr != nil {
		return nil, l.GetAccountsErr
	}
	a, ok := l.accounts[id]
	if !ok {
		return nil, nil
	}
	return &a, nil
}

func (l *MockLedger) GetMerchant(title string) (*ledger.Merchant, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	ids := make([]string, 0, len(l.merchants))
	for id := range l.merchants {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		if m := l.merchants[id]; strings.EqualFold(m.Title, title) {
			return &m, nil
		}
	}
	return nil, nil
}
