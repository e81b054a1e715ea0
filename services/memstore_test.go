package services

import (
	"context"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/easytrack/easytrack-api/models"
	"github.com/easytrack/easytrack-api/store"
)

// memStore is an in-memory store.Store for service tests. WithTx snapshots
// the mutable tables and restores them when the callback errors, mirroring a
// rolled-back database transaction.
type memStore struct {
	mu           sync.Mutex
	users        map[string]models.User
	passwords    map[string]string
	accounts     map[string]models.Account
	categories   map[string]models.Category
	transactions map[string]models.Transaction
	recurring    map[string]models.RecurringTransaction
	budgets      map[string]models.Budget
}

func newMemStore() *memStore {
	return &memStore{
		users:        make(map[string]models.User),
		passwords:    make(map[string]string),
		accounts:     make(map[string]models.Account),
		categories:   make(map[string]models.Category),
		transactions: make(map[string]models.Transaction),
		recurring:    make(map[string]models.RecurringTransaction),
		budgets:      make(map[string]models.Budget),
	}
}

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func (m *memStore) seedAccount(a models.Account) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accounts[a.ID] = a
}

func (m *memStore) seedCategory(c models.Category) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.categories[c.ID] = c
}

// seedTransaction inserts a ledger row without touching any balance, for
// building aggregate fixtures.
func (m *memStore) seedTransaction(t models.Transaction) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transactions[t.ID] = t
}

func (m *memStore) seedRecurring(r models.RecurringTransaction) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recurring[r.ID] = r
}

func (m *memStore) seedBudget(b models.Budget) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.budgets[b.ID] = b
}

func (m *memStore) balance(accountID string) decimal.Decimal {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.accounts[accountID].Balance
}

func (m *memStore) transactionCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.transactions)
}

// --- WithTx / Tx ---

type memTx struct {
	s *memStore
}

func (m *memStore) WithTx(ctx context.Context, fn func(store.Tx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	accountsBackup := make(map[string]models.Account, len(m.accounts))
	for k, v := range m.accounts {
		accountsBackup[k] = v
	}
	transactionsBackup := make(map[string]models.Transaction, len(m.transactions))
	for k, v := range m.transactions {
		transactionsBackup[k] = v
	}

	if err := fn(memTx{s: m}); err != nil {
		m.accounts = accountsBackup
		m.transactions = transactionsBackup
		return err
	}
	return nil
}

func (tx memTx) AccountForUpdate(ctx context.Context, id string) (*models.Account, error) {
	a, ok := tx.s.accounts[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return &a, nil
}

func (tx memTx) AddToBalance(ctx context.Context, accountID string, delta decimal.Decimal) error {
	a, ok := tx.s.accounts[accountID]
	if !ok {
		return models.ErrNotFound
	}
	a.Balance = a.Balance.Add(delta)
	tx.s.accounts[accountID] = a
	return nil
}

func (tx memTx) InsertTransaction(ctx context.Context, t *models.Transaction) error {
	tx.s.transactions[t.ID] = *t
	return nil
}

func (tx memTx) UpdateTransaction(ctx context.Context, t *models.Transaction) error {
	if _, ok := tx.s.transactions[t.ID]; !ok {
		return models.ErrNotFound
	}
	tx.s.transactions[t.ID] = *t
	return nil
}

func (tx memTx) DeleteTransaction(ctx context.Context, id string) error {
	if _, ok := tx.s.transactions[id]; !ok {
		return models.ErrNotFound
	}
	delete(tx.s.transactions, id)
	return nil
}

// --- users ---

func (m *memStore) CreateUser(ctx context.Context, u *models.User, passwordHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[u.ID] = *u
	m.passwords[u.ID] = passwordHash
	return nil
}

func (m *memStore) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return &u, nil
}

func (m *memStore) GetUserByEmail(ctx context.Context, email string) (*models.User, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, u := range m.users {
		if u.Email == email {
			return &u, m.passwords[id], nil
		}
	}
	return nil, "", models.ErrNotFound
}

func (m *memStore) EmailExists(ctx context.Context, email string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) UpdateUser(ctx context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[u.ID]; !ok {
		return models.ErrNotFound
	}
	m.users[u.ID] = *u
	return nil
}

func (m *memStore) UpdateUserPassword(ctx context.Context, id, passwordHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[id]; !ok {
		return models.ErrNotFound
	}
	m.passwords[id] = passwordHash
	return nil
}

func (m *memStore) DeleteUser(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[id]; !ok {
		return models.ErrNotFound
	}
	delete(m.users, id)
	delete(m.passwords, id)
	return nil
}

// --- accounts ---

func (m *memStore) CreateAccount(ctx context.Context, a *models.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accounts[a.ID] = *a
	return nil
}

func (m *memStore) GetAccount(ctx context.Context, id string) (*models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return &a, nil
}

func (m *memStore) ListAccounts(ctx context.Context, userID string, activeOnly bool) ([]models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Account
	for _, a := range m.accounts {
		if a.UserID != userID {
			continue
		}
		if activeOnly && !a.IsActive {
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memStore) ListAccountsByType(ctx context.Context, userID string, t models.AccountType) ([]models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Account
	for _, a := range m.accounts {
		if a.UserID == userID && a.Type == t {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memStore) UpdateAccount(ctx context.Context, a *models.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.accounts[a.ID]; !ok {
		return models.ErrNotFound
	}
	m.accounts[a.ID] = *a
	return nil
}

func (m *memStore) DeleteAccount(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.accounts[id]; !ok {
		return models.ErrNotFound
	}
	delete(m.accounts, id)
	return nil
}

// --- categories ---

func (m *memStore) CreateCategory(ctx context.Context, c *models.Category) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.categories[c.ID] = *c
	return nil
}

func (m *memStore) GetCategory(ctx context.Context, id string) (*models.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.categories[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return &c, nil
}

func (m *memStore) ListCategories(ctx context.Context, userID string) ([]models.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Category
	for _, c := range m.categories {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memStore) ListCategoriesByType(ctx context.Context, userID string, t models.CategoryType) ([]models.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Category
	for _, c := range m.categories {
		if c.UserID == userID && c.Type == t {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memStore) ListDefaultCategories(ctx context.Context, userID string) ([]models.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Category
	for _, c := range m.categories {
		if c.UserID == userID && c.IsDefault {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memStore) UpdateCategory(ctx context.Context, c *models.Category) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.categories[c.ID]; !ok {
		return models.ErrNotFound
	}
	m.categories[c.ID] = *c
	return nil
}

func (m *memStore) DeleteCategory(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.categories[id]; !ok {
		return models.ErrNotFound
	}
	delete(m.categories, id)
	return nil
}

// --- transactions ---

func (m *memStore) GetTransaction(ctx context.Context, id string) (*models.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.transactions[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return &t, nil
}

func (m *memStore) ListTransactions(ctx context.Context, userID string, f store.TransactionFilter) ([]models.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Transaction
	for _, t := range m.transactions {
		if t.UserID != userID {
			continue
		}
		if f.Type != "" && t.Type != f.Type {
			continue
		}
		if f.AccountID != "" && t.AccountID != f.AccountID {
			continue
		}
		if f.CategoryID != "" && t.CategoryID != f.CategoryID {
			continue
		}
		if f.From != nil && t.Date.Before(*f.From) {
			continue
		}
		if f.To != nil && t.Date.After(*f.To) {
			continue
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.After(out[j].Date)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (m *memStore) ListRecentTransactions(ctx context.Context, userID string, limit int) ([]models.Transaction, error) {
	all, err := m.ListTransactions(ctx, userID, store.TransactionFilter{})
	if err != nil {
		return nil, err
	}
	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (m *memStore) CountTransactions(ctx context.Context, userID string, from, to *time.Time) (int, error) {
	all, err := m.ListTransactions(ctx, userID, store.TransactionFilter{From: from, To: to})
	if err != nil {
		return 0, err
	}
	return len(all), nil
}

func (m *memStore) LastTransactionDate(ctx context.Context, userID string) (*time.Time, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var last *time.Time
	for _, t := range m.transactions {
		if t.UserID != userID {
			continue
		}
		d := t.Date
		if last == nil || d.After(*last) {
			last = &d
		}
	}
	return last, nil
}

func (m *memStore) SumTransactions(ctx context.Context, userID string, tt models.TransactionType, categoryID string, from, to time.Time) (decimal.Decimal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sum := decimal.Zero
	for _, t := range m.transactions {
		if t.UserID != userID || t.Type != tt {
			continue
		}
		if categoryID != "" && t.CategoryID != categoryID {
			continue
		}
		if t.Date.Before(from) || t.Date.After(to) {
			continue
		}
		sum = sum.Add(t.Amount)
	}
	return sum, nil
}

// --- recurring ---

func (m *memStore) CreateRecurring(ctx context.Context, r *models.RecurringTransaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recurring[r.ID] = *r
	return nil
}

func (m *memStore) GetRecurring(ctx context.Context, id string) (*models.RecurringTransaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.recurring[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return &r, nil
}

func (m *memStore) ListRecurring(ctx context.Context, userID string, activeOnly bool) ([]models.RecurringTransaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.RecurringTransaction
	for _, r := range m.recurring {
		if r.UserID != userID {
			continue
		}
		if activeOnly && !r.IsActive {
			continue
		}
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memStore) ListDueRecurring(ctx context.Context, asOf time.Time) ([]models.RecurringTransaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.RecurringTransaction
	for _, r := range m.recurring {
		if r.IsActive && !r.NextOccurrence.After(asOf) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memStore) UpdateRecurring(ctx context.Context, r *models.RecurringTransaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.recurring[r.ID]; !ok {
		return models.ErrNotFound
	}
	m.recurring[r.ID] = *r
	return nil
}

func (m *memStore) DeleteRecurring(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.recurring[id]; !ok {
		return models.ErrNotFound
	}
	delete(m.recurring, id)
	return nil
}

// --- budgets ---

func (m *memStore) CreateBudget(ctx context.Context, b *models.Budget) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	// Enforce the same active-window uniqueness the partial index provides.
	if b.IsActive {
		for _, other := range m.budgets {
			if other.IsActive && other.UserID == b.UserID && other.CategoryID == b.CategoryID &&
				other.StartDate.Equal(b.StartDate) && other.EndDate.Equal(b.EndDate) {
				return models.ErrDuplicateBudget
			}
		}
	}
	m.budgets[b.ID] = *b
	return nil
}

func (m *memStore) GetBudget(ctx context.Context, id string) (*models.Budget, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.budgets[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return &b, nil
}

func (m *memStore) ListBudgets(ctx context.Context, userID string, activeOnly bool) ([]models.Budget, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Budget
	for _, b := range m.budgets {
		if b.UserID != userID {
			continue
		}
		if activeOnly && !b.IsActive {
			continue
		}
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memStore) ListCurrentBudgets(ctx context.Context, userID string, date time.Time) ([]models.Budget, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Budget
	for _, b := range m.budgets {
		if b.UserID != userID {
			continue
		}
		if b.StartDate.After(date) || b.EndDate.Before(date) {
			continue
		}
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memStore) ActiveBudgetExists(ctx context.Context, userID, categoryID string, start, end time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, b := range m.budgets {
		if b.UserID == userID && b.CategoryID == categoryID && b.IsActive &&
			b.StartDate.Equal(start) && b.EndDate.Equal(end) {
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) UpdateBudget(ctx context.Context, b *models.Budget) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.budgets[b.ID]; !ok {
		return models.ErrNotFound
	}
	m.budgets[b.ID] = *b
	return nil
}

func (m *memStore) UpdateBudgetSpent(ctx context.Context, id string, spent decimal.Decimal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.budgets[id]
	if !ok {
		return models.ErrNotFound
	}
	b.Spent = spent
	m.budgets[id] = b
	return nil
}

func (m *memStore) DeleteBudget(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.budgets[id]; !ok {
		return models.ErrNotFound
	}
	delete(m.budgets, id)
	return nil
}

var _ store.Store = (*memStore)(nil)

func day(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 0, 0, 0, 0, time.UTC)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}
