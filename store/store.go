package store

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/easytrack/easytrack-api/models"
)

// TransactionFilter narrows ListTransactions. Zero values mean "any".
type TransactionFilter struct {
	Type       models.TransactionType
	AccountID  string
	CategoryID string
	From       *time.Time
	To         *time.Time
}

// Store is the persistence collaborator for the ledger. Lookups return
// models.ErrNotFound when no row matches; sum queries return zero, never an
// error, for empty ranges.
type Store interface {
	UserStore
	AccountStore
	CategoryStore
	TransactionStore
	RecurringStore
	BudgetStore

	// WithTx runs fn inside a single database transaction. Balance
	// check-then-apply sequences must run here so no concurrent delta on the
	// same account interleaves between the read and the write.
	WithTx(ctx context.Context, fn func(Tx) error) error
}

// Tx is the atomic unit handed to WithTx callbacks.
type Tx interface {
	// AccountForUpdate loads an account and holds a write lock on its row
	// until the surrounding transaction commits.
	AccountForUpdate(ctx context.Context, id string) (*models.Account, error)
	AddToBalance(ctx context.Context, accountID string, delta decimal.Decimal) error
	InsertTransaction(ctx context.Context, t *models.Transaction) error
	UpdateTransaction(ctx context.Context, t *models.Transaction) error
	DeleteTransaction(ctx context.Context, id string) error
}

type UserStore interface {
	CreateUser(ctx context.Context, u *models.User, passwordHash string) error
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, string, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	UpdateUser(ctx context.Context, u *models.User) error
	UpdateUserPassword(ctx context.Context, id, passwordHash string) error
	DeleteUser(ctx context.Context, id string) error
}

type AccountStore interface {
	CreateAccount(ctx context.Context, a *models.Account) error
	GetAccount(ctx context.Context, id string) (*models.Account, error)
	ListAccounts(ctx context.Context, userID string, activeOnly bool) ([]models.Account, error)
	ListAccountsByType(ctx context.Context, userID string, t models.AccountType) ([]models.Account, error)
	UpdateAccount(ctx context.Context, a *models.Account) error
	DeleteAccount(ctx context.Context, id string) error
}

type CategoryStore interface {
	CreateCategory(ctx context.Context, c *models.Category) error
	GetCategory(ctx context.Context, id string) (*models.Category, error)
	ListCategories(ctx context.Context, userID string) ([]models.Category, error)
	ListCategoriesByType(ctx context.Context, userID string, t models.CategoryType) ([]models.Category, error)
	ListDefaultCategories(ctx context.Context, userID string) ([]models.Category, error)
	UpdateCategory(ctx context.Context, c *models.Category) error
	DeleteCategory(ctx context.Context, id string) error
}

type TransactionStore interface {
	GetTransaction(ctx context.Context, id string) (*models.Transaction, error)
	ListTransactions(ctx context.Context, userID string, f TransactionFilter) ([]models.Transaction, error)
	// ListRecentTransactions orders by date descending with id as the stable
	// tie-break.
	ListRecentTransactions(ctx context.Context, userID string, limit int) ([]models.Transaction, error)
	CountTransactions(ctx context.Context, userID string, from, to *time.Time) (int, error)
	LastTransactionDate(ctx context.Context, userID string) (*time.Time, error)
	// SumTransactions sums amounts for the user and type, optionally narrowed
	// by category, within [from, to] inclusive. Empty result sums to zero.
	SumTransactions(ctx context.Context, userID string, t models.TransactionType, categoryID string, from, to time.Time) (decimal.Decimal, error)
}

type RecurringStore interface {
	CreateRecurring(ctx context.Context, r *models.RecurringTransaction) error
	GetRecurring(ctx context.Context, id string) (*models.RecurringTransaction, error)
	ListRecurring(ctx context.Context, userID string, activeOnly bool) ([]models.RecurringTransaction, error)
	// ListDueRecurring returns active templates across all users whose
	// next_occurrence is on or before asOf.
	ListDueRecurring(ctx context.Context, asOf time.Time) ([]models.RecurringTransaction, error)
	UpdateRecurring(ctx context.Context, r *models.RecurringTransaction) error
	DeleteRecurring(ctx context.Context, id string) error
}

type BudgetStore interface {
	// CreateBudget returns models.ErrDuplicateBudget when an active budget
	// already covers the same (user, category, start, end) tuple.
	CreateBudget(ctx context.Context, b *models.Budget) error
	GetBudget(ctx context.Context, id string) (*models.Budget, error)
	ListBudgets(ctx context.Context, userID string, activeOnly bool) ([]models.Budget, error)
	// ListCurrentBudgets returns budgets whose [start_date, end_date] window
	// contains date, inclusive on both ends.
	ListCurrentBudgets(ctx context.Context, userID string, date time.Time) ([]models.Budget, error)
	// ActiveBudgetExists reports whether an active budget already covers the
	// exact (user, category, start, end) tuple.
	ActiveBudgetExists(ctx context.Context, userID, categoryID string, start, end time.Time) (bool, error)
	UpdateBudget(ctx context.Context, b *models.Budget) error
	UpdateBudgetSpent(ctx context.Context, id string, spent decimal.Decimal) error
	DeleteBudget(ctx context.Context, id string) error
}
