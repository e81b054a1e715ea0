package services

import (
	"github.com/sirupsen/logrus"

	"github.com/easytrack/easytrack-api/store"
)

// Services wires the ledger components over a single store.
type Services struct {
	Accounts     *AccountService
	Categories   *CategoryService
	Transactions *TransactionService
	Recurring    *RecurringService
	Budgets      *BudgetService
	Dashboard    *DashboardService
}

func New(st store.Store, log *logrus.Logger) *Services {
	accounts := NewAccountService(st, log)
	categories := NewCategoryService(st, log)
	transactions := NewTransactionService(st, log)
	recurring := NewRecurringService(st, transactions, log)
	budgets := NewBudgetService(st, log)
	dashboard := NewDashboardService(st, accounts, transactions, budgets, log)

	return &Services{
		Accounts:     accounts,
		Categories:   categories,
		Transactions: transactions,
		Recurring:    recurring,
		Budgets:      budgets,
		Dashboard:    dashboard,
	}
}
