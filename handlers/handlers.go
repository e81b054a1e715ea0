package handlers

import (
	"github.com/sirupsen/logrus"

	"github.com/easytrack/easytrack-api/services"
)

// Handlers bundles the resource handlers behind the protected API group.
type Handlers struct {
	Accounts     *AccountHandler
	Categories   *CategoryHandler
	Transactions *TransactionHandler
	Recurring    *RecurringHandler
	Budgets      *BudgetHandler
	Dashboard    *DashboardHandler
	WS           *WSHandler
}

func New(svcs *services.Services, log *logrus.Logger) *Handlers {
	ws := NewWSHandler(log)
	return &Handlers{
		Accounts:     &AccountHandler{Service: svcs.Accounts, WS: ws},
		Categories:   &CategoryHandler{Service: svcs.Categories},
		Transactions: &TransactionHandler{Service: svcs.Transactions, WS: ws},
		Recurring:    &RecurringHandler{Service: svcs.Recurring, WS: ws},
		Budgets:      &BudgetHandler{Service: svcs.Budgets, WS: ws},
		Dashboard:    &DashboardHandler{Service: svcs.Dashboard},
		WS:           ws,
	}
}
