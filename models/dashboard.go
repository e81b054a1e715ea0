package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type DashboardSummary struct {
	TotalBalance       decimal.Decimal    `json:"total_balance"`
	MonthlyIncome      decimal.Decimal    `json:"monthly_income"`
	MonthlyExpense     decimal.Decimal    `json:"monthly_expense"`
	NetIncome          decimal.Decimal    `json:"net_income"`
	BudgetSummary      BudgetSummary      `json:"budget_summary"`
	SpendingComparison SpendingComparison `json:"spending_comparison"`
	QuickStats         QuickStats         `json:"quick_stats"`
	RecentTransactions []Transaction      `json:"recent_transactions"`
}

type BudgetSummary struct {
	TotalBudget          decimal.Decimal `json:"total_budget"`
	TotalSpent           decimal.Decimal `json:"total_spent"`
	Remaining            decimal.Decimal `json:"remaining"`
	PercentageUsed       decimal.Decimal `json:"percentage_used"`
	SafeToSpendDaily     decimal.Decimal `json:"safe_to_spend_daily"`
	DaysRemainingInMonth int             `json:"days_remaining_in_month"`
}

type SpendingComparison struct {
	CurrentMonthSpending  decimal.Decimal `json:"current_month_spending"`
	PreviousMonthSpending decimal.Decimal `json:"previous_month_spending"`
	Difference            decimal.Decimal `json:"difference"`
	PercentageChange      decimal.Decimal `json:"percentage_change"`
	Trend                 string          `json:"trend"`
}

type QuickStats struct {
	TotalAccounts       int        `json:"total_accounts"`
	ActiveAccounts      int        `json:"active_accounts"`
	TotalTransactions   int        `json:"total_transactions"`
	MonthlyTransactions int        `json:"monthly_transactions"`
	LastTransactionDate *time.Time `json:"last_transaction_date"`
}
