package services

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/easytrack/easytrack-api/models"
	"github.com/easytrack/easytrack-api/store"
)

var five = decimal.NewFromInt(5)

// DashboardService composes the read-side summary. It never mutates
// anything; budget spent figures are whatever the cache last computed.
type DashboardService struct {
	store        store.Store
	accounts     *AccountService
	transactions *TransactionService
	budgets      *BudgetService
	log          *logrus.Logger
}

func NewDashboardService(st store.Store, accounts *AccountService, transactions *TransactionService, budgets *BudgetService, log *logrus.Logger) *DashboardService {
	return &DashboardService{
		store:        st,
		accounts:     accounts,
		transactions: transactions,
		budgets:      budgets,
		log:          log,
	}
}

func (s *DashboardService) GetSummary(ctx context.Context, userID string, today time.Time) (*models.DashboardSummary, error) {
	today = truncateToDay(today)
	monthStart, monthEnd := monthBounds(today)
	prevStart, prevEnd := monthBounds(monthStart.AddDate(0, -1, 0))

	totalBalance, err := s.accounts.TotalBalance(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("total balance: %w", err)
	}

	monthlyIncome, err := s.transactions.TotalIncomeByDateRange(ctx, userID, monthStart, monthEnd)
	if err != nil {
		return nil, err
	}
	monthlyExpense, err := s.transactions.TotalExpenseByDateRange(ctx, userID, monthStart, monthEnd)
	if err != nil {
		return nil, err
	}

	budgetSummary, err := s.budgetSummary(ctx, userID, today, monthEnd)
	if err != nil {
		return nil, err
	}

	comparison, err := s.spendingComparison(ctx, userID, monthlyExpense, prevStart, prevEnd)
	if err != nil {
		return nil, err
	}

	stats, err := s.quickStats(ctx, userID, monthStart, monthEnd)
	if err != nil {
		return nil, err
	}

	recent, err := s.store.ListRecentTransactions(ctx, userID, 5)
	if err != nil {
		return nil, err
	}
	if recent == nil {
		recent = []models.Transaction{}
	}

	return &models.DashboardSummary{
		TotalBalance:       totalBalance,
		MonthlyIncome:      monthlyIncome,
		MonthlyExpense:     monthlyExpense,
		NetIncome:          monthlyIncome.Sub(monthlyExpense),
		BudgetSummary:      *budgetSummary,
		SpendingComparison: *comparison,
		QuickStats:         *stats,
		RecentTransactions: recent,
	}, nil
}

func (s *DashboardService) budgetSummary(ctx context.Context, userID string, today, monthEnd time.Time) (*models.BudgetSummary, error) {
	current, err := s.budgets.CurrentBudgets(ctx, userID, today)
	if err != nil {
		return nil, fmt.Errorf("current budgets: %w", err)
	}

	totalBudget := decimal.Zero
	totalSpent := decimal.Zero
	for _, b := range current {
		totalBudget = totalBudget.Add(b.Amount)
		totalSpent = totalSpent.Add(b.Spent)
	}
	remaining := totalBudget.Sub(totalSpent)

	percentageUsed := decimal.Zero
	if totalBudget.IsPositive() {
		percentageUsed = totalSpent.Div(totalBudget).Round(4).Mul(hundred)
	}

	// Inclusive day count from today through month end.
	daysRemaining := monthEnd.Day() - today.Day() + 1

	safeToSpendDaily := decimal.Zero
	if daysRemaining > 0 && remaining.IsPositive() {
		safeToSpendDaily = remaining.Div(decimal.NewFromInt(int64(daysRemaining))).Round(2)
	}

	return &models.BudgetSummary{
		TotalBudget:          totalBudget,
		TotalSpent:           totalSpent,
		Remaining:            remaining,
		PercentageUsed:       percentageUsed,
		SafeToSpendDaily:     safeToSpendDaily,
		DaysRemainingInMonth: daysRemaining,
	}, nil
}

func (s *DashboardService) spendingComparison(ctx context.Context, userID string, currentSpending decimal.Decimal, prevStart, prevEnd time.Time) (*models.SpendingComparison, error) {
	previousSpending, err := s.transactions.TotalExpenseByDateRange(ctx, userID, prevStart, prevEnd)
	if err != nil {
		return nil, err
	}

	difference := currentSpending.Sub(previousSpending)

	percentageChange := decimal.Zero
	if previousSpending.IsPositive() {
		percentageChange = difference.Div(previousSpending).Round(4).Mul(hundred)
	}

	trend := "STABLE"
	if percentageChange.GreaterThan(five) {
		trend = "UP"
	} else if percentageChange.LessThan(five.Neg()) {
		trend = "DOWN"
	}

	return &models.SpendingComparison{
		CurrentMonthSpending:  currentSpending,
		PreviousMonthSpending: previousSpending,
		Difference:            difference,
		PercentageChange:      percentageChange,
		Trend:                 trend,
	}, nil
}

func (s *DashboardService) quickStats(ctx context.Context, userID string, monthStart, monthEnd time.Time) (*models.QuickStats, error) {
	allAccounts, err := s.accounts.List(ctx, userID, false)
	if err != nil {
		return nil, err
	}
	activeAccounts, err := s.accounts.List(ctx, userID, true)
	if err != nil {
		return nil, err
	}

	totalTransactions, err := s.store.CountTransactions(ctx, userID, nil, nil)
	if err != nil {
		return nil, err
	}
	monthlyTransactions, err := s.store.CountTransactions(ctx, userID, &monthStart, &monthEnd)
	if err != nil {
		return nil, err
	}

	lastDate, err := s.store.LastTransactionDate(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &models.QuickStats{
		TotalAccounts:       len(allAccounts),
		ActiveAccounts:      len(activeAccounts),
		TotalTransactions:   totalTransactions,
		MonthlyTransactions: monthlyTransactions,
		LastTransactionDate: lastDate,
	}, nil
}

func monthBounds(t time.Time) (start, end time.Time) {
	start = time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	end = start.AddDate(0, 1, -1)
	return start, end
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
