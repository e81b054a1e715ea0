package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/easytrack/easytrack-api/models"
	"github.com/easytrack/easytrack-api/store"
)

var hundred = decimal.NewFromInt(100)

// BudgetService tracks spending limits per category and window. Spent is a
// cached aggregate recomputed on create, on update and by RefreshSpent; it is
// not kept transactionally consistent with the ledger.
type BudgetService struct {
	store store.Store
	log   *logrus.Logger
}

func NewBudgetService(st store.Store, log *logrus.Logger) *BudgetService {
	return &BudgetService{store: st, log: log}
}

func (s *BudgetService) Create(ctx context.Context, budget *models.Budget) error {
	exists, err := s.store.ActiveBudgetExists(ctx, budget.UserID, budget.CategoryID, budget.StartDate, budget.EndDate)
	if err != nil {
		return fmt.Errorf("duplicate check: %w", err)
	}
	if exists {
		return models.ErrDuplicateBudget
	}

	category, err := s.store.GetCategory(ctx, budget.CategoryID)
	if err != nil {
		return fmt.Errorf("category lookup: %w", err)
	}
	if category.UserID != budget.UserID {
		return models.ErrUnauthorized
	}

	if budget.ID == "" {
		budget.ID = uuid.New().String()
	}
	budget.IsActive = true

	spent, err := s.computeSpent(ctx, budget)
	if err != nil {
		return err
	}
	budget.Spent = spent

	if err := s.store.CreateBudget(ctx, budget); err != nil {
		return fmt.Errorf("create budget: %w", err)
	}

	s.log.WithFields(logrus.Fields{"budget_id": budget.ID, "user_id": budget.UserID}).Info("budget created")
	return nil
}

func (s *BudgetService) Get(ctx context.Context, userID, id string) (*models.Budget, error) {
	budget, err := s.store.GetBudget(ctx, id)
	if err != nil {
		return nil, err
	}
	if budget.UserID != userID {
		return nil, models.ErrUnauthorized
	}
	return budget, nil
}

func (s *BudgetService) List(ctx context.Context, userID string, activeOnly bool) ([]models.Budget, error) {
	return s.store.ListBudgets(ctx, userID, activeOnly)
}

// CurrentBudgets returns budgets whose window contains date, inclusive on
// both ends.
func (s *BudgetService) CurrentBudgets(ctx context.Context, userID string, date time.Time) ([]models.Budget, error) {
	return s.store.ListCurrentBudgets(ctx, userID, date)
}

// Update replaces the mutable fields and unconditionally recomputes spent,
// since the category or window may have changed.
func (s *BudgetService) Update(ctx context.Context, userID, id string, details *models.Budget) (*models.Budget, error) {
	budget, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	category, err := s.store.GetCategory(ctx, details.CategoryID)
	if err != nil {
		return nil, fmt.Errorf("category lookup: %w", err)
	}
	if category.UserID != userID {
		return nil, models.ErrUnauthorized
	}

	budget.CategoryID = details.CategoryID
	budget.Amount = details.Amount
	budget.Period = details.Period
	budget.StartDate = details.StartDate
	budget.EndDate = details.EndDate
	budget.IsActive = details.IsActive

	spent, err := s.computeSpent(ctx, budget)
	if err != nil {
		return nil, err
	}
	budget.Spent = spent

	if err := s.store.UpdateBudget(ctx, budget); err != nil {
		return nil, fmt.Errorf("update budget: %w", err)
	}
	return budget, nil
}

func (s *BudgetService) Delete(ctx context.Context, userID, id string) error {
	if _, err := s.Get(ctx, userID, id); err != nil {
		return err
	}
	return s.store.DeleteBudget(ctx, id)
}

// RefreshSpent recomputes the cached spent amount for every active budget of
// the user. This is the reconciliation pass for drift caused by back-dated
// transactions landing in an already-computed window.
func (s *BudgetService) RefreshSpent(ctx context.Context, userID string) error {
	budgets, err := s.store.ListBudgets(ctx, userID, true)
	if err != nil {
		return err
	}

	for i := range budgets {
		spent, err := s.computeSpent(ctx, &budgets[i])
		if err != nil {
			return err
		}
		if err := s.store.UpdateBudgetSpent(ctx, budgets[i].ID, spent); err != nil {
			return err
		}
	}

	s.log.WithFields(logrus.Fields{"user_id": userID, "budgets": len(budgets)}).Info("budget spent refreshed")
	return nil
}

// Progress returns spent/amount as a percentage rounded to two decimals
// half-up, and zero when the limit is zero.
func (s *BudgetService) Progress(ctx context.Context, userID, id string) (decimal.Decimal, error) {
	budget, err := s.Get(ctx, userID, id)
	if err != nil {
		return decimal.Zero, err
	}
	if budget.Amount.IsZero() {
		return decimal.Zero, nil
	}
	return budget.Spent.Div(budget.Amount).Mul(hundred).Round(2), nil
}

func (s *BudgetService) computeSpent(ctx context.Context, b *models.Budget) (decimal.Decimal, error) {
	return s.store.SumTransactions(ctx, b.UserID, models.TransactionExpense, b.CategoryID, b.StartDate, b.EndDate)
}
