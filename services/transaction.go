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

// TransactionService is the ledger: every create, update and delete runs its
// balance check and delta inside a single store transaction with the account
// row locked, so a reader never observes a transaction without its balance
// effect and concurrent expenses cannot jointly overdraw an account.
type TransactionService struct {
	store store.Store
	log   *logrus.Logger
}

func NewTransactionService(st store.Store, log *logrus.Logger) *TransactionService {
	return &TransactionService{store: st, log: log}
}

// Create posts a transaction: expense sufficiency is checked against the
// locked balance, the signed delta is applied, then the record is inserted.
// Spending the balance to exactly zero is allowed.
func (s *TransactionService) Create(ctx context.Context, t *models.Transaction) error {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}

	category, err := s.store.GetCategory(ctx, t.CategoryID)
	if err != nil {
		return fmt.Errorf("category lookup: %w", err)
	}
	if category.UserID != t.UserID {
		return models.ErrUnauthorized
	}

	err = s.store.WithTx(ctx, func(tx store.Tx) error {
		account, err := tx.AccountForUpdate(ctx, t.AccountID)
		if err != nil {
			return err
		}
		if account.UserID != t.UserID {
			return models.ErrUnauthorized
		}

		if t.Type == models.TransactionExpense && account.Balance.LessThan(t.Amount) {
			return &models.InsufficientBalanceError{Available: account.Balance, Required: t.Amount}
		}

		if err := tx.AddToBalance(ctx, t.AccountID, t.SignedAmount()); err != nil {
			return err
		}
		return tx.InsertTransaction(ctx, t)
	})
	if err != nil {
		return err
	}

	s.log.WithFields(logrus.Fields{
		"transaction_id": t.ID,
		"account_id":     t.AccountID,
		"type":           t.Type,
		"amount":         t.Amount.StringFixed(2),
	}).Info("transaction posted")
	return nil
}

// Update reverts the old signed delta on the old account, re-checks
// sufficiency against the post-revert balance, applies the new delta on the
// (possibly different) new account, and persists the new details. The whole
// sequence commits or none of it does.
func (s *TransactionService) Update(ctx context.Context, userID, id string, details *models.Transaction) (*models.Transaction, error) {
	existing, err := s.Get(ctx, userID, id)
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

	updated := *existing
	updated.AccountID = details.AccountID
	updated.CategoryID = details.CategoryID
	updated.Type = details.Type
	updated.Amount = details.Amount
	updated.Date = details.Date
	updated.Description = details.Description
	updated.Notes = details.Notes

	err = s.store.WithTx(ctx, func(tx store.Tx) error {
		oldSigned := existing.SignedAmount()
		newSigned := updated.SignedAmount()

		if existing.AccountID == updated.AccountID {
			account, err := tx.AccountForUpdate(ctx, existing.AccountID)
			if err != nil {
				return err
			}
			if account.UserID != userID {
				return models.ErrUnauthorized
			}

			afterRevert := account.Balance.Sub(oldSigned)
			if updated.Type == models.TransactionExpense && afterRevert.LessThan(updated.Amount) {
				return &models.InsufficientBalanceError{Available: afterRevert, Required: updated.Amount}
			}
			if err := tx.AddToBalance(ctx, existing.AccountID, newSigned.Sub(oldSigned)); err != nil {
				return err
			}
		} else {
			oldAccount, newAccount, err := lockPair(ctx, tx, existing.AccountID, updated.AccountID)
			if err != nil {
				return err
			}
			if oldAccount.UserID != userID || newAccount.UserID != userID {
				return models.ErrUnauthorized
			}

			if updated.Type == models.TransactionExpense && newAccount.Balance.LessThan(updated.Amount) {
				return &models.InsufficientBalanceError{Available: newAccount.Balance, Required: updated.Amount}
			}
			if err := tx.AddToBalance(ctx, existing.AccountID, oldSigned.Neg()); err != nil {
				return err
			}
			if err := tx.AddToBalance(ctx, updated.AccountID, newSigned); err != nil {
				return err
			}
		}

		return tx.UpdateTransaction(ctx, &updated)
	})
	if err != nil {
		return nil, err
	}

	s.log.WithField("transaction_id", id).Info("transaction updated")
	return &updated, nil
}

// lockPair locks two account rows in ascending id order so concurrent
// cross-account updates cannot deadlock.
func lockPair(ctx context.Context, tx store.Tx, firstID, secondID string) (first, second *models.Account, err error) {
	ids := [2]string{firstID, secondID}
	if ids[1] < ids[0] {
		ids[0], ids[1] = ids[1], ids[0]
	}

	locked := make(map[string]*models.Account, 2)
	for _, id := range ids {
		a, err := tx.AccountForUpdate(ctx, id)
		if err != nil {
			return nil, nil, err
		}
		locked[id] = a
	}
	return locked[firstID], locked[secondID], nil
}

// Delete reverts the transaction's signed delta and removes the record.
func (s *TransactionService) Delete(ctx context.Context, userID, id string) error {
	existing, err := s.Get(ctx, userID, id)
	if err != nil {
		return err
	}

	err = s.store.WithTx(ctx, func(tx store.Tx) error {
		if _, err := tx.AccountForUpdate(ctx, existing.AccountID); err != nil {
			return err
		}
		if err := tx.AddToBalance(ctx, existing.AccountID, existing.SignedAmount().Neg()); err != nil {
			return err
		}
		return tx.DeleteTransaction(ctx, id)
	})
	if err != nil {
		return err
	}

	s.log.WithField("transaction_id", id).Info("transaction deleted")
	return nil
}

func (s *TransactionService) Get(ctx context.Context, userID, id string) (*models.Transaction, error) {
	t, err := s.store.GetTransaction(ctx, id)
	if err != nil {
		return nil, err
	}
	if t.UserID != userID {
		return nil, models.ErrUnauthorized
	}
	return t, nil
}

func (s *TransactionService) List(ctx context.Context, userID string, f store.TransactionFilter) ([]models.Transaction, error) {
	return s.store.ListTransactions(ctx, userID, f)
}

func (s *TransactionService) TotalIncomeByDateRange(ctx context.Context, userID string, from, to time.Time) (decimal.Decimal, error) {
	return s.store.SumTransactions(ctx, userID, models.TransactionIncome, "", from, to)
}

func (s *TransactionService) TotalExpenseByDateRange(ctx context.Context, userID string, from, to time.Time) (decimal.Decimal, error) {
	return s.store.SumTransactions(ctx, userID, models.TransactionExpense, "", from, to)
}

func (s *TransactionService) NetIncomeByDateRange(ctx context.Context, userID string, from, to time.Time) (decimal.Decimal, error) {
	income, err := s.TotalIncomeByDateRange(ctx, userID, from, to)
	if err != nil {
		return decimal.Zero, err
	}
	expense, err := s.TotalExpenseByDateRange(ctx, userID, from, to)
	if err != nil {
		return decimal.Zero, err
	}
	return income.Sub(expense), nil
}

func (s *TransactionService) SummaryByDateRange(ctx context.Context, userID string, from, to time.Time) (*models.TransactionSummary, error) {
	income, err := s.TotalIncomeByDateRange(ctx, userID, from, to)
	if err != nil {
		return nil, err
	}
	expense, err := s.TotalExpenseByDateRange(ctx, userID, from, to)
	if err != nil {
		return nil, err
	}
	return &models.TransactionSummary{
		TotalIncome:  income,
		TotalExpense: expense,
		NetIncome:    income.Sub(expense),
	}, nil
}
