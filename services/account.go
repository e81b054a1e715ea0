package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/easytrack/easytrack-api/models"
	"github.com/easytrack/easytrack-api/store"
)

// AccountService owns the invariant that an account's balance equals the sum
// of signed transaction amounts posted against it. Apart from the explicit
// admin override in Update, balances move only through ApplyDelta and the
// transaction ledger.
type AccountService struct {
	store store.Store
	log   *logrus.Logger
}

func NewAccountService(st store.Store, log *logrus.Logger) *AccountService {
	return &AccountService{store: st, log: log}
}

func (s *AccountService) Create(ctx context.Context, userID string, req models.CreateAccountRequest) (*models.Account, error) {
	currency := req.Currency
	if currency == "" {
		currency = "ZAR"
	}

	account := &models.Account{
		ID:       uuid.New().String(),
		UserID:   userID,
		Name:     req.Name,
		Type:     req.Type,
		Balance:  req.Balance,
		Currency: currency,
		IsActive: true,
	}

	if err := s.store.CreateAccount(ctx, account); err != nil {
		return nil, fmt.Errorf("create account: %w", err)
	}

	s.log.WithFields(logrus.Fields{"account_id": account.ID, "user_id": userID}).Info("account created")
	return account, nil
}

func (s *AccountService) Get(ctx context.Context, userID, id string) (*models.Account, error) {
	account, err := s.store.GetAccount(ctx, id)
	if err != nil {
		return nil, err
	}
	if account.UserID != userID {
		return nil, models.ErrUnauthorized
	}
	return account, nil
}

func (s *AccountService) List(ctx context.Context, userID string, activeOnly bool) ([]models.Account, error) {
	return s.store.ListAccounts(ctx, userID, activeOnly)
}

func (s *AccountService) ListByType(ctx context.Context, userID string, t models.AccountType) ([]models.Account, error) {
	return s.store.ListAccountsByType(ctx, userID, t)
}

// Update replaces the account's attributes. Sending Balance is the admin
// override path; it bypasses the ledger. Omitting it leaves the balance
// untouched.
func (s *AccountService) Update(ctx context.Context, userID, id string, req models.UpdateAccountRequest) (*models.Account, error) {
	account, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	account.Name = req.Name
	account.Type = req.Type
	if req.Balance != nil {
		account.Balance = *req.Balance
	}
	if req.Currency != "" {
		account.Currency = req.Currency
	}
	if req.IsActive != nil {
		account.IsActive = *req.IsActive
	}

	if err := s.store.UpdateAccount(ctx, account); err != nil {
		return nil, fmt.Errorf("update account: %w", err)
	}
	return account, nil
}

func (s *AccountService) Delete(ctx context.Context, userID, id string) error {
	if _, err := s.Get(ctx, userID, id); err != nil {
		return err
	}
	if err := s.store.DeleteAccount(ctx, id); err != nil {
		return err
	}
	s.log.WithFields(logrus.Fields{"account_id": id, "user_id": userID}).Info("account deleted")
	return nil
}

// ApplyDelta atomically adds delta to the account's balance. It performs no
// bounds checking: sufficiency is the transaction ledger's responsibility
// before it asks for a negative delta.
func (s *AccountService) ApplyDelta(ctx context.Context, accountID string, delta decimal.Decimal) error {
	return s.store.WithTx(ctx, func(tx store.Tx) error {
		if _, err := tx.AccountForUpdate(ctx, accountID); err != nil {
			return err
		}
		return tx.AddToBalance(ctx, accountID, delta)
	})
}

// TotalBalance sums balances over the user's active accounts. Inactive
// accounts are excluded from the total but remain visible elsewhere.
func (s *AccountService) TotalBalance(ctx context.Context, userID string) (decimal.Decimal, error) {
	accounts, err := s.store.ListAccounts(ctx, userID, true)
	if err != nil {
		return decimal.Zero, err
	}

	total := decimal.Zero
	for _, a := range accounts {
		total = total.Add(a.Balance)
	}
	return total, nil
}
