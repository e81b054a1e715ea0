package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type AccountType string

const (
	AccountCash       AccountType = "CASH"
	AccountBank       AccountType = "BANK"
	AccountCreditCard AccountType = "CREDIT_CARD"
	AccountSavings    AccountType = "SAVINGS"
	AccountInvestment AccountType = "INVESTMENT"
)

func (t AccountType) Valid() bool {
	switch t {
	case AccountCash, AccountBank, AccountCreditCard, AccountSavings, AccountInvestment:
		return true
	}
	return false
}

// Account balance is mutated exclusively through posted transaction deltas;
// UpdateAccountRequest.Balance is the one admin override path.
type Account struct {
	ID        string          `json:"id"`
	UserID    string          `json:"user_id"`
	Name      string          `json:"name"`
	Type      AccountType     `json:"type"`
	Balance   decimal.Decimal `json:"balance"`
	Currency  string          `json:"currency"`
	IsActive  bool            `json:"is_active"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

type CreateAccountRequest struct {
	Name     string          `json:"name" binding:"required"`
	Type     AccountType     `json:"type" binding:"required"`
	Balance  decimal.Decimal `json:"balance"`
	Currency string          `json:"currency"`
}

// Balance is a pointer so an update that omits it leaves the ledger-managed
// balance alone; sending it is the explicit admin override.
type UpdateAccountRequest struct {
	Name     string           `json:"name" binding:"required"`
	Type     AccountType      `json:"type" binding:"required"`
	Balance  *decimal.Decimal `json:"balance"`
	Currency string           `json:"currency"`
	IsActive *bool            `json:"is_active"`
}
