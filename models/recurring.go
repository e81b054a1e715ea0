package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Frequency string

const (
	FrequencyDaily   Frequency = "DAILY"
	FrequencyWeekly  Frequency = "WEEKLY"
	FrequencyMonthly Frequency = "MONTHLY"
	FrequencyYearly  Frequency = "YEARLY"
)

func (f Frequency) Valid() bool {
	switch f {
	case FrequencyDaily, FrequencyWeekly, FrequencyMonthly, FrequencyYearly:
		return true
	}
	return false
}

// RecurringTransaction is a template the scheduler materializes into concrete
// transactions. NextOccurrence is always >= StartDate; the template goes
// inactive once the next candidate date would pass EndDate.
type RecurringTransaction struct {
	ID             string          `json:"id"`
	UserID         string          `json:"user_id"`
	AccountID      string          `json:"account_id"`
	CategoryID     string          `json:"category_id"`
	Type           TransactionType `json:"type"`
	Amount         decimal.Decimal `json:"amount"`
	Title          string          `json:"title"`
	Description    string          `json:"description"`
	Frequency      Frequency       `json:"frequency"`
	StartDate      time.Time       `json:"start_date"`
	EndDate        *time.Time      `json:"end_date,omitempty"`
	NextOccurrence time.Time       `json:"next_occurrence"`
	IsActive       bool            `json:"is_active"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

type CreateRecurringRequest struct {
	AccountID   string          `json:"account_id" binding:"required"`
	CategoryID  string          `json:"category_id" binding:"required"`
	Type        TransactionType `json:"type" binding:"required"`
	Amount      decimal.Decimal `json:"amount" binding:"required"`
	Title       string          `json:"title" binding:"required"`
	Description string          `json:"description"`
	Frequency   Frequency       `json:"frequency" binding:"required"`
	StartDate   string          `json:"start_date" binding:"required"`
	EndDate     string          `json:"end_date"`
}

type UpdateRecurringRequest struct {
	AccountID   string          `json:"account_id" binding:"required"`
	CategoryID  string          `json:"category_id" binding:"required"`
	Type        TransactionType `json:"type" binding:"required"`
	Amount      decimal.Decimal `json:"amount" binding:"required"`
	Title       string          `json:"title" binding:"required"`
	Description string          `json:"description"`
	Frequency   Frequency       `json:"frequency" binding:"required"`
	StartDate   string          `json:"start_date" binding:"required"`
	EndDate     string          `json:"end_date"`
	IsActive    *bool           `json:"is_active"`
}
