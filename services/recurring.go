package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/easytrack/easytrack-api/models"
	"github.com/easytrack/easytrack-api/store"
)

// RecurringService advances recurring templates into concrete transactions.
// Each Process pass materializes at most one occurrence per due template;
// templates that are still due afterwards are picked up on the next pass.
type RecurringService struct {
	store        store.Store
	transactions *TransactionService
	log          *logrus.Logger
}

func NewRecurringService(st store.Store, transactions *TransactionService, log *logrus.Logger) *RecurringService {
	return &RecurringService{store: st, transactions: transactions, log: log}
}

func (s *RecurringService) Create(ctx context.Context, r *models.RecurringTransaction) error {
	if err := s.checkRefs(ctx, r.UserID, r.AccountID, r.CategoryID); err != nil {
		return err
	}

	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	if r.NextOccurrence.IsZero() {
		r.NextOccurrence = r.StartDate
	}
	r.IsActive = true

	if err := s.store.CreateRecurring(ctx, r); err != nil {
		return fmt.Errorf("create recurring transaction: %w", err)
	}

	s.log.WithFields(logrus.Fields{
		"recurring_id": r.ID,
		"user_id":      r.UserID,
		"frequency":    r.Frequency,
	}).Info("recurring transaction created")
	return nil
}

func (s *RecurringService) Get(ctx context.Context, userID, id string) (*models.RecurringTransaction, error) {
	r, err := s.store.GetRecurring(ctx, id)
	if err != nil {
		return nil, err
	}
	if r.UserID != userID {
		return nil, models.ErrUnauthorized
	}
	return r, nil
}

func (s *RecurringService) List(ctx context.Context, userID string, activeOnly bool) ([]models.RecurringTransaction, error) {
	return s.store.ListRecurring(ctx, userID, activeOnly)
}

func (s *RecurringService) Update(ctx context.Context, userID, id string, details *models.RecurringTransaction) (*models.RecurringTransaction, error) {
	r, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if err := s.checkRefs(ctx, userID, details.AccountID, details.CategoryID); err != nil {
		return nil, err
	}

	r.AccountID = details.AccountID
	r.CategoryID = details.CategoryID
	r.Type = details.Type
	r.Amount = details.Amount
	r.Title = details.Title
	r.Description = details.Description
	r.Frequency = details.Frequency
	r.StartDate = details.StartDate
	r.EndDate = details.EndDate
	r.IsActive = details.IsActive

	if err := s.store.UpdateRecurring(ctx, r); err != nil {
		return nil, fmt.Errorf("update recurring transaction: %w", err)
	}
	return r, nil
}

// checkRefs resolves the referenced account and category and confirms both
// belong to the caller, so templates never carry dangling or foreign ids into
// the scheduler.
func (s *RecurringService) checkRefs(ctx context.Context, userID, accountID, categoryID string) error {
	account, err := s.store.GetAccount(ctx, accountID)
	if err != nil {
		return fmt.Errorf("account lookup: %w", err)
	}
	if account.UserID != userID {
		return models.ErrUnauthorized
	}

	category, err := s.store.GetCategory(ctx, categoryID)
	if err != nil {
		return fmt.Errorf("category lookup: %w", err)
	}
	if category.UserID != userID {
		return models.ErrUnauthorized
	}
	return nil
}

func (s *RecurringService) Delete(ctx context.Context, userID, id string) error {
	if _, err := s.Get(ctx, userID, id); err != nil {
		return err
	}
	return s.store.DeleteRecurring(ctx, id)
}

// Process materializes every active template whose next occurrence is on or
// before today, then advances it one frequency step. A failure on one
// template (say, insufficient balance) is logged and does not stop the rest
// of the batch. Returns the number of transactions created.
func (s *RecurringService) Process(ctx context.Context, today time.Time) (int, error) {
	due, err := s.store.ListDueRecurring(ctx, today)
	if err != nil {
		return 0, fmt.Errorf("list due recurring transactions: %w", err)
	}

	s.log.WithFields(logrus.Fields{
		"due":  len(due),
		"date": today.Format("2006-01-02"),
	}).Info("processing recurring transactions")

	processed := 0
	for i := range due {
		r := &due[i]

		t := &models.Transaction{
			UserID:      r.UserID,
			AccountID:   r.AccountID,
			CategoryID:  r.CategoryID,
			Type:        r.Type,
			Amount:      r.Amount,
			Date:        r.NextOccurrence,
			Description: r.Description,
			Notes:       "Auto-generated from recurring transaction: " + r.Title,
		}
		if err := s.transactions.Create(ctx, t); err != nil {
			s.log.WithError(err).WithField("recurring_id", r.ID).Error("failed to materialize recurring transaction")
			continue
		}

		candidate := NextOccurrence(r.NextOccurrence, r.Frequency)
		if r.EndDate != nil && candidate.After(*r.EndDate) {
			r.IsActive = false
		} else {
			r.NextOccurrence = candidate
		}

		if err := s.store.UpdateRecurring(ctx, r); err != nil {
			s.log.WithError(err).WithField("recurring_id", r.ID).Error("failed to advance recurring transaction")
			continue
		}
		processed++
	}

	s.log.WithFields(logrus.Fields{"processed": processed, "due": len(due)}).Info("recurring processing complete")
	return processed, nil
}

// NextOccurrence adds one frequency unit to date. Month and year steps clamp
// to the last day of the target month, so a template anchored on Jan 31
// advances to Feb 29 in a leap year rather than overflowing into March.
func NextOccurrence(date time.Time, f models.Frequency) time.Time {
	switch f {
	case models.FrequencyDaily:
		return date.AddDate(0, 0, 1)
	case models.FrequencyWeekly:
		return date.AddDate(0, 0, 7)
	case models.FrequencyMonthly:
		return addMonthsClamped(date, 1)
	case models.FrequencyYearly:
		return addMonthsClamped(date, 12)
	}
	return date
}

func addMonthsClamped(date time.Time, months int) time.Time {
	firstOfTarget := time.Date(date.Year(), date.Month(), 1, 0, 0, 0, 0, date.Location()).AddDate(0, months, 0)
	lastDay := firstOfTarget.AddDate(0, 1, -1).Day()

	day := date.Day()
	if day > lastDay {
		day = lastDay
	}
	return time.Date(firstOfTarget.Year(), firstOfTarget.Month(), day, 0, 0, 0, 0, date.Location())
}
