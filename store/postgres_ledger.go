package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/easytrack/easytrack-api/models"
)

// --- transactions ---

func (p *Postgres) GetTransaction(ctx context.Context, id string) (*models.Transaction, error) {
	var t models.Transaction
	err := p.db.QueryRowContext(ctx, `
		SELECT id, user_id, account_id, category_id, type, amount, transaction_date, description, notes, created_at, updated_at
		FROM transactions WHERE id = $1
	`, id).Scan(&t.ID, &t.UserID, &t.AccountID, &t.CategoryID, &t.Type, &t.Amount, &t.Date, &t.Description, &t.Notes, &t.CreatedAt, &t.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (p *Postgres) ListTransactions(ctx context.Context, userID string, f TransactionFilter) ([]models.Transaction, error) {
	query := `
		SELECT id, user_id, account_id, category_id, type, amount, transaction_date, description, notes, created_at, updated_at
		FROM transactions WHERE user_id = $1
	`
	args := []any{userID}

	if f.Type != "" {
		args = append(args, f.Type)
		query += fmt.Sprintf(" AND type = $%d", len(args))
	}
	if f.AccountID != "" {
		args = append(args, f.AccountID)
		query += fmt.Sprintf(" AND account_id = $%d", len(args))
	}
	if f.CategoryID != "" {
		args = append(args, f.CategoryID)
		query += fmt.Sprintf(" AND category_id = $%d", len(args))
	}
	if f.From != nil {
		args = append(args, *f.From)
		query += fmt.Sprintf(" AND transaction_date >= $%d", len(args))
	}
	if f.To != nil {
		args = append(args, *f.To)
		query += fmt.Sprintf(" AND transaction_date <= $%d", len(args))
	}
	query += " ORDER BY transaction_date DESC, id DESC"

	return p.scanTransactions(ctx, query, args...)
}

func (p *Postgres) ListRecentTransactions(ctx context.Context, userID string, limit int) ([]models.Transaction, error) {
	return p.scanTransactions(ctx, `
		SELECT id, user_id, account_id, category_id, type, amount, transaction_date, description, notes, created_at, updated_at
		FROM transactions WHERE user_id = $1
		ORDER BY transaction_date DESC, id DESC
		LIMIT $2
	`, userID, limit)
}

func (p *Postgres) scanTransactions(ctx context.Context, query string, args ...any) ([]models.Transaction, error) {
	rows, err := p.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var transactions []models.Transaction
	for rows.Next() {
		var t models.Transaction
		if err := rows.Scan(&t.ID, &t.UserID, &t.AccountID, &t.CategoryID, &t.Type, &t.Amount, &t.Date, &t.Description, &t.Notes, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		transactions = append(transactions, t)
	}
	return transactions, rows.Err()
}

func (p *Postgres) CountTransactions(ctx context.Context, userID string, from, to *time.Time) (int, error) {
	query := `SELECT COUNT(*) FROM transactions WHERE user_id = $1`
	args := []any{userID}
	if from != nil {
		args = append(args, *from)
		query += fmt.Sprintf(" AND transaction_date >= $%d", len(args))
	}
	if to != nil {
		args = append(args, *to)
		query += fmt.Sprintf(" AND transaction_date <= $%d", len(args))
	}

	var count int
	err := p.db.QueryRowContext(ctx, query, args...).Scan(&count)
	return count, err
}

func (p *Postgres) LastTransactionDate(ctx context.Context, userID string) (*time.Time, error) {
	var date sql.NullTime
	err := p.db.QueryRowContext(ctx, `
		SELECT MAX(transaction_date) FROM transactions WHERE user_id = $1
	`, userID).Scan(&date)
	if err != nil {
		return nil, err
	}
	if !date.Valid {
		return nil, nil
	}
	return &date.Time, nil
}

func (p *Postgres) SumTransactions(ctx context.Context, userID string, t models.TransactionType, categoryID string, from, to time.Time) (decimal.Decimal, error) {
	query := `
		SELECT COALESCE(SUM(amount), 0) FROM transactions
		WHERE user_id = $1 AND type = $2 AND transaction_date BETWEEN $3 AND $4
	`
	args := []any{userID, t, from, to}
	if categoryID != "" {
		args = append(args, categoryID)
		query += fmt.Sprintf(" AND category_id = $%d", len(args))
	}

	var sum decimal.Decimal
	err := p.db.QueryRowContext(ctx, query, args...).Scan(&sum)
	return sum, err
}

// --- recurring transactions ---

func (p *Postgres) CreateRecurring(ctx context.Context, r *models.RecurringTransaction) error {
	return p.db.QueryRowContext(ctx, `
		INSERT INTO recurring_transactions
			(id, user_id, account_id, category_id, type, amount, title, description, frequency, start_date, end_date, next_occurrence, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING created_at, updated_at
	`, r.ID, r.UserID, r.AccountID, r.CategoryID, r.Type, r.Amount, r.Title, r.Description,
		r.Frequency, r.StartDate, r.EndDate, r.NextOccurrence, r.IsActive).
		Scan(&r.CreatedAt, &r.UpdatedAt)
}

func (p *Postgres) GetRecurring(ctx context.Context, id string) (*models.RecurringTransaction, error) {
	var r models.RecurringTransaction
	err := p.db.QueryRowContext(ctx, `
		SELECT id, user_id, account_id, category_id, type, amount, title, description, frequency, start_date, end_date, next_occurrence, is_active, created_at, updated_at
		FROM recurring_transactions WHERE id = $1
	`, id).Scan(&r.ID, &r.UserID, &r.AccountID, &r.CategoryID, &r.Type, &r.Amount, &r.Title, &r.Description,
		&r.Frequency, &r.StartDate, &r.EndDate, &r.NextOccurrence, &r.IsActive, &r.CreatedAt, &r.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (p *Postgres) ListRecurring(ctx context.Context, userID string, activeOnly bool) ([]models.RecurringTransaction, error) {
	query := `
		SELECT id, user_id, account_id, category_id, type, amount, title, description, frequency, start_date, end_date, next_occurrence, is_active, created_at, updated_at
		FROM recurring_transactions WHERE user_id = $1
	`
	if activeOnly {
		query += ` AND is_active = TRUE`
	}
	query += ` ORDER BY next_occurrence`
	return p.scanRecurring(ctx, query, userID)
}

func (p *Postgres) ListDueRecurring(ctx context.Context, asOf time.Time) ([]models.RecurringTransaction, error) {
	return p.scanRecurring(ctx, `
		SELECT id, user_id, account_id, category_id, type, amount, title, description, frequency, start_date, end_date, next_occurrence, is_active, created_at, updated_at
		FROM recurring_transactions
		WHERE is_active = TRUE AND next_occurrence <= $1
		ORDER BY next_occurrence
	`, asOf)
}

func (p *Postgres) scanRecurring(ctx context.Context, query string, args ...any) ([]models.RecurringTransaction, error) {
	rows, err := p.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var templates []models.RecurringTransaction
	for rows.Next() {
		var r models.RecurringTransaction
		if err := rows.Scan(&r.ID, &r.UserID, &r.AccountID, &r.CategoryID, &r.Type, &r.Amount, &r.Title, &r.Description,
			&r.Frequency, &r.StartDate, &r.EndDate, &r.NextOccurrence, &r.IsActive, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, err
		}
		templates = append(templates, r)
	}
	return templates, rows.Err()
}

func (p *Postgres) UpdateRecurring(ctx context.Context, r *models.RecurringTransaction) error {
	res, err := p.db.ExecContext(ctx, `
		UPDATE recurring_transactions
		SET account_id = $1, category_id = $2, type = $3, amount = $4, title = $5, description = $6,
		    frequency = $7, start_date = $8, end_date = $9, next_occurrence = $10, is_active = $11, updated_at = NOW()
		WHERE id = $12
	`, r.AccountID, r.CategoryID, r.Type, r.Amount, r.Title, r.Description,
		r.Frequency, r.StartDate, r.EndDate, r.NextOccurrence, r.IsActive, r.ID)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (p *Postgres) DeleteRecurring(ctx context.Context, id string) error {
	res, err := p.db.ExecContext(ctx, `DELETE FROM recurring_transactions WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

// --- budgets ---

func (p *Postgres) CreateBudget(ctx context.Context, b *models.Budget) error {
	err := p.db.QueryRowContext(ctx, `
		INSERT INTO budgets (id, user_id, category_id, amount, spent, period, start_date, end_date, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at
	`, b.ID, b.UserID, b.CategoryID, b.Amount, b.Spent, b.Period, b.StartDate, b.EndDate, b.IsActive).
		Scan(&b.CreatedAt, &b.UpdatedAt)
	// A concurrent create can slip past the service's duplicate check and hit
	// the partial unique index instead.
	if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
		return models.ErrDuplicateBudget
	}
	return err
}

func (p *Postgres) GetBudget(ctx context.Context, id string) (*models.Budget, error) {
	var b models.Budget
	err := p.db.QueryRowContext(ctx, `
		SELECT id, user_id, category_id, amount, spent, period, start_date, end_date, is_active, created_at, updated_at
		FROM budgets WHERE id = $1
	`, id).Scan(&b.ID, &b.UserID, &b.CategoryID, &b.Amount, &b.Spent, &b.Period, &b.StartDate, &b.EndDate, &b.IsActive, &b.CreatedAt, &b.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (p *Postgres) ListBudgets(ctx context.Context, userID string, activeOnly bool) ([]models.Budget, error) {
	query := `
		SELECT id, user_id, category_id, amount, spent, period, start_date, end_date, is_active, created_at, updated_at
		FROM budgets WHERE user_id = $1
	`
	if activeOnly {
		query += ` AND is_active = TRUE`
	}
	query += ` ORDER BY start_date DESC`
	return p.scanBudgets(ctx, query, userID)
}

func (p *Postgres) ListCurrentBudgets(ctx context.Context, userID string, date time.Time) ([]models.Budget, error) {
	return p.scanBudgets(ctx, `
		SELECT id, user_id, category_id, amount, spent, period, start_date, end_date, is_active, created_at, updated_at
		FROM budgets
		WHERE user_id = $1 AND start_date <= $2 AND end_date >= $2
		ORDER BY start_date DESC
	`, userID, date)
}

func (p *Postgres) ActiveBudgetExists(ctx context.Context, userID, categoryID string, start, end time.Time) (bool, error) {
	var exists bool
	err := p.db.QueryRowContext(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM budgets
			WHERE user_id = $1 AND category_id = $2 AND start_date = $3 AND end_date = $4 AND is_active = TRUE
		)
	`, userID, categoryID, start, end).Scan(&exists)
	return exists, err
}

func (p *Postgres) scanBudgets(ctx context.Context, query string, args ...any) ([]models.Budget, error) {
	rows, err := p.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var budgets []models.Budget
	for rows.Next() {
		var b models.Budget
		if err := rows.Scan(&b.ID, &b.UserID, &b.CategoryID, &b.Amount, &b.Spent, &b.Period, &b.StartDate, &b.EndDate, &b.IsActive, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, err
		}
		budgets = append(budgets, b)
	}
	return budgets, rows.Err()
}

func (p *Postgres) UpdateBudget(ctx context.Context, b *models.Budget) error {
	res, err := p.db.ExecContext(ctx, `
		UPDATE budgets
		SET category_id = $1, amount = $2, spent = $3, period = $4, start_date = $5, end_date = $6, is_active = $7, updated_at = NOW()
		WHERE id = $8
	`, b.CategoryID, b.Amount, b.Spent, b.Period, b.StartDate, b.EndDate, b.IsActive, b.ID)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (p *Postgres) UpdateBudgetSpent(ctx context.Context, id string, spent decimal.Decimal) error {
	res, err := p.db.ExecContext(ctx, `
		UPDATE budgets SET spent = $1, updated_at = NOW() WHERE id = $2
	`, spent, id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (p *Postgres) DeleteBudget(ctx context.Context, id string) error {
	res, err := p.db.ExecContext(ctx, `DELETE FROM budgets WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}
