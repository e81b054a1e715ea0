package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/easytrack/easytrack-api/models"
)

// Postgres implements Store over database/sql with lib/pq.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

// WithTx runs fn inside a database transaction, rolling back on error or
// panic.
func (p *Postgres) WithTx(ctx context.Context, fn func(Tx) error) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	if err := fn(&pgTx{tx: tx}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("rollback failed: %v (original error: %w)", rbErr, err)
		}
		return err
	}

	return tx.Commit()
}

// pgTx is the atomic unit handed to WithTx callbacks.
type pgTx struct {
	tx *sql.Tx
}

func (t *pgTx) AccountForUpdate(ctx context.Context, id string) (*models.Account, error) {
	var a models.Account
	err := t.tx.QueryRowContext(ctx, `
		SELECT id, user_id, name, type, balance, currency, is_active, created_at, updated_at
		FROM accounts WHERE id = $1
		FOR UPDATE
	`, id).Scan(&a.ID, &a.UserID, &a.Name, &a.Type, &a.Balance, &a.Currency, &a.IsActive, &a.CreatedAt, &a.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (t *pgTx) AddToBalance(ctx context.Context, accountID string, delta decimal.Decimal) error {
	res, err := t.tx.ExecContext(ctx, `
		UPDATE accounts SET balance = balance + $1, updated_at = NOW() WHERE id = $2
	`, delta, accountID)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (t *pgTx) InsertTransaction(ctx context.Context, tr *models.Transaction) error {
	return t.tx.QueryRowContext(ctx, `
		INSERT INTO transactions (id, user_id, account_id, category_id, type, amount, transaction_date, description, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at
	`, tr.ID, tr.UserID, tr.AccountID, tr.CategoryID, tr.Type, tr.Amount, tr.Date, tr.Description, tr.Notes).
		Scan(&tr.CreatedAt, &tr.UpdatedAt)
}

func (t *pgTx) UpdateTransaction(ctx context.Context, tr *models.Transaction) error {
	res, err := t.tx.ExecContext(ctx, `
		UPDATE transactions
		SET account_id = $1, category_id = $2, type = $3, amount = $4,
		    transaction_date = $5, description = $6, notes = $7, updated_at = NOW()
		WHERE id = $8
	`, tr.AccountID, tr.CategoryID, tr.Type, tr.Amount, tr.Date, tr.Description, tr.Notes, tr.ID)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (t *pgTx) DeleteTransaction(ctx context.Context, id string) error {
	res, err := t.tx.ExecContext(ctx, `DELETE FROM transactions WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return models.ErrNotFound
	}
	return nil
}

// --- users ---

func (p *Postgres) CreateUser(ctx context.Context, u *models.User, passwordHash string) error {
	return p.db.QueryRowContext(ctx, `
		INSERT INTO users (id, email, password_hash, first_name, last_name, is_active)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at
	`, u.ID, u.Email, passwordHash, u.FirstName, u.LastName, u.IsActive).
		Scan(&u.CreatedAt, &u.UpdatedAt)
}

func (p *Postgres) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	var u models.User
	err := p.db.QueryRowContext(ctx, `
		SELECT id, email, first_name, last_name, is_active, created_at, updated_at
		FROM users WHERE id = $1
	`, id).Scan(&u.ID, &u.Email, &u.FirstName, &u.LastName, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (p *Postgres) GetUserByEmail(ctx context.Context, email string) (*models.User, string, error) {
	var (
		u    models.User
		hash string
	)
	err := p.db.QueryRowContext(ctx, `
		SELECT id, email, password_hash, first_name, last_name, is_active, created_at, updated_at
		FROM users WHERE email = $1
	`, email).Scan(&u.ID, &u.Email, &hash, &u.FirstName, &u.LastName, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, "", models.ErrNotFound
	}
	if err != nil {
		return nil, "", err
	}
	return &u, hash, nil
}

func (p *Postgres) EmailExists(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := p.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)`, email).Scan(&exists)
	return exists, err
}

func (p *Postgres) UpdateUser(ctx context.Context, u *models.User) error {
	res, err := p.db.ExecContext(ctx, `
		UPDATE users SET first_name = $1, last_name = $2, updated_at = NOW() WHERE id = $3
	`, u.FirstName, u.LastName, u.ID)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (p *Postgres) UpdateUserPassword(ctx context.Context, id, passwordHash string) error {
	res, err := p.db.ExecContext(ctx, `
		UPDATE users SET password_hash = $1, updated_at = NOW() WHERE id = $2
	`, passwordHash, id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (p *Postgres) DeleteUser(ctx context.Context, id string) error {
	res, err := p.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

// --- accounts ---

func (p *Postgres) CreateAccount(ctx context.Context, a *models.Account) error {
	return p.db.QueryRowContext(ctx, `
		INSERT INTO accounts (id, user_id, name, type, balance, currency, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at
	`, a.ID, a.UserID, a.Name, a.Type, a.Balance, a.Currency, a.IsActive).
		Scan(&a.CreatedAt, &a.UpdatedAt)
}

func (p *Postgres) GetAccount(ctx context.Context, id string) (*models.Account, error) {
	var a models.Account
	err := p.db.QueryRowContext(ctx, `
		SELECT id, user_id, name, type, balance, currency, is_active, created_at, updated_at
		FROM accounts WHERE id = $1
	`, id).Scan(&a.ID, &a.UserID, &a.Name, &a.Type, &a.Balance, &a.Currency, &a.IsActive, &a.CreatedAt, &a.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (p *Postgres) ListAccounts(ctx context.Context, userID string, activeOnly bool) ([]models.Account, error) {
	query := `
		SELECT id, user_id, name, type, balance, currency, is_active, created_at, updated_at
		FROM accounts WHERE user_id = $1
	`
	if activeOnly {
		query += ` AND is_active = TRUE`
	}
	query += ` ORDER BY created_at`
	return p.scanAccounts(ctx, query, userID)
}

func (p *Postgres) ListAccountsByType(ctx context.Context, userID string, t models.AccountType) ([]models.Account, error) {
	return p.scanAccounts(ctx, `
		SELECT id, user_id, name, type, balance, currency, is_active, created_at, updated_at
		FROM accounts WHERE user_id = $1 AND type = $2 ORDER BY created_at
	`, userID, t)
}

func (p *Postgres) scanAccounts(ctx context.Context, query string, args ...any) ([]models.Account, error) {
	rows, err := p.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []models.Account
	for rows.Next() {
		var a models.Account
		if err := rows.Scan(&a.ID, &a.UserID, &a.Name, &a.Type, &a.Balance, &a.Currency, &a.IsActive, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

func (p *Postgres) UpdateAccount(ctx context.Context, a *models.Account) error {
	res, err := p.db.ExecContext(ctx, `
		UPDATE accounts
		SET name = $1, type = $2, balance = $3, currency = $4, is_active = $5, updated_at = NOW()
		WHERE id = $6
	`, a.Name, a.Type, a.Balance, a.Currency, a.IsActive, a.ID)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (p *Postgres) DeleteAccount(ctx context.Context, id string) error {
	res, err := p.db.ExecContext(ctx, `DELETE FROM accounts WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

// --- categories ---

func (p *Postgres) CreateCategory(ctx context.Context, c *models.Category) error {
	return p.db.QueryRowContext(ctx, `
		INSERT INTO categories (id, user_id, name, type, is_default)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at
	`, c.ID, c.UserID, c.Name, c.Type, c.IsDefault).
		Scan(&c.CreatedAt, &c.UpdatedAt)
}

func (p *Postgres) GetCategory(ctx context.Context, id string) (*models.Category, error) {
	var c models.Category
	err := p.db.QueryRowContext(ctx, `
		SELECT id, user_id, name, type, is_default, created_at, updated_at
		FROM categories WHERE id = $1
	`, id).Scan(&c.ID, &c.UserID, &c.Name, &c.Type, &c.IsDefault, &c.CreatedAt, &c.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (p *Postgres) ListCategories(ctx context.Context, userID string) ([]models.Category, error) {
	return p.scanCategories(ctx, `
		SELECT id, user_id, name, type, is_default, created_at, updated_at
		FROM categories WHERE user_id = $1 ORDER BY name
	`, userID)
}

func (p *Postgres) ListCategoriesByType(ctx context.Context, userID string, t models.CategoryType) ([]models.Category, error) {
	return p.scanCategories(ctx, `
		SELECT id, user_id, name, type, is_default, created_at, updated_at
		FROM categories WHERE user_id = $1 AND type = $2 ORDER BY name
	`, userID, t)
}

func (p *Postgres) ListDefaultCategories(ctx context.Context, userID string) ([]models.Category, error) {
	return p.scanCategories(ctx, `
		SELECT id, user_id, name, type, is_default, created_at, updated_at
		FROM categories WHERE user_id = $1 AND is_default = TRUE ORDER BY name
	`, userID)
}

func (p *Postgres) scanCategories(ctx context.Context, query string, args ...any) ([]models.Category, error) {
	rows, err := p.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var categories []models.Category
	for rows.Next() {
		var c models.Category
		if err := rows.Scan(&c.ID, &c.UserID, &c.Name, &c.Type, &c.IsDefault, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

func (p *Postgres) UpdateCategory(ctx context.Context, c *models.Category) error {
	res, err := p.db.ExecContext(ctx, `
		UPDATE categories SET name = $1, type = $2, updated_at = NOW() WHERE id = $3
	`, c.Name, c.Type, c.ID)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (p *Postgres) DeleteCategory(ctx context.Context, id string) error {
	res, err := p.db.ExecContext(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}
