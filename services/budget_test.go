package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/easytrack/easytrack-api/models"
)

func setupBudgets(t *testing.T) (*memStore, *BudgetService) {
	t.Helper()
	st := newMemStore()
	st.seedCategory(models.Category{ID: "cat-groceries", UserID: testUser, Name: "Groceries", Type: models.CategoryExpense})
	st.seedCategory(models.Category{ID: "cat-transport", UserID: testUser, Name: "Transport", Type: models.CategoryExpense})
	st.seedCategory(models.Category{ID: "cat-foreign", UserID: otherUser, Name: "Foreign", Type: models.CategoryExpense})
	return st, NewBudgetService(st, testLogger())
}

func marchBudget(id, categoryID, amount string) *models.Budget {
	return &models.Budget{
		ID:         id,
		UserID:     testUser,
		CategoryID: categoryID,
		Amount:     dec(amount),
		Period:     models.BudgetMonthly,
		StartDate:  day(2024, 3, 1),
		EndDate:    day(2024, 3, 31),
	}
}

func TestBudgetCreate(t *testing.T) {
	ctx := context.Background()

	t.Run("seeds spent from the window", func(t *testing.T) {
		st, svc := setupBudgets(t)
		st.seedTransaction(models.Transaction{ID: "t1", UserID: testUser, CategoryID: "cat-groceries", Type: models.TransactionExpense, Amount: dec("150.00"), Date: day(2024, 3, 5)})
		st.seedTransaction(models.Transaction{ID: "t2", UserID: testUser, CategoryID: "cat-groceries", Type: models.TransactionExpense, Amount: dec("80.00"), Date: day(2024, 3, 31)})
		// Wrong category, wrong type and out-of-window rows are ignored.
		st.seedTransaction(models.Transaction{ID: "t3", UserID: testUser, CategoryID: "cat-transport", Type: models.TransactionExpense, Amount: dec("40.00"), Date: day(2024, 3, 10)})
		st.seedTransaction(models.Transaction{ID: "t4", UserID: testUser, CategoryID: "cat-groceries", Type: models.TransactionIncome, Amount: dec("60.00"), Date: day(2024, 3, 10)})
		st.seedTransaction(models.Transaction{ID: "t5", UserID: testUser, CategoryID: "cat-groceries", Type: models.TransactionExpense, Amount: dec("70.00"), Date: day(2024, 4, 1)})

		b := marchBudget("b1", "cat-groceries", "500.00")
		if err := svc.Create(ctx, b); err != nil {
			t.Fatalf("Create: %v", err)
		}
		if !b.Spent.Equal(dec("230.00")) {
			t.Errorf("spent = %s, want 230.00", b.Spent)
		}
		if !b.IsActive {
			t.Error("new budget not active")
		}
	})

	t.Run("no matching transactions means zero spent", func(t *testing.T) {
		_, svc := setupBudgets(t)
		b := marchBudget("b1", "cat-groceries", "500.00")
		if err := svc.Create(ctx, b); err != nil {
			t.Fatalf("Create: %v", err)
		}
		if !b.Spent.IsZero() {
			t.Errorf("spent = %s, want 0", b.Spent)
		}
	})

	t.Run("duplicate active window is rejected", func(t *testing.T) {
		_, svc := setupBudgets(t)
		if err := svc.Create(ctx, marchBudget("b1", "cat-groceries", "500.00")); err != nil {
			t.Fatalf("first Create: %v", err)
		}
		err := svc.Create(ctx, marchBudget("b2", "cat-groceries", "300.00"))
		if !errors.Is(err, models.ErrDuplicateBudget) {
			t.Fatalf("Create err = %v, want ErrDuplicateBudget", err)
		}
	})

	t.Run("same window for another category is fine", func(t *testing.T) {
		_, svc := setupBudgets(t)
		if err := svc.Create(ctx, marchBudget("b1", "cat-groceries", "500.00")); err != nil {
			t.Fatalf("Create: %v", err)
		}
		if err := svc.Create(ctx, marchBudget("b2", "cat-transport", "200.00")); err != nil {
			t.Fatalf("Create for second category: %v", err)
		}
	})

	t.Run("inactive budget does not block the window", func(t *testing.T) {
		st, svc := setupBudgets(t)
		old := marchBudget("b1", "cat-groceries", "500.00")
		old.IsActive = false
		st.seedBudget(*old)

		if err := svc.Create(ctx, marchBudget("b2", "cat-groceries", "300.00")); err != nil {
			t.Fatalf("Create: %v", err)
		}
	})

	t.Run("another user's category is rejected", func(t *testing.T) {
		_, svc := setupBudgets(t)
		err := svc.Create(ctx, marchBudget("b1", "cat-foreign", "500.00"))
		if !errors.Is(err, models.ErrUnauthorized) {
			t.Fatalf("Create err = %v, want ErrUnauthorized", err)
		}
	})
}

func TestBudgetProgress(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name   string
		spent  string
		amount string
		want   string
	}{
		{"partial", "230.00", "500.00", "46"},
		{"exactly full", "500.00", "500.00", "100"},
		{"over budget", "750.00", "500.00", "150"},
		{"repeating fraction rounds half-up", "100.00", "300.00", "33.33"},
		{"two thirds", "200.00", "300.00", "66.67"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st, svc := setupBudgets(t)
			b := marchBudget("b1", "cat-groceries", tt.amount)
			b.Spent = dec(tt.spent)
			b.IsActive = true
			st.seedBudget(*b)

			got, err := svc.Progress(ctx, testUser, "b1")
			if err != nil {
				t.Fatalf("Progress: %v", err)
			}
			if !got.Equal(dec(tt.want)) {
				t.Errorf("Progress = %s, want %s", got, tt.want)
			}
		})
	}

	t.Run("zero limit reports zero", func(t *testing.T) {
		st, svc := setupBudgets(t)
		b := marchBudget("b1", "cat-groceries", "0")
		b.Spent = dec("50.00")
		b.IsActive = true
		st.seedBudget(*b)

		got, err := svc.Progress(ctx, testUser, "b1")
		if err != nil {
			t.Fatalf("Progress: %v", err)
		}
		if !got.IsZero() {
			t.Errorf("Progress = %s, want 0", got)
		}
	})
}

func TestBudgetRefreshSpent(t *testing.T) {
	ctx := context.Background()
	st, svc := setupBudgets(t)

	b := marchBudget("b1", "cat-groceries", "500.00")
	if err := svc.Create(ctx, b); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if !b.Spent.IsZero() {
		t.Fatalf("initial spent = %s, want 0", b.Spent)
	}

	inactive := marchBudget("b2", "cat-transport", "200.00")
	inactive.IsActive = false
	inactive.Spent = dec("11.00")
	st.seedBudget(*inactive)

	// A back-dated transaction lands inside the already-computed window.
	st.seedTransaction(models.Transaction{ID: "t1", UserID: testUser, CategoryID: "cat-groceries", Type: models.TransactionExpense, Amount: dec("95.50"), Date: day(2024, 3, 2)})
	st.seedTransaction(models.Transaction{ID: "t2", UserID: testUser, CategoryID: "cat-transport", Type: models.TransactionExpense, Amount: dec("40.00"), Date: day(2024, 3, 2)})

	if err := svc.RefreshSpent(ctx, testUser); err != nil {
		t.Fatalf("RefreshSpent: %v", err)
	}

	got, err := st.GetBudget(ctx, "b1")
	if err != nil {
		t.Fatal(err)
	}
	if !got.Spent.Equal(dec("95.50")) {
		t.Errorf("refreshed spent = %s, want 95.50", got.Spent)
	}

	// Inactive budgets are skipped by the refresh pass.
	skipped, err := st.GetBudget(ctx, "b2")
	if err != nil {
		t.Fatal(err)
	}
	if !skipped.Spent.Equal(dec("11.00")) {
		t.Errorf("inactive budget spent = %s, want untouched 11.00", skipped.Spent)
	}
}

func TestBudgetUpdate(t *testing.T) {
	ctx := context.Background()
	st, svc := setupBudgets(t)

	st.seedTransaction(models.Transaction{ID: "t1", UserID: testUser, CategoryID: "cat-transport", Type: models.TransactionExpense, Amount: dec("33.00"), Date: day(2024, 3, 7)})

	b := marchBudget("b1", "cat-groceries", "500.00")
	if err := svc.Create(ctx, b); err != nil {
		t.Fatalf("Create: %v", err)
	}

	details := marchBudget("", "cat-transport", "250.00")
	details.IsActive = true
	updated, err := svc.Update(ctx, testUser, "b1", details)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.CategoryID != "cat-transport" || !updated.Amount.Equal(dec("250.00")) {
		t.Errorf("updated = %+v", updated)
	}
	// Spent follows the new category.
	if !updated.Spent.Equal(dec("33.00")) {
		t.Errorf("spent after category change = %s, want 33.00", updated.Spent)
	}

	t.Run("another user's category is rejected", func(t *testing.T) {
		foreign := marchBudget("", "cat-foreign", "250.00")
		foreign.IsActive = true
		if _, err := svc.Update(ctx, testUser, "b1", foreign); !errors.Is(err, models.ErrUnauthorized) {
			t.Fatalf("Update err = %v, want ErrUnauthorized", err)
		}
		stored, _ := st.GetBudget(ctx, "b1")
		if stored.CategoryID != "cat-transport" {
			t.Errorf("stored category = %q, want cat-transport untouched", stored.CategoryID)
		}
	})

	t.Run("dangling category id is rejected", func(t *testing.T) {
		gone := marchBudget("", "cat-gone", "250.00")
		gone.IsActive = true
		if _, err := svc.Update(ctx, testUser, "b1", gone); !errors.Is(err, models.ErrNotFound) {
			t.Fatalf("Update err = %v, want ErrNotFound", err)
		}
	})
}

func TestCreateBudgetStoreDuplicate(t *testing.T) {
	ctx := context.Background()
	st, _ := setupBudgets(t)

	first := marchBudget("b1", "cat-groceries", "500.00")
	first.IsActive = true
	if err := st.CreateBudget(ctx, first); err != nil {
		t.Fatalf("CreateBudget: %v", err)
	}

	// A racing insert that skipped the service's pre-check still surfaces as
	// the duplicate error, not a bare constraint failure.
	racer := marchBudget("b2", "cat-groceries", "300.00")
	racer.IsActive = true
	if err := st.CreateBudget(ctx, racer); !errors.Is(err, models.ErrDuplicateBudget) {
		t.Fatalf("CreateBudget err = %v, want ErrDuplicateBudget", err)
	}

	inactive := marchBudget("b3", "cat-groceries", "300.00")
	inactive.IsActive = false
	if err := st.CreateBudget(ctx, inactive); err != nil {
		t.Fatalf("CreateBudget for inactive duplicate: %v", err)
	}
}

func TestCurrentBudgets(t *testing.T) {
	ctx := context.Background()
	st, svc := setupBudgets(t)

	b := marchBudget("b1", "cat-groceries", "500.00")
	b.IsActive = true
	st.seedBudget(*b)

	for _, tt := range []struct {
		name string
		date time.Time
		want int
	}{
		{"start day is inside", day(2024, 3, 1), 1},
		{"end day is inside", day(2024, 3, 31), 1},
		{"day before window", day(2024, 2, 29), 0},
		{"day after window", day(2024, 4, 1), 0},
	} {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.CurrentBudgets(ctx, testUser, tt.date)
			if err != nil {
				t.Fatalf("CurrentBudgets: %v", err)
			}
			if len(got) != tt.want {
				t.Errorf("len = %d, want %d", len(got), tt.want)
			}
		})
	}

	// Current-budget selection is by window only; deactivated budgets still
	// show while their window covers the date.
	t.Run("inactive budget in window is still current", func(t *testing.T) {
		paused := marchBudget("b2", "cat-transport", "200.00")
		paused.IsActive = false
		st.seedBudget(*paused)

		got, err := svc.CurrentBudgets(ctx, testUser, day(2024, 3, 15))
		if err != nil {
			t.Fatalf("CurrentBudgets: %v", err)
		}
		if len(got) != 2 {
			t.Fatalf("len = %d, want 2 including the inactive budget", len(got))
		}
	})
}
