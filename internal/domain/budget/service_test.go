package budget

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"budgie/internal/domain/transaction"
)

type mockBudgetRepo struct {
	setFunc    func(ctx context.Context, b *Budget) (*Budget, error)
	listFunc   func(ctx context.Context, userID int64) ([]*Budget, error)
	deleteFunc func(ctx context.Context, userID int64, category string) error
}

func (m *mockBudgetRepo) Set(ctx context.Context, b *Budget) (*Budget, error) {
	return m.setFunc(ctx, b)
}

func (m *mockBudgetRepo) ListByUserID(ctx context.Context, userID int64) ([]*Budget, error) {
	return m.listFunc(ctx, userID)
}

func (m *mockBudgetRepo) Delete(ctx context.Context, userID int64, category string) error {
	return m.deleteFunc(ctx, userID, category)
}

type mockTransactionRepo struct {
	transaction.Repository
	sumFunc func(ctx context.Context, userID int64, from, to time.Time) (map[string]decimal.Decimal, error)
}

func (m *mockTransactionRepo) SumExpensesByCategory(ctx context.Context, userID int64, from, to time.Time) (map[string]decimal.Decimal, error) {
	return m.sumFunc(ctx, userID, from, to)
}

func TestSet_NormalizesAndStores(t *testing.T) {
	var stored *Budget
	repo := &mockBudgetRepo{
		setFunc: func(ctx context.Context, b *Budget) (*Budget, error) {
			stored = b
			return b, nil
		},
	}
	svc := NewService(repo, &mockTransactionRepo{})

	b, err := svc.Set(context.Background(), 1, "  Groceries ", decimal.NewFromInt(300), PeriodMonthly)
	if err != nil {
		t.Fatalf("Expected set to succeed, got error: %v", err)
	}
	if b.Category != "groceries" {
		t.Errorf("Expected normalized category, got %q", b.Category)
	}
	if stored == nil || stored.UserID != 1 {
		t.Errorf("Expected budget stored for user 1, got %+v", stored)
	}
}

func TestSet_RejectsInvalidInput(t *testing.T) {
	repo := &mockBudgetRepo{
		setFunc: func(ctx context.Context, b *Budget) (*Budget, error) {
			t.Error("Expected invalid budgets to never reach the repository")
			return b, nil
		},
	}
	svc := NewService(repo, &mockTransactionRepo{})

	cases := []struct {
		name     string
		category string
		amount   decimal.Decimal
		period   Period
	}{
		{"empty category", "", decimal.NewFromInt(100), PeriodMonthly},
		{"zero amount", "groceries", decimal.Zero, PeriodMonthly},
		{"negative amount", "groceries", decimal.NewFromInt(-50), PeriodMonthly},
		{"unknown period", "groceries", decimal.NewFromInt(100), Period("fortnightly")},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Set(context.Background(), 1, tc.category, tc.amount, tc.period)
			if !errors.Is(err, ErrValidation) {
				t.Errorf("Expected validation error, got %v", err)
			}
		})
	}
}

func TestAnalyze_ComputesStatusPerBudget(t *testing.T) {
	now := time.Date(2025, 6, 18, 10, 0, 0, 0, time.UTC) // Wednesday

	repo := &mockBudgetRepo{
		listFunc: func(ctx context.Context, userID int64) ([]*Budget, error) {
			return []*Budget{
				{UserID: 1, Category: "groceries", Amount: decimal.NewFromInt(300), Period: PeriodMonthly},
				{UserID: 1, Category: "dining", Amount: decimal.NewFromInt(50), Period: PeriodWeekly},
			}, nil
		},
	}

	var sumWindows []time.Time
	txRepo := &mockTransactionRepo{
		sumFunc: func(ctx context.Context, userID int64, from, to time.Time) (map[string]decimal.Decimal, error) {
			sumWindows = append(sumWindows, from)
			return map[string]decimal.Decimal{
				"groceries": decimal.NewFromFloat(215.40),
				"dining":    decimal.NewFromFloat(61.95),
			}, nil
		},
	}

	svc := NewService(repo, txRepo)
	svc.now = func() time.Time { return now }

	analysis, err := svc.Analyze(context.Background(), 1)
	if err != nil {
		t.Fatalf("Expected analysis to succeed, got error: %v", err)
	}

	if len(analysis.Categories) != 2 {
		t.Fatalf("Expected 2 category statuses, got %d", len(analysis.Categories))
	}

	// Sorted by category: dining first.
	dining := analysis.Categories[0]
	if dining.Category != "dining" || !dining.OverBudget {
		t.Errorf("Expected dining over budget, got %+v", dining)
	}
	if !dining.Remaining.Equal(decimal.NewFromFloat(-11.95)) {
		t.Errorf("Expected dining remaining -11.95, got %s", dining.Remaining)
	}

	groceries := analysis.Categories[1]
	if groceries.OverBudget {
		t.Errorf("Expected groceries within budget, got %+v", groceries)
	}
	if !groceries.Remaining.Equal(decimal.NewFromFloat(84.60)) {
		t.Errorf("Expected groceries remaining 84.60, got %s", groceries.Remaining)
	}

	wantMonthStart := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	wantWeekStart := time.Date(2025, 6, 16, 0, 0, 0, 0, time.UTC) // Monday
	found := map[time.Time]bool{}
	for _, w := range sumWindows {
		found[w] = true
	}
	if !found[wantMonthStart] || !found[wantWeekStart] {
		t.Errorf("Expected sums from %v and %v, got %v", wantMonthStart, wantWeekStart, sumWindows)
	}
}

func TestAnalyze_NoBudgets(t *testing.T) {
	repo := &mockBudgetRepo{
		listFunc: func(ctx context.Context, userID int64) ([]*Budget, error) {
			return nil, nil
		},
	}
	txRepo := &mockTransactionRepo{
		sumFunc: func(ctx context.Context, userID int64, from, to time.Time) (map[string]decimal.Decimal, error) {
			t.Error("Expected no sum query without budgets")
			return nil, nil
		},
	}

	svc := NewService(repo, txRepo)

	analysis, err := svc.Analyze(context.Background(), 1)
	if err != nil {
		t.Fatalf("Expected analysis to succeed, got error: %v", err)
	}
	if len(analysis.Categories) != 0 {
		t.Errorf("Expected empty analysis, got %+v", analysis.Categories)
	}
}

func TestPeriodStart(t *testing.T) {
	// Sunday rolls back to the previous Monday.
	sunday := time.Date(2025, 6, 15, 23, 0, 0, 0, time.UTC)
	if got := periodStart(PeriodWeekly, sunday); !got.Equal(time.Date(2025, 6, 9, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("Expected week start Monday June 9, got %v", got)
	}

	mid := time.Date(2025, 6, 18, 10, 0, 0, 0, time.UTC)
	if got := periodStart(PeriodMonthly, mid); !got.Equal(time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("Expected month start June 1, got %v", got)
	}
	if got := periodStart(PeriodYearly, mid); !got.Equal(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("Expected year start January 1, got %v", got)
	}
}
