package budget

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"budgie/internal/domain/transaction"
)

// Service manages budget limits and computes spending against them.
type Service struct {
	repo         Repository
	transactions transaction.Repository
	now          func() time.Time
}

func NewService(repo Repository, transactions transaction.Repository) *Service {
	return &Service{
		repo:         repo,
		transactions: transactions,
		now:          time.Now,
	}
}

// Set validates and stores a budget limit, replacing any previous limit for
// the same category.
func (s *Service) Set(ctx context.Context, userID int64, category string, amount decimal.Decimal, period Period) (*Budget, error) {
	category = strings.ToLower(strings.TrimSpace(category))
	if category == "" {
		return nil, fmt.Errorf("%w: category is required", ErrValidation)
	}
	if !amount.IsPositive() {
		return nil, fmt.Errorf("%w: amount must be positive", ErrValidation)
	}
	if !period.Valid() {
		return nil, fmt.Errorf("%w: unknown period %q", ErrValidation, period)
	}

	b, err := s.repo.Set(ctx, &Budget{
		UserID:   userID,
		Category: category,
		Amount:   amount,
		Period:   period,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to store budget: %w", err)
	}
	return b, nil
}

// List returns the user's budgets keyed by category.
func (s *Service) List(ctx context.Context, userID int64) (map[string]*Budget, error) {
	budgets, err := s.repo.ListByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list budgets: %w", err)
	}

	byCategory := make(map[string]*Budget, len(budgets))
	for _, b := range budgets {
		byCategory[b.Category] = b
	}
	return byCategory, nil
}

// Delete removes the budget for one category. Removing a budget that does not
// exist is not an error.
func (s *Service) Delete(ctx context.Context, userID int64, category string) error {
	category = strings.ToLower(strings.TrimSpace(category))
	if category == "" {
		return fmt.Errorf("%w: category is required", ErrValidation)
	}
	if err := s.repo.Delete(ctx, userID, category); err != nil {
		return fmt.Errorf("failed to delete budget: %w", err)
	}
	return nil
}

// Analyze compares current-period spending to each budget the user has set.
// Each budget is evaluated over its own period window, so a weekly and a
// monthly budget in the same analysis cover different ranges.
func (s *Service) Analyze(ctx context.Context, userID int64) (*Analysis, error) {
	budgets, err := s.repo.ListByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list budgets: %w", err)
	}

	now := s.now()
	analysis := &Analysis{GeneratedAt: now, Categories: []Status{}}
	if len(budgets) == 0 {
		return analysis, nil
	}

	// One sum query per distinct period start, not per budget.
	spentByStart := make(map[time.Time]map[string]decimal.Decimal)
	for _, b := range budgets {
		start := periodStart(b.Period, now)
		if _, ok := spentByStart[start]; ok {
			continue
		}
		spent, err := s.transactions.SumExpensesByCategory(ctx, userID, start, now)
		if err != nil {
			return nil, fmt.Errorf("failed to sum expenses: %w", err)
		}
		spentByStart[start] = spent
	}

	for _, b := range budgets {
		spent := spentByStart[periodStart(b.Period, now)][b.Category]
		analysis.Categories = append(analysis.Categories, Status{
			Category:   b.Category,
			Limit:      b.Amount,
			Period:     b.Period,
			Spent:      spent,
			Remaining:  b.Amount.Sub(spent),
			OverBudget: spent.GreaterThan(b.Amount),
		})
	}

	sort.Slice(analysis.Categories, func(i, j int) bool {
		return analysis.Categories[i].Category < analysis.Categories[j].Category
	})

	return analysis, nil
}

// periodStart returns the start of the period containing now: Monday for
// weeks, the first of the month, January 1 for years.
func periodStart(p Period, now time.Time) time.Time {
	switch p {
	case PeriodWeekly:
		weekday := int(now.Weekday())
		if weekday == 0 { // Sunday
			weekday = 7
		}
		day := now.AddDate(0, 0, -(weekday - 1))
		return time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, now.Location())
	case PeriodYearly:
		return time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, now.Location())
	default:
		return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	}
}
