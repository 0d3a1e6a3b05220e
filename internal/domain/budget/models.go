package budget

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// ErrValidation marks rejected budget input.
var ErrValidation = errors.New("budget validation failed")

// Period is the recurrence of a budget limit.
type Period string

const (
	PeriodWeekly  Period = "weekly"
	PeriodMonthly Period = "monthly"
	PeriodYearly  Period = "yearly"
)

// Valid reports whether p is a known period.
func (p Period) Valid() bool {
	switch p {
	case PeriodWeekly, PeriodMonthly, PeriodYearly:
		return true
	}
	return false
}

// Budget is a per-category spending limit. One budget per (user, category);
// setting it again replaces the previous limit.
type Budget struct {
	UserID    int64           `json:"userId"`
	Category  string          `json:"category"`
	Amount    decimal.Decimal `json:"amount"`
	Period    Period          `json:"period"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// Status is one category's standing in a budget analysis.
type Status struct {
	Category   string          `json:"category"`
	Limit      decimal.Decimal `json:"limit"`
	Period     Period          `json:"period"`
	Spent      decimal.Decimal `json:"spent"`
	Remaining  decimal.Decimal `json:"remaining"`
	OverBudget bool            `json:"overBudget"`
}

// Analysis reports spending against every budget the user has set, over each
// budget's current period.
type Analysis struct {
	GeneratedAt time.Time `json:"generatedAt"`
	Categories  []Status  `json:"categories"`
}
