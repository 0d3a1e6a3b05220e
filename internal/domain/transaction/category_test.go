package transaction

import (
	"testing"
)

func TestCategorize_KeywordBuckets(t *testing.T) {
	tests := []struct {
		description string
		want        string
	}{
		{"TESCO STORES 3412", "groceries"},
		{"Sainsbury's Local", "groceries"},
		{"MCDONALDS LEICESTER SQ", "dining"},
		{"Cafe Nero", "dining"},
		{"UBER *TRIP", "transport"},
		{"TFL TRAVEL CH Oyster", "transport"},
		{"AMAZON MARKETPLACE", "shopping"},
		{"MONTHLY RENT PAYMENT", "housing"},
		{"BRITISH GAS DD", "utilities"},
		{"NETFLIX.COM", "entertainment"},
		{"BOOTS PHARMACY", "health"},
		{"UNIVERSITY TUITION", "education"},
		{"ACME LTD SALARY", "income"},
	}

	for _, tt := range tests {
		t.Run(tt.description, func(t *testing.T) {
			if got := Categorize(tt.description); got != tt.want {
				t.Errorf("Categorize(%q) = %q, want %q", tt.description, got, tt.want)
			}
		})
	}
}

func TestCategorize_FirstBucketWins(t *testing.T) {
	// "food" (groceries) appears before "restaurant" (dining) in bucket order.
	got := Categorize("Food delivery from restaurant")
	if got != "groceries" {
		t.Errorf("Categorize() = %q, want %q (first matching bucket)", got, "groceries")
	}
}

func TestCategorize_CaseInsensitive(t *testing.T) {
	if got := Categorize("NeTfLiX SuBsCrIpTiOn"); got != "entertainment" {
		t.Errorf("Categorize() = %q, want %q", got, "entertainment")
	}
}

func TestCategorize_NoMatch(t *testing.T) {
	if got := Categorize("XJ-9981 REF 4412"); got != CategoryUncategorized {
		t.Errorf("Categorize() = %q, want %q", got, CategoryUncategorized)
	}
}

func TestCategorize_Empty(t *testing.T) {
	if got := Categorize(""); got != CategoryUncategorized {
		t.Errorf("Categorize(\"\") = %q, want %q", got, CategoryUncategorized)
	}
}
