package transaction

import "strings"

// CategoryUncategorized is the fallback when no keyword bucket matches.
const CategoryUncategorized = "uncategorized"

// categoryBucket associates a category with the description keywords that
// imply it. Buckets are tested in order; first match wins.
type categoryBucket struct {
	category string
	keywords []string
}

var categoryBuckets = []categoryBucket{
	{"groceries", []string{"grocery", "food", "supermarket", "tesco", "sainsbury", "asda", "waitrose"}},
	{"dining", []string{"restaurant", "cafe", "takeaway", "mcdonalds", "pizza", "burger"}},
	{"transport", []string{"uber", "taxi", "transport", "tube", "train", "bus", "oyster"}},
	{"shopping", []string{"amazon", "ebay", "shopping", "store", "shop"}},
	{"housing", []string{"rent", "mortgage", "housing", "home"}},
	{"utilities", []string{"utility", "utilities", "electricity", "gas", "water", "internet", "broadband", "phone"}},
	{"entertainment", []string{"entertainment", "netflix", "cinema", "movie", "spotify", "subscription", "membership"}},
	{"health", []string{"medical", "health", "doctor", "pharmacy", "hospital", "dental", "dentist"}},
	{"education", []string{"education", "school", "university", "college", "course", "training"}},
	{"income", []string{"salary", "payroll", "wage"}},
}

// Categorize assigns a best-effort category from the transaction description.
// This is advisory only: a user's manual category choice always wins on later
// syncs.
func Categorize(description string) string {
	desc := strings.ToLower(description)
	if desc == "" {
		return CategoryUncategorized
	}

	for _, bucket := range categoryBuckets {
		for _, keyword := range bucket.keywords {
			if strings.Contains(desc, keyword) {
				return bucket.category
			}
		}
	}

	return CategoryUncategorized
}
