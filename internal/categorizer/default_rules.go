package categorizer

import "fjacquet/txn-import/internal/models"

// DefaultRules is the rule set used when no rules file is configured.
// Fuel comes before groceries so that a station store resolves to fuel.
func DefaultRules() []models.CategoryConfig {
	return []models.CategoryConfig{
		{Name: models.CategoryFuel, Keywords: []string{"shell", "chevron", "exxon", "texaco", "gas station", "fuel"}},
		{Name: "groceries", Keywords: []string{"grocery", "supermarket", "whole foods", "trader joe", "safeway", "kroger", "aldi"}},
		{Name: "dining", Keywords: []string{"restaurant", "pizza", "burger", "sushi", "bistro", "diner"}},
		{Name: "transport", Keywords: []string{"uber", "lyft", "metro", "parking", "toll road"}},
		{Name: "utilities", Keywords: []string{"electric", "water bill", "internet", "comcast", "verizon"}},
		{Name: "subscriptions", Keywords: []string{"netflix", "spotify", "hulu", "subscription"}},
		{Name: "health", Keywords: []string{"pharmacy", "cvs", "walgreens", "clinic", "dental"}},
		{Name: "cash", Keywords: []string{"atm withdrawal", "cash withdrawal"}},
	}
}
