package categorizer

import "fjacquet/txn-import/internal/models"

// RuleSource loads the ordered categorization rules.
type RuleSource interface {
	LoadCategories() ([]models.CategoryConfig, error)
}
