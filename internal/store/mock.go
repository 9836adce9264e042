package store

import (
	"fjacquet/txn-import/internal/models"
)

// MockCategoryStore is a mock implementation of CategoryStore for testing.
type MockCategoryStore struct {
	Categories []models.CategoryConfig
	Saved      []models.CategoryConfig

	LoadCategoriesError error
	SaveCategoriesError error
}

// LoadCategories returns the mock categories.
func (m *MockCategoryStore) LoadCategories() ([]models.CategoryConfig, error) {
	if m.LoadCategoriesError != nil {
		return nil, m.LoadCategoriesError
	}
	return m.Categories, nil
}

// SaveCategories records the saved categories.
func (m *MockCategoryStore) SaveCategories(rules []models.CategoryConfig) error {
	if m.SaveCategoriesError != nil {
		return m.SaveCategoriesError
	}
	m.Saved = append([]models.CategoryConfig(nil), rules...)
	return nil
}
