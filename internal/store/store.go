// Package store loads and saves the ordered categorization rules file.
package store

import (
	"fmt"
	"os"
	"path/filepath"

	"fjacquet/txn-import/internal/logging"
	"fjacquet/txn-import/internal/models"

	"gopkg.in/yaml.v3"
)

// DefaultRulesFile is the rules file name looked up when none is configured.
const DefaultRulesFile = "rules.yaml"

// CategoryStore manages loading and saving of categorization rules.
type CategoryStore struct {
	RulesFile string
	logger    logging.Logger
}

// NewCategoryStore creates a store for the given rules file.
func NewCategoryStore(rulesFile string, logger logging.Logger) *CategoryStore {
	if rulesFile == "" {
		rulesFile = DefaultRulesFile
	}
	if logger == nil {
		logger = logging.NewLogrusAdapter("info", "text")
	}
	return &CategoryStore{
		RulesFile: rulesFile,
		logger:    logger,
	}
}

// FindConfigFile looks for a configuration file in standard locations
func (s *CategoryStore) FindConfigFile(filename string) (string, error) {
	if filepath.IsAbs(filename) {
		if _, err := os.Stat(filename); err == nil {
			return filename, nil
		}
		return "", os.ErrNotExist
	}

	locations := []string{
		filename,
		filepath.Join("config", filename),
	}
	if homeDir, err := os.UserHomeDir(); err == nil {
		locations = append(locations, filepath.Join(homeDir, ".config", "txn-import", filename))
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location, nil
		}
	}

	return "", os.ErrNotExist
}

// LoadCategories loads the rules in file order. A missing file is not an
// error and yields no rules.
//
// Two layouts are accepted: a top-level "categories:" list, or a bare list.
func (s *CategoryStore) LoadCategories() ([]models.CategoryConfig, error) {
	filePath, err := s.FindConfigFile(s.RulesFile)
	if err != nil {
		s.logger.Debug("Rules file not found, using built-in rules",
			logging.Field{Key: logging.FieldFile, Value: s.RulesFile})
		return []models.CategoryConfig{}, nil
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("error reading rules file: %w", err)
	}

	var wrapped models.CategoriesConfig
	if err := yaml.Unmarshal(data, &wrapped); err == nil && len(wrapped.Categories) > 0 {
		s.logRules(filePath, len(wrapped.Categories))
		return wrapped.Categories, nil
	}

	var rules []models.CategoryConfig
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return nil, fmt.Errorf("error parsing rules file %s: %w", filePath, err)
	}
	s.logRules(filePath, len(rules))
	return rules, nil
}

func (s *CategoryStore) logRules(path string, count int) {
	s.logger.Debug("Loaded rules",
		logging.Field{Key: logging.FieldFile, Value: path},
		logging.Field{Key: logging.FieldCount, Value: count})
}

// SaveCategories writes the rules to RulesFile, creating its directory.
func (s *CategoryStore) SaveCategories(rules []models.CategoryConfig) error {
	if dir := filepath.Dir(s.RulesFile); dir != "." {
		if err := os.MkdirAll(dir, models.PermissionDirectory); err != nil {
			return fmt.Errorf("error creating rules directory: %w", err)
		}
	}

	data, err := yaml.Marshal(models.CategoriesConfig{Categories: rules})
	if err != nil {
		return fmt.Errorf("error encoding rules: %w", err)
	}

	if err := os.WriteFile(s.RulesFile, data, models.PermissionReportFile); err != nil {
		return fmt.Errorf("error writing rules file: %w", err)
	}

	s.logger.Info("Saved rules",
		logging.Field{Key: logging.FieldFile, Value: s.RulesFile},
		logging.Field{Key: logging.FieldCount, Value: len(rules)})
	return nil
}
