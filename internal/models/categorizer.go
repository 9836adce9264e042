// Package models provides the data structures used throughout the application.
package models

// CategoryConfig is one ordered categorization rule in the rules YAML file.
type CategoryConfig struct {
	Name     string   `yaml:"name"`
	Keywords []string `yaml:"keywords"`
}

// CategoriesConfig represents the structure of the rules YAML file
type CategoriesConfig struct {
	Categories []CategoryConfig `yaml:"categories"`
}
