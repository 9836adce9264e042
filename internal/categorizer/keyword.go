package categorizer

import (
	"strings"

	"fjacquet/txn-import/internal/logging"
	"fjacquet/txn-import/internal/models"
)

// RuleCategorizer maps a description to the category of the first rule
// whose keyword it contains, ignoring case. Rule order is significant: when
// two rules match, the one declared first wins.
type RuleCategorizer struct {
	rules    []models.CategoryConfig
	fallback string
	logger   logging.Logger
}

// NewRuleCategorizer creates a categorizer over rules. An empty fallback
// becomes models.CategoryImported.
func NewRuleCategorizer(rules []models.CategoryConfig, fallback string, logger logging.Logger) *RuleCategorizer {
	if fallback == "" {
		fallback = models.CategoryImported
	}
	if logger == nil {
		logger = logging.NewLogrusAdapter("info", "text")
	}

	lowered := make([]models.CategoryConfig, 0, len(rules))
	for _, rule := range rules {
		if strings.TrimSpace(rule.Name) == "" {
			continue
		}
		keywords := make([]string, 0, len(rule.Keywords))
		for _, kw := range rule.Keywords {
			if kw = strings.ToLower(strings.TrimSpace(kw)); kw != "" {
				keywords = append(keywords, kw)
			}
		}
		lowered = append(lowered, models.CategoryConfig{Name: rule.Name, Keywords: keywords})
	}

	return &RuleCategorizer{
		rules:    lowered,
		fallback: fallback,
		logger:   logger,
	}
}

// NewRuleCategorizerFromSource loads rules from source. When the source has
// no rules the built-in DefaultRules apply.
func NewRuleCategorizerFromSource(source RuleSource, fallback string, logger logging.Logger) (*RuleCategorizer, error) {
	rules, err := source.LoadCategories()
	if err != nil {
		return nil, err
	}
	if len(rules) == 0 {
		rules = DefaultRules()
	}
	c := NewRuleCategorizer(rules, fallback, logger)
	c.logger.Debug("Loaded categorization rules",
		logging.Field{Key: logging.FieldCount, Value: len(c.rules)})
	return c, nil
}

// Name returns the strategy name.
func (c *RuleCategorizer) Name() string {
	return StrategyRule
}

// Categorize never fails; unmatched descriptions get the fallback category.
func (c *RuleCategorizer) Categorize(description string) string {
	text := strings.ToLower(description)
	if strings.TrimSpace(text) == "" {
		return c.fallback
	}

	for _, rule := range c.rules {
		for _, keyword := range rule.Keywords {
			if strings.Contains(text, keyword) {
				c.logger.Debug("Description matched rule",
					logging.Field{Key: "keyword", Value: keyword},
					logging.Field{Key: logging.FieldCategory, Value: rule.Name})
				return rule.Name
			}
		}
	}

	return c.fallback
}

// Fallback returns the category used when no rule matches.
func (c *RuleCategorizer) Fallback() string {
	return c.fallback
}

// Categories lists known category names in rule order, without duplicates,
// followed by the fallback category.
func (c *RuleCategorizer) Categories() []string {
	seen := make(map[string]bool, len(c.rules)+1)
	names := make([]string, 0, len(c.rules)+1)
	for _, rule := range c.rules {
		if !seen[rule.Name] {
			seen[rule.Name] = true
			names = append(names, rule.Name)
		}
	}
	if !seen[c.fallback] {
		names = append(names, c.fallback)
	}
	return names
}
