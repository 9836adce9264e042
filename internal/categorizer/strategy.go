// Package categorizer assigns categories to imported transactions, either
// with ordered keyword rules or on demand through an AI client.
package categorizer

// Strategy names used in logs and errors.
const (
	StrategyRule = "Rule"
	StrategyAI   = "AI"
)
