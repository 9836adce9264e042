package categorizer

import (
	"context"

	"github.com/shopspring/decimal"
)

// AIRequest is the input of an AI categorization.
type AIRequest struct {
	Description     string
	Amount          decimal.Decimal
	KnownCategories []string
	AccountID       string
}

// AIResponse is the raw answer of an AI client.
type AIResponse struct {
	Category   string
	Confidence float64
	Model      string
}

// AIClient defines the interface for AI-based categorization services.
type AIClient interface {
	Categorize(ctx context.Context, req AIRequest) (AIResponse, error)
}
