package categorizer

import (
	"context"
	"errors"
	"strings"
	"time"

	"fjacquet/txn-import/internal/logging"
	"fjacquet/txn-import/internal/models"
	"fjacquet/txn-import/internal/parsererror"

	"github.com/agnivade/levenshtein"
)

// maxSnapDistance is the largest edit distance at which an AI answer is
// replaced by the closest known category.
const maxSnapDistance = 2

var (
	// ErrEmptyDescription is returned when there is nothing to categorize.
	ErrEmptyDescription = errors.New("description is empty")
	// ErrNoCategory is returned when the AI answer carries no category.
	ErrNoCategory = errors.New("no category in AI response")
)

// AIAdapter turns an AIClient answer into a categorization with AI
// provenance. It is called for one record at a time.
type AIAdapter struct {
	client AIClient
	logger logging.Logger
	now    func() time.Time
}

// NewAIAdapter creates a new AIAdapter instance.
func NewAIAdapter(client AIClient, logger logging.Logger) *AIAdapter {
	if logger == nil {
		logger = logging.NewLogrusAdapter("info", "text")
	}
	return &AIAdapter{
		client: client,
		logger: logger,
		now:    time.Now,
	}
}

// Name returns the strategy name.
func (a *AIAdapter) Name() string {
	return StrategyAI
}

// Categorize asks the AI client for a category. Any failure is returned as
// a *parsererror.CategorizationError and no categorization is produced.
func (a *AIAdapter) Categorize(ctx context.Context, req AIRequest) (models.Categorization, error) {
	description := strings.TrimSpace(req.Description)
	if description == "" {
		return models.Categorization{}, a.fail(req, ErrEmptyDescription)
	}
	if a.client == nil {
		return models.Categorization{}, a.fail(req, errors.New("AI client not configured"))
	}

	resp, err := a.client.Categorize(ctx, req)
	if err != nil {
		return models.Categorization{}, a.fail(req, err)
	}

	category := snapToKnown(strings.TrimSpace(resp.Category), req.KnownCategories)
	if category == "" {
		return models.Categorization{}, a.fail(req, ErrNoCategory)
	}

	a.logger.Debug("Transaction categorized using AI",
		logging.Field{Key: logging.FieldCategory, Value: category},
		logging.Field{Key: logging.FieldModel, Value: resp.Model},
		logging.Field{Key: logging.FieldAccountID, Value: req.AccountID})

	return models.NewCategorization(category, models.AI(a.now())), nil
}

func (a *AIAdapter) fail(req AIRequest, err error) error {
	a.logger.WithError(err).Warn("AI categorization failed",
		logging.Field{Key: logging.FieldAccountID, Value: req.AccountID})
	return &parsererror.CategorizationError{
		Description: req.Description,
		Strategy:    a.Name(),
		Err:         err,
	}
}

// snapToKnown maps an AI answer onto a known category when it is a case
// variant or a near miss of one. Short names tolerate fewer edits. Unknown
// answers are kept as given.
func snapToKnown(answer string, known []string) string {
	if answer == "" || len(known) == 0 {
		return answer
	}

	lower := strings.ToLower(answer)
	best, bestDist := "", maxSnapDistance+1
	for _, name := range known {
		candidate := strings.ToLower(name)
		if candidate == lower {
			return name
		}
		if d := levenshtein.ComputeDistance(lower, candidate); d < bestDist && d*3 <= len(candidate) {
			best, bestDist = name, d
		}
	}
	if best != "" {
		return best
	}
	return answer
}
