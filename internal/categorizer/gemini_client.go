package categorizer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"fjacquet/txn-import/internal/logging"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// GeminiClient implements AIClient on top of the Google Gemini API.
type GeminiClient struct {
	client  *genai.Client
	model   string
	timeout time.Duration
	logger  logging.Logger

	// generate sends one prompt and returns the concatenated text answer.
	generate func(ctx context.Context, prompt string) (string, error)
}

// GeminiOptions configures a GeminiClient.
type GeminiOptions struct {
	APIKey      string
	Model       string
	Temperature float32
	Timeout     time.Duration
}

// NewGeminiClient connects to Gemini with an API key.
func NewGeminiClient(ctx context.Context, opts GeminiOptions, logger logging.Logger) (*GeminiClient, error) {
	if opts.APIKey == "" {
		return nil, errors.New("gemini API key is required")
	}
	if logger == nil {
		logger = logging.NewLogrusAdapter("info", "text")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(opts.APIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	model := client.GenerativeModel(opts.Model)
	model.SetTemperature(opts.Temperature)

	c := &GeminiClient{
		client:  client,
		model:   opts.Model,
		timeout: opts.Timeout,
		logger:  logger,
	}
	c.generate = func(ctx context.Context, prompt string) (string, error) {
		resp, err := model.GenerateContent(ctx, genai.Text(prompt))
		if err != nil {
			return "", err
		}
		return responseText(resp), nil
	}
	return c, nil
}

// Categorize asks Gemini to pick a category for one transaction.
func (c *GeminiClient) Categorize(ctx context.Context, req AIRequest) (AIResponse, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	start := time.Now()
	text, err := c.generate(ctx, buildPrompt(req))
	if err != nil {
		return AIResponse{}, fmt.Errorf("gemini request failed: %w", err)
	}

	resp, err := parseAnswer(text)
	if err != nil {
		return AIResponse{}, err
	}
	resp.Model = c.model

	c.logger.Debug("Gemini answered",
		logging.Field{Key: logging.FieldModel, Value: c.model},
		logging.Field{Key: logging.FieldCategory, Value: resp.Category},
		logging.Field{Key: logging.FieldDuration, Value: time.Since(start).Milliseconds()})

	return resp, nil
}

// Close releases the underlying connection.
func (c *GeminiClient) Close() error {
	if c.client == nil {
		return nil
	}
	return c.client.Close()
}

func buildPrompt(req AIRequest) string {
	var b strings.Builder
	b.WriteString("You categorize personal bank transactions.\n")
	b.WriteString("Pick exactly one category for the transaction below.\n")
	if len(req.KnownCategories) > 0 {
		b.WriteString("Prefer one of these existing categories: ")
		b.WriteString(strings.Join(req.KnownCategories, ", "))
		b.WriteString(".\n")
	}
	fmt.Fprintf(&b, "Description: %s\n", req.Description)
	fmt.Fprintf(&b, "Amount: %s\n", req.Amount.StringFixed(2))
	if req.AccountID != "" {
		fmt.Fprintf(&b, "Account: %s\n", req.AccountID)
	}
	b.WriteString(`Respond with JSON only: {"category": "<name>", "confidence": <0..1>}`)
	return b.String()
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	var b strings.Builder
	for _, cand := range resp.Candidates {
		if cand == nil || cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if text, ok := part.(genai.Text); ok {
				b.WriteString(string(text))
			}
		}
		break
	}
	return b.String()
}

// parseAnswer reads the JSON answer, tolerating a markdown code fence.
func parseAnswer(text string) (AIResponse, error) {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)

	var answer struct {
		Category   string  `json:"category"`
		Confidence float64 `json:"confidence"`
	}
	if err := json.Unmarshal([]byte(text), &answer); err != nil {
		return AIResponse{}, fmt.Errorf("failed to parse gemini response: %w", err)
	}
	if strings.TrimSpace(answer.Category) == "" {
		return AIResponse{}, ErrNoCategory
	}
	return AIResponse{Category: answer.Category, Confidence: answer.Confidence}, nil
}
