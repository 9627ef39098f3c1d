// -----------------------------------------------------------------------
// Claude Classifier - per-review sentiment and dimension classification
// -----------------------------------------------------------------------

package classifier

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/ternarybob/arbor"
	"github.com/voclabs/vocero/internal/common"
	"github.com/voclabs/vocero/internal/interfaces"
	"github.com/voclabs/vocero/internal/models"
)

const classifySystemPrompt = `You are a customer feedback analyst. Classify the review against the given dimensions.
Respond with ONLY a JSON object, no prose, in this shape:
{"sentiment":"Positive|Negative|Neutral|Mixed","emotion":"<one word>","score":<-1.0 to 1.0>,"topics":[{"dimension":"<name>","sentiment":"Positive|Negative|Neutral","quote":"<short excerpt>"}]}
Only include topics for dimensions the review actually mentions.`

const suggestSystemPrompt = `You are a customer feedback analyst. Given sample reviews, propose the recurring themes customers talk about.
Respond with ONLY a JSON array, no prose, in this shape:
[{"dimension":"<short name>","description":"<one sentence>","keywords":["..."]}]
Propose between 4 and 8 themes.`

// ClaudeService classifies reviews with the Anthropic API.
type ClaudeService struct {
	client    anthropic.Client
	model     string
	maxTokens int
	timeout   time.Duration
	logger    arbor.ILogger
}

var _ interfaces.Classifier = (*ClaudeService)(nil)

// NewClaudeService creates the classifier from config. The API key is
// required; everything else has defaults.
func NewClaudeService(cfg *common.ClaudeConfig, logger arbor.ILogger) (*ClaudeService, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("Anthropic API key is required (set ANTHROPIC_API_KEY or claude.api_key in config)")
	}

	model := cfg.Model
	if model == "" {
		model = "claude-sonnet-4-20250514"
	}

	timeout, err := time.ParseDuration(cfg.Timeout)
	if err != nil {
		timeout = 60 * time.Second
	}

	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 2048
	}

	service := &ClaudeService{
		client:    anthropic.NewClient(option.WithAPIKey(cfg.APIKey)),
		model:     model,
		maxTokens: maxTokens,
		timeout:   timeout,
		logger:    logger,
	}

	logger.Debug().
		Str("model", model).
		Dur("timeout", timeout).
		Int("max_tokens", maxTokens).
		Msg("Claude classifier initialized")

	return service, nil
}

// ClassifyReview classifies one review text against the given dimensions.
// Any failure, transport or parse, is returned as an error; the caller
// decides the fallback.
func (s *ClaudeService) ClassifyReview(ctx context.Context, text string, dimensions []models.Dimension) (*models.Classification, error) {
	var sb strings.Builder
	sb.WriteString("Dimensions:\n")
	for _, d := range dimensions {
		fmt.Fprintf(&sb, "- %s: %s\n", d.Name, d.Description)
	}
	sb.WriteString("\nReview:\n")
	sb.WriteString(text)

	raw, err := s.complete(ctx, classifySystemPrompt, sb.String())
	if err != nil {
		return nil, err
	}

	var result models.Classification
	if err := json.Unmarshal([]byte(stripCodeFences(raw)), &result); err != nil {
		return nil, fmt.Errorf("failed to parse classification response: %w", err)
	}
	if result.Sentiment == "" {
		return nil, fmt.Errorf("classification response missing sentiment")
	}

	return &result, nil
}

// SuggestDimensions proposes classification dimensions from sample reviews.
func (s *ClaudeService) SuggestDimensions(ctx context.Context, samples []string) ([]models.Dimension, error) {
	var sb strings.Builder
	sb.WriteString("Sample reviews:\n")
	for i, sample := range samples {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, sample)
	}

	raw, err := s.complete(ctx, suggestSystemPrompt, sb.String())
	if err != nil {
		return nil, err
	}

	var dimensions []models.Dimension
	if err := json.Unmarshal([]byte(stripCodeFences(raw)), &dimensions); err != nil {
		return nil, fmt.Errorf("failed to parse dimension suggestions: %w", err)
	}
	if len(dimensions) == 0 {
		return nil, fmt.Errorf("no dimensions suggested")
	}

	return dimensions, nil
}

func (s *ClaudeService) complete(ctx context.Context, system, user string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	resp, err := s.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(s.model),
		MaxTokens: int64(s.maxTokens),
		System: []anthropic.TextBlockParam{
			{Text: system},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(user)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("Claude API call failed: %w", err)
	}

	var response strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			response.WriteString(block.Text)
		}
	}

	if response.Len() == 0 {
		return "", fmt.Errorf("empty response from Claude API")
	}

	return response.String(), nil
}

// stripCodeFences tolerates models wrapping JSON in markdown fences.
func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx >= 0 {
			s = s[idx+1:]
		}
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}
	return strings.TrimSpace(s)
}
