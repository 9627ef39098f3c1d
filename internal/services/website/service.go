// -----------------------------------------------------------------------
// Website Service - brand profile extraction from a company website
// -----------------------------------------------------------------------

package website

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/voclabs/vocero/internal/common"
	"github.com/voclabs/vocero/internal/interfaces"
	"github.com/voclabs/vocero/internal/models"
	"google.golang.org/genai"
)

const profileSystemPrompt = `You analyze company websites for customer experience research.
Given a company website URL, produce what you know about the company.
Respond with ONLY a JSON object, no prose, in this shape:
{"company_name":"...","website":"...","description":"<two sentences>","industry":"...","competitors":[{"company_name":"...","website":"..."}],"keywords":["..."]}`

// Service builds a brand profile from a company website using the Gemini
// API, storing the profile as an artifact for later pipeline stages.
type Service struct {
	client  *genai.Client
	model   string
	timeout time.Duration
	logger  arbor.ILogger
}

var _ interfaces.WebsiteAnalyzer = (*Service)(nil)

// NewService creates the website analysis service.
func NewService(ctx context.Context, cfg *common.GeminiConfig, logger arbor.ILogger) (*Service, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("Gemini API key is required (set GEMINI_API_KEY or gemini.api_key in config)")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := cfg.Model
	if model == "" {
		model = "gemini-2.0-flash"
	}

	timeout, err := time.ParseDuration(cfg.Timeout)
	if err != nil {
		timeout = 60 * time.Second
	}

	return &Service{
		client:  client,
		model:   model,
		timeout: timeout,
		logger:  logger,
	}, nil
}

// AnalyzeWebsite produces a brand profile for the given website URL.
func (s *Service) AnalyzeWebsite(ctx context.Context, websiteURL string) (*models.BrandProfile, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(profileSystemPrompt, genai.RoleUser),
	}
	contents := []*genai.Content{
		genai.NewContentFromText("Company website: "+websiteURL, genai.RoleUser),
	}

	resp, err := s.client.Models.GenerateContent(ctx, s.model, contents, config)
	if err != nil {
		return nil, fmt.Errorf("website analysis failed: %w", err)
	}

	var response strings.Builder
	if resp != nil {
		for _, candidate := range resp.Candidates {
			if candidate.Content == nil {
				continue
			}
			for _, part := range candidate.Content.Parts {
				if part.Text != "" {
					response.WriteString(part.Text)
				}
			}
			if response.Len() > 0 {
				break
			}
		}
	}
	if response.Len() == 0 {
		return nil, fmt.Errorf("no response generated for website analysis")
	}

	var profile models.BrandProfile
	if err := json.Unmarshal([]byte(stripCodeFences(response.String())), &profile); err != nil {
		return nil, fmt.Errorf("failed to parse brand profile: %w", err)
	}
	if profile.Website == "" {
		profile.Website = websiteURL
	}

	s.logger.Info().
		Str("website", websiteURL).
		Str("company", profile.CompanyName).
		Int("competitors", len(profile.Competitors)).
		Msg("Website analyzed")

	return &profile, nil
}

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
