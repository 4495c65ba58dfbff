package llm

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"google.golang.org/genai"

	"uigen/internal/domain/entity"
	"uigen/internal/domain/repository"
	"uigen/internal/infrastructure/metrics"
)

const geminiDefaultModel = "gemini-2.5-flash"

type geminiModelsClient interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

var newGeminiClient = func(ctx context.Context, cfg *genai.ClientConfig) (*genai.Client, error) {
	return genai.NewClient(ctx, cfg)
}

var _ repository.LLMGenerator = (*GeminiGenerator)(nil)

// GeminiGenerator uses the Gemini API structured output (responseJsonSchema).
type GeminiGenerator struct {
	models      geminiModelsClient
	model       string
	maxTokens   int
	temperature float64
	logger      *slog.Logger
}

func NewGeminiGenerator(opts Options, logger *slog.Logger) (*GeminiGenerator, error) {
	apiKey := strings.TrimSpace(opts.APIKey)
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}
	model := opts.Model
	if model == "" {
		model = geminiDefaultModel
	}

	cfg := &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: &http.Client{Timeout: opts.Timeout},
	}
	if opts.BaseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: opts.BaseURL}
	}

	client, err := newGeminiClient(context.Background(), cfg)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	return &GeminiGenerator{
		models:      client.Models,
		model:       model,
		maxTokens:   opts.MaxTokens,
		temperature: opts.Temperature,
		logger:      logger,
	}, nil
}

func (g *GeminiGenerator) Model() string { return g.model }

func (g *GeminiGenerator) GenerateComponent(ctx context.Context, userPrompt string, system entity.Prompt, schema any) (string, error) {
	metrics.IncLLMRequest(g.model)

	cfg := &genai.GenerateContentConfig{
		SystemInstruction:  genai.NewContentFromText(system.Text, genai.RoleUser),
		ResponseMIMEType:   "application/json",
		ResponseJsonSchema: schema,
	}
	if g.maxTokens > 0 {
		cfg.MaxOutputTokens = int32(g.maxTokens)
	}
	if g.temperature > 0 {
		cfg.Temperature = genai.Ptr(float32(g.temperature))
	}

	contents := []*genai.Content{genai.NewContentFromText(userPrompt, genai.RoleUser)}
	resp, err := g.models.GenerateContent(ctx, g.model, contents, cfg)
	if err != nil {
		metrics.IncError("llm", "gemini_request")
		return "", fmt.Errorf("gemini generate content: %w", err)
	}
	if resp == nil || len(resp.Candidates) == 0 {
		metrics.IncError("llm", "gemini_no_candidates")
		return "", fmt.Errorf("gemini generate content: no candidates in response")
	}

	g.logger.Debug("llm reply received",
		"provider", ProviderGemini,
		"model", g.model,
		"finish_reason", resp.Candidates[0].FinishReason,
	)
	return resp.Text(), nil
}
