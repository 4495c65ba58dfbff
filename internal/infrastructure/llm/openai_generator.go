package llm

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"uigen/internal/domain/entity"
	"uigen/internal/domain/repository"
	"uigen/internal/infrastructure/metrics"
)

const (
	openAIDefaultModel = "gpt-4o-mini"
	schemaName         = "generated_component"
)

var _ repository.LLMGenerator = (*OpenAIGenerator)(nil)

// OpenAIGenerator talks to any OpenAI-compatible chat completions endpoint
// and asks for a reply constrained by a JSON schema.
type OpenAIGenerator struct {
	client      openai.Client
	model       string
	maxTokens   int
	temperature float64
	logger      *slog.Logger
}

func NewOpenAIGenerator(opts Options, logger *slog.Logger) (*OpenAIGenerator, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, fmt.Errorf("openai api key is required")
	}
	model := opts.Model
	if model == "" {
		model = openAIDefaultModel
	}

	reqOpts := []option.RequestOption{
		option.WithAPIKey(opts.APIKey),
		option.WithHTTPClient(&http.Client{Timeout: opts.Timeout}),
		// one request per generation, failures go straight back to the caller
		option.WithMaxRetries(0),
	}
	if opts.BaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(opts.BaseURL))
	}

	return &OpenAIGenerator{
		client:      openai.NewClient(reqOpts...),
		model:       model,
		maxTokens:   opts.MaxTokens,
		temperature: opts.Temperature,
		logger:      logger,
	}, nil
}

func (g *OpenAIGenerator) Model() string { return g.model }

func (g *OpenAIGenerator) GenerateComponent(ctx context.Context, userPrompt string, system entity.Prompt, schema any) (string, error) {
	metrics.IncLLMRequest(g.model)

	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(g.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system.Text),
			openai.UserMessage(userPrompt),
		},
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{
				JSONSchema: openai.ResponseFormatJSONSchemaJSONSchemaParam{
					Name:   schemaName,
					Schema: schema,
					// strict mode requires every property to be required
					Strict: openai.Bool(false),
				},
			},
		},
	}
	if g.maxTokens > 0 {
		params.MaxCompletionTokens = openai.Int(int64(g.maxTokens))
	}
	if g.temperature > 0 {
		params.Temperature = openai.Float(g.temperature)
	}

	resp, err := g.client.Chat.Completions.New(ctx, params)
	if err != nil {
		metrics.IncError("llm", "openai_request")
		return "", fmt.Errorf("openai chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		metrics.IncError("llm", "openai_no_choices")
		return "", fmt.Errorf("openai chat completion: no choices in response")
	}

	g.logger.Debug("llm reply received",
		"provider", ProviderOpenAI,
		"model", resp.Model,
		"finish_reason", resp.Choices[0].FinishReason,
		"completion_tokens", resp.Usage.CompletionTokens,
	)
	return resp.Choices[0].Message.Content, nil
}
