package llm

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"uigen/internal/domain/repository"
)

type Provider string

const (
	ProviderOpenAI Provider = "openai"
	ProviderGemini Provider = "gemini"
	ProviderMock   Provider = "mock"
)

const (
	defaultTimeout   = 2 * time.Minute
	defaultMaxTokens = 4000
)

// Options configure whichever provider is selected.
type Options struct {
	Provider    Provider
	APIKey      string
	BaseURL     string
	Model       string
	MaxTokens   int
	Temperature float64
	Timeout     time.Duration
}

// New builds the generator for opts.Provider.
func New(opts Options, logger *slog.Logger) (repository.LLMGenerator, error) {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = defaultMaxTokens
	}
	if logger == nil {
		logger = slog.Default()
	}

	switch Provider(strings.ToLower(strings.TrimSpace(string(opts.Provider)))) {
	case ProviderOpenAI, "":
		return NewOpenAIGenerator(opts, logger)
	case ProviderGemini:
		return NewGeminiGenerator(opts, logger)
	case ProviderMock:
		return NewMockGenerator(opts.Model), nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", opts.Provider)
	}
}
