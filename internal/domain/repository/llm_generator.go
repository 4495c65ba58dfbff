package repository

import (
	"context"
	"uigen/internal/domain/entity"
)

// LLMGenerator интерфейс для генерации компонентов через LLM
type LLMGenerator interface {
	// GenerateComponent sends one completion request constrained by schema and
	// returns the raw reply text.
	GenerateComponent(ctx context.Context, userPrompt string, system entity.Prompt, schema any) (string, error)
	// Model names the model used, for logs and metrics.
	Model() string
}
