package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"html"

	"uigen/internal/domain/entity"
	"uigen/internal/domain/repository"
	"uigen/internal/infrastructure/metrics"
)

const mockModel = "mock"

var _ repository.LLMGenerator = (*MockGenerator)(nil)

// MockGenerator answers without a network call. Used for dry runs and local
// development of the web shell.
type MockGenerator struct {
	model string
}

func NewMockGenerator(model string) *MockGenerator {
	if model == "" {
		model = mockModel
	}
	return &MockGenerator{model: model}
}

func (g *MockGenerator) Model() string { return g.model }

func (g *MockGenerator) GenerateComponent(ctx context.Context, userPrompt string, _ entity.Prompt, _ any) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	metrics.IncLLMRequest(g.model)

	component := entity.GeneratedComponent{
		// v-pre keeps the prompt out of template compilation
		Template: fmt.Sprintf(`<div class="p-4 rounded-lg border border-gray-200 dark:border-gray-700">
  <h2 class="text-lg font-semibold" v-pre>%s</h2>
  <button type="button" class="mt-2 px-3 py-1 rounded bg-blue-600 text-white" @click="inc">Clicked {{ count }} times</button>
</div>`, html.EscapeString(userPrompt)),
		Script: "const count = ref(0)\nfunction inc() { count.value++ }\nreturn { count, inc }",
	}
	raw, err := json.Marshal(component)
	if err != nil {
		return "", fmt.Errorf("marshal mock component: %w", err)
	}
	return string(raw), nil
}
