package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"uigen/internal/domain/entity"
	"uigen/internal/domain/repository"
	"uigen/internal/infrastructure/metrics"
	"uigen/internal/infrastructure/validator"
)

var (
	ErrInvalidPrompt = fmt.Errorf("prompt is too short: need at least %d characters", entity.MinPromptLength)
	ErrGeneration    = errors.New("component generation failed")
)

// GenerateUsecase is what the transport layer needs from the generator.
type GenerateUsecase interface {
	Generate(ctx context.Context, prompt string) (entity.GeneratedComponent, error)
	Schema() any
}

// GeneratorService runs one prompt through the model, the validator and the
// style compiler, strictly in that order.
type GeneratorService struct {
	llm       repository.LLMGenerator
	validator repository.ComponentValidator
	styles    repository.StyleCompiler
	system    entity.Prompt
	logger    *slog.Logger
}

func NewGeneratorService(
	llm repository.LLMGenerator,
	v repository.ComponentValidator,
	styles repository.StyleCompiler,
	conventions entity.StyleConventions,
	logger *slog.Logger,
) *GeneratorService {
	return &GeneratorService{
		llm:       llm,
		validator: v,
		styles:    styles,
		system:    entity.BuildSystemInstruction(conventions),
		logger:    logger,
	}
}

func (s *GeneratorService) Schema() any {
	return s.validator.Schema()
}

func (s *GeneratorService) Generate(ctx context.Context, prompt string) (entity.GeneratedComponent, error) {
	start := time.Now()
	defer func() { metrics.ObserveGenerationDuration(time.Since(start)) }()

	if !(entity.GenerationRequest{Prompt: prompt}).Valid() {
		metrics.IncGeneration("bad_request")
		return entity.GeneratedComponent{}, ErrInvalidPrompt
	}

	raw, err := s.llm.GenerateComponent(ctx, prompt, s.system, s.validator.Schema())
	if err != nil {
		return s.fail("llm call failed", fmt.Errorf("%w: %w", ErrGeneration, err))
	}

	component, err := s.validator.Parse(raw)
	if err != nil {
		return s.fail("model reply rejected", fmt.Errorf("%w: %w", ErrGeneration, err), "reply_bytes", len(raw))
	}

	repaired := validator.RepairScript(component.Script)
	if repaired != component.Script {
		s.logger.Debug("setup script had no return, appended empty return")
		component.Script = repaired
	}

	if err := validator.ValidateTemplate(component.Template); err != nil {
		metrics.IncValidationRun("template", "fail")
		return s.fail("template rejected", fmt.Errorf("%w: %w", ErrGeneration, err))
	}
	metrics.IncValidationRun("template", "pass")

	// compiler output wins over anything the model put in css
	component.CSS = s.styles.Compile(ctx, component.Template)

	metrics.IncGeneration("ok")
	s.logger.Info("component generated",
		"model", s.llm.Model(),
		"template_bytes", len(component.Template),
		"script_bytes", len(component.Script),
		"css_bytes", len(component.CSS),
		"duration", time.Since(start),
	)
	return component, nil
}

func (s *GeneratorService) fail(msg string, err error, attrs ...any) (entity.GeneratedComponent, error) {
	metrics.IncGeneration("failed")
	metrics.IncError("generator", "generate")
	s.logger.Error(msg, append([]any{"model", s.llm.Model(), "err", err}, attrs...)...)
	return entity.GeneratedComponent{}, err
}
