package usecase

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"uigen/internal/domain/entity"
	"uigen/internal/domain/repository"
)

const (
	TemplatePlaceholder = `<div class="p-4 text-gray-500">No template provided.</div>`
	LoadErrorTemplate   = `<div class="p-4 text-red-600">Failed to load component.</div>`
)

// MountUsecase builds component definitions for the host.
type MountUsecase interface {
	Mount(ctx context.Context, component entity.GeneratedComponent) entity.ComponentDefinition
	Lazy(component entity.GeneratedComponent) *LazyComponent
}

// ComponentHost turns a generated component into something renderable.
// Setup scripts run through the ScriptRunner, never in this process.
type ComponentHost struct {
	runner repository.ScriptRunner
	logger *slog.Logger
}

func NewComponentHost(runner repository.ScriptRunner, logger *slog.Logger) *ComponentHost {
	return &ComponentHost{runner: runner, logger: logger}
}

// Mount never fails. A throwing script leaves the template intact with empty
// bindings and Error set; a broken runtime swaps in the load-error template.
func (h *ComponentHost) Mount(ctx context.Context, component entity.GeneratedComponent) entity.ComponentDefinition {
	template := component.Template
	if strings.TrimSpace(template) == "" {
		template = TemplatePlaceholder
	}
	def := entity.ComponentDefinition{
		Template: template,
		Bindings: map[string]entity.Binding{},
	}
	if !component.HasScript() {
		return def
	}

	res, err := h.runner.Run(ctx, component.Script)
	if err != nil {
		h.logger.Error("component load failed", "err", err)
		return entity.ComponentDefinition{
			Template:  LoadErrorTemplate,
			Bindings:  map[string]entity.Binding{},
			LoadError: err.Error(),
		}
	}
	if !res.OK {
		h.logger.Warn("setup script failed", "err", res.Error)
		def.Error = res.Error
		return def
	}

	for name, b := range res.Bindings {
		def.Bindings[name] = b
	}
	return def
}

// Lazy defers Mount until the definition is first needed.
func (h *ComponentHost) Lazy(component entity.GeneratedComponent) *LazyComponent {
	return &LazyComponent{mount: h, component: component}
}

// LazyComponent mounts its component at most once, however many callers ask.
type LazyComponent struct {
	mount     MountUsecase
	component entity.GeneratedComponent

	once sync.Once
	def  entity.ComponentDefinition
}

// Resolve blocks until the definition is built. The ctx of the first caller is
// the one used for mounting.
func (l *LazyComponent) Resolve(ctx context.Context) entity.ComponentDefinition {
	l.once.Do(func() {
		l.def = l.mount.Mount(ctx, l.component)
	})
	return l.def
}

// Load resolves in the background and delivers the definition on the channel.
func (l *LazyComponent) Load(ctx context.Context) <-chan entity.ComponentDefinition {
	ch := make(chan entity.ComponentDefinition, 1)
	go func() {
		ch <- l.Resolve(ctx)
	}()
	return ch
}
