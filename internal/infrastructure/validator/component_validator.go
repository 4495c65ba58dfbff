package validator

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/jsonschema-go/jsonschema"

	"uigen/internal/domain/entity"
	"uigen/internal/domain/repository"
	"uigen/internal/infrastructure/metrics"
)

var (
	ErrEmptyResponse   = errors.New("model returned an empty response")
	ErrMalformedJSON   = errors.New("model response is not valid JSON")
	ErrSchemaViolation = errors.New("model response does not match the component schema")
	ErrInvalidTemplate = errors.New("invalid template returned by model")
)

// ScriptReturnMarker is what a setup script must contain to be considered terminated.
const ScriptReturnMarker = "return {"

const emptyReturn = "\nreturn {}"

// ComponentSchema describes {template, script?, css?}.
func ComponentSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type:        "object",
		Title:       "GeneratedComponent",
		Description: "A single UI component: markup, optional setup script, optional stylesheet.",
		Properties: map[string]*jsonschema.Schema{
			"template": {Type: "string", Description: "Component markup using Tailwind utility classes."},
			"script":   {Type: "string", Description: "Body of the setup function; must end with a return statement."},
			"css":      {Type: "string", Description: "Optional stylesheet; normally left empty."},
		},
		Required: []string{"template"},
	}
}

var _ repository.ComponentValidator = (*ComponentValidator)(nil)

type ComponentValidator struct {
	resolved  *jsonschema.Resolved
	schemaDoc map[string]any
}

func NewComponentValidator() (*ComponentValidator, error) {
	schema := ComponentSchema()
	resolved, err := schema.Resolve(nil)
	if err != nil {
		return nil, fmt.Errorf("resolve component schema: %w", err)
	}

	raw, err := json.Marshal(schema)
	if err != nil {
		return nil, fmt.Errorf("marshal component schema: %w", err)
	}
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode component schema: %w", err)
	}

	return &ComponentValidator{resolved: resolved, schemaDoc: doc}, nil
}

// Schema returns the schema as a plain JSON document, ready to hand to an LLM SDK.
func (v *ComponentValidator) Schema() any {
	return v.schemaDoc
}

// Parse decodes the model reply and validates it against the component schema.
// Any mismatch rejects the whole reply.
func (v *ComponentValidator) Parse(raw string) (entity.GeneratedComponent, error) {
	text := strings.TrimSpace(raw)
	if text == "" {
		metrics.IncValidationRun("schema", "fail")
		return entity.GeneratedComponent{}, ErrEmptyResponse
	}

	var instance any
	if err := json.Unmarshal([]byte(text), &instance); err != nil {
		metrics.IncValidationRun("schema", "fail")
		return entity.GeneratedComponent{}, fmt.Errorf("%w: %v", ErrMalformedJSON, err)
	}
	if err := v.resolved.Validate(instance); err != nil {
		metrics.IncValidationRun("schema", "fail")
		return entity.GeneratedComponent{}, fmt.Errorf("%w: %v", ErrSchemaViolation, err)
	}

	var component entity.GeneratedComponent
	if err := json.Unmarshal([]byte(text), &component); err != nil {
		metrics.IncValidationRun("schema", "fail")
		return entity.GeneratedComponent{}, fmt.Errorf("%w: %v", ErrSchemaViolation, err)
	}

	metrics.IncValidationRun("schema", "pass")
	return component, nil
}

// RepairScript appends an empty return to scripts that never return bindings.
// Only containment of the marker is checked, not its position.
func RepairScript(script string) string {
	if script == "" || strings.Contains(script, ScriptReturnMarker) {
		return script
	}
	return script + emptyReturn
}

func ValidateTemplate(template string) error {
	if n := utf8.RuneCountInString(strings.TrimSpace(template)); n < entity.MinTemplateLength {
		return fmt.Errorf("%w: %d characters after trimming, need at least %d", ErrInvalidTemplate, n, entity.MinTemplateLength)
	}
	return nil
}
