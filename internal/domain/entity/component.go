package entity

import (
	"strings"
	"unicode/utf8"
)

const (
	MinPromptLength   = 3
	MinTemplateLength = 10
)

// GenerationRequest is the inbound prompt for a single component generation.
type GenerationRequest struct {
	Prompt string `json:"prompt"`
}

// Valid reports whether the trimmed prompt has enough characters to send to the model.
func (r GenerationRequest) Valid() bool {
	return utf8.RuneCountInString(strings.TrimSpace(r.Prompt)) >= MinPromptLength
}

// GeneratedComponent is the model's synthesized component after validation.
// It is built once per request and not modified afterwards.
type GeneratedComponent struct {
	Template string `json:"template"`
	Script   string `json:"script,omitempty"`
	CSS      string `json:"css,omitempty"`
}

// HasScript reports whether the component carries behavior code.
func (c GeneratedComponent) HasScript() bool {
	return strings.TrimSpace(c.Script) != ""
}
