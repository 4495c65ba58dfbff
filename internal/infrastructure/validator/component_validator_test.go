package validator

import (
	"errors"
	"strings"
	"testing"
)

func newValidator(t *testing.T) *ComponentValidator {
	t.Helper()
	v, err := NewComponentValidator()
	if err != nil {
		t.Fatalf("NewComponentValidator() error: %v", err)
	}
	return v
}

func TestParse_ValidComponent(t *testing.T) {
	v := newValidator(t)

	c, err := v.Parse(`{"template":"<table><tr><td>1</td></tr></table>","script":"const rows = ref([])\nreturn { rows }"}`)
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if c.Template != "<table><tr><td>1</td></tr></table>" {
		t.Errorf("unexpected template %q", c.Template)
	}
	if c.Script != "const rows = ref([])\nreturn { rows }" {
		t.Errorf("unexpected script %q", c.Script)
	}
	if c.CSS != "" {
		t.Errorf("expected empty css, got %q", c.CSS)
	}
}

func TestParse_Rejections(t *testing.T) {
	v := newValidator(t)

	tests := []struct {
		name string
		raw  string
		want error
	}{
		{"empty", "", ErrEmptyResponse},
		{"whitespace", "  \n\t ", ErrEmptyResponse},
		{"not json", "<div>hello world</div>", ErrMalformedJSON},
		{"truncated", `{"template": "<div>`, ErrMalformedJSON},
		{"missing template", `{"script":"return { a }"}`, ErrSchemaViolation},
		{"template not string", `{"template": 42}`, ErrSchemaViolation},
		{"script not string", `{"template":"<div>hello world</div>","script":["x"]}`, ErrSchemaViolation},
		{"array root", `[{"template":"<div>hello world</div>"}]`, ErrSchemaViolation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := v.Parse(tt.raw)
			if !errors.Is(err, tt.want) {
				t.Fatalf("Parse(%q) error = %v, want %v", tt.raw, err, tt.want)
			}
		})
	}
}

func TestSchemaDocument(t *testing.T) {
	v := newValidator(t)

	doc, ok := v.Schema().(map[string]any)
	if !ok {
		t.Fatalf("Schema() returned %T, want map[string]any", v.Schema())
	}
	if doc["type"] != "object" {
		t.Errorf("expected object schema, got %v", doc["type"])
	}
	required, _ := doc["required"].([]any)
	if len(required) != 1 || required[0] != "template" {
		t.Errorf("expected only template to be required, got %v", doc["required"])
	}
	props, _ := doc["properties"].(map[string]any)
	for _, name := range []string{"template", "script", "css"} {
		if _, ok := props[name]; !ok {
			t.Errorf("schema missing property %q", name)
		}
	}
}

func TestRepairScript(t *testing.T) {
	tests := []struct {
		name   string
		script string
		want   string
	}{
		{"empty stays empty", "", ""},
		{"already returns", "const rows = ref([])\nreturn { rows }", "const rows = ref([])\nreturn { rows }"},
		{"missing return", "const a = ref(1)", "const a = ref(1)\nreturn {}"},
		{"return without brace", "const a = ref(1)\nreturn a", "const a = ref(1)\nreturn a\nreturn {}"},
		{"early return kept as is", "if (x) return { a }\nconst b = 1", "if (x) return { a }\nconst b = 1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RepairScript(tt.script); got != tt.want {
				t.Errorf("RepairScript(%q) = %q, want %q", tt.script, got, tt.want)
			}
		})
	}
}

func TestRepairScript_OnlyAppends(t *testing.T) {
	script := "const n = ref(0)\nfunction inc() { n.value++ }"
	got := RepairScript(script)
	if !strings.HasPrefix(got, script) {
		t.Fatalf("repaired script altered original text: %q", got)
	}
	if strings.TrimPrefix(got, script) != "\nreturn {}" {
		t.Fatalf("unexpected suffix %q", strings.TrimPrefix(got, script))
	}
}

func TestValidateTemplate(t *testing.T) {
	if err := ValidateTemplate(""); !errors.Is(err, ErrInvalidTemplate) {
		t.Errorf("empty template: got %v", err)
	}
	if err := ValidateTemplate("   <p>x</p>   "); !errors.Is(err, ErrInvalidTemplate) {
		t.Errorf("short template: got %v", err)
	}
	if err := ValidateTemplate("<p>hello</p>"); err != nil {
		t.Errorf("valid template: got %v", err)
	}
	// 9 characters, 13 bytes
	err := ValidateTemplate("<p>日本</p>")
	if !errors.Is(err, ErrInvalidTemplate) {
		t.Errorf("multibyte short template: got %v", err)
	} else if !strings.Contains(err.Error(), "9 characters") {
		t.Errorf("expected character count in error, got %q", err.Error())
	}
	if err := ValidateTemplate("<p>日本語</p>"); err != nil {
		t.Errorf("multibyte template of 10 characters: got %v", err)
	}
}
