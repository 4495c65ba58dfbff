package web

import (
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
)

func TestRenderMarkdown(t *testing.T) {
	html, err := RenderMarkdown([]byte("## Title\n\n| a | b |\n|---|---|\n| 1 | 2 |\n"))
	if err != nil {
		t.Fatalf("RenderMarkdown() error: %v", err)
	}
	if !strings.Contains(html, "<h2>Title</h2>") {
		t.Errorf("heading missing: %s", html)
	}
	if !strings.Contains(html, "<table>") {
		t.Errorf("table extension not enabled: %s", html)
	}
}

func TestShell_ServesPage(t *testing.T) {
	shell, err := NewShell(ShellOptions{
		Placeholder: `<div class="p-4 text-gray-500">No template provided.</div>`,
		LoadError:   `<div class="p-4 text-red-600">Failed to load component.</div>`,
		MinPrompt:   3,
	})
	if err != nil {
		t.Fatalf("NewShell() error: %v", err)
	}

	rec := httptest.NewRecorder()
	shell.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("content type = %q", ct)
	}
	body := rec.Body.String()
	for _, want := range []string{
		"<title>UIGen</title>",
		"defineAsyncComponent",
		"new Function('ref', 'computed', script)",
		"No template provided.",
		"<h2>How it works</h2>",
		"{{ requestError }}",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("page missing %q", want)
		}
	}
	if !regexp.MustCompile(`const MIN_PROMPT =\s*3\s*;`).MatchString(body) {
		t.Error("minimum prompt length not injected")
	}
	if strings.Contains(body, "[[") {
		t.Error("unrendered template action left in page")
	}
}
