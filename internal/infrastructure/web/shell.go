package web

import (
	"bytes"
	_ "embed"
	"fmt"
	"html/template"
	"net/http"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

//go:embed shell.html
var shellSource string

//go:embed help.md
var helpSource []byte

var shellTemplate = template.Must(template.New("shell").Delims("[[", "]]").Parse(shellSource))

// ShellOptions are baked into the page once at startup.
type ShellOptions struct {
	Title       string
	Placeholder string // shown when a component has no template
	LoadError   string // shown when a component cannot be built
	MinPrompt   int
}

// Shell is the single-page host that renders generated components in the browser.
type Shell struct {
	page []byte
}

func NewShell(opts ShellOptions) (*Shell, error) {
	if opts.Title == "" {
		opts.Title = "UIGen"
	}
	help, err := RenderMarkdown(helpSource)
	if err != nil {
		return nil, fmt.Errorf("render help: %w", err)
	}

	var buf bytes.Buffer
	err = shellTemplate.Execute(&buf, struct {
		ShellOptions
		Help template.HTML
	}{opts, template.HTML(help)})
	if err != nil {
		return nil, fmt.Errorf("render shell: %w", err)
	}
	return &Shell{page: buf.Bytes()}, nil
}

func (s *Shell) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	_, _ = w.Write(s.page)
}

var markdown = goldmark.New(goldmark.WithExtensions(extension.Table))

// RenderMarkdown converts trusted markdown shipped with the binary to HTML.
func RenderMarkdown(md []byte) (string, error) {
	var buf bytes.Buffer
	if err := markdown.Convert(md, &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}
