package stylesheet

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"uigen/internal/domain/repository"
	"uigen/internal/infrastructure/metrics"
	"uigen/internal/infrastructure/subprocess"
)

type Mode string

const (
	ModeStdin Mode = "stdin" // entry stylesheet piped in, CSS read from stdout
	ModeFile  Mode = "file"  // entry stylesheet written to input.css, CSS read from output.css
)

const (
	markupFile = "component.html"
	inputFile  = "input.css"
	outputFile = "output.css"

	defaultBinary         = "tailwindcss"
	defaultTimeout        = 30 * time.Second
	defaultMaxOutputBytes = 2 << 20
)

type Options struct {
	Binary         string
	Mode           Mode
	Prefix         string
	DarkMode       bool
	Minify         bool
	Timeout        time.Duration
	MaxOutputBytes int64
	TempRoot       string // parent of per-call working directories; "" means os.TempDir()
}

// removeAll is swapped in tests to simulate cleanup failures.
var removeAll = os.RemoveAll

var _ repository.StyleCompiler = (*TailwindCompiler)(nil)

// TailwindCompiler shells out to the Tailwind CLI to build a stylesheet holding
// only the utility classes referenced by a piece of markup.
type TailwindCompiler struct {
	opts   Options
	logger *slog.Logger
}

func NewTailwindCompiler(opts Options, logger *slog.Logger) *TailwindCompiler {
	if opts.Binary == "" {
		opts.Binary = defaultBinary
	}
	if opts.Mode == "" {
		opts.Mode = ModeStdin
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.MaxOutputBytes <= 0 {
		opts.MaxOutputBytes = defaultMaxOutputBytes
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &TailwindCompiler{opts: opts, logger: logger}
}

// EntryStylesheet is the minimal input stylesheet handed to the compiler.
func EntryStylesheet(prefix string, darkMode bool) string {
	var sb strings.Builder
	if prefix != "" {
		fmt.Fprintf(&sb, "@import \"tailwindcss\" prefix(%s);\n", prefix)
	} else {
		sb.WriteString("@import \"tailwindcss\";\n")
	}
	if darkMode {
		sb.WriteString("@custom-variant dark (&:where(.dark, .dark *));\n")
	}
	sb.WriteString("@source \"./\";\n")
	return sb.String()
}

// Compile never fails: any problem is logged and yields an empty stylesheet.
func (c *TailwindCompiler) Compile(ctx context.Context, markup string) string {
	start := time.Now()
	css, err := c.compile(ctx, markup)
	metrics.ObserveStyleCompileDuration(time.Since(start))
	if err != nil {
		metrics.IncStyleCompilation("degraded")
		metrics.IncError("stylesheet", "compile")
		c.logger.Warn("style compilation failed, serving empty stylesheet",
			"binary", c.opts.Binary,
			"mode", c.opts.Mode,
			"err", err,
		)
		return ""
	}
	metrics.IncStyleCompilation("ok")
	c.logger.Debug("stylesheet compiled", "bytes", len(css), "duration", time.Since(start))
	return css
}

func (c *TailwindCompiler) compile(ctx context.Context, markup string) (string, error) {
	workDir, cleanup, err := c.prepareWorkDir(markup)
	if err != nil {
		return "", err
	}
	defer cleanup()

	switch c.opts.Mode {
	case ModeStdin:
		return c.runStdin(ctx, workDir)
	case ModeFile:
		return c.runFile(ctx, workDir)
	default:
		return "", fmt.Errorf("unknown compiler mode %q", c.opts.Mode)
	}
}

// prepareWorkDir creates a fresh directory holding the markup to scan. The
// returned cleanup removes it and only logs removal failures.
func (c *TailwindCompiler) prepareWorkDir(markup string) (string, func(), error) {
	if c.opts.TempRoot != "" {
		if err := os.MkdirAll(c.opts.TempRoot, 0o755); err != nil {
			return "", nil, fmt.Errorf("create temp root: %w", err)
		}
	}

	dir, err := os.MkdirTemp(c.opts.TempRoot, "uigen-styles-*")
	if err != nil {
		return "", nil, fmt.Errorf("create working dir: %w", err)
	}

	cleanup := func() {
		if err := removeAll(dir); err != nil {
			metrics.IncError("stylesheet", "cleanup")
			c.logger.Warn("failed to remove compiler working dir", "dir", dir, "err", err)
		}
	}

	if err := os.WriteFile(filepath.Join(dir, markupFile), []byte(markup), 0o644); err != nil {
		cleanup()
		return "", nil, fmt.Errorf("write markup: %w", err)
	}

	return dir, cleanup, nil
}

func (c *TailwindCompiler) runStdin(ctx context.Context, workDir string) (string, error) {
	out, err := subprocess.Run(ctx, c.command(workDir,
		strings.NewReader(EntryStylesheet(c.opts.Prefix, c.opts.DarkMode)),
		"--input", "-", "--output", "-"))
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func (c *TailwindCompiler) runFile(ctx context.Context, workDir string) (string, error) {
	entry := EntryStylesheet(c.opts.Prefix, c.opts.DarkMode)
	if err := os.WriteFile(filepath.Join(workDir, inputFile), []byte(entry), 0o644); err != nil {
		return "", fmt.Errorf("write entry stylesheet: %w", err)
	}

	if _, err := subprocess.Run(ctx, c.command(workDir, nil, "--input", inputFile, "--output", outputFile)); err != nil {
		return "", err
	}

	outPath := filepath.Join(workDir, outputFile)
	info, err := os.Stat(outPath)
	if err != nil {
		return "", fmt.Errorf("stat compiler output: %w", err)
	}
	if info.Size() > c.opts.MaxOutputBytes {
		return "", fmt.Errorf("%w: %d bytes", subprocess.ErrOutputTooLarge, info.Size())
	}
	data, err := os.ReadFile(outPath)
	if err != nil {
		return "", fmt.Errorf("read compiler output: %w", err)
	}
	return string(data), nil
}

// command runs the CLI inside workDir so "@source" resolves against the markup.
func (c *TailwindCompiler) command(workDir string, stdin *strings.Reader, args ...string) subprocess.Command {
	if c.opts.Minify {
		args = append(args, "--minify")
	}
	cmd := subprocess.Command{
		Binary:         c.opts.Binary,
		Args:           args,
		Dir:            workDir,
		Timeout:        c.opts.Timeout,
		MaxOutputBytes: c.opts.MaxOutputBytes,
	}
	if stdin != nil {
		cmd.Stdin = stdin
	}
	return cmd
}
