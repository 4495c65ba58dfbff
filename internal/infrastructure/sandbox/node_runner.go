package sandbox

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"uigen/internal/domain/entity"
	"uigen/internal/domain/repository"
	"uigen/internal/infrastructure/metrics"
	"uigen/internal/infrastructure/subprocess"
)

//go:embed harness.js
var harness string

const (
	defaultBinary         = "node"
	defaultTimeout        = 5 * time.Second
	defaultScriptTimeout  = time.Second
	defaultMaxOutputBytes = 1 << 20
	defaultMaxHeapMB      = 64
)

var ErrBadHarnessOutput = errors.New("script runtime returned unreadable output")

type Options struct {
	Binary         string
	Timeout        time.Duration // wall clock for the whole node process
	ScriptTimeout  time.Duration // synchronous budget inside the vm context
	MaxOutputBytes int64
	MaxHeapMB      int
}

var _ repository.ScriptRunner = (*NodeRunner)(nil)

// NodeRunner executes setup scripts in a separate node process, inside a vm
// context whose only injected names are ref and computed.
type NodeRunner struct {
	opts   Options
	logger *slog.Logger
}

func NewNodeRunner(opts Options, logger *slog.Logger) *NodeRunner {
	if opts.Binary == "" {
		opts.Binary = defaultBinary
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.ScriptTimeout <= 0 {
		opts.ScriptTimeout = defaultScriptTimeout
	}
	if opts.MaxOutputBytes <= 0 {
		opts.MaxOutputBytes = defaultMaxOutputBytes
	}
	if opts.MaxHeapMB <= 0 {
		opts.MaxHeapMB = defaultMaxHeapMB
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &NodeRunner{opts: opts, logger: logger}
}

type runRequest struct {
	Script    string `json:"script"`
	TimeoutMS int64  `json:"timeout_ms"`
}

// Run returns an error only when the runtime could not produce a verdict.
// A script that throws or hangs inside the vm yields OK == false.
func (r *NodeRunner) Run(ctx context.Context, script string) (entity.ScriptResult, error) {
	if script == "" {
		metrics.IncScriptRun("ok")
		return entity.ScriptResult{OK: true, Bindings: map[string]entity.Binding{}}, nil
	}

	payload, err := json.Marshal(runRequest{Script: script, TimeoutMS: r.opts.ScriptTimeout.Milliseconds()})
	if err != nil {
		return entity.ScriptResult{}, fmt.Errorf("encode script request: %w", err)
	}

	out, err := subprocess.Run(ctx, subprocess.Command{
		Binary:         r.opts.Binary,
		Args:           []string{fmt.Sprintf("--max-old-space-size=%d", r.opts.MaxHeapMB), "-e", harness},
		Stdin:          bytes.NewReader(payload),
		Timeout:        r.opts.Timeout,
		MaxOutputBytes: r.opts.MaxOutputBytes,
	})
	if err != nil {
		metrics.IncScriptRun("runtime_error")
		metrics.IncError("sandbox", "run")
		return entity.ScriptResult{}, fmt.Errorf("run setup script: %w", err)
	}

	var result entity.ScriptResult
	if err := json.Unmarshal(bytes.TrimSpace(out), &result); err != nil {
		metrics.IncScriptRun("runtime_error")
		metrics.IncError("sandbox", "decode")
		return entity.ScriptResult{}, fmt.Errorf("%w: %v", ErrBadHarnessOutput, err)
	}
	if !result.OK && result.Error == "" {
		result.Error = "setup script failed"
	}
	if !result.OK {
		result.Bindings = nil
		metrics.IncScriptRun("script_error")
		r.logger.Debug("setup script failed", "err", result.Error)
		return result, nil
	}
	if result.Bindings == nil {
		result.Bindings = map[string]entity.Binding{}
	}
	metrics.IncScriptRun("ok")
	return result, nil
}
