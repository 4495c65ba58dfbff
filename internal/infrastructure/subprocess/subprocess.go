package subprocess

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"time"
)

const (
	stderrLimitBytes = 2 << 10
	waitDelay        = time.Second
)

var ErrOutputTooLarge = errors.New("subprocess output exceeds limit")

// Command describes one bounded run of an external binary.
type Command struct {
	Binary         string
	Args           []string
	Dir            string
	Stdin          io.Reader
	Timeout        time.Duration // 0 means only ctx bounds the run
	MaxOutputBytes int64         // stdout cap, 0 means unlimited
}

// Run executes c and returns its stdout. Stderr is kept (truncated) for the
// error message only.
func Run(ctx context.Context, c Command) ([]byte, error) {
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, c.Binary, c.Args...)
	cmd.Dir = c.Dir
	if c.Stdin != nil {
		cmd.Stdin = c.Stdin
	}
	stdout := &limitedBuffer{limit: c.MaxOutputBytes}
	stderr := &limitedBuffer{limit: stderrLimitBytes, truncate: true}
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	cmd.WaitDelay = waitDelay

	err := cmd.Run()
	if ctx.Err() != nil {
		return nil, fmt.Errorf("%s canceled or timed out: %w", c.Binary, ctx.Err())
	}
	if stdout.exceeded {
		return nil, fmt.Errorf("%s: %w (%d bytes)", c.Binary, ErrOutputTooLarge, c.MaxOutputBytes)
	}
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("%s failed: %w: %s", c.Binary, err, msg)
		}
		return nil, fmt.Errorf("%s failed: %w", c.Binary, err)
	}
	return stdout.buf.Bytes(), nil
}

// limitedBuffer keeps at most limit bytes (limit <= 0 disables the cap).
// When truncate is false, writes past the limit fail so the copy from the
// child stops.
type limitedBuffer struct {
	buf      bytes.Buffer
	limit    int64
	truncate bool
	exceeded bool
}

func (b *limitedBuffer) Write(p []byte) (int, error) {
	if b.limit <= 0 {
		return b.buf.Write(p)
	}
	room := b.limit - int64(b.buf.Len())
	if int64(len(p)) <= room {
		return b.buf.Write(p)
	}
	b.exceeded = true
	if room > 0 {
		b.buf.Write(p[:room])
	}
	if b.truncate {
		return len(p), nil
	}
	return 0, ErrOutputTooLarge
}

func (b *limitedBuffer) String() string {
	return b.buf.String()
}
