package stylesheet

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/gkampitakis/go-snaps/snaps"
)

const markup = `<table class="min-w-full divide-y dark:bg-gray-900"><tr><td class="p-4">1</td></tr></table>`

func TestMain(m *testing.M) {
	v := m.Run()
	snaps.Clean(m)
	os.Exit(v)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// writeScript installs a fake compiler binary and returns its path.
func writeScript(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake compiler scripts need a POSIX shell")
	}
	path := filepath.Join(t.TempDir(), "fake-tailwind")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755); err != nil {
		t.Fatalf("write fake compiler: %v", err)
	}
	return path
}

func assertEmptyDir(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir(%s) error: %v", dir, err)
	}
	if len(entries) != 0 {
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Fatalf("expected working dirs to be removed, found %v", names)
	}
}

const stdinCompiler = `
test -f component.html || { echo "missing markup" >&2; exit 3; }
entry=$(cat)
case "$entry" in
  *'@import "tailwindcss"'*) ;;
  *) echo "bad entry: $entry" >&2; exit 4 ;;
esac
[ "$1" = "--input" ] && [ "$2" = "-" ] || exit 5
echo ".flex{display:flex}"
`

const fileCompiler = `
out=""
while [ $# -gt 0 ]; do
  case "$1" in
    --output) out="$2"; shift ;;
  esac
  shift
done
test -f component.html || exit 3
grep -q '@source' input.css || exit 4
echo ".p-4{padding:calc(var(--spacing)*4)}" > "$out"
`

func TestEntryStylesheet(t *testing.T) {
	plain := EntryStylesheet("", false)
	if !strings.HasPrefix(plain, "@import \"tailwindcss\";\n") {
		t.Errorf("unexpected import line in %q", plain)
	}
	if strings.Contains(plain, "@custom-variant") {
		t.Errorf("dark variant should be absent: %q", plain)
	}
	if !strings.Contains(plain, "@source \"./\";") {
		t.Errorf("source directive missing: %q", plain)
	}
}

func TestEntryStylesheet_Snapshot(t *testing.T) {
	snaps.MatchSnapshot(t, strings.TrimSpace(EntryStylesheet("tw", true)))
}

func TestCompile_StdinMode(t *testing.T) {
	root := filepath.Join(t.TempDir(), "work")
	c := NewTailwindCompiler(Options{
		Binary:   writeScript(t, stdinCompiler),
		Mode:     ModeStdin,
		TempRoot: root,
		DarkMode: true,
	}, discardLogger())

	css := c.Compile(context.Background(), markup)
	if strings.TrimSpace(css) != ".flex{display:flex}" {
		t.Fatalf("unexpected css %q", css)
	}
	assertEmptyDir(t, root)
}

func TestCompile_FileMode(t *testing.T) {
	root := filepath.Join(t.TempDir(), "work")
	c := NewTailwindCompiler(Options{
		Binary:   writeScript(t, fileCompiler),
		Mode:     ModeFile,
		TempRoot: root,
	}, discardLogger())

	css := c.Compile(context.Background(), markup)
	if !strings.Contains(css, ".p-4") {
		t.Fatalf("unexpected css %q", css)
	}
	assertEmptyDir(t, root)
}

func TestCompile_DegradesToEmpty(t *testing.T) {
	tests := []struct {
		name   string
		binary func(t *testing.T) string
		opts   Options
	}{
		{
			name:   "non-zero exit",
			binary: func(t *testing.T) string { return writeScript(t, "echo boom >&2\nexit 1\n") },
		},
		{
			name:   "missing binary",
			binary: func(t *testing.T) string { return filepath.Join(t.TempDir(), "does-not-exist") },
		},
		{
			name:   "timeout",
			binary: func(t *testing.T) string { return writeScript(t, "exec sleep 5\n") },
			opts:   Options{Timeout: 100 * time.Millisecond},
		},
		{
			name:   "output too large",
			binary: func(t *testing.T) string { return writeScript(t, "cat >/dev/null\nhead -c 4096 /dev/zero | tr '\\0' 'a'\n") },
			opts:   Options{MaxOutputBytes: 64},
		},
		{
			name:   "file mode without output file",
			binary: func(t *testing.T) string { return writeScript(t, "exit 0\n") },
			opts:   Options{Mode: ModeFile},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := filepath.Join(t.TempDir(), "work")
			opts := tt.opts
			opts.Binary = tt.binary(t)
			opts.TempRoot = root

			css := NewTailwindCompiler(opts, discardLogger()).Compile(context.Background(), markup)
			if css != "" {
				t.Fatalf("expected empty stylesheet, got %q", css)
			}
			assertEmptyDir(t, root)
		})
	}
}

func TestCompile_FreshDirPerCall(t *testing.T) {
	seen := filepath.Join(t.TempDir(), "seen")
	script := "cat >/dev/null\npwd >> " + seen + "\necho '.a{}'\n"
	c := NewTailwindCompiler(Options{Binary: writeScript(t, script)}, discardLogger())

	for i := 0; i < 2; i++ {
		if css := c.Compile(context.Background(), markup); css == "" {
			t.Fatalf("call %d: expected css", i)
		}
	}

	data, err := os.ReadFile(seen)
	if err != nil {
		t.Fatalf("ReadFile() error: %v", err)
	}
	dirs := strings.Fields(string(data))
	if len(dirs) != 2 || dirs[0] == dirs[1] {
		t.Fatalf("expected two distinct working dirs, got %v", dirs)
	}
	for _, d := range dirs {
		if _, err := os.Stat(d); !os.IsNotExist(err) {
			t.Errorf("working dir %s still exists", d)
		}
	}
}

func TestCompile_CleanupFailureIsOnlyLogged(t *testing.T) {
	root := filepath.Join(t.TempDir(), "work")
	var removed []string
	removeAll = func(path string) error {
		removed = append(removed, path)
		return errors.New("device busy")
	}
	t.Cleanup(func() { removeAll = os.RemoveAll })

	var logs bytes.Buffer
	c := NewTailwindCompiler(Options{
		Binary:   writeScript(t, stdinCompiler),
		Mode:     ModeStdin,
		TempRoot: root,
	}, slog.New(slog.NewTextHandler(&logs, nil)))

	css := c.Compile(context.Background(), markup)
	if strings.TrimSpace(css) != ".flex{display:flex}" {
		t.Fatalf("unexpected css %q", css)
	}
	if len(removed) != 1 || filepath.Dir(removed[0]) != root {
		t.Fatalf("expected one removal attempt under %s, got %v", root, removed)
	}
	if !strings.Contains(logs.String(), "failed to remove compiler working dir") ||
		!strings.Contains(logs.String(), "device busy") {
		t.Fatalf("cleanup failure not logged: %s", logs.String())
	}
}
