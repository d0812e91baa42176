package cli

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Makepad-fr/tada/internal/liststore"
	"github.com/Makepad-fr/tada/internal/store"
	"github.com/Makepad-fr/tada/internal/tui"
	"github.com/Makepad-fr/tada/internal/ui"
)

type result struct {
	code     int
	out, err string
}

func runWith(t *testing.T, kv store.KV, args ...string) result {
	t.Helper()
	ui.SetColorMode(false, true)
	ui.SetTheme("mono")
	t.Cleanup(func() { ui.SetTheme("classic") })

	var out, errOut bytes.Buffer
	s := liststore.New(kv, liststore.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	code := Run(args, Options{Store: s, Out: &out, Err: &errOut})
	return result{code, out.String(), errOut.String()}
}

func TestRunList(t *testing.T) {
	r := runWith(t, store.NewMemory(), "ls")
	if r.code != 0 {
		t.Fatalf("code = %d, stderr = %s", r.code, r.err)
	}
	for _, want := range []string{"Todos  x 0  - 3  Total 3", "#1   [ ] Get milk", "#3   [ ] Go home"} {
		if !strings.Contains(r.out, want) {
			t.Errorf("ls output missing %q:\n%s", want, r.out)
		}
	}
}

func TestRunListGrouped(t *testing.T) {
	kv := store.NewMemory()
	kv.Set(liststore.ListKey, `[{"text":"a","done":true,"id":1},{"text":"b","done":false,"id":2}]`)

	var out bytes.Buffer
	ui.SetColorMode(false, true)
	ui.SetTheme("mono")
	t.Cleanup(func() { ui.SetTheme("classic") })
	code := Run([]string{"ls"}, Options{Group: true, Store: liststore.New(kv), Out: &out, Err: io.Discard})
	if code != 0 {
		t.Fatalf("code = %d", code)
	}
	pending := strings.Index(out.String(), "Pending")
	b := strings.Index(out.String(), "[ ] b")
	done := strings.Index(out.String(), "Done")
	a := strings.Index(out.String(), "[x] a")
	if pending < 0 || !(pending < b && b < done && done < a) {
		t.Errorf("grouped output out of order:\n%s", out.String())
	}
}

func TestRunAddDoneRm(t *testing.T) {
	kv := store.NewMemory()

	r := runWith(t, kv, "add", "Buy", "eggs")
	if r.code != 0 || !strings.Contains(r.out, "added #4") {
		t.Fatalf("add: %+v", r)
	}
	r = runWith(t, kv, "done", "4")
	if r.code != 0 || !strings.Contains(r.out, "done #4") {
		t.Fatalf("done: %+v", r)
	}
	r = runWith(t, kv, "rm", "1")
	if r.code != 0 || !strings.Contains(r.out, "removed #1") {
		t.Fatalf("rm: %+v", r)
	}

	r = runWith(t, kv, "export")
	want := `[{"text":"Learn react","done":false,"id":2},{"text":"Go home","done":false,"id":3},{"text":"Buy eggs","done":true,"id":4}]` + "\n"
	if r.code != 0 || r.out != want {
		t.Errorf("export = %q, want %q", r.out, want)
	}
}

func TestRunUnknownIDIsNoop(t *testing.T) {
	kv := store.NewMemory()
	for _, cmd := range []string{"done", "rm"} {
		r := runWith(t, kv, cmd, "999")
		if r.code != 0 {
			t.Errorf("%s 999: code = %d", cmd, r.code)
		}
		if !strings.Contains(r.out, "no item #999") {
			t.Errorf("%s 999: out = %q", cmd, r.out)
		}
	}
	if r := runWith(t, kv, "export"); strings.Count(r.out, `"id"`) != 3 {
		t.Errorf("collection changed: %s", r.out)
	}
}

func TestRunAddEmptyText(t *testing.T) {
	kv := store.NewMemory()
	r := runWith(t, kv, "add", "")
	if r.code != 0 {
		t.Fatalf("add \"\": %+v", r)
	}
	if r := runWith(t, kv, "export"); !strings.Contains(r.out, `{"text":"","done":false,"id":4}`) {
		t.Errorf("export = %s", r.out)
	}
}

func TestRunExportYAML(t *testing.T) {
	r := runWith(t, store.NewMemory(), "export", "yaml")
	if r.code != 0 {
		t.Fatalf("code = %d: %s", r.code, r.err)
	}
	if !strings.HasPrefix(r.out, "- text: Get milk\n  done: false\n  id: 1\n") {
		t.Errorf("yaml = %q", r.out)
	}
}

func TestRunUsageErrors(t *testing.T) {
	tests := []struct {
		args []string
		want string
	}{
		{[]string{"add"}, "usage: todo add"},
		{[]string{"done"}, "usage: todo done <id>"},
		{[]string{"rm", "x"}, "rm: not a number: x"},
		{[]string{"export", "xml"}, "usage: todo export"},
		{[]string{"frobnicate"}, "unknown subcommand: frobnicate"},
	}
	for _, tt := range tests {
		t.Run(strings.Join(tt.args, " "), func(t *testing.T) {
			r := runWith(t, store.NewMemory(), tt.args...)
			if r.code != 2 {
				t.Errorf("code = %d, want 2", r.code)
			}
			if !strings.Contains(r.err, tt.want) {
				t.Errorf("stderr = %q, want %q", r.err, tt.want)
			}
		})
	}
}

type failingKV struct{ *store.Memory }

func (failingKV) Set(string, string) error { return errors.New("disk full") }

func TestRunSaveError(t *testing.T) {
	r := runWith(t, failingKV{store.NewMemory()}, "add", "x")
	if r.code != 1 || !strings.Contains(r.err, "disk full") {
		t.Errorf("result = %+v", r)
	}
}

func TestRunStrictLoadError(t *testing.T) {
	kv := store.NewMemory()
	kv.Set(liststore.ListKey, "not json")

	var errOut bytes.Buffer
	s := liststore.New(kv, liststore.WithStrictLoad(), liststore.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	code := Run([]string{"ls"}, Options{Store: s, Out: io.Discard, Err: &errOut})
	if code != 1 || !strings.Contains(errOut.String(), "malformed snapshot") {
		t.Errorf("code = %d, stderr = %q", code, errOut.String())
	}
}

func TestRunTUIUsesInitializedStore(t *testing.T) {
	s := liststore.New(store.NewMemory(), liststore.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	var seen int
	code := Run([]string{"tui"}, Options{
		Store: s, Out: io.Discard, Err: io.Discard,
		Interactive: func(ts tui.Store) error {
			seen = len(ts.Entries())
			return nil
		},
	})
	if code != 0 || seen != 3 {
		t.Errorf("code = %d, entries seen = %d", code, seen)
	}
}

// isolate keeps Main away from the developer's real config and data.
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, "xdg"))
	for _, name := range []string{
		"TADA_CONFIG", "TADA_BACKEND", "TADA_PATH", "TADA_DSN", "TADA_THEME",
		"TADA_ID_POLICY", "TADA_LOG_LEVEL", "TADA_LOG_FILE", "TADA_GROUP",
		"TADA_STRICT_LOAD", "TADA_COLOR", "TADA_NO_COLOR",
	} {
		t.Setenv(name, "")
	}
	t.Setenv("NO_COLOR", "1")
	dir := t.TempDir()
	chdirForTest(t, dir)
	return dir
}

func TestMainPersistsAcrossRuns(t *testing.T) {
	for _, backend := range []string{"file", "sqlite"} {
		t.Run(backend, func(t *testing.T) {
			dir := isolate(t)
			var out, errOut bytes.Buffer
			if code := Main([]string{"--backend", backend, "add", "Buy eggs"}, &out, &errOut); code != 0 {
				t.Fatalf("add: code %d, stderr %s", code, errOut.String())
			}
			if code := Main([]string{"--backend", backend, "rm", "2"}, &out, &errOut); code != 0 {
				t.Fatalf("rm: code %d, stderr %s", code, errOut.String())
			}

			out.Reset()
			if code := Main([]string{"--backend", backend, "export"}, &out, &errOut); code != 0 {
				t.Fatalf("export: code %d", code)
			}
			want := `[{"text":"Get milk","done":false,"id":1},{"text":"Go home","done":false,"id":3},{"text":"Buy eggs","done":false,"id":4}]`
			if strings.TrimSpace(out.String()) != want {
				t.Errorf("export = %s", out.String())
			}

			file := "todos.json"
			if backend == "sqlite" {
				file = "tada.db"
			}
			if _, err := os.Stat(filepath.Join(dir, file)); err != nil {
				t.Errorf("data file: %v", err)
			}
		})
	}
}

func TestMainIDPolicyCount(t *testing.T) {
	isolate(t)
	var out bytes.Buffer
	args := func(rest ...string) []string {
		return append([]string{"--id-policy", "count"}, rest...)
	}
	Main(args("rm", "2"), io.Discard, io.Discard)
	if code := Main(args("add", "New"), &out, io.Discard); code != 0 {
		t.Fatalf("add: code %d", code)
	}
	if !strings.Contains(out.String(), "added #3") {
		t.Errorf("out = %q, want the count-based id 3", out.String())
	}
}

func TestMainHelpAndErrors(t *testing.T) {
	isolate(t)
	var out, errOut bytes.Buffer

	if code := Main([]string{"--help"}, &out, &errOut); code != 0 {
		t.Errorf("--help code = %d", code)
	}
	if !strings.Contains(out.String(), "--backend") {
		t.Errorf("help lacks flags:\n%s", out.String())
	}

	if code := Main(nil, &out, &errOut); code != 2 {
		t.Errorf("no args code = %d", code)
	}

	errOut.Reset()
	if code := Main([]string{"--backend", "redis", "ls"}, &out, &errOut); code != 2 {
		t.Errorf("bad backend code = %d", code)
	}
	if !strings.Contains(errOut.String(), "unknown backend") {
		t.Errorf("stderr = %q", errOut.String())
	}
}

func TestMainLogFile(t *testing.T) {
	dir := isolate(t)
	logPath := filepath.Join(dir, "tada.log")
	code := Main([]string{"--backend", "memory", "--log-level", "debug", "--log-file", logPath, "add", "x"}, io.Discard, io.Discard)
	if code != 0 {
		t.Fatalf("code = %d", code)
	}
	b, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(b), "list saved") {
		t.Errorf("log = %q", b)
	}
}

// chdirForTest mirrors testing.T.Chdir (Go 1.24+) for older toolchains:
// it changes the working directory, sets PWD, and restores both on cleanup.
func chdirForTest(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Setenv("PWD", abs)
	t.Cleanup(func() {
		if err := os.Chdir(old); err != nil {
			t.Fatalf("restoring working directory: %v", err)
		}
	})
}
