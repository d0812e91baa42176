package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/Makepad-fr/tada/internal/config"
	"github.com/Makepad-fr/tada/internal/liststore"
	"github.com/Makepad-fr/tada/internal/logging"
	"github.com/Makepad-fr/tada/internal/snapshot"
	"github.com/Makepad-fr/tada/internal/tui"
	"github.com/Makepad-fr/tada/internal/ui"
)

// Options tune output behavior from root flags.
type Options struct {
	Group bool // list grouped by pending/done

	Store *liststore.Store // initialized by Run
	Out   io.Writer
	Err   io.Writer

	// Interactive runs the tui subcommand; tests swap it out.
	Interactive func(tui.Store) error
}

// Main parses root flags and config, opens storage and runs the
// subcommand. It returns the process exit code.
func Main(args []string, stdout, stderr io.Writer) int {
	fs := pflag.NewFlagSet("todo", pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	config.AddFlags(fs)

	cfg, rest, err := config.Load(fs, args)
	if errors.Is(err, pflag.ErrHelp) {
		PrintHelp(stdout, fs)
		return 0
	}
	if err != nil {
		ui.Fail(stderr, err.Error())
		return 2
	}
	if len(rest) == 0 {
		PrintHelp(stderr, fs)
		return 2
	}

	ui.SetTheme(cfg.Theme)
	ui.SetColorMode(cfg.Color, cfg.NoColor)

	logger, closeLog, err := setupLogging(cfg, rest[0], stderr)
	if err != nil {
		ui.Fail(stderr, err.Error())
		return 1
	}
	defer closeLog()

	backend, err := OpenBackend(cfg)
	if err != nil {
		ui.Fail(stderr, "open "+cfg.Backend+": "+err.Error())
		return 1
	}
	defer backend.Close()

	policy, _ := liststore.ParseIDPolicy(cfg.IDPolicy)
	opts := []liststore.Option{liststore.WithIDPolicy(policy), liststore.WithLogger(logger)}
	if cfg.StrictLoad {
		opts = append(opts, liststore.WithStrictLoad())
	}

	return Run(rest, Options{
		Group: cfg.Group,
		Store: liststore.New(backend, opts...),
		Out:   stdout,
		Err:   stderr,
	})
}

// setupLogging picks the log destination: the configured file, nothing for
// the full-screen view, stderr otherwise.
func setupLogging(cfg *config.Config, cmd string, stderr io.Writer) (*slog.Logger, func(), error) {
	level, _ := logging.ParseLevel(cfg.LogLevel)
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("log file: %w", err)
		}
		return logging.Setup(f, level), func() { f.Close() }, nil
	}
	if cmd == "tui" {
		return logging.Discard(), func() {}, nil
	}
	return logging.Setup(stderr, level), func() {}, nil
}

// Run dispatches subcommands and returns an exit code (0 ok, 1 error, 2 usage).
func Run(args []string, opt Options) int {
	if opt.Out == nil {
		opt.Out = os.Stdout
	}
	if opt.Err == nil {
		opt.Err = os.Stderr
	}
	if opt.Interactive == nil {
		opt.Interactive = func(s tui.Store) error { return tui.Run(s) }
	}
	if len(args) == 0 {
		PrintHelp(opt.Err, nil)
		return 2
	}
	cmd, a := args[0], args[1:]

	switch cmd {
	case "help", "-h", "--help":
		PrintHelp(opt.Out, nil)
		return 0
	case "ls", "add", "done", "rm", "export", "tui":
	default:
		ui.Fail(opt.Err, "unknown subcommand: "+cmd)
		fmt.Fprintln(opt.Err)
		PrintHelp(opt.Err, nil)
		return 2
	}

	// Usage errors are reported before touching storage.
	var id int
	switch cmd {
	case "add":
		if len(a) == 0 {
			ui.Fail(opt.Err, "usage: todo add <text...>")
			return 2
		}
	case "done", "rm":
		if len(a) != 1 {
			ui.Fail(opt.Err, "usage: todo "+cmd+" <id>")
			return 2
		}
		n, err := strconv.Atoi(a[0])
		if err != nil {
			ui.Fail(opt.Err, cmd+": not a number: "+a[0])
			return 2
		}
		id = n
	case "export":
		if len(a) > 1 || (len(a) == 1 && a[0] != "json" && a[0] != "yaml") {
			ui.Fail(opt.Err, "usage: todo export [json|yaml]")
			return 2
		}
	}

	if _, err := opt.Store.Initialize(); err != nil {
		ui.Fail(opt.Err, "load: "+err.Error())
		return 1
	}

	switch cmd {
	case "ls":
		return doList(opt)
	case "add":
		return doAdd(opt, strings.Join(a, " "))
	case "done":
		return doMarkDone(opt, id)
	case "rm":
		return doDelete(opt, id)
	case "export":
		format := "json"
		if len(a) == 1 {
			format = a[0]
		}
		return doExport(opt, format)
	default: // tui
		if err := opt.Interactive(opt.Store); err != nil {
			ui.Fail(opt.Err, "tui: "+err.Error())
			return 1
		}
		return 0
	}
}

// PrintHelp writes usage. fs adds the root flag list when non-nil.
func PrintHelp(w io.Writer, fs *pflag.FlagSet) {
	fmt.Fprint(w, `todo - a tiny persisted todo list

Usage:
  todo [flags] <subcommand> [args]

Subcommands:
  ls                  List items
  add <text...>       Add a new item (text can be multiple words)
  done <id>           Mark the item with this id as done
  rm <id>             Remove the item with this id
  export [json|yaml]  Print all items (default json)
  tui                 Interactive list (a: add, space: done, d: delete, q: quit)

Examples:
  todo add "Buy milk"
  todo ls
  todo done 2
  todo --backend sqlite rm 3
`)
	if fs != nil {
		fmt.Fprintf(w, "\nFlags:\n%s", fs.FlagUsages())
	}
}

// -------------- subcommand impls ----------------

func doList(opt Options) int {
	items := opt.Store.Entries()
	d, _ := items.Stats()

	var lines []string
	lines = append(lines, ui.Header(items))
	lines = append(lines, ui.Current().Muted.Render(ui.ProgressBar(d, len(items), 28)))
	lines = append(lines, "")
	if opt.Group {
		lines = append(lines, ui.GroupedRows(items)...)
	} else {
		lines = append(lines, ui.Rows(items)...)
	}
	lines = append(lines, "")
	lines = append(lines, ui.Current().Muted.Render("Tip: add with `todo add \"Buy milk\"`"))
	ui.Panel(opt.Out, lines)
	return 0
}

func doAdd(opt Options, text string) int {
	items, err := opt.Store.Add(text)
	if err != nil {
		ui.Fail(opt.Err, "save: "+err.Error())
		return 1
	}
	ui.OK(opt.Out, fmt.Sprintf("added #%d", items[len(items)-1].ID))
	return 0
}

func doMarkDone(opt Options, id int) int {
	known := opt.Store.Entries().Has(id)
	if _, err := opt.Store.MarkDone(id); err != nil {
		ui.Fail(opt.Err, "save: "+err.Error())
		return 1
	}
	if !known {
		ui.Hint(opt.Out, fmt.Sprintf("no item #%d, nothing changed (run `todo ls` to see ids)", id))
		return 0
	}
	ui.OK(opt.Out, fmt.Sprintf("done #%d", id))
	return 0
}

func doDelete(opt Options, id int) int {
	known := opt.Store.Entries().Has(id)
	if _, err := opt.Store.Delete(id); err != nil {
		ui.Fail(opt.Err, "save: "+err.Error())
		return 1
	}
	if !known {
		ui.Hint(opt.Out, fmt.Sprintf("no item #%d, nothing changed (run `todo ls` to see ids)", id))
		return 0
	}
	ui.OK(opt.Out, fmt.Sprintf("removed #%d", id))
	return 0
}

func doExport(opt Options, format string) int {
	items := opt.Store.Entries()
	if format == "yaml" {
		b, err := yaml.Marshal(items)
		if err != nil {
			ui.Fail(opt.Err, "export: "+err.Error())
			return 1
		}
		fmt.Fprint(opt.Out, string(b))
		return 0
	}
	s, err := snapshot.Encode(items)
	if err != nil {
		ui.Fail(opt.Err, "export: "+err.Error())
		return 1
	}
	fmt.Fprintln(opt.Out, s)
	return 0
}
