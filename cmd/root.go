// Package cmd implements the CLI command structure for taskman.
package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/nibzard/taskman/internal/config"
	"github.com/nibzard/taskman/internal/logging"
	"github.com/nibzard/taskman/internal/store"
	"github.com/nibzard/taskman/internal/task"
	"github.com/nibzard/taskman/internal/ui"
)

// Version is set via ldflags at build time.
var Version = "dev"

// app carries what every command needs for one invocation.
type app struct {
	cfg     *config.Config
	store   *store.Store
	logger  *log.Logger
	journal *logging.Journal
	stdout  io.Writer
	stderr  io.Writer

	// schemaErr is set when the configured schema override could not be loaded.
	schemaErr error
}

// Run executes the taskman CLI.
func Run(ctx context.Context, args []string) error {
	return run(ctx, args, os.Stdout, os.Stderr)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	// Create a flag set for global options
	fs := flag.NewFlagSet("taskman", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		printUsage(fs, stderr)
	}
	help := fs.Bool("help", false, "Show help")
	fs.BoolVar(help, "h", false, "Show help")
	showVersion := fs.Bool("version", false, "Show version")
	fs.BoolVar(showVersion, "v", false, "Show version")

	// Global flags
	cfg, err := config.Load(fs, args)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if *help {
		printUsage(fs, stdout)
		return nil
	}

	a := newApp(cfg, stdout, stderr)
	if *showVersion {
		return a.version()
	}

	remaining := fs.Args()
	if len(remaining) == 0 {
		printUsage(fs, stderr)
		return fmt.Errorf("missing command")
	}
	subcommand, rest := remaining[0], remaining[1:]
	a.logger.Debug("dispatching command", "command", subcommand, "file", cfg.TaskFile)

	switch subcommand {
	case "add":
		return a.add(ctx, rest)
	case "delete":
		return a.delete(ctx, rest)
	case "show":
		return a.show(ctx, rest)
	case "update":
		return a.update(ctx, rest)
	case "progress":
		return a.progress(ctx, rest)
	case "helpme", "help", "--help", "-h":
		printUsage(fs, stdout)
		return nil
	case "exit":
		fmt.Fprintln(stdout, "Exiting the Task Manager. Goodbye!")
		return nil
	case "doctor":
		return a.doctor(ctx, rest)
	case "history":
		return a.history(rest)
	case "tui":
		return a.tui(ctx, rest)
	case "init":
		return a.initConfig(rest)
	case "version", "--version":
		return a.version()
	default:
		fmt.Fprintf(stderr, "Unknown command: %s\n", subcommand)
		printUsage(fs, stderr)
		return fmt.Errorf("unknown command: %s", subcommand)
	}
}

// newApp builds the logger, store and journal from cfg.
func newApp(cfg *config.Config, stdout, stderr io.Writer) *app {
	logger := logging.New(stderr, cfg.LogOptions())
	for _, w := range cfg.Warnings {
		logger.Warn("config", "warning", w)
	}

	a := &app{
		cfg:    cfg,
		logger: logger,
		stdout: stdout,
		stderr: stderr,
	}

	opts := []store.Option{
		store.WithLock(cfg.Lock),
		store.WithLockTimeout(cfg.LockTimeout()),
		store.WithLogger(logger),
	}
	if cfg.SchemaFile != "" {
		schema, err := task.LoadSchema(cfg.SchemaFile)
		if err != nil {
			logger.Warn("schema override unreadable, using built-in schema", "path", cfg.SchemaFile, "err", err)
			a.schemaErr = err
		} else {
			opts = append(opts, store.WithSchema(schema))
		}
	}
	a.store = store.Open(cfg.TaskFile, opts...)

	if cfg.History {
		journal, err := logging.NewJournal(cfg.HistoryFile)
		if err != nil {
			logger.Warn("history journal disabled", "err", err)
		} else {
			a.journal = journal
		}
	}

	return a
}

// record appends a history entry. Failures are logged, never returned.
func (a *app) record(e logging.Entry) {
	if err := a.journal.Append(e); err != nil {
		a.logger.Warn("history journal write failed", "path", a.journal.Path, "err", err)
	}
}

func (a *app) history(args []string) error {
	fs := flag.NewFlagSet("taskman history", flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	n := fs.Int("n", 20, "Number of entries to show (0 = all)")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() > 0 {
		return fmt.Errorf("unexpected arguments: %v", fs.Args())
	}

	err := logging.Tail(a.stdout, a.cfg.HistoryFile, *n)
	if errors.Is(err, logging.ErrNoHistory) {
		if !a.cfg.History {
			a.logger.Info("history journal is disabled", "hint", "set history = true or pass -history")
		}
		fmt.Fprintln(a.stdout, "No history recorded.")
		return nil
	}
	return err
}

func (a *app) tui(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("taskman tui", flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	refresh := fs.Duration("refresh", ui.DefaultRefreshInterval, "Reload interval (0 disables)")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() > 0 {
		return fmt.Errorf("unexpected arguments: %v", fs.Args())
	}

	return ui.RunTUI(ctx, a.store,
		ui.WithRefreshInterval(*refresh),
		ui.WithOutput(a.stdout),
	)
}

// initConfig writes the example config, and with -schema the built-in task
// file schema, to the working directory. Existing files are never overwritten.
func (a *app) initConfig(args []string) error {
	fs := flag.NewFlagSet("taskman init", flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	withSchema := fs.Bool("schema", false, "Also write the built-in task file schema as "+config.SchemaTemplateFile)

	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() > 0 {
		return fmt.Errorf("unexpected arguments: %v", fs.Args())
	}

	if err := a.writeIfMissing(config.ProjectConfigFile, []byte(config.ExampleConfig())); err != nil {
		return err
	}
	if *withSchema {
		return a.writeIfMissing(config.SchemaTemplateFile, task.EmbeddedSchema())
	}
	return nil
}

func (a *app) writeIfMissing(name string, data []byte) error {
	path := filepath.Join(a.cfg.WorkDir, name)
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		if os.IsExist(err) {
			fmt.Fprintf(a.stdout, "Skipped %s (exists)\n", name)
			return nil
		}
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}

	fmt.Fprintf(a.stdout, "Created %s\n", name)
	return nil
}

func (a *app) version() error {
	fmt.Fprintf(a.stdout, "taskman version %s\n", Version)
	return nil
}

func usageError(usage string) error {
	return fmt.Errorf("usage: taskman %s", usage)
}

// parseID parses a positive task id.
func parseID(s string) (int, error) {
	id, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || id < 1 {
		return 0, fmt.Errorf("invalid task id %q", s)
	}
	return id, nil
}

func printUsage(fs *flag.FlagSet, w io.Writer) {
	fmt.Fprintln(w, "taskman - a command-line task list manager")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  taskman [global options] <command> [arguments]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  add <task>              Add a new task")
	fmt.Fprintln(w, "  update <id> <task>      Change the description of a task")
	fmt.Fprintln(w, "  delete <id>             Delete a task")
	fmt.Fprintln(w, "  progress <status> <id>  Set the status of a task")
	fmt.Fprintln(w, "  show                    Show all tasks")
	fmt.Fprintln(w, "  exit                    Exit the Task Manager")
	fmt.Fprintln(w, "  helpme                  Show this help message")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Tooling:")
	fmt.Fprintln(w, "  doctor                  Check config and task file validity")
	fmt.Fprintln(w, "  history                 Show recent entries of the history journal")
	fmt.Fprintln(w, "  tui                     Browse tasks in a terminal UI")
	fmt.Fprintln(w, "  init [-schema]          Write an example taskman.toml (and tasks.schema.json)")
	fmt.Fprintln(w, "  version                 Show version information")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Global Options:")
	fs.SetOutput(w)
	fs.PrintDefaults()
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Add Options (use with 'add' command):")
	fmt.Fprintln(w, "  -status string")
	fmt.Fprintln(w, "        Status for the new task (default from config)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Show Options (use with 'show' command):")
	fmt.Fprintln(w, "  -status string")
	fmt.Fprintln(w, "        Only show tasks with this status")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Doctor Options (use with 'doctor' command):")
	fmt.Fprintln(w, "  -v    List every task")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "History Options (use with 'history' command):")
	fmt.Fprintln(w, "  -n int")
	fmt.Fprintln(w, "        Number of entries to show, 0 for all (default 20)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Tui Options (use with 'tui' command):")
	fmt.Fprintln(w, "  -refresh duration")
	fmt.Fprintln(w, "        Reload interval, 0 disables (default 2s)")
}
