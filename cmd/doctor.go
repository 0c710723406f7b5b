package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/nibzard/taskman/internal/logging"
	"github.com/nibzard/taskman/internal/store"
	"github.com/nibzard/taskman/internal/task"
)

// doctor reports the effective configuration and validates the task file
// without creating or modifying anything.
func (a *app) doctor(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("taskman doctor", flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	verbose := fs.Bool("v", false, "List every task")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() > 0 {
		return fmt.Errorf("unexpected arguments: %v", fs.Args())
	}

	w := a.stdout
	cfg := a.cfg

	fmt.Fprintln(w, "Taskman Doctor")
	fmt.Fprintln(w, "==============")
	fmt.Fprintln(w)

	allOK := true

	// Config
	fmt.Fprintln(w, "Config:")
	if len(cfg.Files) == 0 {
		fmt.Fprintln(w, "  ✅ No config files (using defaults)")
	}
	for _, f := range cfg.Files {
		fmt.Fprintf(w, "  ✅ Loaded %s\n", f)
	}
	for _, warning := range cfg.Warnings {
		fmt.Fprintf(w, "  ⚠️  %s\n", warning)
	}
	fmt.Fprintf(w, "  Default status: %q (%s)\n", cfg.DefaultStatus, cfg.Source("default_status"))
	if cfg.Lock {
		fmt.Fprintf(w, "  Lock: enabled, timeout %s (%s)\n", cfg.LockTimeout(), cfg.Source("lock_timeout_ms"))
	} else {
		fmt.Fprintf(w, "  Lock: disabled (%s)\n", cfg.Source("lock"))
	}
	fmt.Fprintf(w, "  Log level: %s (%s)\n", cfg.LogLevel, cfg.Source("log_level"))
	fmt.Fprintln(w)

	// Schema
	if cfg.SchemaFile == "" {
		fmt.Fprintln(w, "Schema: built-in")
		if _, err := task.DefaultSchema(); err != nil {
			fmt.Fprintf(w, "  ❌ Error: %v\n", err)
			allOK = false
		} else {
			fmt.Fprintln(w, "  ✅ OK")
		}
	} else {
		fmt.Fprintf(w, "Schema file: %s\n", cfg.SchemaFile)
		if a.schemaErr != nil {
			fmt.Fprintf(w, "  ❌ Error: %v\n", a.schemaErr)
			allOK = false
		} else {
			fmt.Fprintln(w, "  ✅ OK")
		}
	}
	fmt.Fprintln(w)

	// Task file
	fmt.Fprintf(w, "Task file: %s\n", a.store.Path())
	info, err := os.Stat(a.store.Path())
	switch {
	case err != nil && os.IsNotExist(err):
		fmt.Fprintln(w, "  ⚠️  Not found (will be created on first use)")
	case err != nil:
		fmt.Fprintf(w, "  ❌ Error: %v\n", err)
		allOK = false
	case info.IsDir():
		fmt.Fprintln(w, "  ❌ Error: path is a directory")
		allOK = false
	default:
		tasks, loadErr := a.store.Load(ctx)
		var corrupt *store.CorruptError
		switch {
		case errors.As(loadErr, &corrupt):
			fmt.Fprintln(w, "  ❌ Validation failed:")
			for _, e := range flattenErrors(corrupt.Err) {
				fmt.Fprintf(w, "     - %v\n", e)
			}
			allOK = false
		case loadErr != nil:
			fmt.Fprintf(w, "  ❌ Load error: %v\n", loadErr)
			allOK = false
		default:
			fmt.Fprintln(w, "  ✅ Valid")
			counts, statuses := task.CountByStatus(tasks)
			fmt.Fprintf(w, "  Tasks: %d\n", len(tasks))
			for _, s := range statuses {
				fmt.Fprintf(w, "    %s: %d\n", s, counts[s])
			}
			if *verbose {
				for _, t := range tasks {
					fmt.Fprintf(w, "    - %s\n", t)
				}
			}
		}
	}
	fmt.Fprintln(w)

	// History journal
	if cfg.History {
		fmt.Fprintf(w, "History file: %s\n", cfg.HistoryFile)
		entries, err := logging.ReadEntries(cfg.HistoryFile)
		switch {
		case errors.Is(err, logging.ErrNoHistory):
			fmt.Fprintln(w, "  ⚠️  Not found (will be created on first change)")
		case err != nil:
			fmt.Fprintf(w, "  ❌ Error: %v\n", err)
			allOK = false
		default:
			fmt.Fprintf(w, "  ✅ OK (%d entries)\n", len(entries))
			if len(entries) > 0 {
				last := entries[len(entries)-1]
				fmt.Fprintf(w, "  Last change: %s task %d at %s\n", last.Command, last.ID, last.Time.Local().Format(time.RFC3339))
			}
		}
	} else {
		fmt.Fprintln(w, "History: disabled")
	}
	fmt.Fprintln(w)

	// Overall status
	if allOK {
		fmt.Fprintln(w, "✅ All checks passed!")
		return nil
	}
	fmt.Fprintln(w, "⚠️  Some checks failed.")
	return fmt.Errorf("doctor checks failed")
}

// flattenErrors expands errors.Join trees into their leaves, looking through
// a single wrapping layer such as "schema validation failed: %w".
func flattenErrors(err error) []error {
	if err == nil {
		return nil
	}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		var out []error
		for _, e := range joined.Unwrap() {
			out = append(out, flattenErrors(e)...)
		}
		return out
	}
	if inner := errors.Unwrap(err); inner != nil {
		if _, ok := inner.(interface{ Unwrap() []error }); ok {
			return flattenErrors(inner)
		}
	}
	return []error{err}
}
