package config

import (
	"flag"
	"time"
)

// flagKeys maps global flag names to the config keys they override.
var flagKeys = map[string]string{
	"file":           "task_file",
	"schema":         "schema_file",
	"default-status": "default_status",
	"lock-timeout":   "lock_timeout_ms",
	"no-lock":        "lock",
	"history":        "history",
	"history-file":   "history_file",
	"log-level":      "log_level",
	"log-format":     "log_format",
	"log-timestamps": "log_timestamps",
	"log-caller":     "log_caller",
}

// parseFlags defines the global flags on fs, parses args and applies any
// flag the user set explicitly. Remaining arguments stay in fs.Args().
func parseFlags(cfg *Config, fs *flag.FlagSet, args []string) error {
	if fs == nil {
		fs = flag.NewFlagSet("taskman", flag.ContinueOnError)
	}

	var (
		lockTimeout time.Duration
		noLock      bool
	)

	fs.StringVar(&cfg.TaskFile, "file", cfg.TaskFile, "Path to the task file")
	fs.StringVar(&cfg.SchemaFile, "schema", cfg.SchemaFile, "Path to a JSON schema overriding the built-in one")
	fs.StringVar(&cfg.DefaultStatus, "default-status", cfg.DefaultStatus, "Status given to new tasks")
	fs.DurationVar(&lockTimeout, "lock-timeout", cfg.LockTimeout(), "How long to wait for the task file lock")
	fs.BoolVar(&noLock, "no-lock", !cfg.Lock, "Do not lock the task file")
	fs.BoolVar(&cfg.History, "history", cfg.History, "Record mutations in the history journal")
	fs.StringVar(&cfg.HistoryFile, "history-file", cfg.HistoryFile, "Path to the history journal")

	// Logging flags
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level (debug, info, warn, error)")
	fs.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "Log format (text, json, logfmt)")
	fs.BoolVar(&cfg.LogTimestamps, "log-timestamps", cfg.LogTimestamps, "Include timestamps in log output")
	fs.BoolVar(&cfg.LogCaller, "log-caller", cfg.LogCaller, "Include caller information in log output")

	if err := fs.Parse(args); err != nil {
		return err
	}

	fs.Visit(func(f *flag.Flag) {
		key, ok := flagKeys[f.Name]
		if !ok {
			return
		}
		switch f.Name {
		case "lock-timeout":
			cfg.LockTimeoutMS = int(lockTimeout / time.Millisecond)
		case "no-lock":
			cfg.Lock = !noLock
		}
		cfg.Sources[key] = SourceFlag
	})

	return nil
}
