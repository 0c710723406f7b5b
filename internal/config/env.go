package config

import (
	"fmt"
	"os"
	"strings"
)

// loadFromEnv overrides config from TASKMAN_* environment variables.
func loadFromEnv(cfg *Config) {
	set := func(field string) {
		cfg.Sources[field] = SourceEnv
	}

	if v := os.Getenv("TASKMAN_FILE"); v != "" {
		cfg.TaskFile = v
		set("task_file")
	}
	if v := os.Getenv("TASKMAN_SCHEMA"); v != "" {
		cfg.SchemaFile = v
		set("schema_file")
	}
	if v := os.Getenv("TASKMAN_DEFAULT_STATUS"); v != "" {
		cfg.DefaultStatus = v
		set("default_status")
	}
	if v := os.Getenv("TASKMAN_LOCK"); v != "" {
		cfg.Lock = boolFromString(v)
		set("lock")
	}
	if v := os.Getenv("TASKMAN_LOCK_TIMEOUT_MS"); v != "" {
		var i int
		if _, err := fmt.Sscanf(v, "%d", &i); err == nil {
			cfg.LockTimeoutMS = i
			set("lock_timeout_ms")
		} else {
			cfg.Warnings = append(cfg.Warnings, fmt.Sprintf("TASKMAN_LOCK_TIMEOUT_MS: invalid integer %q", v))
		}
	}
	if v := os.Getenv("TASKMAN_HISTORY"); v != "" {
		cfg.History = boolFromString(v)
		set("history")
	}
	if v := os.Getenv("TASKMAN_HISTORY_FILE"); v != "" {
		cfg.HistoryFile = v
		set("history_file")
	}

	// Logging configuration
	if v := os.Getenv("TASKMAN_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
		set("log_level")
	}
	if v := os.Getenv("TASKMAN_LOG_FORMAT"); v != "" {
		cfg.LogFormat = v
		set("log_format")
	}
	if v := os.Getenv("TASKMAN_LOG_TIMESTAMPS"); v != "" {
		cfg.LogTimestamps = boolFromString(v)
		set("log_timestamps")
	}
	if v := os.Getenv("TASKMAN_LOG_CALLER"); v != "" {
		cfg.LogCaller = boolFromString(v)
		set("log_caller")
	}
}

func boolFromString(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return s == "1" || s == "true" || s == "yes" || s == "on"
}
