package config

import (
	"time"

	"github.com/nibzard/taskman/internal/logging"
	"github.com/nibzard/taskman/internal/task"
)

// ConfigSource represents where a configuration value came from.
type ConfigSource string

const (
	SourceDefault  ConfigSource = "default"
	SourceUserFile ConfigSource = "user file"
	SourceProjFile ConfigSource = "project file"
	SourceEnv      ConfigSource = "environment"
	SourceFlag     ConfigSource = "flag"
)

// Default values.
const (
	DefaultTaskFile      = "tasks.json"
	DefaultHistoryFile   = "~/.taskman/history.jsonl"
	DefaultLockTimeoutMS = 2000
	DefaultLogLevel      = "warn"
	DefaultLogFormat     = "text"

	// ProjectConfigFile is the preferred project-level config file name.
	ProjectConfigFile = "taskman.toml"

	// SchemaTemplateFile is where init -schema writes the built-in schema.
	SchemaTemplateFile = "tasks.schema.json"
)

// Config holds the full configuration for taskman.
type Config struct {
	// Paths
	TaskFile   string `toml:"task_file"`
	SchemaFile string `toml:"schema_file"`

	// New tasks
	DefaultStatus string `toml:"default_status"`

	// Locking
	Lock          bool `toml:"lock"`
	LockTimeoutMS int  `toml:"lock_timeout_ms"`

	// History journal
	History     bool   `toml:"history"`
	HistoryFile string `toml:"history_file"`

	// Logging configuration
	LogLevel      string `toml:"log_level"`
	LogFormat     string `toml:"log_format"`
	LogTimestamps bool   `toml:"log_timestamps"`
	LogCaller     bool   `toml:"log_caller"`

	// Working directory (computed)
	WorkDir string `toml:"-"`

	// Sources records where each setting came from, keyed by TOML name.
	Sources map[string]ConfigSource `toml:"-"`

	// Files lists the config files that were loaded, lowest priority first.
	Files []string `toml:"-"`

	// Warnings collects non-fatal problems such as unknown config keys.
	Warnings []string `toml:"-"`
}

// LockTimeout returns the lock acquisition timeout.
func (c *Config) LockTimeout() time.Duration {
	if c.LockTimeoutMS <= 0 {
		return DefaultLockTimeoutMS * time.Millisecond
	}
	return time.Duration(c.LockTimeoutMS) * time.Millisecond
}

// LogOptions returns console logging options derived from the config.
func (c *Config) LogOptions() logging.Options {
	opts := logging.DefaultOptions()
	if c.LogLevel != "" {
		opts.Level = c.LogLevel
	}
	if c.LogFormat != "" {
		opts.Format = c.LogFormat
	}
	opts.ReportTimestamp = c.LogTimestamps
	opts.ReportCaller = c.LogCaller
	return opts
}

// Source returns where a setting came from.
func (c *Config) Source(key string) ConfigSource {
	if s, ok := c.Sources[key]; ok {
		return s
	}
	return SourceDefault
}

func setDefaults(cfg *Config) {
	cfg.TaskFile = DefaultTaskFile
	cfg.DefaultStatus = task.DefaultStatus
	cfg.Lock = true
	cfg.LockTimeoutMS = DefaultLockTimeoutMS
	cfg.History = false
	cfg.HistoryFile = DefaultHistoryFile
	cfg.LogLevel = DefaultLogLevel
	cfg.LogFormat = DefaultLogFormat
	cfg.Sources = make(map[string]ConfigSource)
}
