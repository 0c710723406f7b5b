package config

// ExampleConfig returns an example configuration showing all available options.
func ExampleConfig() string {
	return `# taskman configuration file
# Values can be overridden by TASKMAN_* environment variables or CLI flags.

# Task file (relative paths resolve against the working directory)
task_file = "tasks.json"

# JSON schema used to validate the task file (built-in schema when empty)
# schema_file = "tasks.schema.json"

# Status given to newly added tasks
default_status = "not yet started"

# Lock the task file while modifying it
lock = true

# How long to wait for the lock before giving up, in milliseconds (must be > 0)
lock_timeout_ms = 2000

# Record every change in a JSONL history journal
history = false

# History journal location (supports ~ expansion)
history_file = "~/.taskman/history.jsonl"

# Logging configuration
# Log level: debug, info, warn, error (default: warn)
log_level = "warn"

# Log format: text, json, logfmt (default: text)
log_format = "text"

# Include timestamps in log output
log_timestamps = false

# Include caller information in log output
log_caller = false
`
}
