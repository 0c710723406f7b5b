// Package store loads and persists the task list file.
package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gofrs/flock"

	"github.com/nibzard/taskman/internal/logging"
	"github.com/nibzard/taskman/internal/task"
)

// ErrCorrupt is returned when the task file exists but cannot be parsed as a task list.
var ErrCorrupt = errors.New("corrupt task file")

// ErrLocked is returned when the lock file could not be acquired in time.
var ErrLocked = errors.New("task file is locked by another process")

const (
	// DefaultLockTimeout bounds how long Update waits for the lock file.
	DefaultLockTimeout = 2 * time.Second

	lockRetryDelay = 50 * time.Millisecond
	emptyList      = "[]\n"
)

// CorruptError describes why a task file could not be loaded.
// The file itself is never modified once it is found to be corrupt.
type CorruptError struct {
	Path string
	Err  error
}

func (e *CorruptError) Error() string {
	return fmt.Sprintf("corrupt task file %s: %v", e.Path, e.Err)
}

// Unwrap returns the underlying errors so both ErrCorrupt and the parse or
// validation cause match with errors.Is / errors.As.
func (e *CorruptError) Unwrap() []error {
	return []error{ErrCorrupt, e.Err}
}

// Store owns the on-disk task list.
type Store struct {
	path        string
	lock        bool
	lockTimeout time.Duration
	schema      *task.Schema
	logger      *log.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithLock enables or disables the advisory lock taken by Update.
func WithLock(enabled bool) Option {
	return func(s *Store) {
		s.lock = enabled
	}
}

// WithLockTimeout sets how long Update waits for the lock.
func WithLockTimeout(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.lockTimeout = d
		}
	}
}

// WithSchema replaces the embedded task file schema.
func WithSchema(schema *task.Schema) Option {
	return func(s *Store) {
		if schema != nil {
			s.schema = schema
		}
	}
}

// WithLogger sets the logger for diagnostics.
func WithLogger(logger *log.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// Open returns a store for the task file at path. The file is not touched
// until the first Load, Write, or Update.
func Open(path string, opts ...Option) *Store {
	s := &Store{
		path:        path,
		lock:        true,
		lockTimeout: DefaultLockTimeout,
		logger:      logging.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Path returns the task file path.
func (s *Store) Path() string {
	return s.path
}

// LockPath returns the path of the advisory lock file.
func (s *Store) LockPath() string {
	return s.path + ".lock"
}

// Load reads the task list. A missing file is created holding an empty list.
// Content that is not a valid task list yields a *CorruptError.
func (s *Store) Load(ctx context.Context) ([]task.Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := s.ensureFile(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read task file: %w", err)
	}

	tasks, err := s.decode(data)
	if err != nil {
		return nil, &CorruptError{Path: s.path, Err: err}
	}

	s.logger.Debug("loaded tasks", "path", s.path, "count", len(tasks))
	return tasks, nil
}

// Write replaces the task file with tasks. The new content is written to a
// temporary file in the same directory and renamed over the target, so
// readers see either the old list or the new one.
func (s *Store) Write(ctx context.Context, tasks []task.Task) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := task.Validate(tasks); err != nil {
		return fmt.Errorf("refusing to write invalid task list: %w", err)
	}

	data, err := encode(tasks)
	if err != nil {
		return err
	}

	if err := writeAtomic(s.path, data); err != nil {
		return err
	}

	s.logger.Debug("wrote tasks", "path", s.path, "count", len(tasks))
	return nil
}

// Update runs the load, mutate, write cycle under the advisory lock.
// Nothing is written if fn returns an error or the file is corrupt.
func (s *Store) Update(ctx context.Context, fn func([]task.Task) ([]task.Task, error)) error {
	unlock, err := s.acquire(ctx)
	if err != nil {
		return err
	}
	defer unlock()

	tasks, err := s.Load(ctx)
	if err != nil {
		return err
	}

	updated, err := fn(tasks)
	if err != nil {
		return err
	}

	return s.Write(ctx, updated)
}

func (s *Store) acquire(ctx context.Context) (func(), error) {
	if !s.lock {
		return func() {}, nil
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return nil, fmt.Errorf("create task file dir: %w", err)
	}

	fl := flock.New(s.LockPath())
	lockCtx, cancel := context.WithTimeout(ctx, s.lockTimeout)
	defer cancel()

	locked, err := fl.TryLockContext(lockCtx, lockRetryDelay)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if errors.Is(err, context.DeadlineExceeded) {
			s.logger.Warn("lock timeout", "lock", s.LockPath(), "timeout", s.lockTimeout)
			return nil, fmt.Errorf("%w: %s", ErrLocked, s.LockPath())
		}
		return nil, fmt.Errorf("lock task file: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("%w: %s", ErrLocked, s.LockPath())
	}

	s.logger.Debug("lock acquired", "lock", s.LockPath())
	return func() {
		if err := fl.Unlock(); err != nil {
			s.logger.Warn("unlock failed", "lock", s.LockPath(), "err", err)
		}
	}, nil
}

// ensureFile creates the task file with an empty list if it does not exist.
func (s *Store) ensureFile() error {
	info, err := os.Stat(s.path)
	if err == nil {
		if info.IsDir() {
			return fmt.Errorf("task file %s is a directory", s.path)
		}
		return nil
	}
	if !os.IsNotExist(err) {
		return fmt.Errorf("stat task file: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("create task file dir: %w", err)
	}

	// Readers never see a zero-length file, and a file created by a
	// concurrent run between Stat and here is left alone.
	created, err := createAtomic(s.path, []byte(emptyList))
	if err != nil {
		return err
	}
	if !created {
		return nil
	}

	s.logger.Info("created task file", "path", s.path)
	return nil
}

func (s *Store) decode(data []byte) ([]task.Task, error) {
	if strings.TrimSpace(string(data)) == "" {
		return nil, errors.New("file is empty")
	}

	var doc interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse task file: %w", err)
	}

	schema := s.schema
	if schema == nil {
		var err error
		schema, err = task.DefaultSchema()
		if err != nil {
			return nil, err
		}
	}
	if err := schema.ValidateDocument(doc); err != nil {
		return nil, fmt.Errorf("schema validation failed: %w", err)
	}

	var tasks []task.Task
	if err := json.Unmarshal(data, &tasks); err != nil {
		return nil, fmt.Errorf("parse task file: %w", err)
	}
	if err := task.Validate(tasks); err != nil {
		return nil, err
	}
	if tasks == nil {
		tasks = []task.Task{}
	}
	return tasks, nil
}

// encode renders tasks with 2-space indentation and a trailing newline.
// Characters such as <, > and & are written as-is.
func encode(tasks []task.Task) ([]byte, error) {
	if tasks == nil {
		tasks = []task.Task{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(tasks); err != nil {
		return nil, fmt.Errorf("marshal task file: %w", err)
	}
	return buf.Bytes(), nil
}

// writeAtomic replaces path with data, keeping the permissions of an
// existing file.
func writeAtomic(path string, data []byte) error {
	mode := os.FileMode(0644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}

	tmpPath, err := stageTemp(path, data, mode)
	if err != nil {
		return err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("replace task file: %w", err)
	}
	return nil
}

// createAtomic puts data at path only if nothing exists there yet.
// It reports whether this call created the file.
func createAtomic(path string, data []byte) (bool, error) {
	tmpPath, err := stageTemp(path, data, 0644)
	if err != nil {
		return false, err
	}
	defer os.Remove(tmpPath)

	err = os.Link(tmpPath, path)
	switch {
	case err == nil:
		return true, nil
	case os.IsExist(err):
		return false, nil
	}

	// Hard links are unsupported on some filesystems.
	if _, statErr := os.Stat(path); statErr == nil {
		return false, nil
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return false, fmt.Errorf("create task file: %w", err)
	}
	return true, nil
}

// stageTemp writes data to a synced temp file next to path and returns its name.
func stageTemp(path string, data []byte, mode os.FileMode) (string, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create task file dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	cleanup := func() {
		_ = os.Remove(tmpPath)
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		cleanup()
		return "", fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		cleanup()
		return "", fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return "", fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, mode); err != nil {
		cleanup()
		return "", fmt.Errorf("chmod temp file: %w", err)
	}
	return tmpPath, nil
}
