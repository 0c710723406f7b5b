package task

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// DefaultStatus is the status assigned to newly added tasks.
const DefaultStatus = "not yet started"

var (
	// ErrNotFound is returned when no task has the requested id.
	ErrNotFound = errors.New("task not found")
	// ErrEmptyDescription is returned when adding or updating a task with blank text.
	ErrEmptyDescription = errors.New("task description is empty")
	// ErrEmptyStatus is returned when setting a blank status.
	ErrEmptyStatus = errors.New("task status is empty")
)

// Task represents a single task in the list.
type Task struct {
	ID          int    `json:"id"`
	Description string `json:"task"`
	Status      string `json:"status"`
}

// String formats the task the way the show command prints it.
func (t Task) String() string {
	return fmt.Sprintf("Task ID: %d, Task: %s, Status: %s", t.ID, t.Description, t.Status)
}

// NotFoundError reports a lookup for an id that is not in the list.
type NotFoundError struct {
	ID int
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("task %d not found", e.ID)
}

// Unwrap returns ErrNotFound.
func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

// ValidationError represents a validation error with context.
type ValidationError struct {
	Path string // JSON path to the error location
	Err  error  // Underlying error
}

func (e *ValidationError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s", e.Path, e.Err)
	}
	return e.Err.Error()
}

// Unwrap returns the underlying error.
func (e *ValidationError) Unwrap() error {
	return e.Err
}

// NextID returns the id for the next task: one past the largest id in use.
func NextID(tasks []Task) int {
	maxID := 0
	for _, t := range tasks {
		if t.ID > maxID {
			maxID = t.ID
		}
	}
	return maxID + 1
}

// Find returns a pointer into tasks for the given id.
func Find(tasks []Task, id int) (*Task, bool) {
	for i := range tasks {
		if tasks[i].ID == id {
			return &tasks[i], true
		}
	}
	return nil, false
}

// Add appends a new task and returns the grown list and the new task.
// An empty status falls back to DefaultStatus.
func Add(tasks []Task, description, status string) ([]Task, Task, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return tasks, Task{}, ErrEmptyDescription
	}
	status = strings.TrimSpace(status)
	if status == "" {
		status = DefaultStatus
	}

	t := Task{
		ID:          NextID(tasks),
		Description: description,
		Status:      status,
	}
	return append(tasks, t), t, nil
}

// Delete removes the task with the given id, keeping the order of the rest.
func Delete(tasks []Task, id int) ([]Task, Task, error) {
	for i := range tasks {
		if tasks[i].ID != id {
			continue
		}
		removed := tasks[i]
		out := make([]Task, 0, len(tasks)-1)
		out = append(out, tasks[:i]...)
		out = append(out, tasks[i+1:]...)
		return out, removed, nil
	}
	return tasks, Task{}, &NotFoundError{ID: id}
}

// Update replaces the description of the task with the given id.
func Update(tasks []Task, id int, description string) ([]Task, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return tasks, ErrEmptyDescription
	}
	t, ok := Find(tasks, id)
	if !ok {
		return tasks, &NotFoundError{ID: id}
	}
	t.Description = description
	return tasks, nil
}

// SetStatus replaces the status of the task with the given id.
func SetStatus(tasks []Task, id int, status string) ([]Task, error) {
	status = strings.TrimSpace(status)
	if status == "" {
		return tasks, ErrEmptyStatus
	}
	t, ok := Find(tasks, id)
	if !ok {
		return tasks, &NotFoundError{ID: id}
	}
	t.Status = status
	return tasks, nil
}

// FilterByStatus returns the tasks whose status matches, ignoring case.
func FilterByStatus(tasks []Task, status string) []Task {
	var matching []Task
	for _, t := range tasks {
		if strings.EqualFold(t.Status, status) {
			matching = append(matching, t)
		}
	}
	return matching
}

// CountByStatus returns the number of tasks per status, and the statuses
// sorted by name.
func CountByStatus(tasks []Task) (map[string]int, []string) {
	counts := make(map[string]int)
	for _, t := range tasks {
		counts[t.Status]++
	}
	statuses := make([]string, 0, len(counts))
	for s := range counts {
		statuses = append(statuses, s)
	}
	sort.Strings(statuses)
	return counts, statuses
}

// Validate checks that every id is positive and unique.
// All problems are joined into the returned error.
func Validate(tasks []Task) error {
	var errs []error
	seen := make(map[int]int, len(tasks))
	for i, t := range tasks {
		path := fmt.Sprintf("[%d].id", i)
		if t.ID < 1 {
			errs = append(errs, &ValidationError{
				Path: path,
				Err:  fmt.Errorf("must be a positive integer, got %d", t.ID),
			})
			continue
		}
		if first, dup := seen[t.ID]; dup {
			errs = append(errs, &ValidationError{
				Path: path,
				Err:  fmt.Errorf("duplicate id %d (first at [%d])", t.ID, first),
			})
			continue
		}
		seen[t.ID] = i
	}
	return errors.Join(errs...)
}
