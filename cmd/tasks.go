package cmd

import (
	"context"
	"flag"
	"fmt"
	"strings"

	"github.com/nibzard/taskman/internal/logging"
	"github.com/nibzard/taskman/internal/task"
)

func (a *app) add(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("taskman add", flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	status := fs.String("status", a.cfg.DefaultStatus, "Status for the new task")

	if err := fs.Parse(args); err != nil {
		return err
	}

	desc := strings.TrimSpace(strings.Join(fs.Args(), " "))
	if desc == "" {
		return usageError("add <task>")
	}
	fmt.Fprintf(a.stdout, "Adding task: %s\n", desc)

	var added task.Task
	err := a.store.Update(ctx, func(tasks []task.Task) ([]task.Task, error) {
		var err error
		tasks, added, err = task.Add(tasks, desc, *status)
		return tasks, err
	})
	if err != nil {
		return fmt.Errorf("adding task: %w", err)
	}

	fmt.Fprintf(a.stdout, "Task %d added to the list\n", added.ID)
	a.record(logging.Entry{Command: "add", ID: added.ID, Task: added.Description, Status: added.Status})
	return nil
}

func (a *app) delete(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usageError("delete <id>")
	}
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	fmt.Fprintf(a.stdout, "Deleting task with id: %d\n", id)

	var removed task.Task
	err = a.store.Update(ctx, func(tasks []task.Task) ([]task.Task, error) {
		var err error
		tasks, removed, err = task.Delete(tasks, id)
		return tasks, err
	})
	if err != nil {
		return fmt.Errorf("deleting task: %w", err)
	}

	fmt.Fprintf(a.stdout, "Task %d deleted\n", id)
	a.record(logging.Entry{Command: "delete", ID: id, Task: removed.Description, Status: removed.Status})
	return nil
}

func (a *app) show(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("taskman show", flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	status := fs.String("status", "", "Only show tasks with this status")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() > 0 {
		return fmt.Errorf("unexpected arguments: %v", fs.Args())
	}

	tasks, err := a.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("loading tasks: %w", err)
	}
	if *status != "" {
		tasks = task.FilterByStatus(tasks, *status)
	}

	if len(tasks) == 0 {
		fmt.Fprintln(a.stdout, "No tasks found.")
		return nil
	}
	for _, t := range tasks {
		fmt.Fprintln(a.stdout, t.String())
	}
	return nil
}

func (a *app) update(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return usageError("update <id> <task>")
	}
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	desc := strings.TrimSpace(strings.Join(args[1:], " "))
	if desc == "" {
		return usageError("update <id> <task>")
	}

	err = a.store.Update(ctx, func(tasks []task.Task) ([]task.Task, error) {
		return task.Update(tasks, id, desc)
	})
	if err != nil {
		return fmt.Errorf("updating task: %w", err)
	}

	fmt.Fprintf(a.stdout, "Task %d updated\n", id)
	a.record(logging.Entry{Command: "update", ID: id, Task: desc})
	return nil
}

// progress takes the status first and the id last, so multi-word statuses
// need no quoting: taskman progress in progress 3
func (a *app) progress(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return usageError("progress <status> <id>")
	}
	id, err := parseID(args[len(args)-1])
	if err != nil {
		return err
	}
	status := strings.TrimSpace(strings.Join(args[:len(args)-1], " "))
	if status == "" {
		return usageError("progress <status> <id>")
	}

	err = a.store.Update(ctx, func(tasks []task.Task) ([]task.Task, error) {
		return task.SetStatus(tasks, id, status)
	})
	if err != nil {
		return fmt.Errorf("setting task status: %w", err)
	}

	fmt.Fprintf(a.stdout, "Task %d status set to %s\n", id, status)
	a.record(logging.Entry{Command: "progress", ID: id, Status: status})
	return nil
}
