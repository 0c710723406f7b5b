// Command taskman is a command-line task list manager.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/nibzard/taskman/cmd"
)

func main() {
	os.Exit(realMain(os.Args[1:], os.Stderr))
}

// realMain runs the CLI and returns the process exit code.
func realMain(args []string, stderr io.Writer) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := cmd.Run(ctx, args)
	switch {
	case err == nil:
		return 0
	case ctx.Err() != nil:
		fmt.Fprintln(stderr, "\nInterrupted")
		return 130
	default:
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
}
