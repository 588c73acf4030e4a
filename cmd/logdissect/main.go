// Package main provides the logdissect command.
//
// logdissect reads a YAML parser description and either explains the plan
// it produces or dissects lines from stdin into one JSON object per line.
//
// Commands:
//   - init: write a starter parser description
//   - plan: print the execution plan for the requested fields
//   - paths: list every field the configured dissectors can reach
//   - dissectors: describe the configured dissectors
//   - run: dissect stdin
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}
