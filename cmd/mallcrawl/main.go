// cmd/mallcrawl/main.go
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/law-makers/mallcrawl/internal/cli"
)

func main() {
	// Interrupts cancel the command context; the crawler stops admitting
	// pages and returns what it has.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := cli.Execute(ctx)
	stop()
	os.Exit(code)
}
