// Command bankctl is the operator CLI for the currency bank: it inspects and
// applies interest rule files and runs /bank command lines for a player.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := newRootCmd().ExecuteContext(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "bankctl: %v\n", err)
		//nolint:gocritic
		os.Exit(1)
	}
}
