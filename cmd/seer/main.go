package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/five82/seer/internal/api"
)

func main() {
	os.Exit(run())
}

func run() int {
	// A missing .env is normal; variables already set win over the file.
	_ = godotenv.Load()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	c := newCLI(os.Stdin, os.Stdout, os.Stderr)
	err := c.rootCmd().ExecuteContext(ctx)
	c.close()
	if err != nil {
		reportError(os.Stderr, err)
		return 1
	}
	return 0
}

func reportError(w io.Writer, err error) {
	fmt.Fprintf(w, "seer: %s\n", api.Message(err))
	if api.IsReauthRequired(err) {
		fmt.Fprintln(w, "Your session has expired. Run `seer login` to sign in again.")
	}
}
