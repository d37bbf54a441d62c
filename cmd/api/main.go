// Command codeapi serves read-only lookups over reference code tables.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/joho/godotenv/autoload"

	"codeapi/internal/logging"
)

const appName = "codeapi"

// Version information, overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

// @title Code Lookup API
// @BasePath /
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		logging.Default().Error().Err(err).Msg("command failed")
		stop()
		os.Exit(1)
	}
}
