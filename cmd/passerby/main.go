package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	// Prayer times are shown in the city's zone, which may be missing from
	// minimal systems.
	_ "time/tzdata"

	"github.com/smokyabdulrahman/passerby/internal/apperr"
	"github.com/smokyabdulrahman/passerby/internal/cli"
)

// version is set at build time via ldflags:
//
//	go build -ldflags "-X main.version=v1.0.0"
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd := cli.NewRootCmd(version)
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", apperr.Message(err))
		stop()
		os.Exit(1)
	}
}
