package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	_ "time/tzdata"

	"github.com/aussiebroadwan/dailydigest/internal/digest/app"
)

const usage = `usage: digest <command> [flags]

commands:
  run [-scheduled]   build and push one digest
  token              acquire a weather provider token and inspect it
  check-config       validate provider settings and reach the API host
  keygen [-kid id]   generate an Ed25519 key pair for the provider console
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	if err := app.LoadDotEnv(); err != nil {
		log.Fatalf("failed to load .env: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd, args := os.Args[1], os.Args[2:]

	var err error
	switch cmd {
	case "run":
		err = runDigest(ctx, args)
	case "token":
		err = runToken(ctx, args, os.Stdout)
	case "check-config":
		err = runCheckConfig(ctx, args, os.Stdout)
	case "keygen":
		err = runKeygen(args, os.Stdout)
	case "help", "-h", "--help":
		fmt.Fprint(os.Stdout, usage)
		return
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", cmd, usage)
		os.Exit(2)
	}

	if err != nil {
		stop()
		log.Fatalf("%s: %v", cmd, err)
	}
}

// loadConfig reads the environment and points logs at stderr so command
// output on stdout stays clean.
func loadConfig(logs io.Writer) app.Config {
	cfg := app.LoadConfig()
	cfg.LogOutput = logs
	return cfg
}
