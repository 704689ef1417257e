package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"ginvault/internal/cli"

	"github.com/joho/godotenv"
)

func main() {
	os.Exit(run())
}

func run() int {
	// .env 可选
	_ = godotenv.Load()

	cfg, args, err := cli.ParseGlobal(os.Args[1:], os.Stderr)
	if err != nil {
		return 2
	}

	app, err := cli.New(cfg, os.Stdin, os.Stdout, os.Stderr)
	if err != nil {
		fmt.Fprintln(os.Stderr, "错误:", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx, args); err != nil {
		if errors.Is(err, cli.ErrUsage) {
			return 2
		}
		fmt.Fprintln(os.Stderr, "错误:", err)
		return 1
	}
	return 0
}
