package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/DevN0mad/TodoProgress/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	r := cli.Runner{
		Variant: cli.VariantExport,
		Stdout:  os.Stdout,
		Stderr:  os.Stderr,
	}
	code := r.Run(ctx, os.Args)

	stop()
	os.Exit(code)
}
