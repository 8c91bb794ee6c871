// Package main is a command-line client for the Landlord tenant directory.
//
//	landlord [flags] tenant-id <domain>
//	landlord [flags] tenant-url <tenant id>
//	landlord [flags] ping
//
// The client is configured from LANDLORD_* environment variables (and a .env
// file), Redis from REDIS_*, tracing from LANDLORD_OTEL_*.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
