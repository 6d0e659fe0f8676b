// cmd/cavework/main.go
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/cavework/cavework/cmd/cavework/commands"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := commands.Execute(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
