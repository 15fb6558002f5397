package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2/log"
	"github.com/sahilchouksey/elearning-api/app"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.SetupAndRunServer(ctx); err != nil {
		log.Error(err)
		stop()
		os.Exit(1)
	}
}
