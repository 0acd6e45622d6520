package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/ermil/internal/console"
)

func main() {

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := console.NewApp(console.LoadConfig())

	if err := app.Run(ctx); err != nil {
		log.Fatalf("%v", err)
	}

}
