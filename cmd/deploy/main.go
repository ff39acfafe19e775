// cmd/deploy/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os/signal"
	"syscall"

	"github.com/semmidev/telos/internal/app"
	"github.com/semmidev/telos/internal/config"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Error: %v\n", err)
	}
}

func run() error {
	configPath := flag.String("config", "configs/deploy.yaml", "path to config file")
	gdriveAuth := flag.String("gdrive-auth", "", "run the Google Drive OAuth helper on this address instead of deploying")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	application, err := app.New(cfg)
	if err != nil {
		return fmt.Errorf("initialize app: %w", err)
	}
	defer application.Shutdown()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if *gdriveAuth != "" {
		return application.RunGDriveAuth(ctx, *gdriveAuth)
	}

	return application.Run(ctx)
}
