package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"candlecore/config"
	"candlecore/internal/logger"
	"candlecore/internal/service"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("[candlecore] config: %v", err)
	}

	slogger := logger.Init("candlecore", logger.ParseLevel(cfg.LogLevel))

	svc, err := service.New(cfg, slogger)
	if err != nil {
		log.Fatalf("[candlecore] init failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	if err := svc.Run(ctx); err != nil {
		log.Fatalf("[candlecore] fatal: %v", err)
	}
}
