package main

import (
	"log"

	"wsecho/config"
	"wsecho/internal/server"
	"wsecho/pkg/logger"
)

func main() {
	cfg := config.LoadConfig()

	mode := logger.DevelopmentMode
	if cfg.AppMode == server.ReleaseMode {
		mode = logger.ProductionMode
	}
	l := logger.New(mode)
	logger.SetGlobalLogger(l)
	defer l.Logger.Sync()

	registry := server.NewRegistry()
	go registry.Run()

	srv := server.New(cfg, registry, l)
	if err := srv.Start(); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
