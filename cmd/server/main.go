package main

import (
	"flag"
	"log"
	"log/slog"

	"askpdf/pkg/config"
	"askpdf/pkg/observability"
	"askpdf/server"
)

func main() {
	var configPath string
	var port string

	flag.StringVar(&configPath, "config", "", "Path to config file")
	flag.StringVar(&port, "port", "", "Port to listen on (overrides config)")
	flag.Parse()

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if port != "" {
		cfg.Server.Port = port
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		for _, e := range errs {
			slog.Error("invalid configuration", "field", e.Field, "message", e.Message)
		}
		log.Fatal("configuration is invalid")
	}

	for _, w := range cfg.Warnings() {
		slog.Warn(w)
	}

	// Tracing is configured once here and stays out of the agent logic.
	tracing := observability.FromEnv()
	callback := observability.Init(tracing, slog.Default())
	if callback != nil {
		slog.Info("tracing enabled", "project", tracing.Project, "endpoint", tracing.Endpoint)
	}

	srv := server.New(cfg, callback)
	slog.Info("starting server", "port", cfg.Server.Port, "workspace", cfg.Index.WorkspaceDir)
	if err := srv.Start(); err != nil {
		log.Fatalf("server stopped: %v", err)
	}
}
