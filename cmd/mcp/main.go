package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/akolanti/DocAssist/internal/app"
	"github.com/akolanti/DocAssist/internal/config"
	"github.com/akolanti/DocAssist/internal/mcpserver"
	"github.com/akolanti/DocAssist/pkg/logger_i"
)

var version = "dev"

func main() {
	var configPath, userId string
	flag.StringVar(&configPath, "config", "config.yaml", "path to the optional YAML config file")
	flag.StringVar(&userId, "user", os.Getenv("DOCASSIST_USER_ID"), "user whose documents and sessions the tools use")
	flag.Parse()

	settings, err := config.Load(configPath)
	if err != nil {
		logger_i.NewLogger("mcp-main").Error("Invalid configuration", "err", err)
		os.Exit(1)
	}
	// stdout carries the protocol
	settings.Production = true
	logger_i.InitTo(os.Stderr, settings)
	logger := logger_i.NewLogger("mcp-main")

	if userId == "" {
		logger.Error("A user id is required (-user or DOCASSIST_USER_ID)")
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	deps, err := app.Build(ctx, settings)
	if err != nil {
		logger.Error("Failed to initialize services", "err", err)
		os.Exit(1)
	}
	defer deps.Close()

	if err := mcpserver.New(deps.Rag, deps.Registry, userId, version).Run(ctx); err != nil && ctx.Err() == nil {
		logger.Error("MCP server stopped", "err", err)
	}
}
