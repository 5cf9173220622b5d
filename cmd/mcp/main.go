package main

import (
	"context"
	"os"

	"github.com/mark3labs/mcp-go/server"

	mcpadapter "github.com/kirillkom/docclass/internal/adapters/mcp"
	"github.com/kirillkom/docclass/internal/bootstrap"
	"github.com/kirillkom/docclass/internal/config"
	"github.com/kirillkom/docclass/internal/observability/logging"
)

const serviceName = "docclass-mcp"

func main() {
	cfg := config.Load()
	// stdout carries the MCP protocol, so logs go to stderr.
	logger := logging.New(os.Stderr, serviceName, cfg.LogLevel)

	app, err := bootstrap.New(context.Background(), cfg, logger, nil, serviceName)
	if err != nil {
		logger.Error("bootstrap_failed", "error", err)
		os.Exit(1)
	}

	tools := mcpadapter.NewTools(app.ClassifyUC, app.EvaluateUC)
	logger.Info("mcp_stdio_serving", "model_source", app.Model.Source)
	if err := server.ServeStdio(tools.Server()); err != nil {
		logger.Error("mcp_server_failed", "error", err)
		os.Exit(1)
	}
}
