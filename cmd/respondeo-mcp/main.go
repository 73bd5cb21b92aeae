package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/ternarybob/arbor"
	arbor_models "github.com/ternarybob/arbor/models"
	"github.com/ternarybob/respondeo/internal/app"
	"github.com/ternarybob/respondeo/internal/common"
)

func main() {
	configPath := os.Getenv("RESPONDEO_CONFIG")
	if configPath == "" {
		configPath = "respondeo.toml"
	}

	config, err := common.LoadFromFiles(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Console-only warn logging keeps MCP stdio clean
	logger := arbor.NewLogger().WithConsoleWriter(arbor_models.WriterConfiguration{
		Type:             arbor_models.LogWriterTypeConsole,
		TimeFormat:       "15:04:05",
		DisableTimestamp: false,
	}).WithLevelFromString("warn")

	application, err := app.New(config, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize application")
	}
	defer application.Close()

	startupCtx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	if err := application.Startup(startupCtx); err != nil {
		cancel()
		logger.Fatal().Err(err).Msg("Application startup failed")
	}
	cancel()

	mcpServer := server.NewMCPServer(
		"respondeo",
		common.GetVersion(),
		server.WithToolCapabilities(true),
	)

	mcpServer.AddTool(createRetrieveChunksTool(), handleRetrieveChunks(application.RetrievalService, logger))
	mcpServer.AddTool(createGenerateAnswerTool(), handleGenerateAnswer(application.RetrievalService, logger))

	if err := server.ServeStdio(mcpServer); err != nil {
		logger.Fatal().Err(err).Msg("MCP server failed")
	}
}
