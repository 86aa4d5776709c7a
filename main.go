package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"foa-chat/config"
	"foa-chat/database"
	"foa-chat/llmclient"
	"foa-chat/resolver"
	"foa-chat/web"

	"go.uber.org/zap"
)

func main() {
	seedPath := flag.String("seed", "", "load question/answer pairs from a YAML file into the store and exit")
	flag.Parse()

	ctx := context.Background()

	// Initialize logger with default level to load config
	tempLogger, err := config.InitLogger("info")
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	// Load config (which includes log level setting)
	cfg := config.Load(tempLogger)

	// Re-initialize logger with configured level
	logger, err := config.InitLogger(cfg.LogLevel)
	if err != nil {
		fmt.Printf("Failed to re-initialize logger with configured level: %v\n", err)
		os.Exit(1)
	}
	defer config.Cleanup()

	store, err := database.Open(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to open knowledge store", zap.String("driver", cfg.StoreDriver), zap.Error(err))
	}
	defer store.Close()

	if *seedPath != "" {
		code := runSeed(ctx, store, *seedPath, logger)
		store.Close()
		config.Cleanup()
		os.Exit(code)
	}

	oracle := llmclient.New(cfg, logger)
	chatResolver := resolver.New(store, oracle, logger,
		resolver.WithCutoff(cfg.MatchCutoff),
		resolver.WithOracleTimeout(cfg.OracleTimeout))

	webServer, err := web.NewServer(chatResolver, store, logger, cfg)
	if err != nil {
		logger.Fatal("Failed to initialize web server", zap.Error(err))
	}

	// Create context that listens for interrupt signals
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Start web server
	port := fmt.Sprintf(":%d", cfg.WebPort)
	logger.Info("Starting FOA chat server", zap.String("port", port))
	if err := webServer.Start(ctx, port); err != nil {
		logger.Error("Web server error", zap.Error(err))
		os.Exit(1)
	}
}

func runSeed(ctx context.Context, store database.Store, path string, logger *zap.Logger) int {
	entries, err := database.LoadSeedFile(path)
	if err != nil {
		logger.Error("Failed to read seed file", zap.String("path", path), zap.Error(err))
		return 1
	}
	n, err := database.Seed(ctx, store, entries)
	if err != nil {
		logger.Error("Seeding stopped", zap.Int("inserted", n), zap.Error(err))
		return 1
	}
	logger.Info("Seeded knowledge base", zap.String("path", path), zap.Int("inserted", n))
	return 0
}
