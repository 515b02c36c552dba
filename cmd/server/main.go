package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"

	"github.com/Anisirbiladze/makeupai-media-analysis/internal/config"
	"github.com/Anisirbiladze/makeupai-media-analysis/internal/httpapi"
	"github.com/Anisirbiladze/makeupai-media-analysis/internal/langdetect"
	"github.com/Anisirbiladze/makeupai-media-analysis/internal/logging"
	"github.com/Anisirbiladze/makeupai-media-analysis/internal/media"
	"github.com/Anisirbiladze/makeupai-media-analysis/internal/providers"
	"github.com/Anisirbiladze/makeupai-media-analysis/internal/resolver"
	"github.com/Anisirbiladze/makeupai-media-analysis/internal/scratch"
	"github.com/Anisirbiladze/makeupai-media-analysis/internal/server"
	"github.com/Anisirbiladze/makeupai-media-analysis/internal/service"
)

func main() {
	if err := config.LoadEnvFile(".env"); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load .env: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.Logging, os.Stdout)
	if cfg.OpenAI.APIKey == "" {
		logger.Warn("OPENAI_API_KEY is not set; every transcription will fail")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	scratchDir, err := scratch.New(cfg.Scratch.Dir, logger)
	if err != nil {
		logger.Error("failed to prepare scratch directory", slog.Any("error", err))
		os.Exit(1)
	}
	if _, err := scratchDir.Sweep(ctx, cfg.Scratch.MaxAge); err != nil {
		logger.Warn("startup scratch sweep failed", slog.Any("error", err))
	}
	go scratchDir.RunSweeper(ctx, cfg.Scratch.SweepInterval, cfg.Scratch.MaxAge)

	// No client timeouts: a slow download or transcription is bounded only by
	// the network stack and the caller hanging up. The resolver and the
	// downloader share one cookie jar so scraped media URLs stay fetchable.
	sessionClient := resolver.NewSessionClient()

	var linkResolver resolver.Resolver = resolver.Passthrough{}
	if cfg.Resolver.Enabled {
		linkResolver = resolver.NewTikTok(sessionClient, cfg.Resolver.APIURL, cfg.Resolver.UserAgent, logger)
	}
	fetcher := media.NewHTTPFetcher(sessionClient, scratchDir, cfg.Resolver.UserAgent, logger)
	transcriber := providers.NewOpenAITranscriber(cfg.OpenAI, &http.Client{}, logger)
	detector := langdetect.New(cfg.Language.Enabled)

	analysis := service.NewAnalysisService(linkResolver, fetcher, transcriber, scratchDir, detector, logger)

	if cfg.Logging.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	handler := httpapi.NewRouter(analysis, logger)
	srv := server.New(cfg, handler, logger)

	logger.Info("configuration loaded",
		slog.String("scratch_dir", scratchDir.Path()),
		slog.String("model", cfg.OpenAI.Model),
		slog.Bool("tiktok_resolution", cfg.Resolver.Enabled),
		slog.Bool("resolver_api", cfg.Resolver.APIURL != ""),
		slog.Bool("language_detection", detector.Enabled()))

	if err := srv.Run(ctx); err != nil {
		logger.Error("server stopped with error", slog.Any("error", err))
		os.Exit(1)
	}
}
