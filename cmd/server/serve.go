package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/coursetutor/tutor-backend/internal/api"
	"github.com/coursetutor/tutor-backend/internal/config"
	"github.com/coursetutor/tutor-backend/internal/core"
	"github.com/coursetutor/tutor-backend/internal/ingest"
	"github.com/coursetutor/tutor-backend/internal/logger"
	"github.com/coursetutor/tutor-backend/internal/notify"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

func runServe(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg := config.AppConfig

	log, err := newLogger()
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer log.Sync()
	log.Debug("Service starting in DEBUG mode")

	// Initialize database store
	dbStore, err := openStore()
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer dbStore.Close()

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	hub := notify.NewHub()
	var publisher notify.Publisher = hub
	if cfg.RedisURL != "" {
		redisClient, err := notify.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			return err
		}
		defer redisClient.Close()
		bridge := notify.NewRedisBridge(redisClient, hub, log)
		publisher = bridge
		go func() {
			if err := bridge.Run(ctx); err != nil {
				log.Error("Active module bridge stopped", "error", err)
			}
		}()
	}

	// Gemini is optional: without a key metadata and titles fall back to local heuristics.
	var (
		metadata core.MetadataGenerator
		titles   core.TitleGenerator
	)
	if cfg.GeminiAPIKey != "" {
		llmService, err := core.NewLLMService(ctx, cfg.GeminiAPIKey, cfg.MetadataModel, log)
		if err != nil {
			return err
		}
		defer llmService.Close()
		metadata, titles = llmService, llmService
	} else {
		log.Warn("GEMINI_API_KEY not set, document metadata and conversation titles use fallbacks")
	}

	ocrClient := newOCRClient(cfg, log)
	if !ocrClient.Configured() {
		log.Warn("UNSTRACT_API_KEY not set, document uploads will be rejected")
	}

	completer := core.NewOpenAICompleter(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.ChatModel)
	settingsService := core.NewSettingsService(dbStore, publisher, log)
	aggregator := core.NewContentAggregator(dbStore, log)
	chatService := core.NewChatService(dbStore, aggregator, settingsService, completer, titles, cfg.HistoryLimit, log)
	courseService := core.NewCourseService(dbStore, ocrClient, metadata, log)
	userService := core.NewUserService(dbStore, log)

	// Initialize API Handler and Router
	apiHandler := api.NewAPIHandler(userService, chatService, courseService, settingsService, ocrClient, hub, log)
	router := api.NewRouter(apiHandler, cfg.AllowedOrigins)

	serverAddr := fmt.Sprintf(":%s", cfg.HTTPPort)
	srv := &http.Server{
		Addr:         serverAddr,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 6 * time.Minute, // OCR retries and LLM calls can take time
		IdleTimeout:  120 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info("Starting server", "addr", serverAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		return fmt.Errorf("could not listen on %s: %w", serverAddr, err)
	case <-ctx.Done():
	}
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	chatService.Wait()

	log.Info("Server exiting gracefully")
	return nil
}

func newOCRClient(cfg config.Config, log *logger.Logger) *ingest.Client {
	ocrConfig := ingest.DefaultConfig()
	ocrConfig.APIKey = cfg.OCRAPIKey
	if cfg.OCRBaseURL != "" {
		ocrConfig.BaseURL = cfg.OCRBaseURL
	}
	return ingest.NewClient(ocrConfig, log)
}
