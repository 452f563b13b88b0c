package main

import (
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/coursetutor/tutor-backend/internal/config"
	"github.com/coursetutor/tutor-backend/internal/core"
)

var (
	ingestOwnerEmail string
	ingestTarget     string
	ingestRate       time.Duration
)

// ingestCmd bulk uploads local files into a module through the same pipeline as the upload endpoint.
var ingestCmd = &cobra.Command{
	Use:   "ingest <module-id> <file>...",
	Short: "Extract and store course documents for a module",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		cfg := config.AppConfig

		log, err := newLogger()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		defer log.Sync()

		dbStore, err := openStore()
		if err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		defer dbStore.Close()

		owner, err := dbStore.GetUserByEmail(ctx, ingestOwnerEmail)
		if err != nil {
			return err
		}
		if owner == nil {
			return fmt.Errorf("no user with email %q", ingestOwnerEmail)
		}

		var metadata core.MetadataGenerator
		if cfg.GeminiAPIKey != "" {
			llmService, err := core.NewLLMService(ctx, cfg.GeminiAPIKey, cfg.MetadataModel, log)
			if err != nil {
				return err
			}
			defer llmService.Close()
			metadata = llmService
		}

		ocrClient := newOCRClient(cfg, log)
		if !ocrClient.Configured() {
			return fmt.Errorf("UNSTRACT_API_KEY must be set to ingest documents")
		}
		courses := core.NewCourseService(dbStore, ocrClient, metadata, log)

		moduleID, files := args[0], args[1:]
		limiter := rate.NewLimiter(rate.Every(ingestRate), 1)
		failed := 0
		for _, path := range files {
			if err := limiter.Wait(ctx); err != nil {
				return err
			}
			data, err := os.ReadFile(path)
			if err != nil {
				log.Error("Failed to read file", "file", path, "error", err)
				failed++
				continue
			}
			input := core.UploadInput{
				FileName: filepath.Base(path),
				FileType: mime.TypeByExtension(filepath.Ext(path)),
				Data:     data,
				Target:   ingestTarget,
			}
			result, err := courses.UploadDocument(ctx, owner, moduleID, input)
			if err != nil {
				log.Error("Failed to ingest document", "file", path, "error", err)
				failed++
				continue
			}
			log.Info("Ingested document", "file", path, "title", result.Metadata.Title)
		}

		if failed > 0 {
			return fmt.Errorf("%d of %d documents failed", failed, len(files))
		}
		return nil
	},
}

func init() {
	ingestCmd.Flags().StringVar(&ingestOwnerEmail, "owner", "", "email of the user the documents are uploaded as (required)")
	ingestCmd.Flags().StringVar(&ingestTarget, "target", core.TargetModuleContent, "document table: module or course")
	ingestCmd.Flags().DurationVar(&ingestRate, "interval", 2*time.Second, "minimum time between OCR requests")
	_ = ingestCmd.MarkFlagRequired("owner")
}
