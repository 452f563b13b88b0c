package core

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/coursetutor/tutor-backend/internal/logger"
	"github.com/coursetutor/tutor-backend/internal/store"
)

const (
	// ContentSentinel prefixes every aggregated context that has usable content.
	ContentSentinel = "CONTENT_AVAILABLE=TRUE"

	documentSeparator = "\n\n---\n\n"
	unnamedDocument   = "Unnamed document"
)

// DocumentReader is the read side of the two document tables.
type DocumentReader interface {
	GetModuleContent(ctx context.Context, moduleID string) ([]store.ModuleContent, error)
	GetProcessedDocuments(ctx context.Context, courseID string) ([]store.ProcessedDocument, error)
}

// ContextDocument is one document that made it into a module context.
type ContextDocument struct {
	Name string
	Text string
}

// ContentAggregator merges a module's documents from both upload tables into
// a single text block for the system prompt.
type ContentAggregator struct {
	docs DocumentReader
	log  *logger.Logger
}

func NewContentAggregator(docs DocumentReader, log *logger.Logger) *ContentAggregator {
	return &ContentAggregator{docs: docs, log: log}
}

// GetModuleContext returns the aggregated context for moduleID. ok is false
// when the module has no document with usable text.
func (a *ContentAggregator) GetModuleContext(ctx context.Context, moduleID string) (string, bool, error) {
	docs, err := a.Documents(ctx, moduleID)
	if err != nil {
		return "", false, err
	}
	if len(docs) == 0 {
		a.log.Debug("No usable documents for module", "module_id", moduleID)
		return "", false, nil
	}

	blocks := make([]string, 0, len(docs))
	for _, d := range docs {
		blocks = append(blocks, fmt.Sprintf("File: %s\nContent:\n%s", d.Name, d.Text))
	}
	a.log.Debug("Aggregated module context", "module_id", moduleID, "documents", len(docs))
	return ContentSentinel + "\n\n" + strings.Join(blocks, documentSeparator), true, nil
}

// Documents reads both tables concurrently and returns the usable documents.
// module_content rows come first and win over processed_documents rows that
// share the same upstream document id. Rows without an id are never merged.
func (a *ContentAggregator) Documents(ctx context.Context, moduleID string) ([]ContextDocument, error) {
	var (
		moduleRows    []store.ModuleContent
		processedRows []store.ProcessedDocument
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rows, err := a.docs.GetModuleContent(gctx, moduleID)
		if err != nil {
			return fmt.Errorf("failed to read module content: %w", err)
		}
		moduleRows = rows
		return nil
	})
	g.Go(func() error {
		rows, err := a.docs.GetProcessedDocuments(gctx, moduleID)
		if err != nil {
			return fmt.Errorf("failed to read processed documents: %w", err)
		}
		processedRows = rows
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var docs []ContextDocument

	for _, row := range moduleRows {
		text := firstNonBlank(row.ProcessedContent, row.ExtractedText)
		if text == "" {
			continue
		}
		if row.DocumentID != nil && *row.DocumentID != "" {
			if seen[*row.DocumentID] {
				continue
			}
			seen[*row.DocumentID] = true
		}
		docs = append(docs, ContextDocument{Name: documentName(row.FileName, nil), Text: text})
	}

	for _, row := range processedRows {
		if strings.TrimSpace(row.ProcessedText) == "" {
			continue
		}
		if row.LLMWhispererID != nil && *row.LLMWhispererID != "" {
			if seen[*row.LLMWhispererID] {
				continue
			}
			seen[*row.LLMWhispererID] = true
		}
		docs = append(docs, ContextDocument{Name: documentName(row.OriginalFilename, row.Title), Text: row.ProcessedText})
	}

	return docs, nil
}

func firstNonBlank(values ...*string) string {
	for _, v := range values {
		if v != nil && strings.TrimSpace(*v) != "" {
			return *v
		}
	}
	return ""
}

func documentName(fileName string, title *string) string {
	if strings.TrimSpace(fileName) != "" {
		return fileName
	}
	if title != nil && strings.TrimSpace(*title) != "" {
		return *title
	}
	return unnamedDocument
}
