package core

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coursetutor/tutor-backend/internal/logger"
	"github.com/coursetutor/tutor-backend/internal/store"
)

type stubDocuments struct {
	moduleRows    []store.ModuleContent
	processedRows []store.ProcessedDocument
	err           error
}

func (s *stubDocuments) GetModuleContent(context.Context, string) ([]store.ModuleContent, error) {
	return s.moduleRows, s.err
}

func (s *stubDocuments) GetProcessedDocuments(context.Context, string) ([]store.ProcessedDocument, error) {
	return s.processedRows, nil
}

func TestGetModuleContextPrefersProcessedContent(t *testing.T) {
	docs := &stubDocuments{moduleRows: []store.ModuleContent{
		{FileName: "intro.pdf", ProcessedContent: strPtr("Intro to X"), ExtractedText: strPtr("raw OCR")},
	}}
	agg := NewContentAggregator(docs, logger.Nop())

	text, ok, err := agg.GetModuleContext(context.Background(), "m1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, ContentSentinel+"\n\nFile: intro.pdf\nContent:\nIntro to X", text)
}

func TestGetModuleContextFallsBackToExtractedText(t *testing.T) {
	docs := &stubDocuments{moduleRows: []store.ModuleContent{
		{FileName: "notes.txt", ProcessedContent: nil, ExtractedText: strPtr("Intro to X")},
	}}
	text, ok, err := NewContentAggregator(docs, logger.Nop()).GetModuleContext(context.Background(), "m1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Contains(t, text, "Content:\nIntro to X")
}

func TestGetModuleContextDeduplicatesByDocumentID(t *testing.T) {
	docs := &stubDocuments{
		moduleRows: []store.ModuleContent{
			{FileName: "intro.pdf", DocumentID: strPtr("doc-1"), ProcessedContent: strPtr("Intro to X")},
		},
		processedRows: []store.ProcessedDocument{
			{OriginalFilename: "intro.pdf", LLMWhispererID: strPtr("doc-1"), ProcessedText: "Intro to X"},
			{OriginalFilename: "week2.pdf", LLMWhispererID: strPtr("doc-2"), ProcessedText: "Week two"},
		},
	}
	text, ok, err := NewContentAggregator(docs, logger.Nop()).GetModuleContext(context.Background(), "m1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1, strings.Count(text, "Intro to X"))
	assert.Equal(t, 1, strings.Count(text, documentSeparator))
	assert.True(t, strings.HasSuffix(text, "File: week2.pdf\nContent:\nWeek two"))
}

func TestGetModuleContextKeepsRowsWithoutDocumentID(t *testing.T) {
	docs := &stubDocuments{
		moduleRows:    []store.ModuleContent{{FileName: "a.pdf", ProcessedContent: strPtr("same")}},
		processedRows: []store.ProcessedDocument{{OriginalFilename: "a.pdf", ProcessedText: "same"}},
	}
	text, _, err := NewContentAggregator(docs, logger.Nop()).GetModuleContext(context.Background(), "m1")
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(text, "File: a.pdf"))
}

func TestGetModuleContextNamesDocuments(t *testing.T) {
	docs := &stubDocuments{processedRows: []store.ProcessedDocument{
		{Title: strPtr("Week 3 Slides"), ProcessedText: "slides"},
		{ProcessedText: "anonymous"},
	}}
	text, _, err := NewContentAggregator(docs, logger.Nop()).GetModuleContext(context.Background(), "m1")
	require.NoError(t, err)
	assert.Contains(t, text, "File: Week 3 Slides\n")
	assert.Contains(t, text, "File: "+unnamedDocument+"\n")
}

func TestGetModuleContextWithoutUsableContent(t *testing.T) {
	docs := &stubDocuments{
		moduleRows:    []store.ModuleContent{{FileName: "empty.pdf", ProcessedContent: nil, ExtractedText: nil}},
		processedRows: []store.ProcessedDocument{{OriginalFilename: "blank.pdf", ProcessedText: "   "}},
	}
	text, ok, err := NewContentAggregator(docs, logger.Nop()).GetModuleContext(context.Background(), "m1")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, text)
}

func TestGetModuleContextPropagatesReadErrors(t *testing.T) {
	docs := &stubDocuments{err: errors.New("db down")}
	_, ok, err := NewContentAggregator(docs, logger.Nop()).GetModuleContext(context.Background(), "m1")
	assert.Error(t, err)
	assert.False(t, ok)
}

func TestGetModuleContextReadsBothTablesFromStore(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	user := newTestUser(t, s, "instructor@example.com", false)
	module := &store.Module{UserID: user.ID, Name: "Network Security"}
	require.NoError(t, s.CreateModule(ctx, module))

	require.NoError(t, s.CreateModuleContent(ctx, &store.ModuleContent{
		ModuleID: module.ID, UserID: user.ID, DocumentID: strPtr("doc-1"), FileName: "intro.pdf",
		FileType: "application/pdf", ProcessedContent: strPtr("Intro to X"),
	}))
	require.NoError(t, s.CreateProcessedDocument(ctx, &store.ProcessedDocument{
		CourseID: module.ID, UserID: user.ID, LLMWhispererID: strPtr("doc-1"), OriginalFilename: "intro.pdf", ProcessedText: "Intro to X",
	}))

	text, ok, err := NewContentAggregator(s, logger.Nop()).GetModuleContext(ctx, module.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1, strings.Count(text, "Intro to X"))
}
