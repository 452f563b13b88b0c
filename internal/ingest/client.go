// Package ingest sends uploaded documents to the hosted LLMWhisperer OCR
// service and returns the extracted text.
package ingest

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/coursetutor/tutor-backend/internal/logger"
)

var (
	ErrMissingAPIKey = errors.New("LLM Whisperer API key not configured")
	ErrMissingInput  = errors.New("missing fileData or fileName")
)

// Config holds the OCR client configuration.
type Config struct {
	BaseURL     string
	APIKey      string
	MaxAttempts int
	// BaseDelay is the first backoff wait; each following wait doubles it.
	BaseDelay time.Duration
	Timeout   time.Duration
}

// DefaultConfig returns the default OCR client configuration.
func DefaultConfig() *Config {
	return &Config{
		BaseURL:     "https://llmwhisperer-api.unstract.com/v1",
		MaxAttempts: 3,
		BaseDelay:   time.Second,
		Timeout:     5 * time.Minute,
	}
}

// Options mirrors the knobs the upload flows pass through to the OCR service.
type Options struct {
	OutputMode              string  `json:"outputMode,omitempty"`
	ProcessingMode          string  `json:"processingMode,omitempty"`
	Pages                   string  `json:"pages,omitempty"`
	Timeout                 int     `json:"timeout,omitempty"`
	LineSplitterTolerance   float64 `json:"lineSplitterTolerance,omitempty"`
	HorizontalStretchFactor float64 `json:"horizontalStretchFactor,omitempty"`
	PageSeparator           string  `json:"pageSeparator,omitempty"`
}

type whisperRequest struct {
	FileData                string  `json:"file_data"`
	FileName                string  `json:"file_name"`
	OutputMode              string  `json:"output_mode"`
	ProcessingMode          string  `json:"processing_mode"`
	ForceTextProcessing     bool    `json:"force_text_processing"`
	PagesToExtract          string  `json:"pages_to_extract"`
	Timeout                 int     `json:"timeout"`
	LineSplitterTolerance   float64 `json:"line_splitter_tolerance"`
	HorizontalStretchFactor float64 `json:"horizontal_stretch_factor"`
	MarkVerticalLines       bool    `json:"mark_vertical_lines"`
	MarkHorizontalLines     bool    `json:"mark_horizontal_lines"`
	PageSeparator           string  `json:"page_separator"`
}

func newWhisperRequest(fileData, fileName string, opts Options) whisperRequest {
	req := whisperRequest{
		FileData:                fileData,
		FileName:                fileName,
		OutputMode:              "layout_preserving",
		ProcessingMode:          "ocr",
		ForceTextProcessing:     true,
		PagesToExtract:          "all",
		Timeout:                 200,
		LineSplitterTolerance:   0.4,
		HorizontalStretchFactor: 1.0,
		MarkVerticalLines:       true,
		MarkHorizontalLines:     true,
		PageSeparator:           "\n\n---PAGE_BREAK---\n\n",
	}
	if opts.OutputMode != "" {
		req.OutputMode = opts.OutputMode
	}
	if opts.ProcessingMode != "" {
		req.ProcessingMode = opts.ProcessingMode
	}
	if opts.Pages != "" {
		req.PagesToExtract = opts.Pages
	}
	if opts.Timeout > 0 {
		req.Timeout = opts.Timeout
	}
	if opts.LineSplitterTolerance > 0 {
		req.LineSplitterTolerance = opts.LineSplitterTolerance
	}
	if opts.HorizontalStretchFactor > 0 {
		req.HorizontalStretchFactor = opts.HorizontalStretchFactor
	}
	if opts.PageSeparator != "" {
		req.PageSeparator = opts.PageSeparator
	}
	return req
}

// Result is the extracted text plus provenance of one ingested document.
type Result struct {
	Text       string
	Metadata   map[string]any
	ExternalID string
	// Raw is the upstream response body, passed through untouched by the proxy endpoint.
	Raw json.RawMessage
}

// Client provides OCR functionality against LLMWhisperer.
type Client struct {
	config     *Config
	httpClient *http.Client
	log        *logger.Logger
	sleep      func(ctx context.Context, d time.Duration) error
	now        func() time.Time
}

// NewClient creates a new OCR client. A nil config uses DefaultConfig.
func NewClient(config *Config, log *logger.Logger) *Client {
	if config == nil {
		config = DefaultConfig()
	}
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = 3
	}
	if config.BaseDelay <= 0 {
		config.BaseDelay = time.Second
	}
	if config.Timeout <= 0 {
		config.Timeout = 5 * time.Minute
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Client{
		config:     config,
		httpClient: &http.Client{Timeout: config.Timeout},
		log:        log,
		sleep:      sleepContext,
		now:        time.Now,
	}
}

// Configured reports whether an API key is available.
func (c *Client) Configured() bool {
	return strings.TrimSpace(c.config.APIKey) != ""
}

// Ingest base64 encodes data and extracts its text through the OCR service.
func (c *Client) Ingest(ctx context.Context, data []byte, fileName string, opts Options) (*Result, error) {
	if len(data) == 0 {
		return nil, ErrMissingInput
	}
	return c.IngestEncoded(ctx, base64.StdEncoding.EncodeToString(data), fileName, opts)
}

// IngestEncoded is Ingest for callers that already hold the base64 payload.
func (c *Client) IngestEncoded(ctx context.Context, fileData, fileName string, opts Options) (*Result, error) {
	if !c.Configured() {
		return nil, ErrMissingAPIKey
	}
	if fileData == "" || strings.TrimSpace(fileName) == "" {
		return nil, ErrMissingInput
	}

	body, err := json.Marshal(newWhisperRequest(fileData, fileName, opts))
	if err != nil {
		return nil, fmt.Errorf("failed to encode whisper request: %w", err)
	}

	var lastErr error
	attempts := 0
	for attempt := 1; attempt <= c.config.MaxAttempts; attempt++ {
		raw, err := c.post(ctx, body)
		if err == nil {
			var result *Result
			if result, err = c.parseResult(raw); err == nil {
				c.log.Info("Document ingested", "file", fileName, "attempt", attempt, "chars", len(result.Text))
				return result, nil
			}
		}
		lastErr = err
		attempts = attempt

		if !IsRetriable(err) {
			c.log.Warn("Document ingestion failed, not retriable", "file", fileName, "attempt", attempt, "error", err)
			break
		}
		if attempt < c.config.MaxAttempts {
			wait := c.backoff(attempt)
			c.log.Warn("Document ingestion failed, retrying", "file", fileName, "attempt", attempt, "wait", wait, "error", err)
			if err := c.sleep(ctx, wait); err != nil {
				return nil, &IngestionError{Attempts: attempt, Err: err}
			}
		}
	}
	return nil, &IngestionError{Attempts: attempts, Err: lastErr}
}

// backoff returns the wait after the given failed attempt: 1s, 2s, 4s, ...
func (c *Client) backoff(attempt int) time.Duration {
	return c.config.BaseDelay << (attempt - 1)
}

func (c *Client) post(ctx context.Context, body []byte) ([]byte, error) {
	url := strings.TrimRight(c.config.BaseURL, "/") + "/whisper"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, &UpstreamError{Message: err.Error(), Retriable: false}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.config.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, &UpstreamError{Message: ctx.Err().Error(), Retriable: false}
		}
		return nil, &UpstreamError{Message: err.Error(), Retriable: true}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &UpstreamError{StatusCode: resp.StatusCode, Message: "failed to read response: " + err.Error(), Retriable: true}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, newUpstreamError(resp.StatusCode, raw)
	}
	return raw, nil
}

func (c *Client) parseResult(raw []byte) (*Result, error) {
	var payload struct {
		Text          string         `json:"text"`
		ExtractedText string         `json:"extracted_text"`
		Metadata      map[string]any `json:"metadata"`
		DocumentID    string         `json:"document_id"`
		ID            string         `json:"id"`
		WhisperHash   string         `json:"whisper_hash"`
		Error         string         `json:"error"`
		Retriable     *bool          `json:"retriable"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, &UpstreamError{StatusCode: http.StatusOK, Message: "invalid JSON from OCR service", Details: truncate(string(raw), 500)}
	}
	if payload.Error != "" {
		retriable := payload.Retriable == nil || *payload.Retriable
		return nil, &UpstreamError{StatusCode: http.StatusOK, Message: payload.Error, Retriable: retriable}
	}

	result := &Result{
		Text:     payload.Text,
		Metadata: payload.Metadata,
		Raw:      json.RawMessage(raw),
	}
	if result.Text == "" {
		result.Text = payload.ExtractedText
	}
	if result.Metadata == nil {
		result.Metadata = map[string]any{}
	}
	switch {
	case payload.DocumentID != "":
		result.ExternalID = payload.DocumentID
	case payload.ID != "":
		result.ExternalID = payload.ID
	case payload.WhisperHash != "":
		result.ExternalID = payload.WhisperHash
	default:
		result.ExternalID = fmt.Sprintf("llm-%d", c.now().UnixMilli())
	}
	return result, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
