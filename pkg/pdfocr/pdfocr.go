// Package pdfocr converts PDF documents into per-page plain text using a
// remote vision model as the OCR engine.
package pdfocr

import (
	"context"
	"time"

	"pdfocr/internal/config"
	"pdfocr/internal/extract"
	"pdfocr/internal/models"
	"pdfocr/internal/output"
	"pdfocr/internal/pipeline"
	"pdfocr/internal/raster"
)

// Re-export result types for the public API.
type (
	Page             = models.Page
	ImageFormat      = models.ImageFormat
	ExtractionResult = models.ExtractionResult
	PageRecord       = models.PageRecord
	OutputDocument   = models.OutputDocument
	Summary          = pipeline.Summary
)

// Image format constants.
const (
	FormatPNG  = models.FormatPNG
	FormatJPEG = models.FormatJPEG
	FormatTIFF = models.FormatTIFF
)

// Config holds options for one OCR run. Zero values fall back to the
// defaults of the command line tool.
type Config struct {
	APIKey  string // required
	BaseURL string // default: OpenRouter
	Model   string // default: google/gemini-2.0-flash-001

	DPI        int         // default 300
	Format     ImageFormat // default png
	IncludeRaw bool

	Concurrency    int           // in-flight extraction calls, default 1
	MaxAttempts    int           // attempts per page for transient failures, default 1
	BackoffBase    time.Duration // retry backoff base, default 1s
	RequestTimeout time.Duration // per-request timeout, default 2m
	RequestsPerSec float64       // optional pacing of extraction calls

	// Logf receives progress lines; nil means the standard logger.
	Logf func(format string, args ...any)
}

func (c Config) withDefaults() Config {
	if c.BaseURL == "" {
		c.BaseURL = config.DefaultBaseURL
	}
	if c.Model == "" {
		c.Model = config.DefaultModel
	}
	if c.DPI == 0 {
		c.DPI = 300
	}
	if c.Format == "" {
		c.Format = FormatPNG
	}
	if c.Concurrency < 1 {
		c.Concurrency = 1
	}
	if c.MaxAttempts < 1 {
		c.MaxAttempts = 1
	}
	return c
}

// Run rasterizes the PDF at pdfPath, extracts text from every page and
// returns the assembled document together with per-page outcome counts.
// Document-level failures (unreadable PDF, rasterization failure,
// cancellation) return an error; per-page extraction failures do not — they
// are marked inside the returned document.
func Run(ctx context.Context, pdfPath string, cfg Config) (OutputDocument, Summary, error) {
	cfg = cfg.withDefaults()

	doc, err := raster.Probe(pdfPath)
	if err != nil {
		return OutputDocument{}, Summary{}, err
	}

	pages, err := raster.Rasterize(ctx, doc, raster.Options{DPI: cfg.DPI, Format: cfg.Format})
	if err != nil {
		return OutputDocument{}, Summary{}, err
	}

	client, err := extract.NewClient(extract.Options{
		APIKey:         cfg.APIKey,
		BaseURL:        cfg.BaseURL,
		Model:          cfg.Model,
		IncludeRaw:     cfg.IncludeRaw,
		MaxAttempts:    cfg.MaxAttempts,
		BackoffBase:    cfg.BackoffBase,
		RequestTimeout: cfg.RequestTimeout,
		RequestsPerSec: cfg.RequestsPerSec,
	})
	if err != nil {
		return OutputDocument{}, Summary{}, err
	}

	results, summary, err := pipeline.Run(ctx, pages, client, pipeline.Options{
		Concurrency: cfg.Concurrency,
		Logf:        cfg.Logf,
	})
	if err != nil {
		return OutputDocument{}, Summary{}, err
	}

	return output.Assemble(results, cfg.IncludeRaw), summary, nil
}

// DefaultOutputPath derives the JSON artifact path for an input PDF:
// <input-stem>_ocr.json beside the input file.
func DefaultOutputPath(inputPath string) string {
	return output.DefaultPath(inputPath)
}

// WriteOutput serializes doc as indented UTF-8 JSON at path.
func WriteOutput(path string, doc OutputDocument) error {
	return output.Write(path, doc)
}
