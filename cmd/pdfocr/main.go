package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"pdfocr/internal/config"
	"pdfocr/pkg/pdfocr"
)

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(2)
		}
		log.Fatalf("%v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	doc, summary, err := pdfocr.Run(ctx, cfg.InputPath, pdfocr.Config{
		APIKey:         cfg.APIKey,
		BaseURL:        cfg.BaseURL,
		Model:          cfg.Model,
		DPI:            cfg.DPI,
		Format:         cfg.Format,
		IncludeRaw:     cfg.IncludeRaw,
		Concurrency:    cfg.Concurrency,
		MaxAttempts:    cfg.MaxAttempts,
		BackoffBase:    cfg.BackoffBase,
		RequestTimeout: cfg.RequestTimeout,
		RequestsPerSec: cfg.RequestsPerSec,
	})
	if err != nil {
		// Document-level failure or cancellation: no output file is written.
		log.Fatalf("process %s: %v", cfg.InputPath, err)
	}

	outputPath := cfg.OutputPath
	if outputPath == "" {
		outputPath = pdfocr.DefaultOutputPath(cfg.InputPath)
	}
	if err := pdfocr.WriteOutput(outputPath, doc); err != nil {
		log.Fatalf("%v", err)
	}

	log.Printf("ocr results written to %s (%d pages, %d succeeded, %d failed)",
		outputPath, summary.Pages, summary.Succeeded, summary.Failed)
	if summary.Failed > 0 {
		log.Printf("hint: for failed pages, try a higher -dpi (e.g. 600) or a different -format")
	}
}
