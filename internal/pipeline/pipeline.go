package pipeline

import (
	"context"
	"log"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"pdfocr/internal/models"
)

// Extractor is the one operation the pipeline needs from the remote client.
type Extractor interface {
	ExtractPage(ctx context.Context, page models.Page) models.ExtractionResult
}

// Options configure a pipeline run.
type Options struct {
	// Concurrency bounds the number of in-flight extraction calls.
	// 1 means strictly sequential processing.
	Concurrency int

	// Logf receives per-page progress and the run summary. Defaults to
	// log.Printf.
	Logf func(format string, args ...any)
}

// Summary counts per-page outcomes of a completed run.
type Summary struct {
	RunID     string
	Pages     int
	Succeeded int
	Failed    int
}

// Run drives every page through the extractor and returns one result per
// page, in source page order regardless of completion order. A failure on
// one page never aborts the others: it is recorded as a failed result and
// processing continues. Only cancellation aborts the run, in which case the
// partial results are discarded.
func Run(ctx context.Context, pages []models.Page, client Extractor, opts Options) ([]models.ExtractionResult, Summary, error) {
	concurrency := opts.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}
	logf := opts.Logf
	if logf == nil {
		logf = log.Printf
	}

	summary := Summary{RunID: uuid.NewString(), Pages: len(pages)}

	// Workers write into index-tagged slots of a pre-sized buffer, so the
	// merge needs no re-sorting by arrival time.
	results := make([]models.ExtractionResult, len(pages))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for _, page := range pages {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			result := client.ExtractPage(gctx, page)
			results[page.Index-1] = result

			if err := gctx.Err(); err != nil {
				return err
			}
			if result.Success {
				logf("run %s: page %d/%d extracted", summary.RunID, page.Index, len(pages))
			} else {
				logf("run %s: page %d/%d failed: %s", summary.RunID, page.Index, len(pages), result.Error)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, Summary{}, err
	}
	if err := ctx.Err(); err != nil {
		return nil, Summary{}, err
	}

	for _, result := range results {
		if result.Success {
			summary.Succeeded++
		} else {
			summary.Failed++
		}
	}
	logf("run %s: %d pages processed, %d succeeded, %d failed",
		summary.RunID, summary.Pages, summary.Succeeded, summary.Failed)

	return results, summary, nil
}
