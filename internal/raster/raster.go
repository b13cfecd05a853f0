package raster

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"

	"github.com/gen2brain/go-fitz"
	"github.com/ledongthuc/pdf"
	"golang.org/x/image/tiff"

	"pdfocr/internal/models"
)

// DPI bounds accepted by Rasterize.
const (
	MinDPI = 72
	MaxDPI = 2400
)

// jpegQuality balances fidelity against payload size for the vision API.
const jpegQuality = 95

// Options control rasterization fidelity. Higher DPI raises image quality
// and memory use proportionally.
type Options struct {
	DPI    int
	Format models.ImageFormat
}

func (o Options) validate() error {
	if o.DPI < MinDPI || o.DPI > MaxDPI {
		return fmt.Errorf("dpi %d out of range [%d, %d]", o.DPI, MinDPI, MaxDPI)
	}
	if !o.Format.Valid() {
		return fmt.Errorf("unsupported image format %q", o.Format)
	}
	return nil
}

// Probe opens the PDF and resolves its page count without rendering
// anything. An unreadable or empty document fails here, before any page
// image exists.
func Probe(path string) (models.Document, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return models.Document{}, fmt.Errorf("open pdf: %w", err)
	}
	numPages := r.NumPage()
	f.Close()

	if numPages == 0 {
		return models.Document{}, fmt.Errorf("pdf has no pages: %s", path)
	}
	return models.Document{Path: path, PageCount: numPages}, nil
}

// Rasterize renders every page of doc into an in-memory image at the
// requested DPI and encoding, in source page order. A rendering failure on
// any page is a document-level failure: no partial page list is returned.
func Rasterize(ctx context.Context, doc models.Document, opts Options) ([]models.Page, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}

	fz, err := fitz.New(doc.Path)
	if err != nil {
		return nil, fmt.Errorf("open pdf for rendering: %w", err)
	}
	defer fz.Close()

	pageCount := fz.NumPage()
	if pageCount == 0 {
		return nil, fmt.Errorf("pdf has no pages: %s", doc.Path)
	}

	pages := make([]models.Page, 0, pageCount)
	for pageNum := 0; pageNum < pageCount; pageNum++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		img, err := fz.ImageDPI(pageNum, float64(opts.DPI))
		if err != nil {
			return nil, fmt.Errorf("render page %d: %w", pageNum+1, err)
		}

		var buf bytes.Buffer
		if err := Encode(&buf, img, opts.Format); err != nil {
			return nil, fmt.Errorf("encode page %d: %w", pageNum+1, err)
		}

		pages = append(pages, models.Page{
			Index:  pageNum + 1,
			Data:   buf.Bytes(),
			Format: opts.Format,
			DPI:    opts.DPI,
		})
	}

	return pages, nil
}

// Encode writes img to w in the given page image format.
func Encode(w io.Writer, img image.Image, format models.ImageFormat) error {
	switch format {
	case models.FormatPNG:
		return png.Encode(w, img)
	case models.FormatJPEG:
		return jpeg.Encode(w, img, &jpeg.Options{Quality: jpegQuality})
	case models.FormatTIFF:
		return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate})
	default:
		return fmt.Errorf("unsupported image format %q", format)
	}
}
