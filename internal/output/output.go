package output

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"pdfocr/internal/models"
)

// Assemble folds the ordered result stream into the final document. Failed
// pages keep their slot with an error marker and empty text; no text is ever
// fabricated for them. Raw payloads are emitted only when includeRaw is set
// and the client captured one.
func Assemble(results []models.ExtractionResult, includeRaw bool) models.OutputDocument {
	doc := models.OutputDocument{Pages: make([]models.PageRecord, 0, len(results))}
	for _, result := range results {
		record := models.PageRecord{Index: result.Index}
		if result.Success {
			record.Text = result.Text
		} else {
			record.Error = result.Error
			if record.Error == "" {
				record.Error = "extraction failed"
			}
		}
		if includeRaw {
			record.Raw = result.Raw
		}
		doc.Pages = append(doc.Pages, record)
	}
	return doc
}

// DefaultPath derives the output path from the input PDF:
// <input-stem>_ocr.json, beside the input file.
func DefaultPath(inputPath string) string {
	base := filepath.Base(inputPath)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(filepath.Dir(inputPath), stem+"_ocr.json")
}

// Write serializes doc as indented UTF-8 JSON at path.
func Write(path string, doc models.OutputDocument) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal ocr results: %w", err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write ocr results: %w", err)
	}
	return nil
}
