package output

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"pdfocr/internal/models"
)

func sampleResults() []models.ExtractionResult {
	return []models.ExtractionResult{
		{Index: 1, Text: "first page", Success: true, Raw: json.RawMessage(`{"id":"a"}`)},
		{Index: 2, Error: "timeout: request timed out"},
		{Index: 3, Text: "third page", Success: true, Raw: json.RawMessage(`{"id":"c"}`)},
	}
}

func TestAssemble_OneRecordPerPageInOrder(t *testing.T) {
	doc := Assemble(sampleResults(), false)

	if len(doc.Pages) != 3 {
		t.Fatalf("got %d records, want 3", len(doc.Pages))
	}
	for i, record := range doc.Pages {
		if record.Index != i+1 {
			t.Errorf("pages[%d].Index = %d, want %d", i, record.Index, i+1)
		}
	}
}

func TestAssemble_FailedPageMarkedNotDropped(t *testing.T) {
	doc := Assemble(sampleResults(), false)

	failed := doc.Pages[1]
	if failed.Error == "" {
		t.Error("failed page carries no error marker")
	}
	if failed.Text != "" {
		t.Errorf("failed page carries fabricated text %q", failed.Text)
	}
	if doc.Pages[0].Text != "first page" || doc.Pages[2].Text != "third page" {
		t.Error("neighboring pages affected by the failed page")
	}
}

func TestAssemble_IncludeRawTogglesOnlyRawKey(t *testing.T) {
	with := Assemble(sampleResults(), true)
	without := Assemble(sampleResults(), false)

	for i := range with.Pages {
		if with.Pages[i].Index != without.Pages[i].Index || with.Pages[i].Text != without.Pages[i].Text {
			t.Errorf("pages[%d]: index/text differ between raw modes", i)
		}
		if without.Pages[i].Raw != nil {
			t.Errorf("pages[%d]: raw payload present without include-raw", i)
		}
	}
	if with.Pages[0].Raw == nil {
		t.Error("pages[0]: raw payload missing with include-raw")
	}
	// Failed page captured no payload, so the key stays absent even with
	// include-raw.
	if with.Pages[1].Raw != nil {
		t.Error("pages[1]: raw payload present for page that never got a response")
	}
}

func TestOutputDocument_JSONShape(t *testing.T) {
	doc := Assemble(sampleResults(), true)
	data, err := json.Marshal(doc)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	s := string(data)

	if !strings.Contains(s, `"pages":[`) {
		t.Errorf("output missing pages array: %s", s)
	}
	if !strings.Contains(s, `"raw_response":{"id":"a"}`) {
		t.Errorf("output missing raw_response for succeeded page: %s", s)
	}
	if strings.Count(s, `"raw_response"`) != 2 {
		t.Errorf("raw_response emitted for page without a payload: %s", s)
	}
	if !strings.Contains(s, `"error":"timeout: request timed out"`) {
		t.Errorf("output missing error marker: %s", s)
	}

	plain, err := json.Marshal(Assemble(sampleResults(), false))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if strings.Contains(string(plain), `"raw_response"`) {
		t.Errorf("raw_response key present without include-raw: %s", plain)
	}
}

func TestDefaultPath(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"scan.pdf", "scan_ocr.json"},
		{filepath.Join("docs", "report.pdf"), filepath.Join("docs", "report_ocr.json")},
		{filepath.Join("docs", "no-extension"), filepath.Join("docs", "no-extension_ocr.json")},
		{"archive.v2.pdf", "archive.v2_ocr.json"},
	}
	for _, tt := range tests {
		if got := DefaultPath(tt.input); got != tt.want {
			t.Errorf("DefaultPath(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestWrite_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scan_ocr.json")
	if err := Write(path, Assemble(sampleResults(), false)); err != nil {
		t.Fatalf("Write: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	var doc models.OutputDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("written file is not valid JSON: %v", err)
	}
	if len(doc.Pages) != 3 {
		t.Errorf("read back %d pages, want 3", len(doc.Pages))
	}
}
