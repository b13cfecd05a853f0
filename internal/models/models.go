package models

import "encoding/json"

// ImageFormat identifies the encoding of a rasterized page.
type ImageFormat string

const (
	FormatPNG  ImageFormat = "png"
	FormatJPEG ImageFormat = "jpeg"
	FormatTIFF ImageFormat = "tiff"
)

// MIME returns the media type used in the data URI sent to the vision API.
func (f ImageFormat) MIME() string {
	switch f {
	case FormatJPEG:
		return "image/jpeg"
	case FormatTIFF:
		return "image/tiff"
	default:
		return "image/png"
	}
}

// Valid reports whether f is one of the supported encodings.
func (f ImageFormat) Valid() bool {
	switch f {
	case FormatPNG, FormatJPEG, FormatTIFF:
		return true
	}
	return false
}

// Document identifies the input PDF. It is immutable once probed.
type Document struct {
	Path      string
	PageCount int
}

// Page is a single rasterized PDF page. Index is 1-based and matches the
// source page order. Pages are created by the rasterizer and consumed
// exactly once by the pipeline.
type Page struct {
	Index  int
	Data   []byte
	Format ImageFormat
	DPI    int
}

// ExtractionResult is the outcome of submitting one Page to the remote
// extraction endpoint. Error is set iff Success is false.
type ExtractionResult struct {
	Index   int
	Text    string
	Raw     json.RawMessage
	Success bool
	Error   string
}

// PageRecord is one entry in the final JSON artifact.
type PageRecord struct {
	Index int             `json:"index"`
	Text  string          `json:"text"`
	Error string          `json:"error,omitempty"`
	Raw   json.RawMessage `json:"raw_response,omitempty"`
}

// OutputDocument is the final artifact: one record per source page, in
// strictly ascending index order.
type OutputDocument struct {
	Pages []PageRecord `json:"pages"`
}
