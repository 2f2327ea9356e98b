// Package extract turns an uploaded schedule document into an ordered
// sequence of raw rows. One extractor per input format; format selection
// is by extension first, then content sniffing.
package extract

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"shiftcal/internal/model"
)

// Detect determines the input format from the filename extension, falling
// back to content sniffing for missing or unknown extensions. It returns
// model.ErrUnrecognizedFormat when neither identifies the document.
func Detect(filename string, data []byte) (model.Format, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return model.FormatPDF, nil
	case ".csv", ".txt":
		return model.FormatCSV, nil
	case ".xlsx", ".xlsm":
		return model.FormatXLSX, nil
	}

	switch {
	case bytes.HasPrefix(data, []byte("%PDF-")):
		return model.FormatPDF, nil
	case bytes.HasPrefix(data, []byte("PK\x03\x04")):
		// XLSX is a zip container.
		return model.FormatXLSX, nil
	case looksLikeCSV(data):
		return model.FormatCSV, nil
	}

	return "", fmt.Errorf("%w: %q", model.ErrUnrecognizedFormat, filename)
}

// Extract dispatches to the format-specific extractor. An empty document
// yields an empty row slice, not an error.
func Extract(format model.Format, data []byte) ([]model.RawRow, error) {
	switch format {
	case model.FormatPDF:
		return pdfRows(data)
	case model.FormatCSV:
		return csvRows(data)
	case model.FormatXLSX:
		return xlsxRows(data)
	default:
		return nil, fmt.Errorf("%w: %q", model.ErrUnrecognizedFormat, format)
	}
}

// looksLikeCSV accepts mostly printable text with at least one line.
func looksLikeCSV(data []byte) bool {
	if len(data) == 0 {
		return false
	}
	sample := data
	if len(sample) > 1024 {
		sample = sample[:1024]
	}
	for _, b := range sample {
		if b < 0x09 || (b > 0x0d && b < 0x20) {
			return false
		}
	}
	return true
}
