package extract

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"shiftcal/internal/model"
)

// csvRows reads delimited rows. The delimiter is sniffed from the first
// line: semicolon wins when it outnumbers commas (common in Dutch/Belgian
// exports where the comma is the decimal separator).
func csvRows(data []byte) ([]model.RawRow, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = sniffDelimiter(data)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	var out []model.RawRow
	index := 0
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: malformed CSV: %v", model.ErrUnrecognizedFormat, err)
		}

		cells := make([]string, len(record))
		empty := true
		for i, c := range record {
			cells[i] = strings.TrimSpace(c)
			if cells[i] != "" {
				empty = false
			}
		}
		if empty {
			continue
		}

		out = append(out, model.RawRow{
			Cells: cells,
			Page:  1,
			Index: index,
		})
		index++
	}

	return out, nil
}

func sniffDelimiter(data []byte) rune {
	line := data
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		line = data[:i]
	}
	if bytes.Count(line, []byte{';'}) > bytes.Count(line, []byte{','}) {
		return ';'
	}
	return ','
}
