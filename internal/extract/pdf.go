package extract

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	appLog "shiftcal/internal/log"
	"shiftcal/internal/model"
)

// wordGap is the horizontal distance (in PDF points) between two text
// fragments above which a space is inserted when rebuilding a line.
const wordGap = 1.5

// pdfRows extracts the text layer page by page and rebuilds visual lines
// as raw rows. Blank lines are dropped at this stage; the normalizer
// accounts for every row it actually receives.
func pdfRows(data []byte) ([]model.RawRow, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: not a readable PDF: %v", model.ErrUnrecognizedFormat, err)
	}

	var out []model.RawRow
	for pageNum := 1; pageNum <= reader.NumPage(); pageNum++ {
		page := reader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}

		rows, err := page.GetTextByRow()
		if err != nil {
			// A page without a text layer is not fatal; skip it.
			appLog.Error("pdf page text extraction failed", err, "page", pageNum)
			continue
		}

		index := 0
		for _, row := range rows {
			line := joinRow(row.Content)
			if strings.TrimSpace(line) == "" {
				continue
			}
			out = append(out, model.RawRow{
				Line:  strings.TrimSpace(line),
				Page:  pageNum,
				Index: index,
			})
			index++
		}
	}

	appLog.Debug("pdf extraction completed", "pages", reader.NumPage(), "rows", len(out))
	return out, nil
}

// joinRow concatenates the text fragments of one visual row, inserting a
// space wherever the horizontal gap to the previous fragment indicates a
// word boundary.
func joinRow(texts pdf.TextHorizontal) string {
	var b strings.Builder
	var prevEnd float64
	for i, t := range texts {
		if i > 0 && t.X-prevEnd > wordGap {
			b.WriteByte(' ')
		}
		b.WriteString(t.S)
		prevEnd = t.X + t.W
	}
	return b.String()
}
