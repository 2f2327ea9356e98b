package extract

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"shiftcal/internal/model"
)

// xlsxRows reads the first sheet of a workbook as raw rows. Cell values
// arrive as excelize's formatted strings, so dates and times keep the
// display form the schedule author saw.
func xlsxRows(data []byte) ([]model.RawRow, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: not a readable workbook: %v", model.ErrUnrecognizedFormat, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("%w: read sheet %q: %v", model.ErrUnrecognizedFormat, sheets[0], err)
	}

	var out []model.RawRow
	index := 0
	for _, row := range rows {
		cells := make([]string, len(row))
		empty := true
		for i, c := range row {
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
