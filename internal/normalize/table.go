package normalize

import (
	"regexp"
	"strings"
	"time"

	"shiftcal/internal/model"
)

// Column aliases recognized in CSV/spreadsheet headers, Dutch and English.
// Matching is done on lowercased letters only, so "Start-tijd" and
// "StartTijd" both resolve to the start column.
var columnAliases = map[string][]string{
	"date":     {"date", "datum", "dag", "day"},
	"start":    {"start", "from", "van", "begin", "starttijd", "starttime"},
	"end":      {"end", "tot", "einde", "to", "eindtijd", "endtime", "stop"},
	"title":    {"title", "titel", "dienst", "shift", "type"},
	"location": {"location", "locatie", "adres", "address", "place"},
	"notes":    {"notes", "opmerking", "opmerkingen", "notities", "description", "beschrijving"},
}

var nonLetterRe = regexp.MustCompile(`[^a-z]`)

func normalizeHeader(s string) string {
	return nonLetterRe.ReplaceAllString(strings.ToLower(s), "")
}

// columnMap resolves header cells to semantic columns; absent columns
// map to -1.
type columnMap map[string]int

func (c columnMap) cell(cells []string, name string) string {
	idx, ok := c[name]
	if !ok || idx < 0 || idx >= len(cells) {
		return ""
	}
	return strings.TrimSpace(cells[idx])
}

// guessColumns matches one header row against the alias table and
// reports how many semantic columns it resolved.
func guessColumns(header []string) (columnMap, int) {
	norm := make(map[string]int, len(header))
	for i, h := range header {
		key := normalizeHeader(h)
		if key == "" {
			continue
		}
		if _, seen := norm[key]; !seen {
			norm[key] = i
		}
	}

	cols := columnMap{}
	hits := 0
	for want, aliases := range columnAliases {
		cols[want] = -1
		for _, a := range aliases {
			if idx, ok := norm[a]; ok {
				cols[want] = idx
				hits++
				break
			}
		}
	}
	return cols, hits
}

// normalizeTable handles cell-grid input (CSV, spreadsheet). The header
// row is located by alias matching within the first few rows; without a
// recognizable header every row is parsed positionally.
func normalizeTable(rows []model.RawRow, cfg Config) ([]model.ShiftRecord, []model.Diag) {
	const headerScan = 5

	var cols columnMap
	headerIdx := -1
	for i := 0; i < len(rows) && i < headerScan; i++ {
		if c, hits := guessColumns(rows[i].Cells); hits >= 2 {
			cols, headerIdx = c, i
			break
		}
	}

	var records []model.ShiftRecord
	var diags []model.Diag

	for i, r := range rows {
		if headerIdx >= 0 && i <= headerIdx {
			diags = append(diags, diag(model.DiagNoiseRow, r, "header row"))
			continue
		}

		var rec model.ShiftRecord
		var d *model.Diag
		if headerIdx >= 0 {
			rec, d = tableRecord(r, cols, cfg)
		} else {
			rec, d = positionalRecord(r, cfg)
		}
		if d != nil {
			diags = append(diags, *d)
			continue
		}
		records = append(records, rec)
		if rec.Start == rec.End {
			diags = append(diags, diag(model.DiagDegenerateShift, r, "start equals end"))
		}
	}

	return records, diags
}

// tableRecord builds a record from a row using the resolved columns.
func tableRecord(r model.RawRow, cols columnMap, cfg Config) (model.ShiftRecord, *model.Diag) {
	dateCell := cols.cell(r.Cells, "date")
	date, ok := parseDateCell(dateCell)
	if !ok {
		d := diag(model.DiagBadDate, r, "unparseable date cell: "+strings.TrimSpace(dateCell))
		if dateCell == "" {
			d = diag(model.DiagNoiseRow, r, "row without date")
		}
		return model.ShiftRecord{}, &d
	}

	startCell := cols.cell(r.Cells, "start")
	endCell := cols.cell(r.Cells, "end")

	var tr timeRange
	switch {
	case timeRangeRe.MatchString(startCell):
		// A full "22:00-06:00" range in the start column is accepted only
		// when the end column does not also carry a time.
		if _, dup := parseClock(endCell); dup {
			d := diag(model.DiagParseAmbiguity, r, "time range in start column and time in end column")
			return model.ShiftRecord{}, &d
		}
		f := classifyLine(startCell)
		if len(f.ranges) != 1 {
			d := diag(model.DiagParseAmbiguity, r, "multiple time ranges in start column")
			return model.ShiftRecord{}, &d
		}
		tr = f.ranges[0]
	default:
		start, okS := parseClock(startCell)
		end, okE := parseClock(endCell)
		if !okS || !okE {
			d := diag(model.DiagNoiseRow, r, "row without a parseable time range")
			return model.ShiftRecord{}, &d
		}
		tr = timeRange{Start: start, End: end}
	}

	title := cols.cell(r.Cells, "title")
	if offRe.MatchString(title) {
		d := diag(model.DiagNoiseRow, r, "day marked OFF")
		return model.ShiftRecord{}, &d
	}

	location := cols.cell(r.Cells, "location")
	if noiseRe.MatchString(location) {
		// Period/remark phrases are never locations.
		location = ""
	}

	rec, _ := buildRecord(date, tr, location, cfg)
	rec.Title = title
	rec.Notes = cols.cell(r.Cells, "notes")
	return rec, nil
}

// positionalRecord is the headerless fallback: the first date-shaped
// cell is the date, and the times come from a single range cell or the
// first two clock cells in order.
func positionalRecord(r model.RawRow, cfg Config) (model.ShiftRecord, *model.Diag) {
	var date time.Time
	dateOK := false
	var clocks []model.TimeOfDay
	var ranges []timeRange
	var location string

	for _, cell := range r.Cells {
		if !dateOK {
			if d, ok := parseDateCell(cell); ok {
				date, dateOK = d, true
				continue
			}
		}
		if t, ok := parseClock(cell); ok {
			clocks = append(clocks, t)
			continue
		}
		if timeRangeRe.MatchString(cell) {
			f := classifyLine(cell)
			ranges = append(ranges, f.ranges...)
			continue
		}
		if location == "" && !noiseRe.MatchString(cell) && addressText(cell) != "" {
			location = addressText(cell)
		}
	}

	if len(ranges) > 1 || (len(ranges) == 1 && len(clocks) > 0) || len(clocks) > 2 {
		d := diag(model.DiagParseAmbiguity, r, "multiple time ranges on one row")
		return model.ShiftRecord{}, &d
	}

	var tr timeRange
	switch {
	case len(ranges) == 1:
		tr = ranges[0]
	case len(clocks) == 2:
		tr = timeRange{Start: clocks[0], End: clocks[1]}
	default:
		d := diag(model.DiagNoiseRow, r, "row without a parseable time range")
		return model.ShiftRecord{}, &d
	}

	if !dateOK {
		d := diag(model.DiagBadDate, r, "no resolvable date for time range")
		return model.ShiftRecord{}, &d
	}

	rec, _ := buildRecord(date, tr, location, cfg)
	return rec, nil
}

// Date cell layouts: ISO first, then the day-first forms Dutch planner
// exports use.
var dateLayouts = []string{
	"2006-01-02",
	"02/01/2006",
	"2/1/2006",
	"02-01-2006",
	"2-1-2006",
	"02/01/06",
	"2/1/06",
}

func parseDateCell(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if d, err := time.Parse(layout, s); err == nil {
			return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC), true
		}
	}
	// Fall back to the line heuristics for cells with extra text
	// ("za 15/03/2024").
	if d := findDate(s); d != nil {
		return *d, true
	}
	return time.Time{}, false
}
