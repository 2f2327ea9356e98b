// Package normalize turns raw document rows into typed shift records.
// It is the core of the converter: everything in here is a pure function
// of the input rows and the configuration, and every discarded row is
// accounted for with a diagnostic.
package normalize

import (
	"fmt"
	"time"

	"shiftcal/internal/model"
)

// Config holds the normalizer's tunables. The zero value is usable;
// missing boundaries fall back to the 06:00 / 18:00 defaults.
type Config struct {
	DayStartHour   int
	NightStartHour int
}

func (c Config) withDefaults() Config {
	if c.DayStartHour <= 0 || c.DayStartHour > 23 {
		c.DayStartHour = 6
	}
	if c.NightStartHour <= c.DayStartHour || c.NightStartHour > 24 {
		c.NightStartHour = 18
	}
	return c
}

// Normalize maps raw rows to shift records, preserving source order.
//
// Rows with spreadsheet-style cells go through column mapping; plain text
// lines go through the line heuristics. Row-level problems never abort
// the run: skipped rows produce diagnostics, and a successful parse with
// zero shifts is reported with a single EmptyResult warning.
func Normalize(rows []model.RawRow, cfg Config) ([]model.ShiftRecord, []model.Diag) {
	cfg = cfg.withDefaults()

	var records []model.ShiftRecord
	var diags []model.Diag
	if isTabular(rows) {
		records, diags = normalizeTable(rows, cfg)
	} else {
		records, diags = normalizeLines(rows, cfg)
	}

	if len(records) == 0 {
		diags = append(diags, model.Diag{
			Kind:    model.DiagEmptyResult,
			Message: "no shifts found in document",
		})
	}
	return records, diags
}

// isTabular reports whether the input came from a cell grid rather than
// a text layer: any row with two or more cells qualifies.
func isTabular(rows []model.RawRow) bool {
	for _, r := range rows {
		if len(r.Cells) >= 2 {
			return true
		}
	}
	return false
}

// normalizeLines handles line-oriented input (PDF text layer).
//
// A standalone address-shaped line sets the location context for the
// shift rows that follow it, matching how planner PDFs group shifts
// under a site address. Period annotations supply the month/year used to
// resolve day-number rows ("15 MA 07:00-15:00").
func normalizeLines(rows []model.RawRow, cfg Config) ([]model.ShiftRecord, []model.Diag) {
	feats := make([]rowFeatures, len(rows))
	var period *monthYear
	for i, r := range rows {
		feats[i] = classifyLine(r.Text())
		if period == nil && feats[i].period != nil {
			period = feats[i].period
		}
	}

	var records []model.ShiftRecord
	var diags []model.Diag
	location := ""

	for i, r := range rows {
		f := feats[i]

		// Track the latest address-shaped text; noise-phrase lines never
		// contribute a location even when they look address-like.
		if f.address != "" && !f.noise {
			location = f.address
		}

		switch {
		case len(f.ranges) > 1:
			diags = append(diags, diag(model.DiagParseAmbiguity, r,
				fmt.Sprintf("%d time ranges on one row", len(f.ranges))))

		case f.period != nil:
			diags = append(diags, diag(model.DiagNoiseRow, r, "period annotation"))

		case f.off && len(f.ranges) > 0:
			diags = append(diags, diag(model.DiagNoiseRow, r, "day marked OFF"))

		case len(f.ranges) == 1:
			date, ok := resolveDate(f, period)
			if !ok {
				diags = append(diags, diag(model.DiagBadDate, r, "no resolvable date for time range"))
				continue
			}
			rec, degenerate := buildRecord(date, f.ranges[0], location, cfg)
			records = append(records, rec)
			if degenerate {
				diags = append(diags, diag(model.DiagDegenerateShift, r, "start equals end"))
			}

		case f.address != "":
			diags = append(diags, diag(model.DiagNoiseRow, r, "address line, used as location context"))

		case f.noise:
			diags = append(diags, diag(model.DiagNoiseRow, r, "matches noise keyword"))

		default:
			diags = append(diags, diag(model.DiagNoiseRow, r, "no shift pattern recognized"))
		}
	}

	return records, diags
}

// resolveDate picks the row's own full date, or combines a day-number
// token with the document's period context.
func resolveDate(f rowFeatures, period *monthYear) (time.Time, bool) {
	if f.date != nil {
		return *f.date, true
	}
	if f.dayNum > 0 && period != nil {
		return makeDate(period.Year, int(period.Month), f.dayNum)
	}
	return time.Time{}, false
}

// buildRecord assembles an immutable shift record from a resolved date
// and time range. End before start means the shift runs into the next
// day; equal start and end is accepted as a degenerate zero-duration
// shift and flagged by the caller.
func buildRecord(date time.Time, tr timeRange, location string, cfg Config) (model.ShiftRecord, bool) {
	rec := model.ShiftRecord{
		Date:      date,
		Start:     tr.Start,
		End:       tr.End,
		HasTimes:  true,
		Overnight: tr.End.MinuteOfDay() < tr.Start.MinuteOfDay(),
		Kind:      classifyKind(tr.Start, cfg),
		Location:  location,
	}
	return rec, tr.Start == tr.End
}

func diag(kind model.DiagKind, r model.RawRow, msg string) model.Diag {
	return model.Diag{Kind: kind, Page: r.Page, Row: r.Index, Message: msg}
}
