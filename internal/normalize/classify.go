package normalize

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"shiftcal/internal/model"
)

// Row feature patterns. Classification is a pure function over a row's
// text features so the heuristics can be unit-tested independently of
// extraction.
var (
	// Time ranges accept both the plain dash and the en-dash that PDF
	// text layers tend to produce.
	timeRangeRe = regexp.MustCompile(`(\d{1,2}):(\d{2})\s*[-–]\s*(\d{1,2}):(\d{2})`)
	timeOnlyRe  = regexp.MustCompile(`^(\d{1,2}):(\d{2})(?::\d{2})?$`)

	// Full dates: ISO first (unambiguous), then day-first forms common in
	// Dutch/Belgian schedules.
	isoDateRe  = regexp.MustCompile(`\b(\d{4})-(\d{1,2})-(\d{1,2})\b`)
	dmyDateRe  = regexp.MustCompile(`\b(\d{1,2})[/-](\d{1,2})[/-](\d{2,4})\b`)
	dayTokenRe = regexp.MustCompile(`(?i)(?:^|\s)(\d{1,2})\s*(MA|DI|WO|DO|VR|ZA|ZO)\b`)

	// "Periode : MAART 2024" style annotations carry the month/year
	// context for day-number rows but are never shift rows themselves.
	periodRe = regexp.MustCompile(`(?i)\bPERIODE\s*:?\s*(\p{L}+)\s+(\d{4})\b`)

	// Noise keywords mark rows (and would-be locations) that must never
	// become shift data.
	noiseRe = regexp.MustCompile(`(?i)\b(periode|opmerking(?:en)?|notitie(?:s)?|totaal|total|remark(?:s)?|note(?:s)?)\b`)
	offRe   = regexp.MustCompile(`(?i)\bOFF\b`)

	// Address shape: a Belgian/Dutch 4-digit postal code, or a street
	// token followed by a house number.
	postalRe = regexp.MustCompile(`\b\d{4}\b`)
	streetRe = regexp.MustCompile(`(?i)\b\p{L}[\p{L}'.-]*(?:straat|laan|weg|plein|dreef|lei|baan|kaai|markt|steenweg|street|avenue|road|lane)\s+\d{1,4}\b`)
)

var monthsByName = map[string]time.Month{
	"JANUARI": time.January, "FEBRUARI": time.February, "MAART": time.March,
	"APRIL": time.April, "MEI": time.May, "JUNI": time.June,
	"JULI": time.July, "AUGUSTUS": time.August, "SEPTEMBER": time.September,
	"OKTOBER": time.October, "NOVEMBER": time.November, "DECEMBER": time.December,

	"JANUARY": time.January, "FEBRUARY": time.February, "MARCH": time.March,
	"MAY": time.May, "JUNE": time.June, "JULY": time.July,
	"AUGUST": time.August, "OCTOBER": time.October,
}

// monthYear is the month context taken from a period annotation.
type monthYear struct {
	Month time.Month
	Year  int
}

type timeRange struct {
	Start model.TimeOfDay
	End   model.TimeOfDay
}

// rowFeatures is the classified view of one raw text line.
type rowFeatures struct {
	ranges  []timeRange
	date    *time.Time // full date found on the row
	dayNum  int        // day-of-month from a "15 MA" weekday token, 0 if none
	period  *monthYear
	noise   bool
	off     bool
	address string // address-shaped remainder, "" if none
}

// classifyLine extracts all recognized features from one text line. It
// never decides what to do with the row; Normalize does.
func classifyLine(line string) rowFeatures {
	var f rowFeatures

	for _, m := range timeRangeRe.FindAllStringSubmatch(line, -1) {
		start, okS := parseHourMinute(m[1], m[2])
		end, okE := parseHourMinute(m[3], m[4])
		if okS && okE {
			f.ranges = append(f.ranges, timeRange{Start: start, End: end})
		}
	}

	f.noise = noiseRe.MatchString(line)
	f.off = offRe.MatchString(line)

	if m := periodRe.FindStringSubmatch(line); m != nil {
		if month, ok := monthsByName[strings.ToUpper(m[1])]; ok {
			year, _ := strconv.Atoi(m[2])
			f.period = &monthYear{Month: month, Year: year}
		}
	}

	f.date = findDate(line)
	if f.date == nil {
		if m := dayTokenRe.FindStringSubmatch(line); m != nil {
			f.dayNum, _ = strconv.Atoi(m[1])
		}
	}

	if !f.noise {
		f.address = addressText(line)
	}

	return f
}

// findDate returns the first full calendar date on the line, trying the
// unambiguous ISO form before day-first forms.
func findDate(line string) *time.Time {
	if m := isoDateRe.FindStringSubmatch(line); m != nil {
		year, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		day, _ := strconv.Atoi(m[3])
		if d, ok := makeDate(year, month, day); ok {
			return &d
		}
	}
	if m := dmyDateRe.FindStringSubmatch(line); m != nil {
		day, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		year, _ := strconv.Atoi(m[3])
		if year < 100 {
			year += 2000
		}
		if d, ok := makeDate(year, month, day); ok {
			return &d
		}
	}
	return nil
}

// makeDate validates the components by round-tripping through time.Date,
// which normalizes overflow (e.g. 31/02 becomes 02/03).
func makeDate(year, month, day int) (time.Time, bool) {
	if month < 1 || month > 12 || day < 1 || day > 31 || year < 1970 || year > 2200 {
		return time.Time{}, false
	}
	d := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if d.Day() != day || d.Month() != time.Month(month) {
		return time.Time{}, false
	}
	return d, true
}

func parseHourMinute(h, m string) (model.TimeOfDay, bool) {
	hour, _ := strconv.Atoi(h)
	minute, _ := strconv.Atoi(m)
	if hour > 23 || minute > 59 {
		return model.TimeOfDay{}, false
	}
	return model.TimeOfDay{Hour: hour, Minute: minute}, true
}

// parseClock parses a standalone "H:MM" (or "H:MM:SS") cell value.
func parseClock(s string) (model.TimeOfDay, bool) {
	m := timeOnlyRe.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return model.TimeOfDay{}, false
	}
	return parseHourMinute(m[1], m[2])
}

// addressText returns the address-shaped portion of the line after date,
// time and weekday tokens are stripped, or "" when the remainder does not
// look like an address.
func addressText(line string) string {
	cleaned := timeRangeRe.ReplaceAllString(line, " ")
	cleaned = isoDateRe.ReplaceAllString(cleaned, " ")
	cleaned = dmyDateRe.ReplaceAllString(cleaned, " ")
	cleaned = dayTokenRe.ReplaceAllString(cleaned, " ")
	cleaned = strings.Join(strings.Fields(cleaned), " ")

	if cleaned == "" {
		return ""
	}
	if postalRe.MatchString(cleaned) || streetRe.MatchString(cleaned) {
		return cleaned
	}
	return ""
}

// classifyKind derives day/night from the start hour and the configured
// day-shift window.
func classifyKind(start model.TimeOfDay, cfg Config) model.ShiftKind {
	if start.Hour >= cfg.DayStartHour && start.Hour < cfg.NightStartHour {
		return model.KindDay
	}
	return model.KindNight
}
