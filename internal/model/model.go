package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Format identifies a supported input document format.
type Format string

const (
	FormatPDF  Format = "pdf"
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// ErrUnrecognizedFormat is returned when an uploaded document cannot be
// matched to any supported input format. This is a whole-document failure:
// nothing is extracted.
var ErrUnrecognizedFormat = errors.New("unrecognized input format")

// ErrIncompleteRecord is returned by the exporter when a shift record is
// missing its date or times. The exporter rejects the whole batch before
// writing a single byte.
var ErrIncompleteRecord = errors.New("incomplete shift record")

// RawRow is one extracted line or row of the input document, before
// normalization. Page and Index locate the row in the source and are used
// only for diagnostics.
type RawRow struct {
	// Line is the row as a single text line (PDF text layer).
	Line string
	// Cells is the row as a cell sequence (CSV, spreadsheet). When Cells
	// is non-empty it takes precedence over Line.
	Cells []string

	Page  int
	Index int
}

// Text returns the row's content as one line, joining cells with a
// double space so time-range and address patterns still match.
func (r RawRow) Text() string {
	if len(r.Cells) > 0 {
		return strings.Join(r.Cells, "  ")
	}
	return r.Line
}

// TimeOfDay is a wall-clock time without date or timezone.
type TimeOfDay struct {
	Hour   int
	Minute int
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// MinuteOfDay returns the time as minutes since midnight, for ordering.
func (t TimeOfDay) MinuteOfDay() int {
	return t.Hour*60 + t.Minute
}

// ShiftKind classifies a shift by its start time.
type ShiftKind string

const (
	KindDay   ShiftKind = "day"
	KindNight ShiftKind = "night"
)

// ShiftRecord is one normalized work shift. Records are immutable once
// produced by the normalizer.
type ShiftRecord struct {
	// Date is the calendar date the shift starts on; only the
	// year/month/day components are meaningful.
	Date time.Time

	Start TimeOfDay
	End   TimeOfDay

	// HasTimes distinguishes a parsed 00:00 from an absent time; the
	// normalizer never emits a record without it, but hand-built records
	// (tests, API callers) are validated against it by the exporter.
	HasTimes bool

	// Overnight is true when End is chronologically before Start, meaning
	// the shift ends on Date+1.
	Overnight bool

	Kind ShiftKind

	// Title is an explicit title from the source document; when empty the
	// exporter derives one from Kind.
	Title string

	// Location is an address-shaped text, or empty when the source row
	// carried none.
	Location string

	// Notes is free text carried into the event description.
	Notes string
}

// EndDate returns the calendar date the shift ends on (Date+1 for
// overnight shifts).
func (s ShiftRecord) EndDate() time.Time {
	if s.Overnight {
		return s.Date.AddDate(0, 0, 1)
	}
	return s.Date
}

// Summary returns the event title: the explicit Title when present,
// otherwise the Dutch day/night shift name the planner documents use.
func (s ShiftRecord) Summary() string {
	if s.Title != "" {
		return s.Title
	}
	if s.Kind == KindNight {
		return "Nachtdienst"
	}
	return "Dagdienst"
}

// ReminderUnit is the unit of a reminder offset.
type ReminderUnit string

const (
	UnitMinutes ReminderUnit = "minutes"
	UnitHours   ReminderUnit = "hours"
	UnitDays    ReminderUnit = "days"
)

// ReminderSpec describes an alarm offset before a shift's start.
// A nil *ReminderSpec means no alarm at all.
type ReminderSpec struct {
	Amount int
	Unit   ReminderUnit
}

// Duration converts the spec into a positive time.Duration.
func (r ReminderSpec) Duration() time.Duration {
	switch r.Unit {
	case UnitDays:
		return time.Duration(r.Amount) * 24 * time.Hour
	case UnitHours:
		return time.Duration(r.Amount) * time.Hour
	default:
		return time.Duration(r.Amount) * time.Minute
	}
}

// TZMode selects how the exporter stamps event times.
type TZMode string

const (
	// TZFloating emits local times without any timezone, the recommended
	// default: calendar apps show them exactly as parsed.
	TZFloating TZMode = "floating"
	// TZFixed emits times with a TZID referencing a single fixed-offset
	// VTIMEZONE embedded in the export.
	TZFixed TZMode = "fixed"
)

// Options carries the per-conversion settings exposed to the UI and CLI.
type Options struct {
	Reminder *ReminderSpec

	TZMode          TZMode
	TZName          string
	TZOffsetMinutes int

	// DayStartHour / NightStartHour bound the day-shift window: a shift
	// starting at or after DayStartHour and strictly before NightStartHour
	// is a day shift, anything else a night shift.
	DayStartHour   int
	NightStartHour int
}

// DiagKind categorizes a per-row diagnostic.
type DiagKind string

const (
	// DiagParseAmbiguity marks a row with more than one time range; the
	// row is skipped rather than silently resolved.
	DiagParseAmbiguity DiagKind = "parse_ambiguity"
	// DiagNoiseRow marks a discarded non-shift row (headers, period
	// annotations, free text).
	DiagNoiseRow DiagKind = "noise_row"
	// DiagBadDate marks a row whose date could not be resolved.
	DiagBadDate DiagKind = "bad_date"
	// DiagDegenerateShift marks an accepted zero-duration shift.
	DiagDegenerateShift DiagKind = "degenerate_shift"
	// DiagEmptyResult is a document-level warning: the parse succeeded but
	// produced no shifts.
	DiagEmptyResult DiagKind = "empty_result"
)

// Diag is a structured per-row (or document-level) diagnostic. Row-level
// issues never abort a conversion; they accumulate here.
type Diag struct {
	Kind    DiagKind `json:"kind"`
	Page    int      `json:"page"`
	Row     int      `json:"row"`
	Message string   `json:"message"`
}

func (d Diag) String() string {
	return fmt.Sprintf("%s (page %d, row %d): %s", d.Kind, d.Page, d.Row, d.Message)
}
