// Package ics serializes normalized shift records into an iCalendar
// export with optional reminder alarms.
package ics

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"time"

	ical "github.com/arran4/golang-ical"

	appLog "shiftcal/internal/log"
	"shiftcal/internal/model"
)

const prodID = "-//shiftcal//Planner to ICS//NL"

// Export serializes the shifts into a single VCALENDAR.
//
// Guarantees:
//   - Exporting the same records twice yields byte-identical output:
//     UIDs are content-derived and DTSTAMP is taken from the shift
//     start, never from the wall clock.
//   - A nil reminder produces zero VALARM components; a set reminder
//     produces exactly one per event.
//   - Incomplete records (zero date or missing times) reject the whole
//     batch before anything is serialized.
func Export(shifts []model.ShiftRecord, opts model.Options) ([]byte, error) {
	for i, s := range shifts {
		if s.Date.IsZero() || !s.HasTimes {
			return nil, fmt.Errorf("%w: record %d", model.ErrIncompleteRecord, i)
		}
	}

	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(prodID)

	if opts.TZMode == model.TZFixed {
		cal.Components = append(cal.Components, fixedTimezone(opts))
	}

	for _, s := range shifts {
		addEvent(cal, s, opts)
	}

	appLog.Debug("ics export completed", "events", len(shifts), "tz_mode", string(opts.TZMode))
	return []byte(cal.Serialize()), nil
}

func addEvent(cal *ical.Calendar, s model.ShiftRecord, opts model.Options) {
	summary := s.Summary()
	ev := cal.AddEvent(eventUID(s))

	// Deterministic DTSTAMP: derived from the shift start interpreted as
	// UTC, so re-exports of the same input are byte-identical.
	ev.SetProperty(ical.ComponentPropertyDtstamp, stampValue(s.Date, s.Start))

	if opts.TZMode == model.TZFixed {
		tzid := &ical.KeyValues{Key: "TZID", Value: []string{opts.TZName}}
		ev.SetProperty(ical.ComponentPropertyDtStart, stampLocal(s.Date, s.Start), tzid)
		ev.SetProperty(ical.ComponentPropertyDtEnd, stampLocal(s.EndDate(), s.End), tzid)
	} else {
		ev.SetProperty(ical.ComponentPropertyDtStart, stampLocal(s.Date, s.Start))
		ev.SetProperty(ical.ComponentPropertyDtEnd, stampLocal(s.EndDate(), s.End))
	}

	ev.SetSummary(summary)
	if s.Location != "" {
		ev.SetLocation(s.Location)
	}
	if s.Notes != "" {
		ev.SetDescription(s.Notes)
	}

	if opts.Reminder != nil {
		alarm := ev.AddAlarm()
		alarm.SetAction(ical.ActionDisplay)
		alarm.SetTrigger(triggerValue(*opts.Reminder))
		text := "Herinnering: " + summary
		if s.Location != "" {
			text += " — " + s.Location
		}
		alarm.SetProperty(ical.ComponentPropertyDescription, text)
	}
}

// eventUID derives a stable identifier from the shift's own fields, so
// converting the same schedule twice produces the same UIDs.
func eventUID(s model.ShiftRecord) string {
	raw := fmt.Sprintf("%s|%s|%s|%s|%s",
		s.Date.Format("2006-01-02"), s.Start, s.End, s.Summary(), s.Location)
	sum := sha1.Sum([]byte(raw))
	return hex.EncodeToString(sum[:]) + "@shiftcal"
}

// stampLocal renders a floating local timestamp (no zone designator).
func stampLocal(date time.Time, t model.TimeOfDay) string {
	return fmt.Sprintf("%sT%02d%02d00", date.Format("20060102"), t.Hour, t.Minute)
}

func stampValue(date time.Time, t model.TimeOfDay) string {
	return stampLocal(date, t) + "Z"
}

// triggerValue renders the alarm offset as a negative ISO-8601 duration.
func triggerValue(r model.ReminderSpec) string {
	switch r.Unit {
	case model.UnitDays:
		return fmt.Sprintf("-P%dD", r.Amount)
	case model.UnitHours:
		return fmt.Sprintf("-PT%dH", r.Amount)
	default:
		return fmt.Sprintf("-PT%dM", r.Amount)
	}
}

// fixedTimezone builds a single VTIMEZONE whose standard offset equals
// the configured fixed offset; events reference it by TZID.
func fixedTimezone(opts model.Options) *ical.VTimezone {
	offset := formatOffset(opts.TZOffsetMinutes)

	std := &ical.Standard{}
	std.SetProperty("DTSTART", "19700101T000000")
	std.SetProperty("TZOFFSETFROM", offset)
	std.SetProperty("TZOFFSETTO", offset)
	std.SetProperty("TZNAME", opts.TZName)

	tz := &ical.VTimezone{}
	tz.SetProperty("TZID", opts.TZName)
	tz.Components = append(tz.Components, std)
	return tz
}

func formatOffset(minutes int) string {
	sign := "+"
	if minutes < 0 {
		sign = "-"
		minutes = -minutes
	}
	return fmt.Sprintf("%s%02d%02d", sign, minutes/60, minutes%60)
}
