// Package convert wires the conversion pipeline: raw extraction,
// shift normalization, and calendar export.
package convert

import (
	"fmt"

	"shiftcal/internal/extract"
	"shiftcal/internal/ics"
	appLog "shiftcal/internal/log"
	"shiftcal/internal/model"
	"shiftcal/internal/normalize"
)

// Result is the outcome of one document conversion.
type Result struct {
	// ICS is the serialized calendar export.
	ICS []byte
	// Shifts are the normalized records, in source order.
	Shifts []model.ShiftRecord
	// Diags lists every discarded row and document-level warning.
	Diags []model.Diag
	// Filename is a suggested download name derived from the earliest
	// shift month ("planning_2024_03.ics").
	Filename string
	// Format is the detected input format.
	Format model.Format
}

// Run converts one uploaded document to an ICS export. Document-level
// failures (unreadable file, unknown format) return an error; row-level
// issues end up in Result.Diags.
func Run(filename string, data []byte, opts model.Options) (*Result, error) {
	format, err := extract.Detect(filename, data)
	if err != nil {
		return nil, err
	}

	rows, err := extract.Extract(format, data)
	if err != nil {
		return nil, err
	}

	shifts, diags := normalize.Normalize(rows, normalize.Config{
		DayStartHour:   opts.DayStartHour,
		NightStartHour: opts.NightStartHour,
	})

	out, err := ics.Export(shifts, opts)
	if err != nil {
		return nil, err
	}

	appLog.Info("conversion completed",
		"file", filename,
		"format", string(format),
		"rows", len(rows),
		"shifts", len(shifts),
		"diags", len(diags),
	)

	return &Result{
		ICS:      out,
		Shifts:   shifts,
		Diags:    diags,
		Filename: suggestFilename(shifts),
		Format:   format,
	}, nil
}

// suggestFilename names the export after the earliest shift month.
func suggestFilename(shifts []model.ShiftRecord) string {
	if len(shifts) == 0 {
		return "planning.ics"
	}
	earliest := shifts[0].Date
	for _, s := range shifts[1:] {
		if s.Date.Before(earliest) {
			earliest = s.Date
		}
	}
	return fmt.Sprintf("planning_%04d_%02d.ics", earliest.Year(), int(earliest.Month()))
}
