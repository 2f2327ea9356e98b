package convert

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shiftcal/internal/model"
)

func defaultOpts() model.Options {
	return model.Options{
		TZMode:         model.TZFloating,
		DayStartHour:   6,
		NightStartHour: 18,
	}
}

func TestRunCSVToICS(t *testing.T) {
	csv := []byte("datum,start,einde,locatie\n" +
		"16/03/2024,09:00,17:00,\"Hoofdstraat 12, 9000 Gent\"\n" +
		"15/03/2024,22:00,06:00,\n")

	result, err := Run("rooster.csv", csv, defaultOpts())
	require.NoError(t, err)

	assert.Equal(t, model.FormatCSV, result.Format)
	require.Len(t, result.Shifts, 2)
	assert.Equal(t, "Hoofdstraat 12, 9000 Gent", result.Shifts[0].Location)
	assert.True(t, result.Shifts[1].Overnight)

	s := string(result.ICS)
	assert.Contains(t, s, "BEGIN:VEVENT")
	assert.Contains(t, s, "DTSTART:20240315T220000")
	assert.Contains(t, s, "DTEND:20240316T060000")

	// Filename follows the earliest shift month.
	assert.Equal(t, "planning_2024_03.ics", result.Filename)
}

func TestRunIdempotent(t *testing.T) {
	csv := []byte("datum,start,einde\n16/03/2024,09:00,17:00\n")

	first, err := Run("rooster.csv", csv, defaultOpts())
	require.NoError(t, err)
	second, err := Run("rooster.csv", csv, defaultOpts())
	require.NoError(t, err)

	assert.Equal(t, first.ICS, second.ICS)
}

func TestRunUnrecognizedFormat(t *testing.T) {
	_, err := Run("schedule.bin", []byte{0x00, 0x01}, defaultOpts())
	assert.ErrorIs(t, err, model.ErrUnrecognizedFormat)
}

func TestRunEmptyScheduleWarns(t *testing.T) {
	csv := []byte("kolom een,kolom twee\nvrije tekst,meer tekst\n")

	result, err := Run("leeg.csv", csv, defaultOpts())
	require.NoError(t, err)

	assert.Empty(t, result.Shifts)
	assert.Equal(t, "planning.ics", result.Filename)

	found := false
	for _, d := range result.Diags {
		if d.Kind == model.DiagEmptyResult {
			found = true
		}
	}
	assert.True(t, found, "expected an EmptyResult warning diagnostic")
}

func TestSuggestFilename(t *testing.T) {
	assert.Equal(t, "planning.ics", suggestFilename(nil))

	shifts := []model.ShiftRecord{
		{Date: time.Date(2024, 4, 2, 0, 0, 0, 0, time.UTC)},
		{Date: time.Date(2024, 3, 30, 0, 0, 0, 0, time.UTC)},
	}
	assert.Equal(t, "planning_2024_03.ics", suggestFilename(shifts))
}
