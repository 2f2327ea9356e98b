package normalize

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shiftcal/internal/model"
)

func TestClassifyLineTimeRanges(t *testing.T) {
	tests := []struct {
		name string
		line string
		want []timeRange
	}{
		{
			name: "plain dash",
			line: "22:00-06:00",
			want: []timeRange{{Start: model.TimeOfDay{Hour: 22}, End: model.TimeOfDay{Hour: 6}}},
		},
		{
			name: "en dash with spaces",
			line: "07:30 – 15:45",
			want: []timeRange{{Start: model.TimeOfDay{Hour: 7, Minute: 30}, End: model.TimeOfDay{Hour: 15, Minute: 45}}},
		},
		{
			name: "two ranges",
			line: "09:00-12:00 13:00-17:00",
			want: []timeRange{
				{Start: model.TimeOfDay{Hour: 9}, End: model.TimeOfDay{Hour: 12}},
				{Start: model.TimeOfDay{Hour: 13}, End: model.TimeOfDay{Hour: 17}},
			},
		},
		{
			name: "invalid hour rejected",
			line: "25:00-06:00",
			want: nil,
		},
		{
			name: "no range",
			line: "vrije dag",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := classifyLine(tt.line)
			assert.Equal(t, tt.want, f.ranges)
		})
	}
}

func TestClassifyLineDates(t *testing.T) {
	tests := []struct {
		line string
		want time.Time
	}{
		{"15/03/2024 09:00-17:00", time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)},
		{"15-03-2024", time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)},
		{"2024-03-15", time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)},
		{"15/03/24", time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			f := classifyLine(tt.line)
			require.NotNil(t, f.date)
			assert.Equal(t, tt.want, *f.date)
		})
	}

	t.Run("impossible date rejected", func(t *testing.T) {
		f := classifyLine("31/02/2024 09:00-17:00")
		assert.Nil(t, f.date)
	})
}

func TestClassifyLineDayToken(t *testing.T) {
	f := classifyLine("15 MA 07:00-15:00")
	assert.Nil(t, f.date)
	assert.Equal(t, 15, f.dayNum)

	// "maart" must not be mistaken for a MA weekday token.
	f = classifyLine("Periode: maart 2024")
	assert.Zero(t, f.dayNum)
}

func TestClassifyLinePeriod(t *testing.T) {
	f := classifyLine("Periode : MAART 2024")
	require.NotNil(t, f.period)
	assert.Equal(t, time.March, f.period.Month)
	assert.Equal(t, 2024, f.period.Year)
	assert.True(t, f.noise)

	f = classifyLine("PERIODE: oktober 2023")
	require.NotNil(t, f.period)
	assert.Equal(t, time.October, f.period.Month)
}

func TestClassifyLineNoise(t *testing.T) {
	for _, line := range []string{
		"Opmerkingen: graag tijdig aanwezig",
		"Totaal: 152 uur",
		"Notities",
		"Remarks: see supervisor",
	} {
		assert.True(t, classifyLine(line).noise, "line %q should be noise", line)
	}
	assert.False(t, classifyLine("15/03/2024 09:00-17:00").noise)
}

func TestClassifyLineAddress(t *testing.T) {
	tests := []struct {
		name string
		line string
		want string
	}{
		{"postal code", "Hoofdstraat 12, 9000 Gent", "Hoofdstraat 12, 9000 Gent"},
		{"street and number only", "Kerkplein 7", "Kerkplein 7"},
		{"shift row with trailing address", "15/03/2024 22:00-06:00 Hoofdstraat 12, 9000 Gent", "Hoofdstraat 12, 9000 Gent"},
		{"bare shift row", "16/03/2024 09:00-17:00", ""},
		{"noise phrase never address", "Opmerking: Hoofdstraat 12, 9000 Gent", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, classifyLine(tt.line).address)
		})
	}
}

func TestClassifyKindBoundaries(t *testing.T) {
	cfg := Config{DayStartHour: 6, NightStartHour: 18}

	assert.Equal(t, model.KindNight, classifyKind(model.TimeOfDay{Hour: 5, Minute: 59}, cfg))
	assert.Equal(t, model.KindDay, classifyKind(model.TimeOfDay{Hour: 6}, cfg))
	assert.Equal(t, model.KindDay, classifyKind(model.TimeOfDay{Hour: 17, Minute: 59}, cfg))
	assert.Equal(t, model.KindNight, classifyKind(model.TimeOfDay{Hour: 18}, cfg))
	assert.Equal(t, model.KindNight, classifyKind(model.TimeOfDay{Hour: 22}, cfg))

	// Boundaries are configuration, not hard-coded business fact.
	wide := Config{DayStartHour: 5, NightStartHour: 20}
	assert.Equal(t, model.KindDay, classifyKind(model.TimeOfDay{Hour: 19}, wide))
}
