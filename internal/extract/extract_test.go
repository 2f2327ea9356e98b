package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"shiftcal/internal/model"
)

func TestDetectByExtension(t *testing.T) {
	tests := []struct {
		filename string
		want     model.Format
	}{
		{"rooster.pdf", model.FormatPDF},
		{"rooster.PDF", model.FormatPDF},
		{"rooster.csv", model.FormatCSV},
		{"rooster.xlsx", model.FormatXLSX},
		{"rooster.xlsm", model.FormatXLSX},
	}
	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			got, err := Detect(tt.filename, nil)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDetectByContent(t *testing.T) {
	pdf, err := Detect("upload", []byte("%PDF-1.7\n"))
	require.NoError(t, err)
	assert.Equal(t, model.FormatPDF, pdf)

	xlsx, err := Detect("upload", []byte("PK\x03\x04rest"))
	require.NoError(t, err)
	assert.Equal(t, model.FormatXLSX, xlsx)

	csv, err := Detect("upload", []byte("datum,start,einde\n16/03/2024,09:00,17:00\n"))
	require.NoError(t, err)
	assert.Equal(t, model.FormatCSV, csv)
}

func TestDetectUnrecognized(t *testing.T) {
	_, err := Detect("schedule.bin", []byte{0x00, 0x01, 0x02})
	assert.ErrorIs(t, err, model.ErrUnrecognizedFormat)
}

func TestCSVRowsCommaDelimited(t *testing.T) {
	data := []byte("datum,start,einde\n16/03/2024,09:00,17:00\n\n17/03/2024,22:00,06:00\n")

	rows, err := Extract(model.FormatCSV, data)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"datum", "start", "einde"}, rows[0].Cells)
	assert.Equal(t, []string{"17/03/2024", "22:00", "06:00"}, rows[2].Cells)
	assert.Equal(t, 2, rows[2].Index)
}

func TestCSVRowsSemicolonDelimited(t *testing.T) {
	data := []byte("datum;start;einde\n16/03/2024;09:00;17:00\n")

	rows, err := Extract(model.FormatCSV, data)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"16/03/2024", "09:00", "17:00"}, rows[1].Cells)
}

func TestCSVRowsEmptyDocument(t *testing.T) {
	rows, err := Extract(model.FormatCSV, []byte(""))
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestXLSXRowsFirstSheet(t *testing.T) {
	f := excelize.NewFile()
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]any{"Datum", "Start", "Einde"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]any{"16/03/2024", "09:00", "17:00"}))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	rows, extractErr := Extract(model.FormatXLSX, buf.Bytes())
	require.NoError(t, extractErr)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"Datum", "Start", "Einde"}, rows[0].Cells)
	assert.Equal(t, []string{"16/03/2024", "09:00", "17:00"}, rows[1].Cells)
}

func TestXLSXRowsGarbageRejected(t *testing.T) {
	_, err := Extract(model.FormatXLSX, []byte("not a workbook"))
	assert.ErrorIs(t, err, model.ErrUnrecognizedFormat)
}

func TestPDFRowsGarbageRejected(t *testing.T) {
	_, err := Extract(model.FormatPDF, []byte("not a pdf"))
	assert.ErrorIs(t, err, model.ErrUnrecognizedFormat)
}
