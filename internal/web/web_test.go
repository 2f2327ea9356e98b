package web

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shiftcal/internal/config"
)

func testServer(t *testing.T, mutate func(*config.Config)) *Server {
	t.Helper()

	cfg := config.DefaultConfig()
	if mutate != nil {
		mutate(cfg)
	}
	s, err := NewServer(cfg)
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return s
}

func multipartUpload(t *testing.T, filename string, content []byte, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	fw, err := w.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	require.NoError(t, w.Close())
	return &body, w.FormDataContentType()
}

func TestHealth(t *testing.T) {
	s := testServer(t, nil)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
}

func TestConvertAndDownload(t *testing.T) {
	s := testServer(t, nil)

	csv := []byte("datum,start,einde\n15/03/2024,22:00,06:00\n")
	body, contentType := multipartUpload(t, "rooster.csv", csv, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/convert", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp convertResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Shifts, 1)
	assert.Equal(t, "2024-03-15", resp.Shifts[0].Date)
	assert.True(t, resp.Shifts[0].Overnight)
	assert.Equal(t, "Nachtdienst", resp.Shifts[0].Summary)
	assert.Equal(t, "planning_2024_03.ics", resp.Filename)
	require.NotEmpty(t, resp.DownloadToken)

	dlReq := httptest.NewRequest(http.MethodGet, "/api/download/"+resp.DownloadToken, nil)
	dlRec := httptest.NewRecorder()
	s.Handler().ServeHTTP(dlRec, dlReq)

	require.Equal(t, http.StatusOK, dlRec.Code)
	assert.Equal(t, "text/calendar; charset=utf-8", dlRec.Header().Get("Content-Type"))
	assert.Contains(t, dlRec.Body.String(), "BEGIN:VCALENDAR")
	assert.Contains(t, dlRec.Body.String(), "DTEND:20240316T060000")
	assert.NotContains(t, dlRec.Body.String(), "BEGIN:VALARM")
}

func TestConvertWithReminder(t *testing.T) {
	s := testServer(t, nil)

	csv := []byte("datum,start,einde\n16/03/2024,09:00,17:00\n")
	body, contentType := multipartUpload(t, "rooster.csv", csv, map[string]string{
		"include_reminder": "true",
		"reminder_amount":  "2",
		"reminder_unit":    "hours",
	})

	req := httptest.NewRequest(http.MethodPost, "/api/convert", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp convertResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	data, _, ok := s.store.Get(resp.DownloadToken)
	require.True(t, ok)
	assert.Contains(t, string(data), "BEGIN:VALARM")
	assert.Contains(t, string(data), "TRIGGER:-PT2H")
}

func TestConvertRejectsBadOptions(t *testing.T) {
	s := testServer(t, nil)

	csv := []byte("datum,start,einde\n16/03/2024,09:00,17:00\n")
	body, contentType := multipartUpload(t, "rooster.csv", csv, map[string]string{
		"reminder_unit": "fortnights",
	})

	req := httptest.NewRequest(http.MethodPost, "/api/convert", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestConvertUnknownFormat(t *testing.T) {
	s := testServer(t, nil)

	body, contentType := multipartUpload(t, "schedule.bin", []byte{0x00, 0x01}, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/convert", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestConvertMissingFile(t *testing.T) {
	s := testServer(t, nil)

	var b bytes.Buffer
	w := multipart.NewWriter(&b)
	require.NoError(t, w.WriteField("tz_mode", "floating"))
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/convert", &b)
	req.Header.Set("Content-Type", w.FormDataContentType())
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDownloadUnknownToken(t *testing.T) {
	s := testServer(t, nil)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/download/deadbeef", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestBasicAuth(t *testing.T) {
	s := testServer(t, func(cfg *config.Config) {
		cfg.BasicAuth = &config.BasicAuthConfig{Username: "planner", Password: "secret"}
	})

	// /health stays open.
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	// API requires credentials.
	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/download/x", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/download/x", nil)
	req.SetBasicAuth("planner", "secret")
	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestExportStoreExpiry(t *testing.T) {
	store := NewExportStore(10 * time.Millisecond)

	token, err := store.Put([]byte("ICS"), "planning.ics")
	require.NoError(t, err)

	_, _, ok := store.Get(token)
	assert.True(t, ok)

	time.Sleep(20 * time.Millisecond)
	_, _, ok = store.Get(token)
	assert.False(t, ok)

	assert.Equal(t, 1, store.Len())
	assert.Equal(t, 1, store.PurgeExpired())
	assert.Equal(t, 0, store.Len())
}
