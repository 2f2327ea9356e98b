// Package web provides the upload-and-convert HTTP surface: a static
// upload page, the conversion API, and time-limited export downloads.
package web

import (
	"context"
	"crypto/subtle"
	"embed"
	"encoding/json"
	"errors"
	"io"
	"io/fs"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"shiftcal/internal/config"
	"shiftcal/internal/convert"
	appLog "shiftcal/internal/log"
	"shiftcal/internal/model"
)

// Server serves the upload UI and conversion API.
type Server struct {
	cfg      *config.Config
	store    *ExportStore
	validate *validator.Validate
	mux      *http.ServeMux
}

//go:embed static
var embeddedStatic embed.FS

// NewServer constructs a Server and starts the export purge schedule.
func NewServer(cfg *config.Config) (*Server, error) {
	s := &Server{
		cfg:      cfg,
		store:    NewExportStore(time.Duration(cfg.ExportTTLMinutes) * time.Minute),
		validate: validator.New(),
		mux:      http.NewServeMux(),
	}
	if err := s.store.StartPurger(cfg.PurgeCron); err != nil {
		return nil, err
	}
	s.registerRoutes()
	return s, nil
}

// Close stops background work (the export purger).
func (s *Server) Close() {
	s.store.Stop()
}

// Handler returns the underlying http.Handler, wrapped with basic auth
// when configured.
func (s *Server) Handler() http.Handler {
	h := http.Handler(s.mux)
	if s.basicAuthEnabled() {
		appLog.Info("HTTP basic auth enabled", "listen", "http://"+s.cfg.Listen)
		return s.basicAuthMiddleware(h)
	}
	return h
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("/api/convert", s.handleConvert)
	s.mux.HandleFunc("/api/download/", s.handleDownload)
	s.mux.Handle("/", s.staticFileServer())
}

func (s *Server) basicAuthEnabled() bool {
	if s.cfg == nil || s.cfg.BasicAuth == nil {
		return false
	}
	// Empty credentials count as disabled.
	return s.cfg.BasicAuth.Username != "" && s.cfg.BasicAuth.Password != ""
}

// basicAuthMiddleware wraps all handlers except /health.
func (s *Server) basicAuthMiddleware(next http.Handler) http.Handler {
	username := s.cfg.BasicAuth.Username
	password := s.cfg.BasicAuth.Password

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		u, p, ok := r.BasicAuth()
		if !ok || !secureCompare(u, username) || !secureCompare(p, password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="shiftcal", charset="UTF-8"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// staticFileServer serves the embedded upload page.
func (s *Server) staticFileServer() http.Handler {
	sub, err := fs.Sub(embeddedStatic, "static")
	if err != nil {
		appLog.Error("failed to initialize embedded static filesystem", err)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "UI not available", http.StatusServiceUnavailable)
		})
	}

	fileServer := http.FileServer(http.FS(sub))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/api") {
			http.NotFound(w, r)
			return
		}
		fileServer.ServeHTTP(w, r)
	})
}

// convertForm is the validated option set of one conversion request.
// Field names mirror the multipart form fields the upload page posts.
type convertForm struct {
	IncludeReminder bool
	ReminderAmount  int    `validate:"min=0,max=60"`
	ReminderUnit    string `validate:"omitempty,oneof=minutes hours days"`
	TZMode          string `validate:"omitempty,oneof=floating fixed"`
	DayStartHour    int    `validate:"min=0,max=23"`
	NightStartHour  int    `validate:"min=0,max=24"`
}

// shiftDTO is the JSON view of one normalized shift.
type shiftDTO struct {
	Date      string `json:"date"`
	Start     string `json:"start"`
	End       string `json:"end"`
	Overnight bool   `json:"overnight"`
	Kind      string `json:"kind"`
	Summary   string `json:"summary"`
	Location  string `json:"location,omitempty"`
}

// convertResponse is the JSON response of POST /api/convert.
type convertResponse struct {
	Shifts        []shiftDTO   `json:"shifts"`
	Diags         []model.Diag `json:"diags,omitempty"`
	Warning       string       `json:"warning,omitempty"`
	DownloadToken string       `json:"download_token"`
	Filename      string       `json:"filename"`
}

// handleConvert accepts a multipart upload with the schedule document
// and option fields, runs the conversion pipeline, and returns the
// parsed shifts plus a download token for the generated .ics.
func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "POST required")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	if err := r.ParseMultipartForm(s.cfg.MaxUploadBytes); err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "upload too large or malformed")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing file field")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read upload")
		return
	}

	form, err := s.parseForm(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := convert.Run(header.Filename, data, s.options(form))
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, model.ErrUnrecognizedFormat) || errors.Is(err, model.ErrIncompleteRecord) {
			status = http.StatusUnprocessableEntity
		}
		appLog.Error("conversion failed", err, "file", header.Filename)
		writeError(w, status, err.Error())
		return
	}

	token, err := s.store.Put(result.ICS, result.Filename)
	if err != nil {
		appLog.Error("failed to store export", err)
		writeError(w, http.StatusInternalServerError, "failed to store export")
		return
	}

	resp := convertResponse{
		Shifts:        make([]shiftDTO, 0, len(result.Shifts)),
		Diags:         result.Diags,
		DownloadToken: token,
		Filename:      result.Filename,
	}
	for _, sh := range result.Shifts {
		resp.Shifts = append(resp.Shifts, shiftDTO{
			Date:      sh.Date.Format("2006-01-02"),
			Start:     sh.Start.String(),
			End:       sh.End.String(),
			Overnight: sh.Overnight,
			Kind:      string(sh.Kind),
			Summary:   sh.Summary(),
			Location:  sh.Location,
		})
	}
	for _, d := range result.Diags {
		if d.Kind == model.DiagEmptyResult {
			resp.Warning = d.Message
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

// parseForm reads and validates the option fields of the request.
func (s *Server) parseForm(r *http.Request) (convertForm, error) {
	form := convertForm{
		IncludeReminder: formBool(r.FormValue("include_reminder")),
		ReminderUnit:    r.FormValue("reminder_unit"),
		TZMode:          r.FormValue("tz_mode"),
		DayStartHour:    s.cfg.DayStartHour,
		NightStartHour:  s.cfg.NightStartHour,
	}
	if v := r.FormValue("reminder_amount"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return form, errors.New("reminder_amount must be an integer")
		}
		form.ReminderAmount = n
	}
	if v := r.FormValue("day_start_hour"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			form.DayStartHour = n
		}
	}
	if v := r.FormValue("night_start_hour"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			form.NightStartHour = n
		}
	}

	if err := s.validate.Struct(form); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return form, errors.New("invalid option: " + verrs[0].Field())
		}
		return form, err
	}
	return form, nil
}

// options maps the validated form onto pipeline options, filling
// defaults from the server configuration.
func (s *Server) options(form convertForm) model.Options {
	opts := model.Options{
		TZMode:          model.TZFloating,
		TZName:          s.cfg.Timezone,
		TZOffsetMinutes: s.cfg.TZOffsetMinutes,
		DayStartHour:    form.DayStartHour,
		NightStartHour:  form.NightStartHour,
	}
	if form.TZMode == string(model.TZFixed) {
		opts.TZMode = model.TZFixed
	}
	if form.IncludeReminder {
		unit := model.ReminderUnit(form.ReminderUnit)
		if unit == "" {
			unit = model.UnitMinutes
		}
		opts.Reminder = &model.ReminderSpec{Amount: form.ReminderAmount, Unit: unit}
	}
	return opts
}

// handleDownload serves a previously generated export by token.
func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	token := strings.TrimPrefix(r.URL.Path, "/api/download/")
	if token == "" {
		writeError(w, http.StatusBadRequest, "missing token")
		return
	}

	data, filename, ok := s.store.Get(token)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown or expired download token")
		return
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func formBool(v string) bool {
	switch strings.ToLower(v) {
	case "1", "true", "on", "yes":
		return true
	}
	return false
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		appLog.Error("failed to encode JSON response", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// StartServer runs the HTTP server until ctx is canceled, then shuts
// down gracefully.
func StartServer(ctx context.Context, cfg *config.Config) error {
	s, err := NewServer(cfg)
	if err != nil {
		return err
	}
	defer s.Close()

	srv := &http.Server{
		Addr:              cfg.Listen,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		appLog.Info("starting HTTP server", "listen", "http://"+cfg.Listen)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}
