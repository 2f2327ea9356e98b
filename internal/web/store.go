package web

import (
	"crypto/rand"
	"encoding/hex"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	appLog "shiftcal/internal/log"
)

// exportEntry is one generated .ics kept for download.
type exportEntry struct {
	data     []byte
	filename string
	expires  time.Time
}

// ExportStore keeps generated exports in memory under random tokens
// until they expire. Nothing is ever written to disk: a conversion is
// transient by design.
type ExportStore struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]exportEntry
	cron    *cron.Cron
}

func NewExportStore(ttl time.Duration) *ExportStore {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &ExportStore{
		ttl:     ttl,
		entries: make(map[string]exportEntry),
	}
}

// Put stores an export and returns its download token.
func (s *ExportStore) Put(data []byte, filename string) (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	token := hex.EncodeToString(buf)

	s.mu.Lock()
	s.entries[token] = exportEntry{
		data:     data,
		filename: filename,
		expires:  time.Now().Add(s.ttl),
	}
	s.mu.Unlock()

	return token, nil
}

// Get returns the export for token, or ok=false when unknown or expired.
func (s *ExportStore) Get(token string) (data []byte, filename string, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, found := s.entries[token]
	if !found || time.Now().After(entry.expires) {
		return nil, "", false
	}
	return entry.data, entry.filename, true
}

// Len reports the number of stored exports, expired ones included.
func (s *ExportStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// PurgeExpired drops every expired entry and returns how many were removed.
func (s *ExportStore) PurgeExpired() int {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for token, entry := range s.entries {
		if now.After(entry.expires) {
			delete(s.entries, token)
			removed++
		}
	}
	return removed
}

// StartPurger sweeps expired exports on the given cron schedule
// (e.g. "*/5 * * * *").
func (s *ExportStore) StartPurger(spec string) error {
	c := cron.New()
	_, err := c.AddFunc(spec, func() {
		if n := s.PurgeExpired(); n > 0 {
			appLog.Debug("purged expired exports", "count", n)
		}
	})
	if err != nil {
		return err
	}
	c.Start()
	s.cron = c
	return nil
}

// Stop halts the purge schedule, if one was started.
func (s *ExportStore) Stop() {
	if s.cron != nil {
		s.cron.Stop()
	}
}
