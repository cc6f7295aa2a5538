// Package storage persists validated mall records as JSON, CSV or SQLite
// and keeps crawl checkpoints next to them.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/law-makers/mallcrawl/internal/engine"
	"github.com/law-makers/mallcrawl/pkg/models"
	"github.com/rs/zerolog/log"
)

const (
	filePrefix    = "mecsr_malls"
	databaseName  = "mecsr_malls.db"
	checkpointDir = "checkpoints"
	timeLayout    = "20060102_150405"
	exportSource  = "MECSR Directory Crawler"
)

// Options tune the sink.
type Options struct {
	// IncludeCoordinates adds latitude and longitude columns to CSV output.
	IncludeCoordinates bool
}

// Store writes records and checkpoints under one output directory. It is
// safe for concurrent use.
type Store struct {
	dir  string
	opts Options
	now  func() time.Time

	mu sync.Mutex
	db *sqlx.DB
}

// New creates the output directory if needed.
func New(dir string, opts Options) (*Store, error) {
	if dir == "" {
		return nil, engine.PersistenceError("output directory is empty", nil)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, engine.PersistenceError("create output directory", err)
	}
	return &Store{dir: dir, opts: opts, now: time.Now}, nil
}

// Dir returns the output directory.
func (s *Store) Dir() string {
	return s.dir
}

// Store persists records in the given format.
func (s *Store) Store(ctx context.Context, records []models.ValidatedRecord, format models.OutputFormat) (*models.StoreResult, error) {
	var (
		res *models.StoreResult
		err error
	)
	switch format {
	case models.FormatJSON:
		res, err = s.StoreJSON(records)
	case models.FormatCSV:
		res, err = s.StoreCSV(records)
	case models.FormatSQLite:
		res, err = s.StoreSQLite(ctx, records)
	default:
		return &models.StoreResult{Format: format, Error: "unsupported format"},
			engine.PersistenceError(fmt.Sprintf("unsupported format %q", format), nil)
	}

	if err != nil {
		log.Error().Err(err).Str("format", string(format)).Msg("Store failed")
		return &models.StoreResult{Format: format, Error: err.Error()}, err
	}
	log.Info().
		Str("format", string(format)).
		Int("records", res.RecordsStored).
		Str("path", res.StoragePath).
		Msg("Records stored")
	return res, nil
}

// Close releases the database handle, if one was opened.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *Store) timestampedPath(ext string) string {
	return filepath.Join(s.dir, fmt.Sprintf("%s_%s.%s", filePrefix, s.now().Format(timeLayout), ext))
}

// writeAtomic writes data to a temp file in the target directory and renames
// it into place.
func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// readInput reads a file the caller named. A missing file is a not-found
// error; anything else is a persistence error.
func readInput(path, what string) ([]byte, error) {
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return nil, engine.NotFoundError(what+" "+path, err)
	case err != nil:
		return nil, engine.PersistenceError("read "+what, err)
	}
	return data, nil
}
