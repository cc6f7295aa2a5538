package storage

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/law-makers/mallcrawl/internal/engine"
	"github.com/law-makers/mallcrawl/pkg/models"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// FileStats summarizes stored files of one kind.
type FileStats struct {
	Files  int       `json:"files"`
	Bytes  int64     `json:"bytes"`
	Newest time.Time `json:"newest,omitempty"`
}

// Stats describes what the output directory holds.
type Stats struct {
	Dir         string                            `json:"dir"`
	Formats     map[models.OutputFormat]FileStats `json:"formats"`
	Checkpoints FileStats                         `json:"checkpoints"`
	TotalBytes  int64                             `json:"total_bytes"`
}

func formatOf(name string) (models.OutputFormat, bool) {
	switch {
	case name == databaseName:
		return models.FormatSQLite, true
	case !strings.HasPrefix(name, filePrefix+"_"):
		return "", false
	case strings.HasSuffix(name, ".json"):
		return models.FormatJSON, true
	case strings.HasSuffix(name, ".csv"):
		return models.FormatCSV, true
	}
	return "", false
}

func (fs *FileStats) add(info os.FileInfo) {
	fs.Files++
	fs.Bytes += info.Size()
	if info.ModTime().After(fs.Newest) {
		fs.Newest = info.ModTime()
	}
}

// Stats walks the output directory.
func (s *Store) Stats() (*Stats, error) {
	st := &Stats{Dir: s.dir, Formats: make(map[models.OutputFormat]FileStats)}

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, engine.PersistenceError("read output directory", err)
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		format, ok := formatOf(e.Name())
		if !ok {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		fs := st.Formats[format]
		fs.add(info)
		st.Formats[format] = fs
		st.TotalBytes += info.Size()
	}

	paths, err := s.Checkpoints()
	if err != nil {
		return nil, err
	}
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			continue
		}
		st.Checkpoints.add(info)
		st.TotalBytes += info.Size()
	}
	return st, nil
}

// Cleanup removes JSON and CSV exports and checkpoint files older than
// olderThan. The SQLite database is never removed. It returns the removed paths.
func (s *Store) Cleanup(olderThan time.Duration) ([]string, error) {
	cutoff := s.now().Add(-olderThan)

	var candidates []string
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, engine.PersistenceError("read output directory", err)
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if format, ok := formatOf(e.Name()); ok && format != models.FormatSQLite {
			candidates = append(candidates, filepath.Join(s.dir, e.Name()))
		}
	}
	checkpoints, err := s.Checkpoints()
	if err != nil {
		return nil, err
	}
	candidates = append(candidates, checkpoints...)

	var removed []string
	for _, p := range candidates {
		info, err := os.Stat(p)
		if err != nil || !info.ModTime().Before(cutoff) {
			continue
		}
		if err := os.Remove(p); err != nil {
			return removed, engine.PersistenceError("remove "+p, err)
		}
		removed = append(removed, p)
	}
	sort.Strings(removed)
	log.Info().Int("removed", len(removed)).Dur("older_than", olderThan).Msg("Cleanup finished")
	return removed, nil
}

// ExportAll stores records in every format concurrently. Results follow
// models.Formats order; the first error is returned alongside them.
func (s *Store) ExportAll(ctx context.Context, records []models.ValidatedRecord) ([]*models.StoreResult, error) {
	results := make([]*models.StoreResult, len(models.Formats))
	g, ctx := errgroup.WithContext(ctx)
	for i, format := range models.Formats {
		g.Go(func() error {
			res, err := s.Store(ctx, records, format)
			results[i] = res
			return err
		})
	}
	return results, g.Wait()
}
