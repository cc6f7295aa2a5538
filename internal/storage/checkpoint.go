package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/law-makers/mallcrawl/internal/engine"
	"github.com/law-makers/mallcrawl/pkg/models"
	"github.com/rs/zerolog/log"
)

const checkpointPrefix = "checkpoint_"

// CheckpointDir returns the directory holding checkpoint files.
func (s *Store) CheckpointDir() string {
	return filepath.Join(s.dir, checkpointDir)
}

// SaveCheckpoint writes cp to checkpoints/checkpoint_{timestamp}_{ms}.json.
// Files are written whole and renamed into place.
func (s *Store) SaveCheckpoint(ctx context.Context, cp *models.RunCheckpoint) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	dir := s.CheckpointDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", engine.PersistenceError("create checkpoint directory", err)
	}

	if cp.Version == 0 {
		cp.Version = models.CheckpointVersion
	}
	data, err := json.MarshalIndent(cp, "", "  ")
	if err != nil {
		return "", engine.PersistenceError("encode checkpoint", err)
	}

	now := s.now()
	name := fmt.Sprintf("%s%s_%03d.json", checkpointPrefix, now.Format(timeLayout), now.Nanosecond()/1e6)
	path := filepath.Join(dir, name)
	if err := writeAtomic(path, data); err != nil {
		return "", engine.PersistenceError("write checkpoint", err)
	}

	log.Debug().
		Str("path", path).
		Int("batch", cp.CurrentBatch).
		Int("completed", len(cp.CompletedURLs)).
		Msg("Checkpoint saved")
	return path, nil
}

// LoadCheckpoint reads and validates a checkpoint file.
func LoadCheckpoint(path string) (*models.RunCheckpoint, error) {
	data, err := readInput(path, "checkpoint")
	if err != nil {
		return nil, err
	}
	cp, err := models.DecodeCheckpoint(data)
	if err != nil {
		return nil, engine.NewEngineError(engine.ErrCodeParseError, "invalid checkpoint "+path, err)
	}
	return cp, nil
}

// Checkpoints lists checkpoint files, oldest first.
func (s *Store) Checkpoints() ([]string, error) {
	entries, err := os.ReadDir(s.CheckpointDir())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, engine.PersistenceError("list checkpoints", err)
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasPrefix(e.Name(), checkpointPrefix) || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		paths = append(paths, filepath.Join(s.CheckpointDir(), e.Name()))
	}
	sort.Strings(paths)
	return paths, nil
}

// LatestCheckpoint loads the newest checkpoint. It returns nil, "" and no
// error when none exist.
func (s *Store) LatestCheckpoint() (*models.RunCheckpoint, string, error) {
	paths, err := s.Checkpoints()
	if err != nil || len(paths) == 0 {
		return nil, "", err
	}
	path := paths[len(paths)-1]
	cp, err := LoadCheckpoint(path)
	if err != nil {
		return nil, path, err
	}
	return cp, path, nil
}
