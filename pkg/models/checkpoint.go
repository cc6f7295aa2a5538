package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// CheckpointVersion is the current on-disk checkpoint schema version.
const CheckpointVersion = 1

// RunCheckpoint is a snapshot of crawl progress. A new checkpoint replaces
// the previous one; existing checkpoints are never mutated.
type RunCheckpoint struct {
	Version           int       `json:"version"`
	RunID             string    `json:"run_id"`
	Timestamp         time.Time `json:"timestamp"`
	CompletedURLs     []string  `json:"completedUrls"`
	FailedURLs        []string  `json:"failedUrls"`
	CurrentBatch      int       `json:"currentBatch"`
	TotalBatches      int       `json:"totalBatches"`
	PerformanceStats  RunStats  `json:"performanceStats"`
	LastSuccessfulURL string    `json:"lastSuccessfulUrl,omitempty"`
}

// Completed returns the completed URLs as a set.
func (c *RunCheckpoint) Completed() map[string]struct{} {
	set := make(map[string]struct{}, len(c.CompletedURLs))
	for _, u := range c.CompletedURLs {
		set[u] = struct{}{}
	}
	return set
}

// DecodeCheckpoint parses a checkpoint document and rejects unknown versions.
func DecodeCheckpoint(data []byte) (*RunCheckpoint, error) {
	var cp RunCheckpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		return nil, fmt.Errorf("decode checkpoint: %w", err)
	}
	if cp.Version != CheckpointVersion {
		return nil, fmt.Errorf("unsupported checkpoint version %d (want %d)", cp.Version, CheckpointVersion)
	}
	return &cp, nil
}
