package app

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/law-makers/mallcrawl/internal/config"
	"github.com/law-makers/mallcrawl/internal/engine"
	"github.com/law-makers/mallcrawl/internal/engine/batch"
	"github.com/law-makers/mallcrawl/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.OutputDir = filepath.Join(t.TempDir(), "out")
	cfg.LogLevel = "error"
	return cfg
}

func TestNew_StaticWiring(t *testing.T) {
	cfg := testConfig(t)
	cfg.Headers = []string{"X-Test: 1"}
	a, err := New(context.Background(), cfg)
	require.NoError(t, err)
	defer a.Close(context.Background())

	assert.Equal(t, "static", a.Fetcher.Name())
	assert.Nil(t, a.BrowserPool)
	assert.NotNil(t, a.Cache)
	assert.NotNil(t, a.Crawler)
	assert.NotNil(t, a.Discoverer)
	assert.DirExists(t, cfg.OutputDir)

	opts := a.CrawlOptions(models.FormatCSV)
	assert.Equal(t, config.DefaultMaxConcurrent, opts.Concurrency)
	assert.Equal(t, config.DefaultRequestsPerMinute, opts.RequestsPerMinute)
	assert.Equal(t, models.FormatCSV, opts.Format)
}

func TestConcurrency_Auto(t *testing.T) {
	cfg := testConfig(t)
	cfg.MaxConcurrent = 0
	cfg.CacheMaxSizeBytes = 0
	a, err := New(context.Background(), cfg)
	require.NoError(t, err)
	defer a.Close(context.Background())

	assert.Nil(t, a.Cache)
	assert.Equal(t, batch.OptimalConcurrency(false), a.Concurrency())
}

func TestNew_AutoFallsBackWithoutBrowser(t *testing.T) {
	if testing.Short() {
		t.Skip("starts a browser process")
	}
	cfg := testConfig(t)
	cfg.RenderMode = string(models.RenderAuto)
	cfg.ChromePath = filepath.Join(t.TempDir(), "no-such-chrome")

	a, err := New(context.Background(), cfg)
	require.NoError(t, err)
	defer a.Close(context.Background())
	assert.Equal(t, "static", a.Fetcher.Name())
}

func TestNew_Errors(t *testing.T) {
	_, err := New(context.Background(), nil)
	assert.True(t, engine.IsConfiguration(err))

	cfg := testConfig(t)
	cfg.Proxies = []string{"not a proxy"}
	_, err = New(context.Background(), cfg)
	assert.True(t, engine.IsConfiguration(err))

	cfg = testConfig(t)
	cfg.Headers = []string{"broken"}
	_, err = New(context.Background(), cfg)
	assert.True(t, engine.IsConfiguration(err))
}
