package dynamic

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPool(t *testing.T) *BrowserPool {
	t.Helper()
	if testing.Short() {
		t.Skip("browser tests are slow")
	}
	if FindChrome() == "" {
		t.Skip("Chrome not installed")
	}
	pool, err := NewBrowserPool(PoolOptions{Size: 1, Headless: true})
	require.NoError(t, err)
	return pool
}

func TestFetch_RendersScriptOutput(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><body><h1>Dalma Mall</h1>
<div id="map"></div>
<script>document.getElementById("map").setAttribute("data-lat", "24.33");</script>
</body></html>`))
	}))
	defer server.Close()

	f := New(newTestPool(t), Options{Timeout: 20 * time.Second})
	defer f.Close()

	res := f.Fetch(context.Background(), server.URL)
	require.True(t, res.Success, res.Error)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Contains(t, res.Content, `data-lat="24.33"`)
	assert.Equal(t, "dynamic", f.Name())
}

func TestFetch_CancelledContext(t *testing.T) {
	pool := newTestPool(t)
	f := New(pool, Options{Timeout: 5 * time.Second})
	defer f.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res := f.Fetch(ctx, "http://127.0.0.1:1/")
	assert.False(t, res.Success)
	assert.NotEmpty(t, res.Error)
}

func TestBrowserPool_AcquireRelease(t *testing.T) {
	pool := newTestPool(t)
	defer pool.Close()

	assert.Equal(t, 1, pool.Size())
	tab, err := pool.Acquire(context.Background())
	require.NoError(t, err)
	assert.Zero(t, pool.Available())

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = pool.Acquire(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	pool.Release(tab)
	assert.Equal(t, 1, pool.Available())

	require.NoError(t, pool.Close())
	require.NoError(t, pool.Close())
	_, err = pool.Acquire(context.Background())
	assert.Error(t, err)
}

func TestAllocatorOptions(t *testing.T) {
	headless := allocatorOptions(PoolOptions{Headless: true, ChromePath: "/opt/chrome", Proxy: "http://p:1", UserAgent: "ua"})
	plain := allocatorOptions(PoolOptions{ChromePath: "/opt/chrome"})
	assert.Equal(t, len(plain)+2, len(headless))
}
