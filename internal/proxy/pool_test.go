package proxy

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProxyPool_Rotation(t *testing.T) {
	pool, err := NewProxyPool([]string{"http://p1:8080", "http://p2:8080", "http://p3:8080"}, nil)
	require.NoError(t, err)
	require.Equal(t, 3, pool.Len())

	assert.Equal(t, "http://p1:8080", pool.GetNext())
	assert.Equal(t, "http://p2:8080", pool.GetNext())
	assert.Equal(t, "http://p3:8080", pool.GetNext())
	assert.Equal(t, "http://p1:8080", pool.GetNext())

	pool.MarkFailed("http://p2:8080")
	assert.Equal(t, "http://p3:8080", pool.GetNext(), "p2 is cooling down")
	assert.Equal(t, "http://p1:8080", pool.GetNext())
	assert.Equal(t, "http://p3:8080", pool.GetNext())

	pool.MarkHealthy("http://p2:8080")
	assert.Equal(t, "http://p1:8080", pool.GetNext())
	assert.Equal(t, "http://p2:8080", pool.GetNext())
}

func TestProxyPool_AllFailed(t *testing.T) {
	pool, err := NewProxyPool([]string{"http://p1:8080", "http://p2:8080"}, nil)
	require.NoError(t, err)

	pool.MarkFailed("http://p1:8080")
	pool.MarkFailed("http://p2:8080")
	assert.NotEmpty(t, pool.GetNext(), "a proxy is still returned when all are cooling down")
}

func TestProxyPool_Empty(t *testing.T) {
	pool, err := NewProxyPool(nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "", pool.GetNext())
}

func TestProxyPool_InvalidProxy(t *testing.T) {
	_, err := NewProxyPool([]string{"not a proxy"}, nil)
	assert.Error(t, err)
}

func TestProxyPool_Transport(t *testing.T) {
	pool, err := NewProxyPool([]string{"http://p1:8080"}, nil)
	require.NoError(t, err)

	tr := pool.Transport("http://p1:8080")
	assert.Same(t, tr, pool.Transport("http://p1:8080"))

	req, _ := http.NewRequest(http.MethodGet, "https://www.mecsr.org/", nil)
	u, err := tr.Proxy(req)
	require.NoError(t, err)
	assert.Equal(t, "p1:8080", u.Host)
	pool.CloseIdle()
}
