package discovery

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/law-makers/mallcrawl/internal/engine"
	"github.com/law-makers/mallcrawl/internal/engine/static"
	"github.com/law-makers/mallcrawl/internal/ratelimit"
	"github.com/law-makers/mallcrawl/internal/retry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const listingPage = `<html><body>
<div class="search_results">
  <div class="search_result row">
    <a href="/directory-shopping-centres/dalma-mall/"><img class="search_result_image" alt="Dalma Mall"></a>
    <a href="https://www.mecsr.org/directory-shopping-centres/dalma-mall/" title="Dalma Mall">Dalma Mall</a>
    <span class="pull-left">Super Regional Mall</span>
    <span class="badge badge-success">Operational</span>
    <span class="postItem" data-postid="1234" data-userid="7" data-dataid="99" data-datatype="mall" data-lat="24.33" data-lng="54.52"></span>
  </div>
  <div class="search-result-item">
    <a href="/directory-shopping-centres/city-centre-deira/">City Centre Deira</a>
    <span class="badge">Operational</span>
  </div>
</div>
<a href="/directory-shopping-centres?page=2">2</a>
<a href="/directory-shopping-centres/">All malls</a>
<a href="/about-us/">About</a>
<a href="/directory-shopping-centres?page=2">Next »</a>
</body></html>`

func TestPageURL(t *testing.T) {
	u, err := PageURL("https://www.mecsr.org/", DefaultEndpoint, 1)
	require.NoError(t, err)
	assert.Equal(t, "https://www.mecsr.org/directory-shopping-centres", u)

	u, err = PageURL("https://www.mecsr.org", DefaultEndpoint, 10)
	require.NoError(t, err)
	assert.Equal(t, "https://www.mecsr.org/directory-shopping-centres?page=10", u)

	_, err = PageURL("https://www.mecsr.org", DefaultEndpoint, 0)
	assert.True(t, engine.IsConfiguration(err))
}

func TestPageURLs(t *testing.T) {
	urls, err := PageURLs("https://www.mecsr.org", DefaultEndpoint, 1, 3)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"https://www.mecsr.org/directory-shopping-centres",
		"https://www.mecsr.org/directory-shopping-centres?page=2",
		"https://www.mecsr.org/directory-shopping-centres?page=3",
	}, urls)

	_, err = PageURLs("https://www.mecsr.org", DefaultEndpoint, 0, 3)
	assert.True(t, engine.IsConfiguration(err))
	_, err = PageURLs("https://www.mecsr.org", DefaultEndpoint, 5, 4)
	assert.True(t, engine.IsConfiguration(err))
}

func TestExtractLinks(t *testing.T) {
	links, err := ExtractLinks(listingPage, "https://www.mecsr.org")
	require.NoError(t, err)
	assert.Equal(t, []string{
		"https://www.mecsr.org/directory-shopping-centres/dalma-mall/",
		"https://www.mecsr.org/directory-shopping-centres/city-centre-deira/",
	}, links)
}

func TestExtractEntries(t *testing.T) {
	entries, err := ExtractEntries(listingPage, "https://www.mecsr.org")
	require.NoError(t, err)
	require.Len(t, entries, 2)

	dalma := entries[0]
	assert.Equal(t, "Dalma Mall", dalma.Name)
	assert.Equal(t, "https://www.mecsr.org/directory-shopping-centres/dalma-mall/", dalma.URL)
	assert.Equal(t, "Super Regional Mall", dalma.PropertyType)
	assert.Equal(t, "Operational", dalma.Status)
	assert.Equal(t, "1234", dalma.PostID)
	assert.Equal(t, "mall", dalma.DataType)
	require.NotNil(t, dalma.Latitude)
	assert.InDelta(t, 24.33, *dalma.Latitude, 1e-9)

	assert.Equal(t, "City Centre Deira", entries[1].Name)
	assert.Nil(t, entries[1].Latitude)
}

func TestHasNextPage(t *testing.T) {
	assert.True(t, HasNextPage(listingPage))
	assert.True(t, HasNextPage(`<a href="?page=3">»</a>`))
	assert.False(t, HasNextPage(`<a href="/directory-shopping-centres/next-generation-mall/">Next Generation Mall</a>`))
	assert.False(t, HasNextPage(`<a href="?page=1">1</a>`))
}

// directoryServer serves pages listing two malls each; page last has no
// next link.
func directoryServer(t *testing.T, last int, repeatFrom int) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		if r.URL.Path != DefaultEndpoint {
			http.NotFound(w, r)
			return
		}
		page := 1
		if p := r.URL.Query().Get("page"); p != "" {
			_, _ = fmt.Sscanf(p, "%d", &page)
		}
		if page > last {
			http.NotFound(w, r)
			return
		}
		id := page
		if repeatFrom > 0 && page >= repeatFrom {
			id = repeatFrom - 1
		}
		body := fmt.Sprintf(`<div class="search_result">
<a href="/directory-shopping-centres/mall-%d-a/">Mall %d A</a>
<a href="/directory-shopping-centres/mall-%d-b/">Mall %d B</a></div>`, id, id, id, id)
		if page < last {
			body += fmt.Sprintf(`<a href="?page=%d">Next</a>`, page+1)
		}
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server, &requests
}

func fastRetry() retry.Config {
	cfg := retry.DefaultConfig()
	cfg.InitialBackoff = time.Millisecond
	cfg.MaxBackoff = 2 * time.Millisecond
	return cfg
}

func TestDiscover_WalksUntilLastPage(t *testing.T) {
	server, _ := directoryServer(t, 3, 0)
	d := New(static.New(nil, static.Options{}), ratelimit.NewDomainLimiter(1000, 10), fastRetry())

	res, err := d.Discover(context.Background(), Options{BaseURL: server.URL})
	require.NoError(t, err)
	assert.Equal(t, 3, res.PagesVisited)
	assert.Equal(t, 3, res.LastPage)
	assert.Equal(t, StopLastPage, res.StopReason)
	assert.Len(t, res.URLs, 6)
	assert.IsIncreasing(t, res.URLs)
	assert.Len(t, res.Entries, 3)
}

func TestDiscover_StopsWhenNoNewLinks(t *testing.T) {
	server, _ := directoryServer(t, 10, 3)
	d := New(static.New(nil, static.Options{}), nil, fastRetry())

	res, err := d.Discover(context.Background(), Options{BaseURL: server.URL})
	require.NoError(t, err)
	assert.Equal(t, 3, res.PagesVisited)
	assert.Equal(t, StopNoNewLinks, res.StopReason)
	assert.Len(t, res.URLs, 4)
}

func TestDiscover_MaxPagesAndResume(t *testing.T) {
	server, _ := directoryServer(t, 10, 0)
	d := New(static.New(nil, static.Options{}), nil, fastRetry())

	res, err := d.Discover(context.Background(), Options{BaseURL: server.URL, StartPage: 4, MaxPages: 2})
	require.NoError(t, err)
	assert.Equal(t, 2, res.PagesVisited)
	assert.Equal(t, 5, res.LastPage)
	assert.Equal(t, StopMaxPages, res.StopReason)
	assert.Contains(t, res.URLs, server.URL+"/directory-shopping-centres/mall-4-a/")
}

func TestDiscover_FirstPageFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	d := New(static.New(nil, static.Options{}), nil, fastRetry())
	_, err := d.Discover(context.Background(), Options{BaseURL: server.URL})
	require.Error(t, err)
	var httpErr retry.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusNotFound, httpErr.StatusCode)
}

func TestDiscover_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`<a href="/directory-shopping-centres/dalma-mall/">Dalma Mall</a>`))
	}))
	defer server.Close()

	d := New(static.New(nil, static.Options{}), nil, fastRetry())
	res, err := d.Discover(context.Background(), Options{BaseURL: server.URL})
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
	assert.Len(t, res.URLs, 1)
}

func TestDiscover_LaterFailureKeepsCollected(t *testing.T) {
	server, _ := directoryServer(t, 2, 0)
	// Page 2 advertises page 3, which 404s.
	wrapped := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page") == "2" {
			_, _ = w.Write([]byte(`<a href="/directory-shopping-centres/late-mall/">Late Mall</a><a href="?page=3">Next</a>`))
			return
		}
		proxyTo(w, r, server.URL)
	}))
	defer wrapped.Close()

	d := New(static.New(nil, static.Options{}), nil, fastRetry())
	res, err := d.Discover(context.Background(), Options{BaseURL: wrapped.URL})
	require.NoError(t, err)
	assert.Equal(t, StopFetchError, res.StopReason)
	assert.Equal(t, 2, res.PagesVisited)
	assert.Len(t, res.URLs, 3)
}

func TestDiscover_InvalidStart(t *testing.T) {
	d := New(static.New(nil, static.Options{}), nil, fastRetry())
	_, err := d.Discover(context.Background(), Options{BaseURL: "https://www.mecsr.org", StartPage: -1})
	assert.True(t, engine.IsConfiguration(err))
}

func proxyTo(w http.ResponseWriter, r *http.Request, target string) {
	resp, err := http.Get(target + r.URL.RequestURI())
	if err != nil {
		w.WriteHeader(http.StatusBadGateway)
		return
	}
	defer resp.Body.Close()
	w.WriteHeader(resp.StatusCode)
	_, _ = io.Copy(w, resp.Body)
}
