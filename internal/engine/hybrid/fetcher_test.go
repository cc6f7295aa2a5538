package hybrid

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/law-makers/mallcrawl/pkg/models"
	"github.com/stretchr/testify/assert"
)

type stubFetcher struct {
	name   string
	result models.FetchResult
	calls  int
	closed bool
}

func (s *stubFetcher) Name() string { return s.name }
func (s *stubFetcher) Close() error { s.closed = true; return nil }
func (s *stubFetcher) Fetch(_ context.Context, u string) models.FetchResult {
	s.calls++
	r := s.result
	r.URL = u
	return r
}

const staticMall = `<html><body><h1>Dalma Mall - Shopping Centre</h1>
<p>GLA in SQM: 200,000</p><script>var x = 1;</script></body></html>`

const spaShell = `<html><body><div id="root"></div><script src="/bundle.js"></script></body></html>`

func TestDetermineStrategy(t *testing.T) {
	tests := []struct {
		name   string
		markup string
		want   Strategy
	}{
		{"no scripts", `<html><body><p>plain</p></body></html>`, StrategyStatic},
		{"mall details with scripts", staticMall, StrategyStatic},
		{"react shell", spaShell, StrategyDynamic},
		{"next data", `<html><body><script id="__NEXT_DATA__">{}</script></body></html>`, StrategyDynamic},
		{"angular", `<html><body ng-app="mall"><script></script></body></html>`, StrategyDynamic},
		{"scripted but empty", `<html><body><h1>Loading</h1><script></script></body></html>`, StrategyDynamic},
		{"long article", `<html><body><script></script><p>` + strings.Repeat("words ", 60) + `</p></body></html>`, StrategyStatic},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetermineStrategy(Inspect(tt.markup)))
		})
	}
	assert.True(t, NeedsJavaScript(spaShell))
	assert.Equal(t, "Dynamic", StrategyDynamic.String())
}

func TestInspect(t *testing.T) {
	s := Inspect(staticMall)
	assert.Equal(t, "Unknown", s.Framework)
	assert.Equal(t, 1, s.ScriptCount)
	assert.True(t, s.HasHeading)
	assert.True(t, s.HasDetails)

	assert.Equal(t, "React", Inspect(spaShell).Framework)
}

func TestFetch_KeepsStaticMarkup(t *testing.T) {
	st := &stubFetcher{name: "static", result: models.FetchResult{Success: true, StatusCode: 200, Content: staticMall}}
	dy := &stubFetcher{name: "dynamic"}

	res := New(st, dy).Fetch(context.Background(), "https://www.mecsr.org/a/")
	assert.Equal(t, staticMall, res.Content)
	assert.Zero(t, dy.calls)
}

func TestFetch_RendersShell(t *testing.T) {
	st := &stubFetcher{name: "static", result: models.FetchResult{Success: true, StatusCode: 200, Content: spaShell, Elapsed: time.Second}}
	dy := &stubFetcher{name: "dynamic", result: models.FetchResult{Success: true, StatusCode: 200, Content: staticMall, Elapsed: 2 * time.Second}}

	res := New(st, dy).Fetch(context.Background(), "https://www.mecsr.org/a/")
	assert.Equal(t, staticMall, res.Content)
	assert.Equal(t, 3*time.Second, res.Elapsed)
	assert.Equal(t, 1, dy.calls)
}

func TestFetch_RenderFailureFallsBack(t *testing.T) {
	st := &stubFetcher{name: "static", result: models.FetchResult{Success: true, StatusCode: 200, Content: spaShell}}
	dy := &stubFetcher{name: "dynamic", result: models.FetchResult{Error: "chrome crashed"}}

	res := New(st, dy).Fetch(context.Background(), "https://www.mecsr.org/a/")
	assert.True(t, res.Success)
	assert.Equal(t, spaShell, res.Content)
}

func TestFetch_StaticFailureIsReturned(t *testing.T) {
	st := &stubFetcher{name: "static", result: models.FetchResult{Error: "connection refused"}}
	dy := &stubFetcher{name: "dynamic"}

	f := New(st, dy)
	res := f.Fetch(context.Background(), "https://www.mecsr.org/a/")
	assert.False(t, res.Success)
	assert.Zero(t, dy.calls)

	assert.NoError(t, f.Close())
	assert.True(t, st.closed)
	assert.True(t, dy.closed)
	assert.Equal(t, "auto", f.Name())
}
