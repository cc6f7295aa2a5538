package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/law-makers/mallcrawl/internal/engine"
	"github.com/law-makers/mallcrawl/internal/storage"
)

func TestExitCode(t *testing.T) {
	assert.Equal(t, ExitOK, exitCode(nil))
	assert.Equal(t, ExitError, exitCode(errors.New("boom")))
	assert.Equal(t, ExitError, exitCode(engine.PersistenceError("write failed", nil)))
	assert.Equal(t, ExitInterrupted, exitCode(context.Canceled))
	assert.Equal(t, ExitInterrupted, exitCode(errors.Join(errors.New("batch 3"), context.Canceled)))
}

func TestReadURLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "malls.txt")
	content := `# seed list
https://www.mecsr.org/directory-shopping-centres/dalma-mall/

https://www.mecsr.org/directory-shopping-centres/city-centre-deira/
https://www.mecsr.org/directory-shopping-centres/dalma-mall/
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	urls, err := readURLFile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"https://www.mecsr.org/directory-shopping-centres/dalma-mall/",
		"https://www.mecsr.org/directory-shopping-centres/city-centre-deira/",
	}, urls)
}

func TestReadURLFile_Errors(t *testing.T) {
	_, err := readURLFile(filepath.Join(t.TempDir(), "missing.txt"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.txt")
	require.NoError(t, os.WriteFile(path, []byte("https://ok.example/a\nftp://nope/b\n"), 0o644))
	_, err = readURLFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad.txt:2")
}

func TestWrapText(t *testing.T) {
	got := wrapText("one two three four five\n\n- keep this bullet as it is", 10)
	assert.Equal(t, "one two\nthree four\nfive\n\n- keep this bullet as it is", got)
}

func TestExtractCommand_SavedPage(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	page := filepath.Join(dir, "city-centre-deira.html")
	require.NoError(t, os.WriteFile(page, []byte(`<html><body>
<h1>City Centre Deira</h1>
<div class="post_location_map">Deira, Dubai, United Arab Emirates</div>
</body></html>`), 0o644))

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	t.Cleanup(func() { rootCmd.SetOut(nil) })
	rootCmd.SetArgs([]string{"extract", page, "--raw", "--quiet", "--output-dir", filepath.Join(dir, "data")})
	t.Cleanup(func() { rootCmd.SetArgs(nil) })

	require.NoError(t, rootCmd.ExecuteContext(context.Background()))

	var res extraction
	require.NoError(t, json.Unmarshal(out.Bytes(), &res))
	require.NotNil(t, res.Record, "rejected: %s", res.Rejection)
	assert.Contains(t, res.Record.Name, "Deira")
	assert.True(t, strings.HasSuffix(res.Record.URL, "/directory-shopping-centres/city-centre-deira/"))
	assert.Equal(t, "United Arab Emirates", res.Record.Country)
}

func TestLoadResume(t *testing.T) {
	store, err := storage.New(t.TempDir(), storage.Options{})
	require.NoError(t, err)

	cp, err := loadResume(store, "")
	require.NoError(t, err)
	assert.Nil(t, cp)

	cp, err = loadResume(store, "latest")
	require.NoError(t, err)
	assert.Nil(t, cp, "no checkpoint yet starts fresh")

	_, err = loadResume(store, filepath.Join(store.Dir(), "checkpoint_missing.json"))
	require.Error(t, err)
	assert.True(t, engine.IsNotFound(err))
	assert.Contains(t, err.Error(), store.CheckpointDir())
}
