package download

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"testing"

	"github.com/glorpus-work/instill/pkg/errors"
	"github.com/glorpus-work/instill/pkg/model"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sha256Hex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func newTestManager(t *testing.T, opts Options) *Manager {
	t.Helper()
	if opts.Dir == "" {
		opts.Dir = t.TempDir()
	}
	m, err := NewManager(opts, zerolog.Nop())
	require.NoError(t, err)
	return m
}

func TestNewManager_RequiresAbsoluteDir(t *testing.T) {
	_, err := NewManager(Options{Dir: "relative/dir"}, zerolog.Nop())
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrInvalidPath)
}

func TestFetch_HTTPDownload(t *testing.T) {
	payload := []byte("installer bytes")
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits++
		_, _ = w.Write(payload)
	}))
	defer srv.Close()
	host := hostOf(t, srv.URL)

	m := newTestManager(t, Options{})
	app := model.AppMetadata{
		ID:            "demo-exe",
		URI:           srv.URL + "/demo.exe",
		SHA256:        sha256Hex(payload),
		VettedDomains: []string{host},
	}

	path, cacheHit, err := m.Fetch(context.Background(), app)
	require.NoError(t, err)
	assert.False(t, cacheHit)
	assert.Equal(t, 1, hits)
	assert.Equal(t, "demo.exe", filepath.Base(path))

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestFetch_CacheHitSkipsNetwork(t *testing.T) {
	payload := []byte("cached installer")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		t.Error("network must not be touched on a valid cache hit")
	}))
	defer srv.Close()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "demo.exe"), payload, 0o644))

	m := newTestManager(t, Options{Dir: dir})
	app := model.AppMetadata{
		ID:            "demo-exe",
		URI:           srv.URL + "/demo.exe",
		SHA256:        sha256Hex(payload),
		VettedDomains: []string{hostOf(t, srv.URL)},
	}

	path, cacheHit, err := m.Fetch(context.Background(), app)
	require.NoError(t, err)
	assert.True(t, cacheHit)
	assert.Equal(t, filepath.Join(dir, "demo.exe"), path)
}

func TestFetch_CorruptCacheReplaced(t *testing.T) {
	payload := []byte("fresh installer")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write(payload)
	}))
	defer srv.Close()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "demo.exe"), []byte("tampered"), 0o644))

	m := newTestManager(t, Options{Dir: dir})
	app := model.AppMetadata{
		ID:            "demo-exe",
		URI:           srv.URL + "/demo.exe",
		SHA256:        sha256Hex(payload),
		VettedDomains: []string{hostOf(t, srv.URL)},
	}

	path, cacheHit, err := m.Fetch(context.Background(), app)
	require.NoError(t, err)
	assert.False(t, cacheHit)

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, payload, got, "corrupt cache is silently replaced")
}

func TestFetch_UnvettedDomainRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		t.Error("unvetted host must not be contacted")
	}))
	defer srv.Close()

	m := newTestManager(t, Options{})
	app := model.AppMetadata{
		ID:            "demo-exe",
		URI:           srv.URL + "/demo.exe",
		SHA256:        "ab",
		VettedDomains: []string{"downloads.example.com"},
	}

	_, _, err := m.Fetch(context.Background(), app)
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrDownload)
	assert.Contains(t, err.Error(), "vetted")
}

func TestFetch_VettedDomainCaseInsensitive(t *testing.T) {
	payload := []byte("x")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write(payload)
	}))
	defer srv.Close()
	host := hostOf(t, srv.URL)

	m := newTestManager(t, Options{})
	app := model.AppMetadata{
		ID:            "demo-exe",
		URI:           srv.URL + "/demo.exe",
		SHA256:        sha256Hex(payload),
		VettedDomains: []string{toUpper(host)},
	}

	_, _, err := m.Fetch(context.Background(), app)
	require.NoError(t, err)
}

func TestFetch_HTTPErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	dir := t.TempDir()
	m := newTestManager(t, Options{Dir: dir})
	app := model.AppMetadata{
		ID:            "demo-exe",
		URI:           srv.URL + "/demo.exe",
		SHA256:        "ab",
		VettedDomains: []string{hostOf(t, srv.URL)},
	}

	_, _, err := m.Fetch(context.Background(), app)
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrDownload)

	_, statErr := os.Stat(filepath.Join(dir, "demo.exe"))
	assert.True(t, os.IsNotExist(statErr), "no partial destination file may remain")
}

func TestFetch_LocalFile(t *testing.T) {
	payload := []byte("local installer")
	srcDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(srcDir, "demo.msi"), payload, 0o644))

	m := newTestManager(t, Options{SourceDir: srcDir})
	app := model.AppMetadata{ID: "demo-msi", URI: "demo.msi", SHA256: sha256Hex(payload)}

	path, cacheHit, err := m.Fetch(context.Background(), app)
	require.NoError(t, err)
	assert.False(t, cacheHit)

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestFetch_LocalFileMissing(t *testing.T) {
	m := newTestManager(t, Options{SourceDir: t.TempDir()})
	app := model.AppMetadata{ID: "demo-msi", URI: "ghost.msi", SHA256: "ab"}

	_, _, err := m.Fetch(context.Background(), app)
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrDownload)
	assert.Contains(t, err.Error(), "does not exist")
}

func TestFetch_UnsupportedScheme(t *testing.T) {
	m := newTestManager(t, Options{})
	app := model.AppMetadata{ID: "demo", URI: "ftp://example.com/demo.exe", SHA256: "ab"}

	_, _, err := m.Fetch(context.Background(), app)
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrDownload)
	assert.Contains(t, err.Error(), "unsupported uri scheme")
}

func TestFetch_UndeterminableFilename(t *testing.T) {
	m := newTestManager(t, Options{})
	app := model.AppMetadata{ID: "demo", URI: "https://example.com/", SHA256: "ab", VettedDomains: []string{"example.com"}}

	_, _, err := m.Fetch(context.Background(), app)
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrDownload)
	assert.Contains(t, err.Error(), "filename")
}

func hostOf(t *testing.T, rawURL string) string {
	t.Helper()
	u, err := url.Parse(rawURL)
	require.NoError(t, err)
	return u.Hostname()
}

func toUpper(s string) string {
	out := []rune(s)
	for i, r := range out {
		if r >= 'a' && r <= 'z' {
			out[i] = r - 'a' + 'A'
		}
	}
	return string(out)
}
