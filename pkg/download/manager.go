// Package download fetches installer payloads into a shared cache directory,
// reusing cached files whose content hash still matches the catalog
// fingerprint. Remote fetches are gated on each record's vetted domain list.
package download

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/glorpus-work/instill/pkg/errors"
	"github.com/glorpus-work/instill/pkg/fsutil"
	"github.com/glorpus-work/instill/pkg/model"
	"github.com/rs/zerolog"
)

// Options configure a download manager.
type Options struct {
	// Dir is the download cache directory. Must be absolute.
	Dir string
	// SourceDir is the root that file:// and scheme-less URIs resolve
	// against. Empty means relative sources resolve against the working
	// directory.
	SourceDir string
	// Timeout is the fixed deadline for one HTTP fetch.
	Timeout time.Duration
	// UserAgent is sent on HTTP requests.
	UserAgent string
}

// Manager downloads installer payloads. It is intentionally minimal: one
// fixed HTTP deadline, no retries, no mirror selection.
type Manager struct {
	opts   Options
	client *http.Client
	log    zerolog.Logger
}

// DefaultTimeout is used when Options.Timeout is zero.
const DefaultTimeout = 30 * time.Second

// NewManager creates a download manager writing into opts.Dir.
func NewManager(opts Options, log zerolog.Logger) (*Manager, error) {
	if opts.Dir == "" || !filepath.IsAbs(opts.Dir) {
		return nil, fmt.Errorf("download dir must be absolute: %s: %w", opts.Dir, errors.ErrInvalidPath)
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "instill/1.0"
	}
	return &Manager{
		opts:   opts,
		client: &http.Client{Timeout: opts.Timeout},
		log:    log,
	}, nil
}

// Fetch places the payload for app into the cache directory and returns its
// path. cacheHit is true when an existing file already matched the catalog
// fingerprint and no transfer was performed. A corrupt or unreadable cached
// file is silently replaced. Failures never leave a usable partial file at
// the destination: payloads are written to a temp file and renamed into
// place only after their hash has been verified.
func (m *Manager) Fetch(ctx context.Context, app model.AppMetadata) (string, bool, error) {
	u := app.GetURI()
	if u == nil {
		return "", false, errors.Wrapf(errors.ErrDownload, "app %q: unparseable uri %q", app.ID, app.URI)
	}

	filename := path.Base(u.Path)
	if filename == "" || filename == "." || filename == "/" {
		return "", false, errors.Wrapf(errors.ErrDownload, "app %q: cannot determine filename from uri %q", app.ID, app.URI)
	}
	dest := filepath.Join(m.opts.Dir, filename)

	if m.cacheValid(dest, app.SHA256) {
		m.log.Debug().Str("app", app.ID).Str("path", dest).Msg("cache hit")
		return dest, true, nil
	}

	if err := os.MkdirAll(m.opts.Dir, fsutil.DirModeDefault); err != nil {
		return "", false, errors.Wrapf(errors.ErrDownload, "could not create download dir: %v", err)
	}

	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		if !app.DomainVetted(u.Hostname()) {
			return "", false, errors.Wrapf(errors.ErrDownload,
				"app %q: host %q is not in the vetted domains for this app", app.ID, u.Hostname())
		}
		if err := m.fetchHTTP(ctx, app, u.String(), dest); err != nil {
			return "", false, err
		}
	case "", "file":
		src := u.Path
		if u.Scheme == "" {
			src = app.URI
		}
		if !filepath.IsAbs(src) && m.opts.SourceDir != "" {
			src = filepath.Join(m.opts.SourceDir, src)
		}
		if err := m.fetchLocal(src, dest); err != nil {
			return "", false, err
		}
	default:
		return "", false, errors.Wrapf(errors.ErrDownload, "app %q: unsupported uri scheme %q", app.ID, u.Scheme)
	}

	m.log.Info().Str("app", app.ID).Str("path", dest).Msg("payload fetched")
	return dest, false, nil
}

// cacheValid reports whether an existing destination file already hashes to
// the expected fingerprint. Unreadable or mismatched files are cache misses.
func (m *Manager) cacheValid(dest, wantHex string) bool {
	st, err := os.Stat(dest)
	if err != nil || st.Size() == 0 {
		return false
	}
	got, err := hashFile(dest)
	return err == nil && strings.EqualFold(got, wantHex)
}

func (m *Manager) fetchHTTP(ctx context.Context, app model.AppMetadata, url, dest string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return errors.Wrapf(errors.ErrDownload, "failed to create request: %v", err)
	}
	req.Header.Set("User-Agent", m.opts.UserAgent)

	resp, err := m.client.Do(req)
	if err != nil {
		return errors.Wrapf(errors.ErrDownload, "app %q: download failed: %v", app.ID, err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return errors.Wrapf(errors.ErrDownload, "app %q: unexpected status code %d", app.ID, resp.StatusCode)
	}

	return m.writeToDest(resp.Body, dest)
}

func (m *Manager) fetchLocal(src, dest string) error {
	f, err := os.Open(src)
	if err != nil {
		if os.IsNotExist(err) {
			return errors.Wrapf(errors.ErrDownload, "local source %s does not exist", src)
		}
		return errors.Wrapf(errors.ErrDownload, "failed to open local source %s: %v", src, err)
	}
	defer func() { _ = f.Close() }()

	return m.writeToDest(f, dest)
}

// writeToDest streams r into a temp file in the cache directory, then
// renames it over the destination.
func (m *Manager) writeToDest(r io.Reader, dest string) error {
	tmp, err := os.CreateTemp(filepath.Dir(dest), "instill-dl-*.tmp")
	if err != nil {
		return errors.Wrapf(errors.ErrDownload, "could not create temp file: %v", err)
	}
	tmpPath := tmp.Name()

	if _, err := io.Copy(tmp, r); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return errors.Wrapf(errors.ErrDownload, "could not write payload: %v", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return errors.Wrapf(errors.ErrDownload, "could not sync payload: %v", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return errors.Wrapf(errors.ErrDownload, "could not close payload: %v", err)
	}

	if err := fsutil.Move(tmpPath, dest); err != nil {
		_ = os.Remove(tmpPath)
		return errors.Wrapf(errors.ErrDownload, "could not finalize payload: %v", err)
	}
	if err := os.Chmod(dest, fsutil.FileModeDefault); err != nil {
		return errors.Wrapf(errors.ErrDownload, "could not set permissions: %v", err)
	}
	return nil
}

func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer func() { _ = f.Close() }()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
