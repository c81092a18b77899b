// Package catalog loads and validates the static list of installable
// application records. The catalog is read-only after load and owns its
// records for the process lifetime.
package catalog

import (
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"os"

	"github.com/glorpus-work/instill/pkg/errors"
	"github.com/glorpus-work/instill/pkg/model"
	"github.com/rs/zerolog"
)

// Catalog is the validated, in-memory list of application records, indexed
// by app id and retained in source order.
type Catalog struct {
	apps []model.AppMetadata
	byID map[string]int
	log  zerolog.Logger
}

type catalogFile struct {
	Applications []model.AppMetadata `json:"applications"`
}

// Load reads and validates a catalog file from disk. Any validation failure
// is fatal: no partial catalog is ever returned.
func Load(path string, log zerolog.Logger) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCatalog, "failed to open catalog %s: %v", path, err)
	}
	defer func() { _ = f.Close() }()
	return Parse(f, log)
}

// Parse reads and validates a catalog from r.
func Parse(r io.Reader, log zerolog.Logger) (*Catalog, error) {
	var file catalogFile
	dec := json.NewDecoder(r)
	if err := dec.Decode(&file); err != nil {
		return nil, errors.Wrapf(errors.ErrCatalog, "failed to parse catalog: %v", err)
	}

	cat := &Catalog{
		apps: file.Applications,
		byID: make(map[string]int, len(file.Applications)),
		log:  log,
	}
	for i := range cat.apps {
		app := &cat.apps[i]
		if err := validate(app); err != nil {
			return nil, err
		}
		if _, exists := cat.byID[app.ID]; exists {
			return nil, errors.Wrapf(errors.ErrDuplicateApp, "%q", app.ID)
		}
		cat.byID[app.ID] = i
	}
	log.Debug().Int("apps", len(cat.apps)).Msg("catalog loaded")
	return cat, nil
}

// Get returns the record for the given app id.
func (c *Catalog) Get(id string) (model.AppMetadata, error) {
	i, ok := c.byID[id]
	if !ok {
		return model.AppMetadata{}, errors.Wrapf(errors.ErrAppNotFound, "%q", id)
	}
	return c.apps[i], nil
}

// Has reports whether the catalog contains the given app id.
func (c *Catalog) Has(id string) bool {
	_, ok := c.byID[id]
	return ok
}

// Apps returns all records in the insertion order of the source.
func (c *Catalog) Apps() []model.AppMetadata {
	out := make([]model.AppMetadata, len(c.apps))
	copy(out, c.apps)
	return out
}

func validate(app *model.AppMetadata) error {
	required := []struct {
		name, value string
	}{
		{"app_id", app.ID},
		{"name", app.Name},
		{"version", app.Version},
		{"uri", app.URI},
		{"sha256", app.SHA256},
		{"installer_type", string(app.InstallerType)},
	}
	for _, field := range required {
		if field.value == "" {
			return errors.Wrapf(errors.ErrCatalog, "record %q: missing required field %s", app.ID, field.name)
		}
	}

	it, err := model.ParseInstallerType(string(app.InstallerType))
	if err != nil {
		return errors.Wrapf(errors.ErrCatalog, "record %q: %v", app.ID, err)
	}
	app.InstallerType = it

	if _, err := url.Parse(app.URI); err != nil {
		return errors.Wrapf(errors.ErrCatalog, "record %q: unparseable uri %q: %v", app.ID, app.URI, err)
	}

	if (app.Signature == "") != (app.SignatureKey == "") {
		return fmt.Errorf("record %q: signature and signature_key must both be present or both absent: %w", app.ID, errors.ErrCatalog)
	}
	return nil
}
