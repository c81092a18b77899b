package catalog

import (
	"strings"
	"testing"

	"github.com/glorpus-work/instill/pkg/errors"
	"github.com/glorpus-work/instill/pkg/model"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseCatalog(t *testing.T, src string) (*Catalog, error) {
	t.Helper()
	return Parse(strings.NewReader(src), zerolog.Nop())
}

func TestParse_ValidCatalog(t *testing.T) {
	cat, err := parseCatalog(t, `{
		"applications": [
			{"app_id":"demo-exe","name":"Demo EXE","version":"1.0","uri":"https://dl.example.com/demo.exe","sha256":"ab12","installer_type":"exe"},
			{"app_id":"demo-msi","name":"Demo MSI","version":"2.0","uri":"https://dl.example.com/demo.msi","sha256":"cd34","installer_type":"MSI","dependencies":["demo-exe"]}
		]
	}`)

	require.NoError(t, err)

	apps := cat.Apps()
	require.Len(t, apps, 2)
	assert.Equal(t, "demo-exe", apps[0].ID, "insertion order must be preserved")
	assert.Equal(t, "demo-msi", apps[1].ID)
	assert.Equal(t, model.InstallerTypeMSI, apps[1].InstallerType, "installer type is normalized case-insensitively")

	app, err := cat.Get("demo-msi")
	require.NoError(t, err)
	assert.Equal(t, []string{"demo-exe"}, app.Dependencies)
	assert.Empty(t, app.VettedDomains, "absent lists default to empty")
}

func TestParse_MissingRequiredField(t *testing.T) {
	tests := []struct {
		name   string
		record string
	}{
		{"missing app_id", `{"name":"X","version":"1","uri":"u","sha256":"s","installer_type":"exe"}`},
		{"missing name", `{"app_id":"x","version":"1","uri":"u","sha256":"s","installer_type":"exe"}`},
		{"missing version", `{"app_id":"x","name":"X","uri":"u","sha256":"s","installer_type":"exe"}`},
		{"missing uri", `{"app_id":"x","name":"X","version":"1","sha256":"s","installer_type":"exe"}`},
		{"missing sha256", `{"app_id":"x","name":"X","version":"1","uri":"u","installer_type":"exe"}`},
		{"missing installer_type", `{"app_id":"x","name":"X","version":"1","uri":"u","sha256":"s"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseCatalog(t, `{"applications":[`+tt.record+`]}`)
			require.Error(t, err)
			assert.ErrorIs(t, err, errors.ErrCatalog)
		})
	}
}

func TestParse_UnknownInstallerType(t *testing.T) {
	_, err := parseCatalog(t, `{"applications":[
		{"app_id":"x","name":"X","version":"1","uri":"u","sha256":"s","installer_type":"deb"}
	]}`)

	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrCatalog)
	assert.Contains(t, err.Error(), "deb")
}

func TestParse_DuplicateAppID(t *testing.T) {
	// Duplicates are fatal even when the records are identical.
	_, err := parseCatalog(t, `{"applications":[
		{"app_id":"demo-exe","name":"X","version":"1","uri":"u","sha256":"s","installer_type":"exe"},
		{"app_id":"demo-exe","name":"X","version":"1","uri":"u","sha256":"s","installer_type":"exe"}
	]}`)

	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrDuplicateApp)
	assert.ErrorIs(t, err, errors.ErrCatalog)
}

func TestParse_SignaturePairCoRequired(t *testing.T) {
	tests := []struct {
		name   string
		fields string
	}{
		{"signature without key", `"signature":"c2ln"`},
		{"key without signature", `"signature_key":"a2V5"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseCatalog(t, `{"applications":[
				{"app_id":"x","name":"X","version":"1","uri":"u","sha256":"s","installer_type":"exe",`+tt.fields+`}
			]}`)
			require.Error(t, err)
			assert.ErrorIs(t, err, errors.ErrCatalog)
		})
	}

	cat, err := parseCatalog(t, `{"applications":[
		{"app_id":"x","name":"X","version":"1","uri":"u","sha256":"s","installer_type":"exe","signature":"c2ln","signature_key":"a2V5"}
	]}`)
	require.NoError(t, err)
	app, err := cat.Get("x")
	require.NoError(t, err)
	assert.True(t, app.HasSignature())
}

func TestParse_NonHomogeneousList(t *testing.T) {
	_, err := parseCatalog(t, `{"applications":[
		{"app_id":"x","name":"X","version":"1","uri":"u","sha256":"s","installer_type":"exe","dependencies":["a",2]}
	]}`)

	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrCatalog)
}

func TestGet_NotFound(t *testing.T) {
	cat, err := parseCatalog(t, `{"applications":[]}`)
	require.NoError(t, err)

	_, err = cat.Get("nope")
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrAppNotFound)
	assert.False(t, cat.Has("nope"))
}
