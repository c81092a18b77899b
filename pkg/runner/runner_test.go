package runner

import (
	"context"
	"testing"

	"github.com/glorpus-work/instill/pkg/errors"
	"github.com/glorpus-work/instill/pkg/model"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingExecutor captures every argv it is asked to run.
type recordingExecutor struct {
	commands [][]string
	err      error
}

func (r *recordingExecutor) Run(_ context.Context, argv []string) (Result, error) {
	r.commands = append(r.commands, argv)
	if r.err != nil {
		return Result{Command: argv}, r.err
	}
	return Result{Command: argv}, nil
}

func TestInstall_MSICommand(t *testing.T) {
	rec := &recordingExecutor{}
	r := New(rec, zerolog.Nop())
	app := model.AppMetadata{ID: "demo-msi", InstallerType: model.InstallerTypeMSI, SilentArgs: []string{"REBOOT=ReallySuppress"}}

	_, err := r.Install(context.Background(), app, `C:\cache\demo.msi`)
	require.NoError(t, err)
	require.Len(t, rec.commands, 1)
	assert.Equal(t,
		[]string{"msiexec", "/i", `C:\cache\demo.msi`, "/qn", "/norestart", "REBOOT=ReallySuppress"},
		rec.commands[0])
}

func TestInstall_EXECommand(t *testing.T) {
	tests := []struct {
		name       string
		silentArgs []string
		want       []string
	}{
		{
			name: "defaults apply when silent args are empty",
			want: []string{`C:\cache\demo.exe`, "/quiet", "/norestart"},
		},
		{
			name:       "explicit silent args replace the defaults",
			silentArgs: []string{"/S", "/v"},
			want:       []string{`C:\cache\demo.exe`, "/S", "/v"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &recordingExecutor{}
			r := New(rec, zerolog.Nop())
			app := model.AppMetadata{ID: "demo-exe", InstallerType: model.InstallerTypeEXE, SilentArgs: tt.silentArgs}

			_, err := r.Install(context.Background(), app, `C:\cache\demo.exe`)
			require.NoError(t, err)
			assert.Equal(t, tt.want, rec.commands[0])
		})
	}
}

func TestInstall_APPXCommand(t *testing.T) {
	rec := &recordingExecutor{}
	r := New(rec, zerolog.Nop())
	app := model.AppMetadata{ID: "demo-appx", InstallerType: model.InstallerTypeAPPX}

	_, err := r.Install(context.Background(), app, `C:\cache\demo.appx`)
	require.NoError(t, err)
	require.Len(t, rec.commands, 1)
	cmd := rec.commands[0]
	assert.Equal(t, "powershell", cmd[0])
	assert.Equal(t, `Add-AppxPackage -ForceApplicationShutdown "C:\cache\demo.appx"`, cmd[len(cmd)-1])
}

func TestUninstall_ExplicitCommandPreferred(t *testing.T) {
	rec := &recordingExecutor{}
	r := New(rec, zerolog.Nop())
	app := model.AppMetadata{
		ID:               "demo-msi",
		InstallerType:    model.InstallerTypeMSI,
		UninstallCommand: `"C:\Program Files\Demo\unins.exe" /silent`,
	}

	_, err := r.Uninstall(context.Background(), app, `C:\cache\demo.msi`)
	require.NoError(t, err)
	assert.Equal(t, []string{`C:\Program Files\Demo\unins.exe`, "/silent"}, rec.commands[0])
}

func TestUninstall_MSIWithoutExplicitCommand(t *testing.T) {
	rec := &recordingExecutor{}
	r := New(rec, zerolog.Nop())
	app := model.AppMetadata{ID: "demo-msi", InstallerType: model.InstallerTypeMSI}

	_, err := r.Uninstall(context.Background(), app, `C:\cache\demo.msi`)
	require.NoError(t, err)
	assert.Equal(t, []string{"msiexec", "/x", `C:\cache\demo.msi`, "/qn", "/norestart"}, rec.commands[0])
}

func TestUninstall_MSIRequiresInstallerPath(t *testing.T) {
	r := New(&recordingExecutor{}, zerolog.Nop())
	app := model.AppMetadata{ID: "demo-msi", InstallerType: model.InstallerTypeMSI}

	_, err := r.Uninstall(context.Background(), app, "")
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrInstaller)
}

func TestUninstall_EXEAndAPPXUnsupportedWithoutCommand(t *testing.T) {
	for _, it := range []model.InstallerType{model.InstallerTypeEXE, model.InstallerTypeAPPX} {
		t.Run(string(it), func(t *testing.T) {
			rec := &recordingExecutor{}
			r := New(rec, zerolog.Nop())

			_, err := r.Uninstall(context.Background(), model.AppMetadata{ID: "demo", InstallerType: it}, `C:\cache\demo`)
			require.Error(t, err)
			assert.ErrorIs(t, err, errors.ErrInstaller)
			assert.Empty(t, rec.commands, "nothing may execute without a command")
		})
	}
}

func TestDryRunExecutor(t *testing.T) {
	r := New(DryRunExecutor{}, zerolog.Nop())
	app := model.AppMetadata{ID: "demo-exe", InstallerType: model.InstallerTypeEXE}

	res, err := r.Install(context.Background(), app, `C:\cache\demo.exe`)
	require.NoError(t, err)
	assert.True(t, res.DryRun)
	assert.Equal(t, []string{`C:\cache\demo.exe`, "/quiet", "/norestart"}, res.Command)
	assert.Zero(t, res.ExitCode)
}

func TestTokenize(t *testing.T) {
	tests := []struct {
		in      string
		want    []string
		wantErr bool
	}{
		{in: `a b c`, want: []string{"a", "b", "c"}},
		{in: `"a b" c`, want: []string{"a b", "c"}},
		{in: `'a b' c`, want: []string{"a b", "c"}},
		{in: `app --path="C:\Program Files"`, want: []string{"app", `--path=C:\Program Files`}},
		{in: `"unterminated`, wantErr: true},
		{in: `   `, wantErr: true},
	}
	for _, tt := range tests {
		got, err := tokenize(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}
