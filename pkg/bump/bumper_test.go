package bump

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openstax/versionbump/pkg/logging"
	"github.com/openstax/versionbump/pkg/manifest"
	"github.com/openstax/versionbump/pkg/version"
)

func setup(t *testing.T, files map[string]string) (afero.Fs, *clock.Mock) {
	t.Helper()
	fs := afero.NewMemMapFs()
	for path, content := range files {
		require.NoError(t, afero.WriteFile(fs, path, []byte(content), 0644))
	}
	return fs, clock.NewMock()
}

func newBumper(t *testing.T, fs afero.Fs, clk clock.Clock, opts Options) *Bumper {
	t.Helper()
	if opts.Dir == "" {
		opts.Dir = "/app"
	}
	b, err := New(opts, WithFs(fs), WithClock(clk), WithLogger(logging.Discard()))
	require.NoError(t, err)
	return b
}

func readVersion(t *testing.T, fs afero.Fs, path string) string {
	t.Helper()
	m, err := manifest.Open(fs, path)
	require.NoError(t, err)
	return m.Version()
}

func TestRunIncrementsEachType(t *testing.T) {
	tests := []struct {
		target   version.Target
		expected string
	}{
		{version.Major, "2.0.0"},
		{version.Minor, "1.3.0"},
		{version.Patch, "1.2.4"},
		{version.Prerelease, "1.2.3-rc.2"},
		{version.Build, "1.2.3-rc.1+10"},
	}

	for _, tt := range tests {
		t.Run(tt.target.String(), func(t *testing.T) {
			fs, clk := setup(t, map[string]string{
				"/app/package.json": `{"name": "app", "version": "1.2.3-rc.1+9"}`,
			})
			b := newBumper(t, fs, clk, Options{Files: []string{"/app/package.json"}, Type: tt.target})

			res, err := b.Run(context.Background())
			require.NoError(t, err)
			require.Len(t, res.Files, 1)
			assert.Equal(t, "1.2.3-rc.1+9", res.Files[0].OldVersion)
			assert.Equal(t, tt.expected, res.Files[0].NewVersion)
			assert.Equal(t, tt.expected, readVersion(t, fs, "/app/package.json"))

			v, err := b.NewVersion()
			require.NoError(t, err)
			assert.Equal(t, tt.expected, v)
		})
	}
}

func TestDefaultsToPatchOnPackageJSONInDir(t *testing.T) {
	fs, clk := setup(t, map[string]string{
		"/app/package.json": `{"version": "1.2.3"}`,
	})
	b := newBumper(t, fs, clk, Options{})

	assert.Equal(t, []string{"/app/package.json"}, b.Files())

	_, err := b.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "1.2.4", readVersion(t, fs, "/app/package.json"))
}

func TestFileResolution(t *testing.T) {
	b := newBumper(t, afero.NewMemMapFs(), clock.NewMock(), Options{
		Dir:   "/project",
		Files: []string{"package.json", "sub/package.json", "/abs/manifest.json"},
	})
	assert.Equal(t, []string{"/project/package.json", "sub/package.json", "/abs/manifest.json"}, b.Files())
}

func TestExplicitVersionIsWrittenVerbatim(t *testing.T) {
	fs, clk := setup(t, map[string]string{
		"/app/package.json": `{"version": "1.2.3"}`,
	})
	b := newBumper(t, fs, clk, Options{Version: "0.9.0-custom.build", Type: version.Major})

	_, err := b.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "0.9.0-custom.build", readVersion(t, fs, "/app/package.json"))
}

func TestDowngradeIsLogged(t *testing.T) {
	fs, clk := setup(t, map[string]string{
		"/app/package.json": `{"version": "1.2.3"}`,
	})
	var out bytes.Buffer
	b, err := New(
		Options{Dir: "/app", Version: "1.0.0"},
		WithFs(fs), WithClock(clk), WithLogger(logging.NewWithWriters(logging.WarnLevel, &out, &out)),
	)
	require.NoError(t, err)

	_, err = b.Run(context.Background())
	require.NoError(t, err)
	assert.Contains(t, out.String(), "explicit version 1.0.0 is lower than current 1.2.3")
	assert.Equal(t, "1.0.0", readVersion(t, fs, "/app/package.json"))
}

func TestDebugLogNamesManifest(t *testing.T) {
	fs, clk := setup(t, map[string]string{
		"/app/chart.yaml": "version: 0.1.0\n",
	})
	var out bytes.Buffer
	b, err := New(
		Options{Dir: "/app", Files: []string{"chart.yaml"}},
		WithFs(fs), WithClock(clk), WithLogger(logging.NewWithWriters(logging.DebugLevel, &out, &out)),
	)
	require.NoError(t, err)

	res, err := b.Run(context.Background())
	require.NoError(t, err)
	assert.Contains(t, out.String(), "/app/chart.yaml: read yaml manifest at version 0.1.0")
	assert.Equal(t, "/app/chart.yaml", res.Files[0].Path)
}

func TestNewVersionBeforeRun(t *testing.T) {
	b := newBumper(t, afero.NewMemMapFs(), clock.NewMock(), Options{})

	_, err := b.NewVersion()
	assert.True(t, errors.Is(err, ErrNoResult))
}

func TestCooldown(t *testing.T) {
	fs, clk := setup(t, map[string]string{
		"/app/package.json": `{"version": "1.2.3"}`,
	})
	b := newBumper(t, fs, clk, Options{Cooldown: time.Minute})

	res, err := b.Run(context.Background())
	require.NoError(t, err)
	assert.False(t, res.Skipped)
	assert.True(t, b.CooldownActive())

	clk.Add(30 * time.Second)
	res, err = b.Run(context.Background())
	require.NoError(t, err)
	assert.True(t, res.Skipped)
	assert.Equal(t, "1.2.4", readVersion(t, fs, "/app/package.json"))
	v, _ := b.NewVersion()
	assert.Equal(t, "1.2.4", v)

	clk.Add(31 * time.Second)
	assert.False(t, b.CooldownActive())
	res, err = b.Run(context.Background())
	require.NoError(t, err)
	assert.False(t, res.Skipped)
	assert.Equal(t, "1.2.5", readVersion(t, fs, "/app/package.json"))
}

func TestCooldownSpansBumpersThroughStateFile(t *testing.T) {
	fs, clk := setup(t, map[string]string{
		"/app/package.json": `{"version": "1.2.3"}`,
	})
	opts := Options{Cooldown: time.Minute, StateFile: DefaultStateFile}

	first := newBumper(t, fs, clk, opts)
	_, err := first.Run(context.Background())
	require.NoError(t, err)
	exists, err := afero.Exists(fs, "/app/"+DefaultStateFile)
	require.NoError(t, err)
	assert.True(t, exists)

	clk.Add(30 * time.Second)
	second := newBumper(t, fs, clk, opts)
	assert.True(t, second.CooldownActive())
	res, err := second.Run(context.Background())
	require.NoError(t, err)
	assert.True(t, res.Skipped)
	assert.Equal(t, "1.2.4", readVersion(t, fs, "/app/package.json"))

	clk.Add(31 * time.Second)
	third := newBumper(t, fs, clk, opts)
	assert.False(t, third.CooldownActive())
	_, err = third.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "1.2.5", readVersion(t, fs, "/app/package.json"))
}

func TestStateFileIgnoredWithoutCooldown(t *testing.T) {
	fs, clk := setup(t, map[string]string{
		"/app/package.json":        `{"version": "1.2.3"}`,
		"/app/" + DefaultStateFile: "not a time\n",
	})
	b := newBumper(t, fs, clk, Options{StateFile: DefaultStateFile})

	_, err := b.Run(context.Background())
	require.NoError(t, err)
	data, err := afero.ReadFile(fs, "/app/"+DefaultStateFile)
	require.NoError(t, err)
	assert.Equal(t, "not a time\n", string(data))
}

func TestMalformedStateFileLeavesCooldownInactive(t *testing.T) {
	fs, clk := setup(t, map[string]string{
		"/app/package.json":        `{"version": "1.2.3"}`,
		"/app/" + DefaultStateFile: "yesterday\n",
	})
	b := newBumper(t, fs, clk, Options{Cooldown: time.Hour, StateFile: DefaultStateFile})

	assert.False(t, b.CooldownActive())
	res, err := b.Run(context.Background())
	require.NoError(t, err)
	assert.False(t, res.Skipped)
	assert.Equal(t, "1.2.4", readVersion(t, fs, "/app/package.json"))
}

func TestNoCooldownByDefault(t *testing.T) {
	fs, clk := setup(t, map[string]string{
		"/app/package.json": `{"version": "1.2.3"}`,
	})
	b := newBumper(t, fs, clk, Options{})

	for i := 0; i < 3; i++ {
		_, err := b.Run(context.Background())
		require.NoError(t, err)
	}
	assert.Equal(t, "1.2.6", readVersion(t, fs, "/app/package.json"))
}

func TestConcurrentRunsRespectCooldown(t *testing.T) {
	fs, clk := setup(t, map[string]string{
		"/app/package.json": `{"version": "1.2.3"}`,
	})
	b := newBumper(t, fs, clk, Options{Cooldown: time.Hour})

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := b.Run(context.Background())
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, "1.2.4", readVersion(t, fs, "/app/package.json"))
}

func TestFailureDoesNotBlockOtherFiles(t *testing.T) {
	broken := `{"version": "not-a-version"}`
	fs, clk := setup(t, map[string]string{
		"/app/package.json":   `{"version": "1.2.3"}`,
		"/app/broken.json":    broken,
		"/app/dist/meta.json": `{"version": "0.1.0"}`,
	})
	b := newBumper(t, fs, clk, Options{
		Files:    []string{"package.json", "broken.json", "/app/dist/meta.json"},
		Cooldown: time.Minute,
	})

	res, err := b.Run(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, version.ErrParse), "got %v", err)
	assert.Len(t, res.Files, 2)

	var ferr *FileError
	require.True(t, errors.As(err, &ferr))
	assert.Equal(t, "/app/broken.json", ferr.Path)

	assert.Equal(t, "1.2.4", readVersion(t, fs, "/app/package.json"))
	assert.Equal(t, "0.1.1", readVersion(t, fs, "/app/dist/meta.json"))
	data, err := afero.ReadFile(fs, "/app/broken.json")
	require.NoError(t, err)
	assert.Equal(t, broken, string(data))

	// A failed batch does not arm the cooldown.
	assert.False(t, b.CooldownActive())

	v, err := b.NewVersion()
	require.NoError(t, err)
	assert.Equal(t, "0.1.1", v)
}

func TestMissingFileIsIOError(t *testing.T) {
	b := newBumper(t, afero.NewMemMapFs(), clock.NewMock(), Options{})

	_, err := b.Run(context.Background())
	assert.True(t, errors.Is(err, manifest.ErrIO), "got %v", err)

	_, err = b.NewVersion()
	assert.True(t, errors.Is(err, ErrNoResult))
}

func TestIncrementErrorLeavesFileUntouched(t *testing.T) {
	fs, clk := setup(t, map[string]string{
		"/app/package.json": `{"version": "1.2.3"}`,
	})
	b := newBumper(t, fs, clk, Options{Type: version.Prerelease})

	_, err := b.Run(context.Background())
	assert.True(t, errors.Is(err, version.ErrIncrement), "got %v", err)

	data, err := afero.ReadFile(fs, "/app/package.json")
	require.NoError(t, err)
	assert.Equal(t, `{"version": "1.2.3"}`, string(data))
}

func TestDryRun(t *testing.T) {
	fs, clk := setup(t, map[string]string{
		"/app/package.json": `{"version": "1.2.3"}`,
	})
	b := newBumper(t, fs, clk, Options{DryRun: true, Type: version.Minor, Cooldown: time.Minute})

	res, err := b.Run(context.Background())
	require.NoError(t, err)
	assert.True(t, res.DryRun)
	require.Len(t, res.Files, 1)
	assert.Equal(t, "1.3.0", res.Files[0].NewVersion)
	assert.Equal(t, "1.2.3", readVersion(t, fs, "/app/package.json"))
	assert.False(t, b.CooldownActive())
	assert.Equal(t, res, b.LastResult())

	_, err = b.NewVersion()
	assert.True(t, errors.Is(err, ErrNoResult))
}

func TestLastResult(t *testing.T) {
	fs, clk := setup(t, map[string]string{
		"/app/package.json": `{"version": "1.2.3"}`,
	})
	b := newBumper(t, fs, clk, Options{Cooldown: time.Minute})
	assert.Nil(t, b.LastResult())

	_, err := b.Run(context.Background())
	require.NoError(t, err)
	require.NotNil(t, b.LastResult())
	assert.Equal(t, "1.2.4", b.LastResult().Files[0].NewVersion)

	_, err = b.Run(context.Background())
	require.NoError(t, err)
	assert.True(t, b.LastResult().Skipped)
}

func TestDisabled(t *testing.T) {
	fs, clk := setup(t, map[string]string{
		"/app/package.json": `{"version": "1.2.3"}`,
	})
	b := newBumper(t, fs, clk, Options{Disabled: true})

	assert.Empty(t, b.Files())
	require.NoError(t, <-b.OnEmit(context.Background()))

	res, err := b.Run(context.Background())
	require.NoError(t, err)
	assert.Empty(t, res.Files)
	assert.Equal(t, "1.2.3", readVersion(t, fs, "/app/package.json"))

	_, err = b.NewVersion()
	assert.True(t, errors.Is(err, ErrNoResult))
}

func TestOnEmit(t *testing.T) {
	fs, clk := setup(t, map[string]string{
		"/app/package.json": `{"version": "1.2.3"}`,
	})
	b := newBumper(t, fs, clk, Options{})

	done := b.OnEmit(context.Background())
	err, ok := <-done
	require.True(t, ok)
	require.NoError(t, err)

	_, ok = <-done
	assert.False(t, ok, "expected the channel to be closed after one value")
	assert.Equal(t, "1.2.4", readVersion(t, fs, "/app/package.json"))
}

func TestOnEmitReportsFailure(t *testing.T) {
	fs, clk := setup(t, map[string]string{
		"/app/package.json": `{"version": "garbage"}`,
	})
	b := newBumper(t, fs, clk, Options{})

	err := <-b.OnEmit(context.Background())
	assert.True(t, errors.Is(err, version.ErrParse), "got %v", err)
}

func TestRunCancelled(t *testing.T) {
	fs, clk := setup(t, map[string]string{
		"/app/package.json": `{"version": "1.2.3"}`,
	})
	b := newBumper(t, fs, clk, Options{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := b.Run(ctx)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, "1.2.3", readVersion(t, fs, "/app/package.json"))
}

func TestVersions(t *testing.T) {
	fs, clk := setup(t, map[string]string{
		"/app/package.json": `{"version": "1.2.3"}`,
		"/app/Chart.yaml":   "name: chart\nversion: 0.4.0\n",
	})
	b := newBumper(t, fs, clk, Options{Files: []string{"package.json", "Chart.yaml", "missing.json"}})

	got, err := b.Versions()
	require.Error(t, err)
	assert.True(t, errors.Is(err, manifest.ErrIO))
	assert.Equal(t, []FileResult{
		{Path: "/app/package.json", OldVersion: "1.2.3"},
		{Path: "/app/Chart.yaml", OldVersion: "0.4.0"},
	}, got)
}

func TestNewValidatesOptions(t *testing.T) {
	_, err := New(Options{Type: version.Target("separator")})
	assert.True(t, errors.Is(err, version.ErrTarget))

	_, err = New(Options{Cooldown: -time.Second})
	assert.Error(t, err)
}
