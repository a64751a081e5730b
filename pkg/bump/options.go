package bump

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/spf13/afero"

	"github.com/openstax/versionbump/pkg/logging"
	"github.com/openstax/versionbump/pkg/version"
)

// DefaultFile is bumped when no files are configured.
const DefaultFile = "package.json"

// Options mirror the user facing configuration.
type Options struct {
	// Files to bump. Bare file names resolve under Dir, paths with a
	// directory part are used as given.
	Files []string
	// Version, when set, is written verbatim instead of incrementing.
	Version string
	Type    version.Target
	// Disabled turns every run into a no-op.
	Disabled bool
	// Cooldown is the minimum time between two successful runs. Zero
	// disables it.
	Cooldown time.Duration
	// StateFile, when set with a positive Cooldown, stores the time of the
	// last successful run so the cooldown also spans separate processes.
	// A bare name resolves under Dir.
	StateFile string
	Dir       string
	DryRun    bool
}

func (o Options) withDefaults() (Options, error) {
	if o.Type == "" {
		o.Type = version.DefaultTarget
	}
	if !o.Type.Valid() {
		return o, fmt.Errorf("type %q: %w", string(o.Type), version.ErrTarget)
	}
	if o.Cooldown < 0 {
		return o, fmt.Errorf("cooldown must not be negative, got %s", o.Cooldown)
	}
	if o.Dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return o, fmt.Errorf("failed to resolve working directory: %w", err)
		}
		o.Dir = wd
	}
	if len(o.Files) == 0 {
		o.Files = []string{DefaultFile}
	}
	return o, nil
}

// resolve places bare file names in dir.
func resolve(dir, file string) string {
	if filepath.Dir(file) == "." {
		return filepath.Join(dir, filepath.Base(file))
	}
	return file
}

type Option func(*Bumper)

func WithFs(fs afero.Fs) Option {
	return func(b *Bumper) {
		b.fs = fs
	}
}

func WithClock(c clock.Clock) Option {
	return func(b *Bumper) {
		b.clock = c
	}
}

func WithLogger(l *logging.Logger) Option {
	return func(b *Bumper) {
		b.logger = l
	}
}
