package bump

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/hashicorp/go-multierror"
	"github.com/spf13/afero"

	"github.com/openstax/versionbump/pkg/logging"
	"github.com/openstax/versionbump/pkg/manifest"
	"github.com/openstax/versionbump/pkg/version"
)

// ErrNoResult is returned by NewVersion before any run produced a version.
var ErrNoResult = errors.New("version is not changed yet")

// FileError ties a failure to the manifest it happened on.
type FileError struct {
	Path string
	Err  error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e *FileError) Unwrap() error {
	return e.Err
}

type FileResult struct {
	Path       string
	OldVersion string
	NewVersion string
}

type Result struct {
	Files   []FileResult
	Skipped bool
	DryRun  bool
}

// Bumper bumps the version field of a fixed set of manifests.
type Bumper struct {
	opts      Options
	files     []string
	stateFile string
	fs        afero.Fs
	clock     clock.Clock
	logger    *logging.Logger

	// runMu serializes runs so the cooldown check and the lastRun update
	// happen atomically.
	runMu sync.Mutex

	mu         sync.Mutex
	lastRun    time.Time
	newVersion string
	last       *Result
}

func New(opts Options, options ...Option) (*Bumper, error) {
	opts, err := opts.withDefaults()
	if err != nil {
		return nil, err
	}

	b := &Bumper{
		opts:   opts,
		fs:     afero.NewOsFs(),
		clock:  clock.New(),
		logger: logging.DefaultLogger,
	}
	for _, o := range options {
		o(b)
	}

	if !opts.Disabled {
		for _, f := range opts.Files {
			b.files = append(b.files, resolve(opts.Dir, f))
		}
		if opts.Cooldown > 0 && opts.StateFile != "" {
			b.stateFile = resolve(opts.Dir, opts.StateFile)
			b.loadLastRun()
		}
	}
	return b, nil
}

// Files returns the resolved manifest paths, empty when disabled.
func (b *Bumper) Files() []string {
	return append([]string(nil), b.files...)
}

// CooldownActive reports whether a run now would be skipped.
func (b *Bumper) CooldownActive() bool {
	if b.opts.Cooldown <= 0 {
		return false
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return !b.lastRun.IsZero() && b.clock.Now().Before(b.lastRun.Add(b.opts.Cooldown))
}

// NewVersion returns the version written by the last run.
func (b *Bumper) NewVersion() (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.newVersion == "" {
		return "", ErrNoResult
	}
	return b.newVersion, nil
}

// LastResult returns the outcome of the most recent run, or nil before the
// first one.
func (b *Bumper) LastResult() *Result {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.last
}

// Run bumps every file. Files are handled concurrently and independently:
// a failure on one does not stop the others, and the returned error
// collects every failure. A run inside the cooldown window does nothing
// and returns a skipped Result.
func (b *Bumper) Run(ctx context.Context) (*Result, error) {
	b.runMu.Lock()
	defer b.runMu.Unlock()

	if b.CooldownActive() {
		b.logger.Debug("cooldown of %s active, skipping version bump", b.opts.Cooldown)
		res := &Result{Skipped: true}
		b.mu.Lock()
		b.last = res
		b.mu.Unlock()
		return res, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	results := make([]*FileResult, len(b.files))
	var g multierror.Group
	for i, path := range b.files {
		i, path := i, path
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return &FileError{Path: path, Err: err}
			}
			r, err := b.bumpFile(path)
			if err != nil {
				b.logger.Error("%s: %v", path, err)
				return &FileError{Path: path, Err: err}
			}
			results[i] = r
			return nil
		})
	}
	err := g.Wait().ErrorOrNil()

	res := &Result{DryRun: b.opts.DryRun}
	for _, r := range results {
		if r != nil {
			res.Files = append(res.Files, *r)
		}
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.last = res
	if b.opts.DryRun {
		return res, err
	}
	if n := len(res.Files); n > 0 {
		b.newVersion = res.Files[n-1].NewVersion
	}
	if err == nil {
		b.lastRun = b.clock.Now()
		b.saveLastRun()
	}

	return res, err
}

func (b *Bumper) bumpFile(path string) (*FileResult, error) {
	m, err := manifest.Open(b.fs, path)
	if err != nil {
		return nil, err
	}

	old := m.Version()
	if b.logger.IsDebugEnabled() {
		b.logger.Debug("%s: read %s manifest at version %s", m.Path(), m.Format(), old)
	}
	next, err := version.Increment(old, b.opts.Type, b.opts.Version)
	if err != nil {
		return nil, err
	}
	if b.opts.Version != "" {
		warnDowngrade(b.logger, path, old, next)
	}
	if err := m.SetVersion(next); err != nil {
		return nil, err
	}

	if b.opts.DryRun {
		b.logger.Info("%s: %s -> %s (dry run)", m.Path(), old, next)
	} else {
		if err := m.Save(); err != nil {
			return nil, err
		}
		b.logger.Info("%s: %s -> %s", m.Path(), old, next)
	}
	return &FileResult{Path: m.Path(), OldVersion: old, NewVersion: next}, nil
}

// Versions reads the current version of every file without changing them.
func (b *Bumper) Versions() ([]FileResult, error) {
	var (
		out  []FileResult
		errs *multierror.Error
	)
	for _, path := range b.files {
		m, err := manifest.Open(b.fs, path)
		if err != nil {
			errs = multierror.Append(errs, &FileError{Path: path, Err: err})
			continue
		}
		out = append(out, FileResult{Path: path, OldVersion: m.Version()})
	}
	return out, errs.ErrorOrNil()
}

// OnEmit is the hook a build tool calls when it emits its output. The bump
// runs in the background; the returned channel yields its outcome once and
// is then closed.
func (b *Bumper) OnEmit(ctx context.Context) <-chan error {
	done := make(chan error, 1)
	if len(b.files) == 0 {
		done <- nil
		close(done)
		return done
	}
	go func() {
		defer close(done)
		_, err := b.Run(ctx)
		done <- err
	}()
	return done
}
