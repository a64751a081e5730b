package bump

import (
	"bytes"
	"os"
	"time"

	"github.com/spf13/afero"
)

// DefaultStateFile records the last successful run next to the manifests.
const DefaultStateFile = ".versionbump-stamp"

// loadLastRun reads the stamp written by a previous process. A missing or
// unreadable stamp leaves the cooldown inactive.
func (b *Bumper) loadLastRun() {
	if b.stateFile == "" {
		return
	}
	data, err := afero.ReadFile(b.fs, b.stateFile)
	if err != nil {
		if !os.IsNotExist(err) {
			b.logger.Warn("failed to read %s: %v", b.stateFile, err)
		}
		return
	}
	t, err := time.Parse(time.RFC3339Nano, string(bytes.TrimSpace(data)))
	if err != nil {
		b.logger.Warn("ignoring %s: %v", b.stateFile, err)
		return
	}
	b.lastRun = t
}

// saveLastRun must be called with b.mu held.
func (b *Bumper) saveLastRun() {
	if b.stateFile == "" {
		return
	}
	stamp := b.lastRun.UTC().Format(time.RFC3339Nano) + "\n"
	if err := afero.WriteFile(b.fs, b.stateFile, []byte(stamp), 0644); err != nil {
		b.logger.Warn("failed to record last run in %s: %v", b.stateFile, err)
	}
}
