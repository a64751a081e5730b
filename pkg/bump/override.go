package bump

import (
	"github.com/Masterminds/semver"

	"github.com/openstax/versionbump/pkg/logging"
)

// warnDowngrade logs when an explicit version sorts below the current one.
// The explicit version is written either way.
func warnDowngrade(logger *logging.Logger, path, current, explicit string) {
	cur, err := semver.NewVersion(current)
	if err != nil {
		return
	}
	next, err := semver.NewVersion(explicit)
	if err != nil {
		logger.Warn("%s: explicit version %q is not semantic, writing it anyway", path, explicit)
		return
	}
	if next.LessThan(cur) {
		logger.Warn("%s: explicit version %s is lower than current %s", path, explicit, current)
	}
}
