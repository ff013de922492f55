package nexttag

import (
	"fmt"
	"math"

	"github.com/blang/semver"
)

// strategy computes the next tag for a parsed previous version. prefix is
// re-applied verbatim to the result.
type strategy func(prefix, suffix string, versionType VersionType, prev semver.Version) (string, error)

var strategies = map[Scheme]strategy{
	SchemeContinuous: nextContinuous,
	SchemeSemantic:   nextSemantic,
}

func nextContinuous(prefix, suffix string, versionType VersionType, prev semver.Version) (string, error) {
	bump := continuousBump(versionType, prev)
	next, err := increment(prev, bump, prereleaseName(suffix, prev))
	if err != nil {
		return "", fmt.Errorf("%w: continuous tag from %s: %v", ErrComputeFailure, prev, err)
	}

	return FormatContinuous(prefix, next), nil
}

// continuousBump collapses the requested bump onto the single integer. The
// first prerelease request opens a new prerelease track on the next integer;
// later ones only advance the build counter.
func continuousBump(versionType VersionType, prev semver.Version) VersionType {
	switch versionType {
	case PreRelease:
		if len(prev.Pre) > 0 {
			return PreRelease
		}
		return PreMajor
	case PreMajor:
		return PreMajor
	default:
		return Major
	}
}

func nextSemantic(prefix, suffix string, versionType VersionType, prev semver.Version) (string, error) {
	if !versionType.valid() {
		return "", unsupportedVersionType(versionType.String())
	}

	next, err := increment(prev, versionType, prereleaseName(suffix, prev))
	if err != nil {
		return "", fmt.Errorf("%w: semantic tag from %s: %v", ErrComputeFailure, prev, err)
	}

	return FormatSemantic(prefix, next), nil
}

// prereleaseName keeps an existing prerelease track: when prev already has a
// prerelease its first identifier wins over the configured suffix.
func prereleaseName(suffix string, prev semver.Version) string {
	if len(prev.Pre) > 0 {
		return prev.Pre[0].String()
	}
	return suffix
}

// increment applies a bump following the common semver increment rules.
// Promoting a prerelease drops the prerelease without bumping when the
// prerelease already sits on the target component (2.0.0-beta.1 major is
// 2.0.0). name labels any prerelease the bump creates.
func increment(v semver.Version, versionType VersionType, name string) (semver.Version, error) {
	if versionType.IsPre() {
		if _, err := semver.NewPRVersion(name); err != nil {
			return semver.Version{}, fmt.Errorf("invalid prerelease identifier %q: %w", name, err)
		}
	}

	next := semver.Version{
		Major: v.Major,
		Minor: v.Minor,
		Patch: v.Patch,
		Pre:   append([]semver.PRVersion(nil), v.Pre...),
	}

	switch versionType {
	case Major:
		if next.Minor != 0 || next.Patch != 0 || len(next.Pre) == 0 {
			next.Major++
		}
		next.Minor, next.Patch, next.Pre = 0, 0, nil
	case Minor:
		if next.Patch != 0 || len(next.Pre) == 0 {
			next.Minor++
		}
		next.Patch, next.Pre = 0, nil
	case Patch:
		if len(next.Pre) == 0 {
			next.Patch++
		}
		next.Pre = nil
	case PreMajor:
		next.Major++
		next.Minor, next.Patch, next.Pre = 0, 0, nil
	case PreMinor:
		next.Minor++
		next.Patch, next.Pre = 0, nil
	case PrePatch:
		next.Patch++
		next.Pre = nil
	case PreRelease:
		if len(next.Pre) == 0 {
			next.Patch++
		}
	default:
		return semver.Version{}, fmt.Errorf("invalid increment argument: %s", versionType)
	}

	if versionType.IsPre() {
		pre, err := bumpPrerelease(next.Pre, name)
		if err != nil {
			return semver.Version{}, err
		}
		next.Pre = pre
	}

	return next, nil
}

// bumpPrerelease advances the right-most numeric identifier (appending a 0
// counter when there is none) and then makes sure the prerelease is on the
// name track, restarting at name.0 otherwise. A counter that cannot grow any
// further is an error rather than wrapping back to 0.
func bumpPrerelease(pre []semver.PRVersion, name string) ([]semver.PRVersion, error) {
	if len(pre) == 0 {
		pre = []semver.PRVersion{numericID(0)}
	} else {
		bumped := false
		for i := len(pre) - 1; i >= 0; i-- {
			if pre[i].IsNum {
				if pre[i].VersionNum == math.MaxUint64 {
					return nil, fmt.Errorf("prerelease counter %d cannot be incremented", pre[i].VersionNum)
				}
				pre[i].VersionNum++
				bumped = true
				break
			}
		}
		if !bumped {
			pre = append(pre, numericID(0))
		}
	}

	restart := []semver.PRVersion{nameID(name), numericID(0)}
	if pre[0].String() != name {
		return restart, nil
	}
	if len(pre) < 2 || !pre[1].IsNum {
		return restart, nil
	}
	return pre, nil
}

func numericID(n uint64) semver.PRVersion {
	return semver.PRVersion{VersionNum: n, IsNum: true}
}

// nameID builds an identifier from a name already validated by increment
func nameID(name string) semver.PRVersion {
	pr, err := semver.NewPRVersion(name)
	if err != nil {
		return semver.PRVersion{VersionStr: name}
	}
	return pr
}
