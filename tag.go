package nexttag

import (
	"fmt"
	"strings"

	"github.com/blang/semver"
)

const (
	defaultSuffix = "beta"

	initialContinuousTag = "v1"
	initialSemanticTag   = "v1.0.0"
)

// NextTag computes the tag that follows cfg.Tag. It has no side effects: the
// same Config always yields the same tag. On error the returned tag is empty.
func NextTag(cfg Config) (string, error) {
	if cfg.VersionType == 0 {
		cfg.VersionType = PreRelease
	}
	if cfg.Suffix == "" {
		cfg.Suffix = defaultSuffix
	}

	next, ok := strategies[cfg.Scheme]
	if !ok {
		return "", fmt.Errorf("%w: '%s'. Must be one of (%s)", ErrUnsupportedScheme, cfg.Scheme, joinNames(Schemes))
	}
	if !cfg.VersionType.valid() {
		return "", unsupportedVersionType(cfg.VersionType.String())
	}

	// Handle zero-state where no tags exist
	if cfg.Tag == "" {
		return initialTag(cfg)
	}

	candidate := stripTagPrefix(cfg.Tag, cfg.Prefix)

	prev, err := Parse(candidate)
	if err != nil {
		return "", err
	}

	return next(tagPrefix(cfg.Prefix, candidate), cfg.Suffix, cfg.VersionType, prev)
}

func initialTag(cfg Config) (string, error) {
	tag := initialSemanticTag
	if cfg.Scheme == SchemeContinuous {
		tag = initialContinuousTag
	}

	if cfg.Prefix != "" {
		tag = cfg.Prefix + "-" + tag
	}
	if cfg.VersionType == PreRelease {
		if _, err := semver.NewPRVersion(cfg.Suffix); err != nil {
			return "", fmt.Errorf("%w: invalid prerelease identifier %q: %v", ErrComputeFailure, cfg.Suffix, err)
		}
		tag += "-" + cfg.Suffix + ".0"
	}
	return tag, nil
}

// tagPrefix rebuilds the text placed before the version number, keeping the
// "v" lettering of the previous tag.
func tagPrefix(prefix, candidate string) string {
	v := ""
	if strings.HasPrefix(candidate, "v") {
		v = "v"
	}

	if prefix != "" {
		return prefix + "-" + v
	}
	return v
}
