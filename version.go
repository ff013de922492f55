package nexttag

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/blang/semver"
)

// coerceRe finds the first run of up to three dot-separated numbers that is
// not embedded in a longer run of digits.
var coerceRe = regexp.MustCompile(`(?:^|\D)(\d{1,16})(?:\.(\d{1,16}))?(?:\.(\d{1,16}))?(?:$|\D)`)

// maxComponent is the largest version component a coerced tag may carry (2^53-1)
const maxComponent = 1<<53 - 1

// Parse turns a tag (with any configured prefix already removed) into a
// semantic version. The version part is coerced, so "v2" parses as 2.0.0 and
// "release7.1" as 7.1.0. Text between the first and second "-" is read as the
// prerelease; an invalid prerelease is ignored rather than rejected.
func Parse(candidate string) (semver.Version, error) {
	parts := strings.SplitN(candidate, "-", 3)

	version, err := coerce(parts[0])
	if err != nil {
		return semver.Version{}, fmt.Errorf("%w: %s", ErrParseFailure, candidate)
	}

	if len(parts) > 1 && !IsNullString(parts[1]) {
		if pre, ok := parsePrerelease(parts[1]); ok {
			version.Pre = pre
		}
	}

	return version, nil
}

func coerce(s string) (semver.Version, error) {
	m := coerceRe.FindStringSubmatch(s)
	if m == nil {
		return semver.Version{}, fmt.Errorf("no version found in %q", s)
	}

	var nums [3]uint64
	for i, group := range m[1:] {
		if group == "" {
			continue
		}
		n, err := strconv.ParseUint(group, 10, 64)
		if err != nil {
			return semver.Version{}, err
		}
		if n > maxComponent {
			return semver.Version{}, fmt.Errorf("version component %d exceeds %d", n, uint64(maxComponent))
		}
		nums[i] = n
	}

	return semver.Version{Major: nums[0], Minor: nums[1], Patch: nums[2]}, nil
}

func parsePrerelease(s string) ([]semver.PRVersion, bool) {
	// build metadata is not part of the prerelease
	if i := strings.IndexByte(s, '+'); i >= 0 {
		s = s[:i]
	}

	var pre []semver.PRVersion
	for _, id := range strings.Split(s, ".") {
		pr, err := semver.NewPRVersion(id)
		if err != nil {
			return nil, false
		}
		pre = append(pre, pr)
	}
	return pre, true
}

// IsNullString reports whether an optional input should be treated as unset.
// CI systems commonly pass "null" or "undefined" for inputs that were not set.
func IsNullString(s string) bool {
	switch strings.TrimSpace(s) {
	case "", "null", "undefined":
		return true
	}
	return false
}

// FormatSemantic renders v as {prefix}{major}.{minor}.{patch}[-pre]
func FormatSemantic(prefix string, v semver.Version) string {
	return fmt.Sprintf("%s%d.%d.%d%s", prefix, v.Major, v.Minor, v.Patch, prereleaseSuffix(v))
}

// FormatContinuous renders v as {prefix}{major}[-pre]; minor and patch are
// never shown.
func FormatContinuous(prefix string, v semver.Version) string {
	return fmt.Sprintf("%s%d%s", prefix, v.Major, prereleaseSuffix(v))
}

func prereleaseSuffix(v semver.Version) string {
	if len(v.Pre) == 0 {
		return ""
	}

	ids := make([]string, len(v.Pre))
	for i, pr := range v.Pre {
		ids[i] = pr.String()
	}
	return "-" + strings.Join(ids, ".")
}
