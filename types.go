// Package nexttag computes the next release tag for a repository from its
// previous tag, a version scheme and a bump type.
package nexttag

import (
	"fmt"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

// Scheme selects how tags are incremented
type Scheme int

const (
	// SchemeContinuous produces a single incrementing integer tag (v1, v2-beta.0)
	SchemeContinuous Scheme = iota + 1
	// SchemeSemantic produces major.minor.patch tags (v1.2.3, v1.2.4-beta.0)
	SchemeSemantic
)

var schemeNames = map[Scheme]string{
	SchemeContinuous: "continuous",
	SchemeSemantic:   "semantic",
}

// Schemes lists every supported scheme in display order
var Schemes = []Scheme{SchemeContinuous, SchemeSemantic}

func (s Scheme) String() string {
	if name, ok := schemeNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Scheme(%d)", int(s))
}

// ParseScheme converts a scheme name into a Scheme
func ParseScheme(name string) (Scheme, error) {
	for _, s := range Schemes {
		if s.String() == name {
			return s, nil
		}
	}
	return 0, fmt.Errorf("%w: '%s'. Must be one of (%s)", ErrUnsupportedScheme, name, joinNames(Schemes))
}

// VersionType is the requested bump
type VersionType int

const (
	Major VersionType = iota + 1
	Minor
	Patch
	PreMajor
	PreMinor
	PrePatch
	PreRelease
)

var versionTypeNames = map[VersionType]string{
	Major:      "major",
	Minor:      "minor",
	Patch:      "patch",
	PreMajor:   "premajor",
	PreMinor:   "preminor",
	PrePatch:   "prepatch",
	PreRelease: "prerelease",
}

// VersionTypes lists every supported bump in display order
var VersionTypes = []VersionType{PreRelease, PreMajor, PreMinor, PrePatch, Patch, Minor, Major}

func (t VersionType) String() string {
	if name, ok := versionTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("VersionType(%d)", int(t))
}

// IsPre reports whether the bump produces a prerelease
func (t VersionType) IsPre() bool {
	switch t {
	case PreMajor, PreMinor, PrePatch, PreRelease:
		return true
	}
	return false
}

func (t VersionType) valid() bool {
	_, ok := versionTypeNames[t]
	return ok
}

// ParseVersionType converts a bump name into a VersionType
func ParseVersionType(name string) (VersionType, error) {
	for _, t := range VersionTypes {
		if t.String() == name {
			return t, nil
		}
	}
	return 0, unsupportedVersionType(name)
}

func unsupportedVersionType(name string) error {
	return fmt.Errorf("%w %s. Must be one of (%s)", ErrUnsupportedVersionType, name, joinNames(VersionTypes))
}

func joinNames[T fmt.Stringer](values []T) string {
	names := make([]string, 0, len(values))
	for _, v := range values {
		names = append(names, v.String())
	}
	return strings.Join(names, ", ")
}

// Config is the input to NextTag
type Config struct {
	// Scheme selects the increment algorithm
	Scheme Scheme

	// Tag is the previous tag; empty means no tag exists yet
	Tag string

	// VersionType is the requested bump (default: PreRelease)
	VersionType VersionType

	// Prefix scopes tags for monorepos, e.g. "subpackage" for "subpackage-v1.0.0"
	Prefix string

	// Suffix names new prerelease tracks (default: "beta")
	Suffix string
}

// Options configures how the previous tag is found in a repository
type Options struct {
	// Repository is the Git repository to search
	Repository *git.Repository

	// Commitish specifies where the search starts (default: "HEAD")
	Commitish plumbing.Revision

	// Prefix limits the search to tags of the form "{prefix}-..."
	Prefix string

	// TagFilter allows filtering which tags to consider
	TagFilter func(string) bool

	// TagPattern is a regex pattern to filter tags (alternative to TagFilter)
	TagPattern string
}
