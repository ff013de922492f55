// This file contains code adapted from pulumictl (https://github.com/pulumi/pulumictl)
// which is licensed under the Apache License 2.0. See NOTICE file for full attribution.

package nexttag

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/storer"
)

// OpenRepository opens a Git repository at the specified path
func OpenRepository(path string) (*git.Repository, error) {
	return git.PlainOpenWithOptions(path, &git.PlainOpenOptions{
		DetectDotGit:          true,
		EnableDotGitCommonDir: true,
	})
}

// LastTag finds the tag on the nearest tagged ancestor of opts.Commitish.
// When several matching tags point at that commit the highest version wins.
// The boolean is false when no matching tag exists, including for a
// repository without commits.
func LastTag(opts Options) (string, bool, error) {
	if opts.Repository == nil {
		return "", false, fmt.Errorf("repository is required")
	}

	if opts.Commitish == "" {
		opts.Commitish = "HEAD"
	}

	// Apply tag pattern filter if specified
	if opts.TagPattern != "" && opts.TagFilter == nil {
		re, err := regexp.Compile(opts.TagPattern)
		if err != nil {
			return "", false, fmt.Errorf("invalid tag pattern: %w", err)
		}
		opts.TagFilter = func(tag string) bool {
			return re.MatchString(tag)
		}
	}

	if opts.Commitish == "HEAD" {
		if _, err := opts.Repository.Head(); errors.Is(err, plumbing.ErrReferenceNotFound) {
			return "", false, nil
		}
	}

	revision, err := opts.Repository.ResolveRevision(opts.Commitish)
	if err != nil {
		return "", false, fmt.Errorf("resolving commitish: %w", err)
	}

	index, err := tagsByCommit(opts.Repository, opts)
	if err != nil {
		return "", false, fmt.Errorf("indexing tags: %w", err)
	}

	names, err := mostRecentTags(opts.Repository, *revision, index)
	if err != nil {
		return "", false, fmt.Errorf("finding recent tag: %w", err)
	}
	if len(names) == 0 {
		return "", false, nil
	}

	return latestTag(names, opts.Prefix), true, nil
}

// tagsByCommit maps each tagged commit to the short names of the tags that
// pass the filters in opts.
func tagsByCommit(repo *git.Repository, opts Options) (map[plumbing.Hash][]string, error) {
	tags, err := repo.Tags()
	if err != nil {
		return nil, fmt.Errorf("listing tags: %w", err)
	}

	index := make(map[plumbing.Hash][]string)
	err = tags.ForEach(func(ref *plumbing.Reference) error {
		if ref.Type() != plumbing.HashReference {
			return nil
		}

		name := ref.Name().Short()
		if opts.Prefix != "" && !strings.HasPrefix(name, opts.Prefix+"-") {
			return nil
		}
		if opts.TagFilter != nil && !opts.TagFilter(name) {
			return nil
		}

		obj, err := repo.TagObject(ref.Hash())
		switch err {
		case nil:
			// Annotated tag
			index[obj.Target] = append(index[obj.Target], name)
		case plumbing.ErrObjectNotFound:
			// Lightweight tag
			index[ref.Hash()] = append(index[ref.Hash()], name)
		default:
			return err
		}

		return nil
	})

	return index, err
}

func mostRecentTags(repo *git.Repository, from plumbing.Hash, index map[plumbing.Hash][]string) ([]string, error) {
	if len(index) == 0 {
		return nil, nil
	}

	commit, err := repo.CommitObject(from)
	if err != nil {
		return nil, fmt.Errorf("getting commit object: %w", err)
	}

	var found []string
	walker := object.NewCommitPreorderIter(commit, nil, nil)
	err = walker.ForEach(func(c *object.Commit) error {
		if names, ok := index[c.Hash]; ok {
			found = names
			return storer.ErrStop
		}
		return nil
	})

	return found, err
}

// latestTag orders names by parsed version, falling back to the name for
// ties and for tags that do not parse, and returns the last one.
func latestTag(names []string, prefix string) string {
	sorted := append([]string(nil), names...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return tagLess(sorted[i], sorted[j], prefix)
	})
	return sorted[len(sorted)-1]
}

func tagLess(a, b, prefix string) bool {
	va, errA := Parse(stripTagPrefix(a, prefix))
	vb, errB := Parse(stripTagPrefix(b, prefix))

	switch {
	case errA == nil && errB == nil:
		if c := va.Compare(vb); c != 0 {
			return c < 0
		}
	case errA != nil && errB == nil:
		return true
	case errA == nil && errB != nil:
		return false
	}
	return a < b
}

func stripTagPrefix(tag, prefix string) string {
	if prefix == "" {
		return tag
	}
	return strings.Replace(tag, prefix+"-", "", 1)
}
