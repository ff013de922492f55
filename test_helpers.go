package nexttag

import (
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/storage/memory"
)

var testSignature = &object.Signature{
	Name:  "test",
	Email: "test@example.com",
	When:  time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
}

// testRepoCreate creates a new in-memory git repository for testing
func testRepoCreate() (*git.Repository, error) {
	storage := memory.NewStorage()
	fs := memfs.New()
	return git.Init(storage, fs)
}

// testRepoCommit writes a file named after msg and commits it, returning the commit hash
func testRepoCommit(repo *git.Repository, msg string) (plumbing.Hash, error) {
	workTree, err := repo.Worktree()
	if err != nil {
		return plumbing.ZeroHash, err
	}

	filename := "file_" + msg + ".txt"
	err = writeFile(workTree.Filesystem, filename, "Content for "+msg)
	if err != nil {
		return plumbing.ZeroHash, err
	}

	_, err = workTree.Add(filename)
	if err != nil {
		return plumbing.ZeroHash, err
	}

	return workTree.Commit(msg, &git.CommitOptions{Author: testSignature})
}

// testRepoWithTags creates one commit per tag and tags it, so the last tag
// ends up on HEAD
func testRepoWithTags(repo *git.Repository, tags []string) (*git.Repository, error) {
	for _, tag := range tags {
		commitHash, err := testRepoCommit(repo, tag)
		if err != nil {
			return nil, err
		}

		_, err = repo.CreateTag(tag, commitHash, nil)
		if err != nil {
			return nil, err
		}
	}

	return repo, nil
}

// testRepoAnnotatedTag creates an annotated tag pointing at hash
func testRepoAnnotatedTag(repo *git.Repository, tag string, hash plumbing.Hash) error {
	_, err := repo.CreateTag(tag, hash, &git.CreateTagOptions{
		Tagger:  testSignature,
		Message: "Release " + tag,
	})
	return err
}

// writeFile writes content to a file in the given filesystem
func writeFile(fs billy.Filesystem, filename, content string) error {
	file, err := fs.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	_, err = file.Write([]byte(content))
	return err
}
