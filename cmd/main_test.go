package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alecthomas/kong"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/jaxxstorm/nexttag"
	"github.com/stretchr/testify/require"
)

// newTestCLI returns a CLI with the defaults kong would apply
func newTestCLI() *CLI {
	return &CLI{
		Scheme:      "semantic",
		VersionType: "prerelease",
		Suffix:      "beta",
		Commitish:   "HEAD",
	}
}

// initTestRepo creates an on-disk repository with one commit per tag
func initTestRepo(t *testing.T, tags ...string) string {
	t.Helper()

	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)

	workTree, err := repo.Worktree()
	require.NoError(t, err)

	signature := &object.Signature{Name: "test", Email: "test@example.com", When: time.Now()}
	for i, tag := range append([]string{"initial"}, tags...) {
		filename := filepath.Join(dir, tag+".txt")
		require.NoError(t, os.WriteFile(filename, []byte(tag), 0o644))

		_, err = workTree.Add(tag + ".txt")
		require.NoError(t, err)

		hash, err := workTree.Commit("Commit for "+tag, &git.CommitOptions{Author: signature})
		require.NoError(t, err)

		if i > 0 {
			_, err = repo.CreateTag(tag, hash, nil)
			require.NoError(t, err)
		}
	}

	return dir
}

func TestCLIShowVersion(t *testing.T) {
	cli := &CLI{ShowVersion: true}

	var stdout bytes.Buffer
	err := cli.run(&stdout, &bytes.Buffer{})
	require.NoError(t, err)

	require.Contains(t, stdout.String(), "nexttag version")
	require.Contains(t, stdout.String(), "dev") // Default version should be "dev"
}

func TestCLIShowVersionJSON(t *testing.T) {
	cli := &CLI{ShowVersion: true, JSON: true}

	var stdout bytes.Buffer
	err := cli.run(&stdout, &bytes.Buffer{})
	require.NoError(t, err)

	var versionInfo map[string]string
	err = json.Unmarshal(stdout.Bytes(), &versionInfo)
	require.NoError(t, err)

	require.Equal(t, "dev", versionInfo["version"])
	require.Equal(t, "nexttag", versionInfo["name"])
}

func TestCLIRun(t *testing.T) {
	t.Run("Explicit tag", func(t *testing.T) {
		cli := newTestCLI()
		cli.Tag = "v2.0.0"
		cli.VersionType = "patch"

		var stdout, stderr bytes.Buffer
		require.NoError(t, cli.run(&stdout, &stderr))
		require.Equal(t, "v2.0.1\n", stdout.String())
		require.Contains(t, stderr.String(), "computing the next tag")
		require.Contains(t, stderr.String(), "previous_tag=v2.0.0")
		require.Contains(t, stderr.String(), "next_tag=v2.0.1")
	})

	t.Run("Previous tag from the repository", func(t *testing.T) {
		cli := newTestCLI()
		cli.Repo = initTestRepo(t, "v1", "v2", "v3")
		cli.Scheme = "continuous"

		var stdout bytes.Buffer
		require.NoError(t, cli.run(&stdout, &bytes.Buffer{}))
		require.Equal(t, "v4-beta.0\n", stdout.String())
	})

	t.Run("Prefixed tags in the repository", func(t *testing.T) {
		cli := newTestCLI()
		cli.Repo = initTestRepo(t, "api-v1.2.0", "web-v0.4.0")
		cli.Prefix = "api"
		cli.VersionType = "minor"

		var stdout bytes.Buffer
		require.NoError(t, cli.run(&stdout, &bytes.Buffer{}))
		require.Equal(t, "api-v1.3.0\n", stdout.String())
	})

	t.Run("Repository without tags bootstraps", func(t *testing.T) {
		cli := newTestCLI()
		cli.Repo = initTestRepo(t)

		var stdout bytes.Buffer
		require.NoError(t, cli.run(&stdout, &bytes.Buffer{}))
		require.Equal(t, "v1.0.0-beta.0\n", stdout.String())
	})

	t.Run("Not a repository bootstraps", func(t *testing.T) {
		cli := newTestCLI()
		cli.Repo = t.TempDir()
		cli.Scheme = "continuous"
		cli.VersionType = "major"

		var stdout, stderr bytes.Buffer
		require.NoError(t, cli.run(&stdout, &stderr))
		require.Equal(t, "v1\n", stdout.String())
		require.Contains(t, stderr.String(), "no git repository found")
	})

	t.Run("Null tag input is treated as unset", func(t *testing.T) {
		cli := newTestCLI()
		cli.Tag = "null"
		cli.Repo = initTestRepo(t, "v0.1.0")
		cli.VersionType = "patch"

		var stdout bytes.Buffer
		require.NoError(t, cli.run(&stdout, &bytes.Buffer{}))
		require.Equal(t, "v0.1.1\n", stdout.String())
	})

	t.Run("Null tag pattern is treated as unset", func(t *testing.T) {
		cli := newTestCLI()
		cli.Repo = initTestRepo(t, "v1.0.0")
		cli.TagPattern = "null"
		cli.VersionType = "patch"

		var stdout bytes.Buffer
		require.NoError(t, cli.run(&stdout, &bytes.Buffer{}))
		require.Equal(t, "v1.0.1\n", stdout.String())
	})

	t.Run("Empty inputs fall back to defaults", func(t *testing.T) {
		cli := &CLI{Tag: "v2.0.0"}

		var stdout bytes.Buffer
		require.NoError(t, cli.run(&stdout, &bytes.Buffer{}))
		require.Equal(t, "v2.0.1-beta.0\n", stdout.String())
	})

	t.Run("JSON output", func(t *testing.T) {
		cli := newTestCLI()
		cli.Tag = "v3-beta.4"
		cli.Scheme = "continuous"
		cli.JSON = true

		var stdout bytes.Buffer
		require.NoError(t, cli.run(&stdout, &bytes.Buffer{}))

		var res result
		require.NoError(t, json.Unmarshal(stdout.Bytes(), &res))
		require.Equal(t, "v3-beta.4", res.PreviousTag)
		require.Equal(t, "v3-beta.5", res.NextTag)
	})

	t.Run("Output file", func(t *testing.T) {
		output := filepath.Join(t.TempDir(), "github_output")
		require.NoError(t, os.WriteFile(output, []byte("existing=1\n"), 0o644))

		cli := newTestCLI()
		cli.Tag = "v1.0.0"
		cli.VersionType = "major"
		cli.Output = output

		require.NoError(t, cli.run(&bytes.Buffer{}, &bytes.Buffer{}))

		content, err := os.ReadFile(output)
		require.NoError(t, err)
		require.Equal(t, "existing=1\nprevious_tag=v1.0.0\nnext_tag=v2.0.0\n", string(content))
	})

	t.Run("Debug logging", func(t *testing.T) {
		cli := newTestCLI()
		cli.Repo = initTestRepo(t, "v1.0.0")
		cli.Debug = true

		var stderr bytes.Buffer
		require.NoError(t, cli.run(&bytes.Buffer{}, &stderr))
		require.Contains(t, stderr.String(), "resolved previous tag")
	})
}

func TestCLIRunErrors(t *testing.T) {
	t.Run("Invalid scheme", func(t *testing.T) {
		cli := newTestCLI()
		cli.Scheme = "calendar"
		cli.Tag = "v1.0.0"

		var stdout bytes.Buffer
		err := cli.run(&stdout, &bytes.Buffer{})
		require.ErrorIs(t, err, nexttag.ErrUnsupportedScheme)
		require.Empty(t, stdout.String())
	})

	t.Run("Invalid version type", func(t *testing.T) {
		cli := newTestCLI()
		cli.VersionType = "hotfix"
		cli.Tag = "v1.0.0"

		err := cli.run(&bytes.Buffer{}, &bytes.Buffer{})
		require.ErrorIs(t, err, nexttag.ErrUnsupportedVersionType)
	})

	t.Run("Unparsable tag", func(t *testing.T) {
		cli := newTestCLI()
		cli.Tag = "latest"

		var stdout bytes.Buffer
		err := cli.run(&stdout, &bytes.Buffer{})
		require.ErrorIs(t, err, nexttag.ErrParseFailure)
		require.Contains(t, err.Error(), "computing next tag")
		require.Empty(t, stdout.String())
	})

	t.Run("Invalid tag pattern", func(t *testing.T) {
		cli := newTestCLI()
		cli.Repo = initTestRepo(t, "v1.0.0")
		cli.TagPattern = "[invalid"

		err := cli.run(&bytes.Buffer{}, &bytes.Buffer{})
		require.Error(t, err)
		require.Contains(t, err.Error(), "resolving last tag")
	})
}

func TestCLIParse(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		var cli CLI
		parser, err := kong.New(&cli)
		require.NoError(t, err)

		_, err = parser.Parse([]string{})
		require.NoError(t, err)
		require.Equal(t, "semantic", cli.Scheme)
		require.Equal(t, "prerelease", cli.VersionType)
		require.Equal(t, "beta", cli.Suffix)
		require.Equal(t, "HEAD", cli.Commitish)
	})

	t.Run("Flags", func(t *testing.T) {
		var cli CLI
		parser, err := kong.New(&cli)
		require.NoError(t, err)

		_, err = parser.Parse([]string{"-s", "continuous", "-t", "premajor", "--tag", "v4", "--prefix", "api", "-j"})
		require.NoError(t, err)
		require.Equal(t, "continuous", cli.Scheme)
		require.Equal(t, "premajor", cli.VersionType)
		require.Equal(t, "v4", cli.Tag)
		require.Equal(t, "api", cli.Prefix)
		require.True(t, cli.JSON)
	})

	t.Run("Action inputs from the environment", func(t *testing.T) {
		t.Setenv("INPUT_VERSION_SCHEME", "continuous")
		t.Setenv("INPUT_VERSION_TYPE", "major")
		t.Setenv("INPUT_PREFIX", "web")
		t.Setenv("INPUT_SUFFIX", "rc")

		var cli CLI
		parser, err := kong.New(&cli)
		require.NoError(t, err)

		_, err = parser.Parse([]string{})
		require.NoError(t, err)
		require.Equal(t, "continuous", cli.Scheme)
		require.Equal(t, "major", cli.VersionType)
		require.Equal(t, "web", cli.Prefix)
		require.Equal(t, "rc", cli.Suffix)
	})
}
