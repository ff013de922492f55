package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/jaxxstorm/nexttag"
)

// Version will be set by build process
var Version = "dev"

const (
	defaultScheme      = "semantic"
	defaultVersionType = "prerelease"
)

type CLI struct {
	Scheme      string `short:"s" default:"semantic" env:"INPUT_VERSION_SCHEME" help:"Version scheme: continuous or semantic"`
	VersionType string `short:"t" default:"prerelease" env:"INPUT_VERSION_TYPE" help:"Bump: major, minor, patch, premajor, preminor, prepatch or prerelease"`
	Tag         string `env:"INPUT_TAG" help:"Previous tag (default: most recent tag in the repository)"`
	Prefix      string `env:"INPUT_PREFIX" help:"Tag prefix for scoped tags (e.g., 'subpackage' for 'subpackage-v1.0.0')"`
	Suffix      string `default:"beta" env:"INPUT_SUFFIX" help:"Prerelease name for new prerelease tracks"`
	Repo        string `short:"r" env:"GITHUB_WORKSPACE" help:"Repository path (default: current directory)"`
	Commitish   string `default:"HEAD" help:"Git commitish to search for the previous tag from"`
	TagPattern  string `env:"INPUT_TAG_PATTERN" help:"Regex pattern to filter tags (e.g., '^api-')"`
	Output      string `env:"GITHUB_OUTPUT" help:"File to append previous_tag and next_tag outputs to"`
	JSON        bool   `short:"j" help:"Output as JSON"`
	Debug       bool   `help:"Enable debug logging"`
	ShowVersion bool   `help:"Show version information" name:"version"`
}

// result is what a run produces, in the shape of the action outputs
type result struct {
	PreviousTag string `json:"previous_tag"`
	NextTag     string `json:"next_tag"`
}

func main() {
	var cli CLI

	kong.Parse(&cli,
		kong.Name("nexttag"),
		kong.Description("Compute the next release tag from the previous tag in a Git repository"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Vars{
			"version": Version,
		},
	)

	err := cli.Run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func (c *CLI) Run() error {
	return c.run(os.Stdout, os.Stderr)
}

func (c *CLI) run(stdout, stderr io.Writer) error {
	// Handle version flag
	if c.ShowVersion {
		return c.showVersion(stdout)
	}

	logger := newLogger(stderr, c.Debug)

	cfg, err := c.config()
	if err != nil {
		return err
	}

	lastTag, err := c.lastTag(logger)
	if err != nil {
		return err
	}
	cfg.Tag = lastTag

	logger.Info("computing the next tag",
		"previous_tag", lastTag,
		"scheme", cfg.Scheme.String(),
		"version_type", cfg.VersionType.String())

	next, err := nexttag.NextTag(cfg)
	if err != nil {
		return fmt.Errorf("computing next tag: %w", err)
	}

	logger.Info("computed the next tag", "next_tag", next)

	return c.writeOutputs(stdout, result{PreviousTag: lastTag, NextTag: next})
}

func (c *CLI) showVersion(w io.Writer) error {
	versionInfo := map[string]string{
		"version": Version,
		"name":    "nexttag",
	}

	if c.JSON {
		return json.NewEncoder(w).Encode(versionInfo)
	}

	_, err := fmt.Fprintf(w, "nexttag version %s\n", Version)
	return err
}

// config converts the raw inputs into a nexttag.Config. Empty inputs fall
// back to their defaults so unset CI variables behave like missing flags.
func (c *CLI) config() (nexttag.Config, error) {
	scheme, err := nexttag.ParseScheme(inputOr(c.Scheme, defaultScheme))
	if err != nil {
		return nexttag.Config{}, err
	}

	versionType, err := nexttag.ParseVersionType(inputOr(c.VersionType, defaultVersionType))
	if err != nil {
		return nexttag.Config{}, err
	}

	return nexttag.Config{
		Scheme:      scheme,
		VersionType: versionType,
		Prefix:      inputOr(c.Prefix, ""),
		Suffix:      inputOr(c.Suffix, ""),
	}, nil
}

// lastTag returns the explicit --tag when given, otherwise the most recent
// tag in the repository. No repository or no tag means bootstrap.
func (c *CLI) lastTag(logger *slog.Logger) (string, error) {
	if !nexttag.IsNullString(c.Tag) {
		return c.Tag, nil
	}

	repoPath := c.Repo
	if repoPath == "" {
		var err error
		repoPath, err = os.Getwd()
		if err != nil {
			return "", fmt.Errorf("getting current directory: %w", err)
		}
	}

	repo, err := nexttag.OpenRepository(repoPath)
	if err != nil {
		logger.Warn("no git repository found, assuming no previous tag", "path", repoPath, "error", err)
		return "", nil
	}

	tag, ok, err := nexttag.LastTag(nexttag.Options{
		Repository: repo,
		Commitish:  plumbing.Revision(inputOr(c.Commitish, "HEAD")),
		Prefix:     inputOr(c.Prefix, ""),
		TagPattern: inputOr(c.TagPattern, ""),
	})
	if err != nil {
		return "", fmt.Errorf("resolving last tag: %w", err)
	}
	if !ok {
		logger.Info("no previous tag found", "path", repoPath)
		return "", nil
	}

	logger.Debug("resolved previous tag", "path", repoPath, "tag", tag)
	return tag, nil
}

func (c *CLI) writeOutputs(w io.Writer, res result) error {
	if c.Output != "" {
		if err := appendOutputFile(c.Output, res); err != nil {
			return fmt.Errorf("writing outputs: %w", err)
		}
	}

	if c.JSON {
		return json.NewEncoder(w).Encode(res)
	}

	_, err := fmt.Fprintln(w, res.NextTag)
	return err
}

// appendOutputFile writes name=value lines in the GITHUB_OUTPUT format
func appendOutputFile(path string, res result) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = fmt.Fprintf(f, "previous_tag=%s\nnext_tag=%s\n", res.PreviousTag, res.NextTag)
	return err
}

func newLogger(w io.Writer, debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func inputOr(value, fallback string) string {
	if nexttag.IsNullString(value) {
		return fallback
	}
	return value
}
