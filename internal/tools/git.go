package tools

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-git/go-git/v5"

	"github.com/jerzydziewierz/second-opinion/internal/process"
)

const (
	// GitDiffMaxOutput bounds the captured diff.
	GitDiffMaxOutput = 1 << 20
	// GitDiffTimeout bounds a single git invocation.
	GitDiffTimeout = 10 * time.Second
	// DefaultBaseRef is compared against when no ref is given.
	DefaultBaseRef = "HEAD"
)

// GitDiffResult is the outcome of a diff collection. Failures are carried in Err
// rather than returned, so callers decide how to surface them.
type GitDiffResult struct {
	Diff string
	Err  error
}

// OK reports whether the diff was produced.
func (r GitDiffResult) OK() bool {
	return r.Err == nil
}

// GitDiff collects `git diff <ref> -- <files>` output for prompt context.
type GitDiff struct {
	Runner process.Runner
	// SkipRepositoryCheck disables the pre-flight repository detection.
	SkipRepositoryCheck bool
}

// NewGitDiff builds a collector running git through runner.
func NewGitDiff(runner process.Runner) *GitDiff {
	return &GitDiff{Runner: runner}
}

// Generate validates inputs and runs git. repoPath defaults to the working directory
// and baseRef to HEAD. Invalid refs or paths never reach git.
func (g *GitDiff) Generate(ctx context.Context, repoPath string, files []string, baseRef string) GitDiffResult {
	if len(files) == 0 {
		return GitDiffResult{Err: errors.New("no files specified for git diff")}
	}
	if baseRef == "" {
		baseRef = DefaultBaseRef
	}
	if err := ValidateGitRef(baseRef); err != nil {
		return GitDiffResult{Err: err}
	}
	for _, f := range files {
		if err := ValidateFilePath(f); err != nil {
			return GitDiffResult{Err: err}
		}
	}

	if repoPath == "" {
		wd, err := os.Getwd()
		if err != nil {
			return GitDiffResult{Err: fmt.Errorf("resolve working directory: %w", err)}
		}
		repoPath = wd
	}
	if !g.SkipRepositoryCheck {
		if err := checkRepository(repoPath); err != nil {
			return GitDiffResult{Err: err}
		}
	}

	args := append([]string{"diff", baseRef, "--"}, files...)
	res, err := g.Runner.Run(ctx, process.Command{
		Name:           "git",
		Args:           args,
		Dir:            repoPath,
		Timeout:        GitDiffTimeout,
		MaxOutputBytes: GitDiffMaxOutput,
	})
	if err != nil {
		var exitErr *process.ExitError
		if errors.As(err, &exitErr) {
			msg := strings.TrimSpace(exitErr.Stderr)
			if msg == "" {
				msg = exitErr.Error()
			}
			return GitDiffResult{Err: fmt.Errorf("git diff exited with code %d: %s", exitErr.Code, msg)}
		}
		return GitDiffResult{Err: err}
	}
	return GitDiffResult{Diff: res.Stdout}
}

func checkRepository(path string) error {
	_, err := git.PlainOpenWithOptions(path, &git.PlainOpenOptions{DetectDotGit: true, EnableDotGitCommonDir: true})
	if errors.Is(err, git.ErrRepositoryNotExists) {
		return fmt.Errorf("not a git repository: %s", path)
	}
	// other open errors are left for git itself to report
	return nil
}
