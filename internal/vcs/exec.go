package vcs

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/monopub/engine/internal/errs"
)

// commitFieldSep separates fields within one `git log --format` record; unitSep
// separates records. Both are control characters unlikely to appear in commit text.
const (
	commitFieldSep = "\x1f"
	commitUnitSep  = "\x1e"
)

// GitClient is the real, subprocess-backed VCS Client implementation.
type GitClient struct {
	RepoRoot string
}

// NewGitClient creates a GitClient rooted at repoRoot.
func NewGitClient(repoRoot string) *GitClient {
	return &GitClient{RepoRoot: repoRoot}
}

func (g *GitClient) run(ctx context.Context, args ...string) (string, error) {
	full := append([]string{"-c", "core.hooksPath=/dev/null", "-C", g.RepoRoot}, args...)
	// #nosec G204 - args are fixed by this package, RepoRoot is operator-supplied
	cmd := exec.CommandContext(ctx, "git", full...)
	cmd.Env = safeGitEnv()
	out, err := cmd.CombinedOutput()
	if err != nil {
		return "", errs.Wrap(errs.KindVCS, "GIT_FAILED", "git "+strings.Join(args, " ")+": "+strings.TrimSpace(string(out)), err)
	}
	return strings.TrimSpace(string(out)), nil
}

func (g *GitClient) IsRepo(ctx context.Context) (bool, error) {
	_, err := g.run(ctx, "rev-parse", "--is-inside-work-tree")
	return err == nil, nil
}

func (g *GitClient) IsClean(ctx context.Context) (bool, error) {
	out, err := g.run(ctx, "status", "--porcelain")
	if err != nil {
		return false, err
	}
	return out == "", nil
}

func (g *GitClient) CurrentBranch(ctx context.Context) (string, error) {
	return g.run(ctx, "rev-parse", "--abbrev-ref", "HEAD")
}

func (g *GitClient) CurrentCommit(ctx context.Context, short bool) (string, error) {
	if short {
		return g.run(ctx, "rev-parse", "--short", "HEAD")
	}
	return g.run(ctx, "rev-parse", "HEAD")
}

func (g *GitClient) RemoteURL(ctx context.Context, remote string) (string, error) {
	if remote == "" {
		remote = "origin"
	}
	return g.run(ctx, "remote", "get-url", remote)
}

func (g *GitClient) LatestTag(ctx context.Context) (string, error) {
	out, err := g.run(ctx, "describe", "--tags", "--abbrev=0")
	if err != nil {
		return "", nil // no tags yet is not fatal
	}
	return out, nil
}

func (g *GitClient) AllTags(ctx context.Context) ([]string, error) {
	out, err := g.run(ctx, "tag", "--list")
	if err != nil {
		return nil, err
	}
	if out == "" {
		return nil, nil
	}
	return strings.Split(out, "\n"), nil
}

func (g *GitClient) TagExists(ctx context.Context, name string) (bool, error) {
	tags, err := g.AllTags(ctx)
	if err != nil {
		return false, err
	}
	for _, t := range tags {
		if t == name {
			return true, nil
		}
	}
	return false, nil
}

func (g *GitClient) CreateTag(ctx context.Context, name, message string, sign bool) error {
	args := []string{"tag"}
	if sign {
		args = append(args, "-s")
	} else if message != "" {
		args = append(args, "-a")
	}
	if message != "" {
		args = append(args, "-m", message)
	}
	args = append(args, name)
	_, err := g.run(ctx, args...)
	return err
}

func (g *GitClient) DeleteTag(ctx context.Context, name string) error {
	_, err := g.run(ctx, "tag", "-d", name)
	return err
}

func (g *GitClient) PushTag(ctx context.Context, name, remote string) error {
	if remote == "" {
		remote = "origin"
	}
	_, err := g.run(ctx, "push", remote, name)
	return err
}

func (g *GitClient) DeleteRemoteTag(ctx context.Context, name, remote string) error {
	if remote == "" {
		remote = "origin"
	}
	_, err := g.run(ctx, "push", remote, ":refs/tags/"+name)
	return err
}

func (g *GitClient) Commit(ctx context.Context, message string, files []string, sign bool) error {
	if len(files) == 0 {
		if _, err := g.run(ctx, "add", "."); err != nil {
			return err
		}
	} else {
		args := append([]string{"add"}, files...)
		if _, err := g.run(ctx, args...); err != nil {
			return err
		}
	}
	args := []string{"commit", "-m", message}
	if sign {
		args = append(args, "-S")
	}
	_, err := g.run(ctx, args...)
	return err
}

func (g *GitClient) Push(ctx context.Context, remote, branch string) error {
	if remote == "" {
		remote = "origin"
	}
	args := []string{"push", remote}
	if branch != "" {
		args = append(args, branch)
	}
	_, err := g.run(ctx, args...)
	return err
}

func (g *GitClient) Commits(ctx context.Context, from, to string) ([]Commit, error) {
	if to == "" {
		to = "HEAD"
	}
	rangeArg := to
	if from != "" {
		rangeArg = from + ".." + to
	}
	format := "%H" + commitFieldSep + "%h" + commitFieldSep + "%s" + commitFieldSep + "%b" + commitFieldSep + "%an" + commitFieldSep + "%ae" + commitFieldSep + "%at"
	out, err := g.run(ctx, "log", "--format="+format+commitUnitSep, rangeArg)
	if err != nil {
		return nil, err
	}
	if out == "" {
		return nil, nil
	}

	var commits []Commit
	for _, record := range strings.Split(out, commitUnitSep) {
		record = strings.TrimSpace(record)
		if record == "" {
			continue
		}
		fields := strings.Split(record, commitFieldSep)
		if len(fields) < 7 {
			continue
		}
		ts, _ := strconv.ParseInt(fields[6], 10, 64)
		commits = append(commits, Commit{
			Hash:        fields[0],
			ShortHash:   fields[1],
			Subject:     fields[2],
			Body:        fields[3],
			AuthorName:  fields[4],
			AuthorEmail: fields[5],
			Date:        time.Unix(ts, 0).UTC(),
		})
	}
	return commits, nil
}

func (g *GitClient) ChangedFiles(ctx context.Context, from, to string) ([]string, error) {
	if to == "" {
		to = "HEAD"
	}
	rangeArg := to
	if from != "" {
		rangeArg = from + ".." + to
	}
	out, err := g.run(ctx, "diff", "--name-only", rangeArg)
	if err != nil {
		return nil, err
	}
	if out == "" {
		return nil, nil
	}
	return strings.Split(out, "\n"), nil
}

func (g *GitClient) UserInfo(ctx context.Context) (User, error) {
	name, err := g.run(ctx, "config", "user.name")
	if err != nil {
		return User{}, err
	}
	email, err := g.run(ctx, "config", "user.email")
	if err != nil {
		return User{}, err
	}
	return User{Name: name, Email: email}, nil
}

func (g *GitClient) Revert(ctx context.Context, commitHash string) error {
	_, err := g.run(ctx, "revert", "--no-edit", commitHash)
	return err
}

// safeGitEnv builds a minimal environment for git subprocesses: an allowlist
// of essential system variables plus hardening overrides, deliberately
// excluding any inherited GIT_* variables that could redirect config,
// identity, or repository paths.
func safeGitEnv() []string {
	essentialVars := []string{"PATH", "HOME", "USER", "TMPDIR", "TEMP", "TMP", "LANG", "LC_ALL", "LC_CTYPE", "SHELL", "TERM"}

	env := make([]string, 0, len(essentialVars)+8)
	for _, key := range essentialVars {
		if value, ok := os.LookupEnv(key); ok {
			env = append(env, fmt.Sprintf("%s=%s", key, value))
		}
	}

	env = append(env,
		"GIT_CONFIG_NOSYSTEM=1",
		"GIT_CONFIG_NOGLOBAL=1",
		"GIT_TERMINAL_PROMPT=0",
		"GIT_SSH_COMMAND=ssh -o BatchMode=yes -o StrictHostKeyChecking=accept-new",
		"GIT_ASKPASS=/bin/true",
		"GIT_EDITOR=/bin/true",
		"GIT_PAGER=cat",
		"GIT_ATTR_NOSYSTEM=1",
	)
	return env
}
