package vcs

import (
	"context"
	"sort"
	"strings"

	"github.com/monopub/engine/internal/errs"
)

// FakeClient is an in-memory Client for tests and dry-run simulation. Zero
// value is a clean repo on branch "main" with no commits or tags.
type FakeClient struct {
	Repo    bool
	Clean   bool
	Branch  string
	Commit  string
	Remotes map[string]string
	Tags    map[string]string // tag name -> commit hash
	History []Commit          // newest first
	User    User

	// Deleted/Pushed track calls for assertions in tests.
	DeletedTags     []string
	PushedTags      []string
	DeletedRemotes  []string
	PushedBranches  []string
	CommittedFiles  [][]string
	RevertedHashes  []string
}

// NewFakeClient creates a FakeClient in a ready-to-use default state.
func NewFakeClient() *FakeClient {
	return &FakeClient{
		Repo:    true,
		Clean:   true,
		Branch:  "main",
		Commit:  "0000000000000000000000000000000000000000",
		Remotes: map[string]string{"origin": "git@example.com:acme/repo.git"},
		Tags:    map[string]string{},
		User:    User{Name: "Test User", Email: "test@example.com"},
	}
}

func (f *FakeClient) IsRepo(ctx context.Context) (bool, error) { return f.Repo, nil }

func (f *FakeClient) IsClean(ctx context.Context) (bool, error) { return f.Clean, nil }

func (f *FakeClient) CurrentBranch(ctx context.Context) (string, error) { return f.Branch, nil }

func (f *FakeClient) CurrentCommit(ctx context.Context, short bool) (string, error) {
	if short && len(f.Commit) > 7 {
		return f.Commit[:7], nil
	}
	return f.Commit, nil
}

func (f *FakeClient) RemoteURL(ctx context.Context, remote string) (string, error) {
	if remote == "" {
		remote = "origin"
	}
	url, ok := f.Remotes[remote]
	if !ok {
		return "", errs.New(errs.KindVCS, "NO_REMOTE", "no such remote: "+remote)
	}
	return url, nil
}

func (f *FakeClient) LatestTag(ctx context.Context) (string, error) {
	names := make([]string, 0, len(f.Tags))
	for name := range f.Tags {
		names = append(names, name)
	}
	sort.Strings(names)
	if len(names) == 0 {
		return "", nil
	}
	return names[len(names)-1], nil
}

func (f *FakeClient) AllTags(ctx context.Context) ([]string, error) {
	names := make([]string, 0, len(f.Tags))
	for name := range f.Tags {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (f *FakeClient) TagExists(ctx context.Context, name string) (bool, error) {
	_, ok := f.Tags[name]
	return ok, nil
}

func (f *FakeClient) CreateTag(ctx context.Context, name, message string, sign bool) error {
	if _, exists := f.Tags[name]; exists {
		return errs.New(errs.KindVCS, "TAG_EXISTS", "tag already exists: "+name)
	}
	f.Tags[name] = f.Commit
	return nil
}

func (f *FakeClient) DeleteTag(ctx context.Context, name string) error {
	if _, exists := f.Tags[name]; !exists {
		return errs.New(errs.KindVCS, "NO_SUCH_TAG", "no such tag: "+name)
	}
	delete(f.Tags, name)
	f.DeletedTags = append(f.DeletedTags, name)
	return nil
}

func (f *FakeClient) PushTag(ctx context.Context, name, remote string) error {
	f.PushedTags = append(f.PushedTags, name)
	return nil
}

func (f *FakeClient) DeleteRemoteTag(ctx context.Context, name, remote string) error {
	f.DeletedRemotes = append(f.DeletedRemotes, name)
	return nil
}

func (f *FakeClient) Commit(ctx context.Context, message string, files []string, sign bool) error {
	f.CommittedFiles = append(f.CommittedFiles, files)
	f.History = append([]Commit{{
		Hash:        "fake-" + message,
		ShortHash:   "fake",
		Subject:     message,
		AuthorName:  f.User.Name,
		AuthorEmail: f.User.Email,
	}}, f.History...)
	f.Clean = true
	return nil
}

func (f *FakeClient) Push(ctx context.Context, remote, branch string) error {
	f.PushedBranches = append(f.PushedBranches, branch)
	return nil
}

func (f *FakeClient) Commits(ctx context.Context, from, to string) ([]Commit, error) {
	if from == "" {
		return f.History, nil
	}
	var out []Commit
	for _, c := range f.History {
		if c.Hash == from {
			break
		}
		out = append(out, c)
	}
	return out, nil
}

func (f *FakeClient) ChangedFiles(ctx context.Context, from, to string) ([]string, error) {
	seen := map[string]struct{}{}
	var out []string
	for _, files := range f.CommittedFiles {
		for _, file := range files {
			if _, ok := seen[file]; !ok {
				seen[file] = struct{}{}
				out = append(out, file)
			}
		}
	}
	return out, nil
}

func (f *FakeClient) UserInfo(ctx context.Context) (User, error) { return f.User, nil }

func (f *FakeClient) Revert(ctx context.Context, commitHash string) error {
	for _, name := range sortedTagNames(f.Tags) {
		if f.Tags[name] == commitHash {
			f.RevertedHashes = append(f.RevertedHashes, commitHash)
			return nil
		}
	}
	for _, c := range f.History {
		if c.Hash == commitHash || strings.HasPrefix(c.Hash, commitHash) {
			f.RevertedHashes = append(f.RevertedHashes, commitHash)
			return nil
		}
	}
	return errs.New(errs.KindVCS, "NO_SUCH_COMMIT", "no such commit: "+commitHash)
}

func sortedTagNames(tags map[string]string) []string {
	names := make([]string, 0, len(tags))
	for name := range tags {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

var _ Client = (*FakeClient)(nil)
