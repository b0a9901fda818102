// Package changelog parses Conventional Commits into grouped sections and
// renders them as Markdown release notes.
package changelog

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/monopub/engine/internal/errs"
	"github.com/monopub/engine/internal/model"
	"github.com/monopub/engine/internal/vcs"
)

type sectionDef struct {
	title    string
	priority int
	hidden   bool
}

var sectionTable = map[string]sectionDef{
	"feat":     {"Features", 1, false},
	"fix":      {"Bug Fixes", 2, false},
	"perf":     {"Performance Improvements", 3, false},
	"refactor": {"Code Refactoring", 4, false},
	"docs":     {"Documentation", 5, false},
	"style":    {"Styles", 6, false},
	"test":     {"Tests", 7, false},
	"build":    {"Build System", 8, false},
	"ci":       {"Continuous Integration", 9, false},
	"chore":    {"Chores", 10, true},
	"revert":   {"Reverts", 11, false},
}

// Engine is the Changelog Engine.
type Engine struct {
	vcsClient        vcs.Client
	includeAllCommits bool
	showHidden       bool
}

// New creates a Changelog Engine backed by the given VCS client.
func New(vcsClient vcs.Client) *Engine {
	return &Engine{vcsClient: vcsClient}
}

// WithIncludeAllCommits makes Generate keep commits that don't match the
// Conventional Commits grammar, grouped into no section.
func (e *Engine) WithIncludeAllCommits(v bool) *Engine {
	e.includeAllCommits = v
	return e
}

// WithShowHidden disables hiding the chore section.
func (e *Engine) WithShowHidden(v bool) *Engine {
	e.showHidden = v
	return e
}

// Generate reads commits between from (exclusive, optional) and to
// (default HEAD), parses and groups them, and returns assembled content
// for the given release version.
func (e *Engine) Generate(ctx context.Context, version, from, to string) (*model.ChangelogContent, error) {
	if to == "" {
		to = "HEAD"
	}
	raw, err := e.vcsClient.Commits(ctx, from, to)
	if err != nil {
		return nil, errs.Wrap(errs.KindVCS, "COMMITS_FAILED", "reading commits for changelog", err)
	}

	parsed := ParseCommits(raw, e.includeAllCommits)
	sections := groupSections(parsed, e.showHidden)

	return &model.ChangelogContent{
		Version:  version,
		Date:     time.Now().UTC().Format("2006-01-02"),
		Sections: sections,
	}, nil
}

func groupSections(commits []model.ConventionalCommit, showHidden bool) []model.Section {
	byType := map[string][]model.ConventionalCommit{}
	for _, c := range commits {
		byType[c.Type] = append(byType[c.Type], c)
	}

	var sections []model.Section
	for typ, def := range sectionTable {
		if def.hidden && !showHidden {
			continue
		}
		grouped, ok := byType[typ]
		if !ok || len(grouped) == 0 {
			continue
		}
		sections = append(sections, model.Section{
			Title:    def.title,
			Type:     typ,
			Priority: def.priority,
			Commits:  grouped,
		})
	}

	sort.Slice(sections, func(i, j int) bool { return sections[i].Priority < sections[j].Priority })
	return sections
}

// Render produces Markdown for a ChangelogContent, linking PR numbers and
// commit hashes against repoURL (normalize with NormalizeRemote first; pass
// "" to render bare references).
func Render(content *model.ChangelogContent, repoURL string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "## %s (%s)\n\n", content.Version, content.Date)

	for _, section := range content.Sections {
		fmt.Fprintf(&b, "### %s\n\n", section.Title)
		for _, c := range section.Commits {
			line := renderCommitLine(c, repoURL)
			fmt.Fprintf(&b, "- %s\n", line)
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n") + "\n"
}

func renderCommitLine(c model.ConventionalCommit, repoURL string) string {
	subject := c.Subject
	if c.Scope != "" {
		subject = fmt.Sprintf("**%s:** %s", c.Scope, subject)
	}

	hashRef := c.ShortHash
	if repoURL != "" {
		hashRef = fmt.Sprintf("[%s](%s)", c.ShortHash, CommitURL(repoURL, c.Hash))
	}

	line := fmt.Sprintf("%s (%s)", subject, hashRef)
	if c.PRNumber > 0 {
		prRef := fmt.Sprintf("#%d", c.PRNumber)
		if repoURL != "" {
			prRef = fmt.Sprintf("[#%d](%s)", c.PRNumber, PRURL(repoURL, c.PRNumber))
		}
		line = fmt.Sprintf("%s (%s)", subject, prRef)
	}
	return line
}

const topHeading = "# Changelog"

// Write inserts the rendered entry for content into the file at path. If
// the file already exists and contains a top-level heading, the new entry
// is inserted right after it; otherwise a fresh file is created with a
// top-level heading. If an entry for content.Version already exists, Write
// is a no-op unless regenerate is set.
func Write(content *model.ChangelogContent, repoURL, path string, regenerate bool) error {
	entry := Render(content, repoURL)

	existing, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return errs.Wrap(errs.KindIO, "CHANGELOG_READ_FAILED", "reading "+path, err)
		}
		out := topHeading + "\n\n" + entry
		return os.WriteFile(path, []byte(out), 0o644)
	}

	text := string(existing)
	versionMarker := "## " + content.Version + " "
	if strings.Contains(text, versionMarker) && !regenerate {
		return nil
	}

	if idx := strings.Index(text, "\n"); idx >= 0 && strings.HasPrefix(strings.TrimSpace(text), "# ") {
		rest := strings.TrimLeft(text[idx+1:], "\n")
		out := text[:idx+1] + "\n" + entry + "\n" + rest
		return os.WriteFile(path, []byte(out), 0o644)
	}

	out := topHeading + "\n\n" + entry + "\n" + text
	return os.WriteFile(path, []byte(out), 0o644)
}
