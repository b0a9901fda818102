package changelog

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/monopub/engine/internal/model"
	"github.com/monopub/engine/internal/vcs"
)

// subjectPattern matches the Conventional Commits grammar: type(scope)?: subject
var subjectPattern = regexp.MustCompile(`^(\w+)(?:\(([^)]+)\))?(!)?:\s*(.+)$`)

var prNumberPattern = regexp.MustCompile(`\(#(\d+)\)`)

const breakingMarker = "BREAKING CHANGE"

// ParseCommit parses one VCS commit into a ConventionalCommit. ok is false if
// the subject doesn't match the grammar.
func ParseCommit(c vcs.Commit) (model.ConventionalCommit, bool) {
	m := subjectPattern.FindStringSubmatch(c.Subject)
	if m == nil {
		return model.ConventionalCommit{
			Hash: c.Hash, ShortHash: c.ShortHash, Subject: c.Subject, Body: c.Body,
			Author: model.Author{Name: c.AuthorName, Email: c.AuthorEmail}, Date: c.Date,
		}, false
	}

	breaking := m[3] == "!" || strings.Contains(c.Body, breakingMarker) || strings.Contains(c.Subject, breakingMarker)

	cc := model.ConventionalCommit{
		Hash:      c.Hash,
		ShortHash: c.ShortHash,
		Type:      strings.ToLower(m[1]),
		Scope:     m[2],
		Subject:   m[4],
		Body:      c.Body,
		Breaking:  breaking,
		Author:    model.Author{Name: c.AuthorName, Email: c.AuthorEmail},
		Date:      c.Date,
	}
	if pr := prNumberPattern.FindStringSubmatch(m[4]); pr != nil {
		if n, err := strconv.Atoi(pr[1]); err == nil {
			cc.PRNumber = n
		}
	}
	return cc, true
}

// ParseCommits parses a batch of raw VCS commits. Commits that don't match
// the grammar are dropped unless includeAll is set, in which case they're
// kept with an empty Type.
func ParseCommits(commits []vcs.Commit, includeAll bool) []model.ConventionalCommit {
	var out []model.ConventionalCommit
	for _, c := range commits {
		cc, ok := ParseCommit(c)
		if ok || includeAll {
			out = append(out, cc)
		}
	}
	return out
}
