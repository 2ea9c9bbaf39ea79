package resolver

import (
	"testing"

	"github.com/mpecan/tokf-sub002/internal/filterdef"
)

func table(entries map[string]struct {
	command  string
	priority int
	relpath  string
}) map[string]filterdef.ResolvedFilter {
	out := make(map[string]filterdef.ResolvedFilter, len(entries))
	for name, e := range entries {
		out[name] = filterdef.ResolvedFilter{
			Config:       filterdef.FilterConfig{Command: e.command},
			RelativePath: e.relpath,
			Priority:     e.priority,
		}
	}
	return out
}

func TestResolvePrefersLongestPrefix(t *testing.T) {
	tbl := table(map[string]struct {
		command  string
		priority int
		relpath  string
	}{
		"git":      {"git", 0, "git.toml"},
		"git/push": {"git push", 0, "git/push.toml"},
	})

	_, name, _, ok := Resolve([]string{"git", "push", "origin", "main"}, tbl)
	if !ok {
		t.Fatal("expected a match")
	}
	if name != "git/push" {
		t.Fatalf("expected git/push to win on longer prefix, got %s", name)
	}
}

func TestResolveRejectsNonBoundaryMatch(t *testing.T) {
	tbl := table(map[string]struct {
		command  string
		priority int
		relpath  string
	}{
		"git": {"git", 0, "git.toml"},
	})

	_, _, _, ok := Resolve([]string{"github-cli", "pr", "list"}, tbl)
	if ok {
		t.Fatal("expected no match: github-cli must not match a filter for git")
	}
}

func TestResolveLowestPriorityWinsOnTie(t *testing.T) {
	tbl := table(map[string]struct {
		command  string
		priority int
		relpath  string
	}{
		"user/git":  {"git", 0, "user/git.toml"},
		"embed/git": {"git", filterdef.PriorityMax, "embed/git.toml"},
	})

	_, name, trace, ok := Resolve([]string{"git", "status"}, tbl)
	if !ok {
		t.Fatal("expected a match")
	}
	if name != "user/git" {
		t.Fatalf("expected user override (priority 0) to win, got %s", name)
	}
	if trace.Ambiguous {
		t.Fatal("distinct priorities should not be reported ambiguous")
	}
}

func TestResolveAmbiguousTieBreaksLexically(t *testing.T) {
	tbl := table(map[string]struct {
		command  string
		priority int
		relpath  string
	}{
		"b": {"git", 0, "zzz/git.toml"},
		"a": {"git", 0, "aaa/git.toml"},
	})

	_, _, trace, ok := Resolve([]string{"git", "status"}, tbl)
	if !ok {
		t.Fatal("expected a match")
	}
	if !trace.Ambiguous {
		t.Fatal("expected ambiguity to be reported for equal prefix and priority")
	}
	if len(trace.AmbiguousCandidates) != 2 || trace.AmbiguousCandidates[0] != "aaa/git.toml" {
		t.Fatalf("expected sorted candidates starting with aaa/git.toml, got %v", trace.AmbiguousCandidates)
	}
}

func TestResolveNeverMatchesTokfItself(t *testing.T) {
	tbl := table(map[string]struct {
		command  string
		priority int
		relpath  string
	}{
		"tokf": {"tokf", 0, "tokf.toml"},
	})

	_, _, _, ok := Resolve([]string{"tokf", "verify"}, tbl)
	if ok {
		t.Fatal("tokf must never filter its own invocation")
	}
}

func TestResolveNoMatchWhenNothingFits(t *testing.T) {
	tbl := table(map[string]struct {
		command  string
		priority int
		relpath  string
	}{
		"git/push": {"git push", 0, "git/push.toml"},
	})

	_, _, _, ok := Resolve([]string{"npm", "install"}, tbl)
	if ok {
		t.Fatal("expected no match for an unrelated command")
	}
}
