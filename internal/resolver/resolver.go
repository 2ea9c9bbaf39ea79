// Package resolver picks the single ResolvedFilter that governs a command
// line out of the full filter table, by longest argv-prefix match, then
// lowest Priority, then lexical relative path as the final tie-break.
package resolver

import (
	"sort"
	"strings"

	"github.com/mpecan/tokf-sub002/internal/filterdef"
)

// Trace records how a Resolve call reached its answer, for --explain-style
// diagnostics and for tests that pin selection behavior.
type Trace struct {
	// MatchedPrefix is the argv token count the winning filter's Command
	// shared with the input, or 0 if nothing matched.
	MatchedPrefix int
	// Ambiguous is true when more than one filter tied on prefix length
	// and priority; the lexical tie-break still produced a single winner.
	Ambiguous bool
	// AmbiguousCandidates holds the tied filters' relative paths, sorted,
	// when Ambiguous is true.
	AmbiguousCandidates []string
}

// candidate is an internal scoring record built from one table entry.
type candidate struct {
	name   string
	filter filterdef.ResolvedFilter
	prefix int
}

// Resolve selects the filter governing argv out of table, a name->filter
// map as produced by filterdef.DiscoverAllFilters. argv[0] == "tokf" is
// always unmatched (tokf never filters its own output). Returns the
// winning filter, its table name, a Trace, and false if nothing matched.
func Resolve(argv []string, table map[string]filterdef.ResolvedFilter) (filterdef.ResolvedFilter, string, Trace, bool) {
	if len(argv) == 0 || argv[0] == "tokf" {
		return filterdef.ResolvedFilter{}, "", Trace{}, false
	}

	var candidates []candidate
	for name, rf := range table {
		n := commandPrefixLen(rf.Config.Command, argv)
		if n == 0 {
			continue
		}
		candidates = append(candidates, candidate{name: name, filter: rf, prefix: n})
	}
	if len(candidates) == 0 {
		return filterdef.ResolvedFilter{}, "", Trace{}, false
	}

	bestPrefix := 0
	for _, c := range candidates {
		if c.prefix > bestPrefix {
			bestPrefix = c.prefix
		}
	}
	var atBestPrefix []candidate
	for _, c := range candidates {
		if c.prefix == bestPrefix {
			atBestPrefix = append(atBestPrefix, c)
		}
	}

	bestPriority := atBestPrefix[0].filter.Priority
	for _, c := range atBestPrefix {
		if c.filter.Priority < bestPriority {
			bestPriority = c.filter.Priority
		}
	}
	var finalists []candidate
	for _, c := range atBestPrefix {
		if c.filter.Priority == bestPriority {
			finalists = append(finalists, c)
		}
	}

	sort.Slice(finalists, func(i, j int) bool {
		return finalists[i].filter.RelativePath < finalists[j].filter.RelativePath
	})

	trace := Trace{MatchedPrefix: bestPrefix}
	if len(finalists) > 1 {
		trace.Ambiguous = true
		for _, f := range finalists {
			trace.AmbiguousCandidates = append(trace.AmbiguousCandidates, f.filter.RelativePath)
		}
	}

	winner := finalists[0]
	return winner.filter, winner.name, trace, true
}

// commandPrefixLen returns how many leading argv tokens match the filter's
// Command field, split on whitespace, counted only at token boundaries (a
// filter for "git" must not match an argv beginning with "github-cli").
// Returns 0 if the filter's command isn't a prefix of argv.
func commandPrefixLen(command string, argv []string) int {
	parts := strings.Fields(command)
	if len(parts) == 0 || len(parts) > len(argv) {
		return 0
	}
	for i, p := range parts {
		if argv[i] != p {
			return 0
		}
	}
	return len(parts)
}
