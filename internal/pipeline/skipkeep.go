package pipeline

import (
	"strings"

	"github.com/mpecan/tokf-sub002/internal/filterdef"
)

// applySkipKeep drops lines matched by any Skip predicate, then -- if Keep
// is non-empty -- drops every remaining line that matches none of the Keep
// predicates. Skip always runs first so a line can be excluded by Skip even
// if it would otherwise satisfy Keep.
func applySkipKeep(cfg filterdef.FilterConfig, text string) string {
	if len(cfg.Skip) == 0 && len(cfg.Keep) == 0 {
		return text
	}
	lines := splitLines(text)
	out := lines[:0:0]
	for _, l := range lines {
		if matchesAny(cfg.Skip, l) {
			continue
		}
		if len(cfg.Keep) > 0 && !matchesAny(cfg.Keep, l) {
			continue
		}
		out = append(out, l)
	}
	return joinLines(out)
}

func matchesAny(preds []filterdef.LinePredicate, line string) bool {
	for i := range preds {
		if predicateMatches(&preds[i], line) {
			return true
		}
	}
	return false
}

func predicateMatches(p *filterdef.LinePredicate, line string) bool {
	switch p.Kind {
	case filterdef.MatchEquals:
		return line == p.Pattern
	case filterdef.MatchContains:
		return strings.Contains(line, p.Pattern)
	case filterdef.MatchRegex, "":
		re := p.Compiled()
		if re == nil {
			return false
		}
		return re.MatchString(line)
	default:
		return false
	}
}
