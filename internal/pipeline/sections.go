package pipeline

import (
	"github.com/mpecan/tokf-sub002/internal/filterdef"
)

// applySections brackets the line stream by each SectionRule's start/end
// markers. Keep=true means only the bracketed lines survive (inclusive of
// the start/end marker lines); Keep=false means the bracketed range is
// removed and everything else survives. Multiple rules apply in order,
// each operating on the previous rule's output.
func applySections(cfg filterdef.FilterConfig, text string) string {
	if len(cfg.Section) == 0 {
		return text
	}
	for i := range cfg.Section {
		text = applyOneSection(&cfg.Section[i], text)
	}
	return text
}

func applyOneSection(rule *filterdef.SectionRule, text string) string {
	startRe, endRe := rule.StartRe(), rule.EndRe()
	if startRe == nil || endRe == nil {
		return text
	}
	lines := splitLines(text)
	var out []string
	inSection := false
	for _, l := range lines {
		switch {
		case !inSection && startRe.MatchString(l):
			inSection = true
			if rule.Keep {
				out = append(out, l)
			}
		case inSection && endRe.MatchString(l):
			inSection = false
			if rule.Keep {
				out = append(out, l)
			}
		case inSection:
			if rule.Keep {
				out = append(out, l)
			}
		default:
			if !rule.Keep {
				out = append(out, l)
			}
		}
	}
	return joinLines(out)
}
