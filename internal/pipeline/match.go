package pipeline

import (
	"regexp"
	"strings"

	"github.com/mpecan/tokf-sub002/internal/filterdef"
)

// braceCaptureRe finds a filter definition's "{1}".."{N}" capture
// placeholders so they can be translated into Go's "$1" regexp.Expand
// syntax before a MatchRule or parse.group key template is applied.
var braceCaptureRe = regexp.MustCompile(`\{(\d+)\}`)

// expandTemplate turns a filter-definition template using "{1}"/"{2}"
// placeholders (spec §4.5's match_output contract) into the "${1}"/"${2}"
// form regexp.Regexp.Expand understands, first escaping any literal "$" in
// the author's template so it survives Expand untouched.
func expandTemplate(tpl string) string {
	escaped := strings.ReplaceAll(tpl, "$", "$$")
	return braceCaptureRe.ReplaceAllString(escaped, "${$1}")
}

// applyMatchOutput scans for every non-overlapping match of each rule's
// pattern and expands it through the rule's Output template into its own
// output line, discarding everything that didn't match any rule -- spec
// §4.5 #6 ("emit only the substitution"). Matching is line-scoped (each
// line of the buffer scanned independently, so an unanchored pattern can
// still match more than once per line) unless the rule is tagged
// Multiline, in which case its pattern is matched against the whole
// buffer at once per the tie-break rule in spec §4.5. Rules run in
// declaration order and their emitted lines are concatenated in that
// order, replacing the buffer entirely.
func applyMatchOutput(cfg filterdef.FilterConfig, text string) string {
	if len(cfg.MatchOutput) == 0 {
		return text
	}
	lines := splitLines(text)
	var out []string
	for i := range cfg.MatchOutput {
		m := &cfg.MatchOutput[i]
		re := m.Compiled()
		if re == nil {
			continue
		}
		tpl := expandTemplate(m.Output)
		if m.Multiline {
			for _, idx := range re.FindAllStringSubmatchIndex(text, -1) {
				out = append(out, string(re.ExpandString(nil, tpl, text, idx)))
			}
			continue
		}
		for _, l := range lines {
			for _, idx := range re.FindAllStringSubmatchIndex(l, -1) {
				out = append(out, string(re.ExpandString(nil, tpl, l, idx)))
			}
		}
	}
	return joinLines(out)
}
