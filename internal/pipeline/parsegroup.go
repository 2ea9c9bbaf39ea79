package pipeline

import "github.com/mpecan/tokf-sub002/internal/filterdef"

// applyParseGroup extracts a key per line via parse.group.key, maps it
// through parse.group.labels (falling back to the raw extracted key when no
// label entry matches), replaces the line with that label, and collapses
// adjacent repeats of the same label -- e.g. turning a long `git status
// --short` listing into a condensed per-status-code summary line stream.
func applyParseGroup(cfg filterdef.FilterConfig, text string) string {
	if cfg.Parse == nil || cfg.Parse.Group == nil {
		return text
	}
	group := cfg.Parse.Group
	re := group.Key.Compiled()
	if re == nil {
		return text
	}
	tpl := expandTemplate(group.Key.Output)

	lines := splitLines(text)
	var out []string
	lastLabel := ""
	haveLast := false
	for _, l := range lines {
		m := re.FindStringSubmatch(l)
		if m == nil {
			out = append(out, l)
			haveLast = false
			continue
		}
		key := string(re.ExpandString(nil, tpl, l, re.FindStringSubmatchIndex(l)))
		label, ok := group.Labels[key]
		if !ok {
			label = key
		}
		if haveLast && label == lastLabel {
			continue
		}
		out = append(out, label)
		lastLabel = label
		haveLast = true
		_ = m
	}
	return joinLines(out)
}
