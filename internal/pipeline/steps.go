package pipeline

import (
	"regexp"
	"strings"

	"github.com/mpecan/tokf-sub002/internal/filterdef"
)

// ansiRe strips terminal escape sequences; compiled once at package init
// like formatting/normalize.go's suffix regexes in the teacher.
var ansiRe = regexp.MustCompile("\x1b\\[[0-9;]*[a-zA-Z]")

// applySteps runs the normalization steps named in cfg.Step in the order
// given, falling back to the boolean shorthand fields when Step is empty --
// a filter author can write either `strip_ansi = true` or
// `step = [{name = "strip_ansi"}]` and get the same result.
func applySteps(cfg filterdef.FilterConfig, text string) string {
	if len(cfg.Step) > 0 {
		for _, s := range cfg.Step {
			text = runStep(s.Name, text)
		}
		return text
	}

	if cfg.StripANSI {
		text = runStep(filterdef.StepStripANSI, text)
	}
	if cfg.TrimLines {
		text = runStep(filterdef.StepTrimLines, text)
	}
	if cfg.StripEmptyLines {
		text = runStep(filterdef.StepStripEmptyLines, text)
	}
	if cfg.CollapseEmptyLines {
		text = runStep(filterdef.StepCollapseEmptyLines, text)
	}
	if cfg.Dedup {
		text = runStep(filterdef.StepDedup, text)
	}
	return text
}

func runStep(name filterdef.StepName, text string) string {
	switch name {
	case filterdef.StepStripANSI:
		return ansiRe.ReplaceAllString(text, "")
	case filterdef.StepTrimLines:
		lines := splitLines(text)
		for i, l := range lines {
			lines[i] = strings.TrimRight(l, " \t")
		}
		return joinLines(lines)
	case filterdef.StepStripEmptyLines:
		lines := splitLines(text)
		out := lines[:0:0]
		for _, l := range lines {
			if strings.TrimSpace(l) != "" {
				out = append(out, l)
			}
		}
		return joinLines(out)
	case filterdef.StepCollapseEmptyLines:
		lines := splitLines(text)
		var out []string
		prevEmpty := false
		for _, l := range lines {
			empty := strings.TrimSpace(l) == ""
			if empty && prevEmpty {
				continue
			}
			out = append(out, l)
			prevEmpty = empty
		}
		return joinLines(out)
	case filterdef.StepDedup:
		lines := splitLines(text)
		seen := make(map[string]bool, len(lines))
		var out []string
		for _, l := range lines {
			if seen[l] {
				continue
			}
			seen[l] = true
			out = append(out, l)
		}
		return joinLines(out)
	default:
		return text
	}
}
