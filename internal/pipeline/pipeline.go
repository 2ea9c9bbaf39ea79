// Package pipeline runs the declarative pass list a filterdef.FilterConfig
// describes against a captured CommandResult, in a fixed stage order.
package pipeline

import (
	"strings"
	"time"

	"github.com/mpecan/tokf-sub002/internal/filterdef"
)

// ScriptHost is the capability internal/script provides; kept here as an
// interface so pipeline has no import-time dependency on the scripting
// engine, the same way the teacher's ExecutionContext only ever refers to
// Store/Logf through small capability shapes rather than concrete types.
type ScriptHost interface {
	Run(source string, output string, exitCode int, args []string) (*string, error)
}

// Apply runs cfg's pass pipeline against result and returns the filtered
// output plus accounting metadata. argv is the original command line,
// passed through to any script hook. If cfg or its passes panic mid-run
// (a malformed regex reaching Compile despite validation, for instance),
// Apply recovers and returns the unfiltered combined output untouched --
// mirroring the cmd-output-curator strategy of degrading to "pass it all
// through" rather than losing output.
func Apply(cfg filterdef.FilterConfig, result filterdef.CommandResult, argv []string, script ScriptHost) (out filterdef.FilteredOutput, err error) {
	start := time.Now()
	raw := result.Combined
	if raw == "" {
		raw = result.Stdout + result.Stderr
	}

	out = filterdef.FilteredOutput{
		Output:  raw,
		BytesIn: int64(len(raw)),
	}

	defer func() {
		if r := recover(); r != nil {
			out.Output = raw
			out.PipeOverride = false
		}
		out.BytesOut = int64(len(out.Output))
		out.TokensInEst = estimateTokens(out.BytesIn)
		out.TokensOutEst = estimateTokens(out.BytesOut)
		out.FilterTimeMS = time.Since(start).Milliseconds()
	}()

	effective := cfg
	variantName := (*string)(nil)
	for i := range cfg.Variant {
		v := cfg.Variant[i]
		if !v.Matches(result.ExitCode) {
			continue
		}
		if v.Pipeline != nil {
			effective = *v.Pipeline
		}
		if v.Output != nil {
			out.Output = *v.Output
			out.VariantTaken = variantTag(v)
			return out, nil
		}
		variantName = variantTag(v)
		break
	}
	out.VariantTaken = variantName

	text := raw
	text = applySteps(effective, text)
	text = applySkipKeep(effective, text)
	text = applySections(effective, text)
	text = applyReplace(effective, text)
	text = applyMatchOutput(effective, text)
	text = applyParseGroup(effective, text)
	text = applyTailHead(effective, text)

	if effective.Script != nil && script != nil {
		scripted, serr := runScript(effective.Script, text, result.ExitCode, argv, script)
		if serr != nil {
			return out, serr
		}
		if scripted != nil {
			text = *scripted
			out.PipeOverride = true
		}
	}

	out.Output = text
	return out, nil
}

func variantTag(v filterdef.VariantRule) *string {
	s := string(v.Condition)
	return &s
}

// estimateTokens is the deliberate cheap proxy ceil(bytes / 4): exact
// tokenizer-accurate counts aren't needed, only a stable relative figure
// for gain reporting.
func estimateTokens(bytes int64) int64 {
	if bytes == 0 {
		return 0
	}
	return (bytes + 3) / 4
}

func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(strings.TrimRight(s, "\n"), "\n")
}

func joinLines(lines []string) string {
	if len(lines) == 0 {
		return ""
	}
	return strings.Join(lines, "\n") + "\n"
}
