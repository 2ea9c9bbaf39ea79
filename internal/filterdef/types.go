// Package filterdef holds the tokf filter definition data model: the
// declarative FilterConfig a TOML document parses into, its pass-kind tagged
// union, and the provenance wrapper the loader and resolver attach to it.
package filterdef

import "regexp"

// FilterConfig is the pure, declarative description of a single filter. It
// carries no provenance — two FilterConfig values with identical field
// values hash identically regardless of where they were loaded from.
type FilterConfig struct {
	Command string `toml:"command"`

	Skip        []LinePredicate  `toml:"skip"`
	Keep        []LinePredicate  `toml:"keep"`
	Step        []StepPass       `toml:"step"`
	MatchOutput []MatchRule      `toml:"match_output"`
	Section     []SectionRule    `toml:"section"`
	Replace     []ReplaceRule    `toml:"replace"`
	Variant     []VariantRule    `toml:"variant"`
	Parse       *ParseConfig     `toml:"parse"`
	Tail        int              `toml:"tail"`
	Head        int              `toml:"head"`

	Script *ScriptConfig `toml:"script"`

	Dedup               bool `toml:"dedup"`
	StripANSI           bool `toml:"strip_ansi"`
	TrimLines           bool `toml:"trim_lines"`
	StripEmptyLines     bool `toml:"strip_empty_lines"`
	CollapseEmptyLines  bool `toml:"collapse_empty_lines"`
}

// MatchKind tags how a LinePredicate or ReplaceRule's pattern is interpreted.
type MatchKind string

const (
	MatchRegex    MatchKind = "regex"
	MatchEquals   MatchKind = "equals"
	MatchContains MatchKind = "contains"
)

// LinePredicate backs both skip and keep passes.
type LinePredicate struct {
	Pattern   string    `toml:"pattern"`
	Kind      MatchKind `toml:"kind"`
	Multiline bool      `toml:"multiline"`

	compiled *regexp.Regexp
}

// StepName enumerates the named, ordered transforms a `step` pass may run.
type StepName string

const (
	StepDedup              StepName = "dedup"
	StepStripANSI          StepName = "strip_ansi"
	StepTrimLines          StepName = "trim_lines"
	StepStripEmptyLines    StepName = "strip_empty_lines"
	StepCollapseEmptyLines StepName = "collapse_empty_lines"
)

// StepPass is an explicit, positioned step entry in the pass list.
type StepPass struct {
	Name StepName `toml:"name"`
}

// MatchRule extracts substrings via a capture-group template.
type MatchRule struct {
	Pattern   string `toml:"pattern"`
	Output    string `toml:"output"`
	Multiline bool   `toml:"multiline"`

	compiled *regexp.Regexp
}

// SectionRule brackets output into a named section by start/end markers.
type SectionRule struct {
	Name  string `toml:"name"`
	Start string `toml:"start"`
	End   string `toml:"end"`
	Keep  bool   `toml:"keep"`

	startRe *regexp.Regexp
	endRe   *regexp.Regexp
}

// ReplaceRule is a regex substitution applied to the whole buffer.
type ReplaceRule struct {
	Pattern   string `toml:"pattern"`
	With      string `toml:"with"`
	Multiline bool   `toml:"multiline"`

	compiled *regexp.Regexp
}

// VariantCondition tags how a VariantRule decides whether it applies.
type VariantCondition string

const (
	OnSuccess VariantCondition = "on_success"
	OnFailure VariantCondition = "on_failure"
	OnExit    VariantCondition = "on_exit"
)

// VariantRule is an exit-code-conditioned override.
type VariantRule struct {
	Condition VariantCondition `toml:"condition"`
	ExitCode  int              `toml:"exit_code"`
	Output    *string          `toml:"output"`
	Pipeline  *FilterConfig    `toml:"pipeline"`
}

// Matches reports whether this variant applies to the given exit code.
func (v VariantRule) Matches(exitCode int) bool {
	switch v.Condition {
	case OnSuccess:
		return exitCode == 0
	case OnFailure:
		return exitCode != 0
	case OnExit:
		return exitCode == v.ExitCode
	default:
		return false
	}
}

// ParseConfig is the optional parse.group pass: extract a key per line via a
// regex and replace the line with its label, deduplicating adjacent repeats.
type ParseConfig struct {
	Group *GroupConfig `toml:"group"`
}

// GroupConfig extracts a key and maps it to a human label.
type GroupConfig struct {
	Key    ExtractRule       `toml:"key"`
	Labels map[string]string `toml:"labels"`
}

// ExtractRule is a capture-group pattern plus an output template.
type ExtractRule struct {
	Pattern string `toml:"pattern"`
	Output  string `toml:"output"`

	compiled *regexp.Regexp
}

// ScriptLang names the sandboxed scripting language a ScriptConfig runs in.
// tokf ships a single sandbox today (Lua), but the field exists so a filter
// definition states its intent explicitly rather than implying it.
type ScriptLang string

const (
	ScriptLua ScriptLang = "lua"
)

// ScriptConfig is the optional sandboxed script hook.
type ScriptConfig struct {
	Lang   ScriptLang `toml:"lang"`
	Source *string    `toml:"source"`
	File   *string    `toml:"file"`
}

// ResolvedFilter pairs a pure FilterConfig with its provenance.
type ResolvedFilter struct {
	Config       FilterConfig
	RelativePath string
	SourcePath   string
	Priority     int
}

// PriorityMax is the priority assigned to the embedded asset table: the
// highest numeric value, so every layered user override shadows it.
const PriorityMax = int(^uint(0) >> 1) // max int

// CommandResult is the already-collected output of a command invocation.
type CommandResult struct {
	Stdout   string
	Stderr   string
	Combined string
	ExitCode int
}

// FilteredOutput is what the pipeline engine produces for one invocation.
type FilteredOutput struct {
	Output        string
	BytesIn       int64
	BytesOut      int64
	TokensInEst   int64
	TokensOutEst  int64
	FilterTimeMS  int64
	FilterName    string
	FilterHash    string
	VariantTaken  *string
	PipeOverride  bool
}

// ExpectKind tags how a TestCase's ExpectRule checks the filtered output.
type ExpectKind string

const (
	ExpectEquals     ExpectKind = "equals"
	ExpectContains   ExpectKind = "contains"
	ExpectMatches    ExpectKind = "matches"
	ExpectNotContain ExpectKind = "not_contains"
	ExpectLinesEq    ExpectKind = "lines_eq"
)

// ExpectRule is one assertion against a FilteredOutput.Output.
type ExpectRule struct {
	Kind    ExpectKind
	Equals  string `toml:"equals"`
	Contains string `toml:"contains"`
	Matches string `toml:"matches"`
	NotContains string `toml:"not_contains"`
	LinesEq *int `toml:"lines_eq"`

	compiled *regexp.Regexp
}

// TestCase is one declarative test replayed by the verification harness.
type TestCase struct {
	Name        string       `toml:"name"`
	Inline      string       `toml:"inline"`
	FixturePath string       `toml:"fixture"`
	ExitCode    int          `toml:"exit_code"`
	Argv        []string     `toml:"args"`
	Expect      []ExpectRule `toml:"expect"`
}
