// Package hashutil computes the canonical content hash of a filter
// definition: the same value regardless of which fields were left at their
// zero value versus set explicitly to the default, so edits that change
// nothing meaningful don't change the hash.
package hashutil

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/mpecan/tokf-sub002/internal/filterdef"
)

// HashError wraps a failure to canonicalize or serialize a filter config.
type HashError struct {
	Op  string
	Err error
}

func (e *HashError) Error() string {
	return fmt.Sprintf("hashutil: %s: %v", e.Op, e.Err)
}

func (e *HashError) Unwrap() error { return e.Err }

// canonicalFilter is the JSON projection of filterdef.FilterConfig used for
// hashing. Every optional field is present with its explicit zero value so
// two configs that differ only in whether a default was spelled out hash
// identically. encoding/json already emits object keys... for map fields
// (Labels) in sorted key order on marshal, so no extra sorting is needed
// here.
type canonicalFilter struct {
	Command string `json:"command"`

	Skip        []canonicalPredicate `json:"skip"`
	Keep        []canonicalPredicate `json:"keep"`
	Step        []canonicalStep      `json:"step"`
	MatchOutput []canonicalMatch     `json:"match_output"`
	Section     []canonicalSection   `json:"section"`
	Replace     []canonicalReplace   `json:"replace"`
	Variant     []canonicalVariant   `json:"variant"`
	Parse       *canonicalParse      `json:"parse"`
	Tail        int                  `json:"tail"`
	Head        int                  `json:"head"`

	Script *canonicalScript `json:"script"`

	Dedup              bool `json:"dedup"`
	StripANSI          bool `json:"strip_ansi"`
	TrimLines          bool `json:"trim_lines"`
	StripEmptyLines    bool `json:"strip_empty_lines"`
	CollapseEmptyLines bool `json:"collapse_empty_lines"`
}

type canonicalPredicate struct {
	Pattern   string `json:"pattern"`
	Kind      string `json:"kind"`
	Multiline bool   `json:"multiline"`
}

type canonicalStep struct {
	Name string `json:"name"`
}

type canonicalMatch struct {
	Pattern   string `json:"pattern"`
	Output    string `json:"output"`
	Multiline bool   `json:"multiline"`
}

type canonicalSection struct {
	Name  string `json:"name"`
	Start string `json:"start"`
	End   string `json:"end"`
	Keep  bool   `json:"keep"`
}

type canonicalReplace struct {
	Pattern   string `json:"pattern"`
	With      string `json:"with"`
	Multiline bool   `json:"multiline"`
}

type canonicalVariant struct {
	Condition string            `json:"condition"`
	ExitCode  int               `json:"exit_code"`
	Output    string            `json:"output"`
	Pipeline  *canonicalFilter  `json:"pipeline"`
}

type canonicalParse struct {
	Group *canonicalGroup `json:"group"`
}

type canonicalGroup struct {
	Key    canonicalExtract  `json:"key"`
	Labels map[string]string `json:"labels"`
}

type canonicalExtract struct {
	Pattern string `json:"pattern"`
	Output  string `json:"output"`
}

type canonicalScript struct {
	Lang   string `json:"lang"`
	Source string `json:"source"`
	File   string `json:"file"`
}

func normalize(cfg filterdef.FilterConfig) canonicalFilter {
	out := canonicalFilter{
		Command:            cfg.Command,
		Tail:               cfg.Tail,
		Head:               cfg.Head,
		Dedup:              cfg.Dedup,
		StripANSI:          cfg.StripANSI,
		TrimLines:          cfg.TrimLines,
		StripEmptyLines:    cfg.StripEmptyLines,
		CollapseEmptyLines: cfg.CollapseEmptyLines,
	}

	out.Skip = make([]canonicalPredicate, 0, len(cfg.Skip))
	for _, p := range cfg.Skip {
		out.Skip = append(out.Skip, canonicalPredicate{Pattern: p.Pattern, Kind: string(p.Kind), Multiline: p.Multiline})
	}
	out.Keep = make([]canonicalPredicate, 0, len(cfg.Keep))
	for _, p := range cfg.Keep {
		out.Keep = append(out.Keep, canonicalPredicate{Pattern: p.Pattern, Kind: string(p.Kind), Multiline: p.Multiline})
	}
	out.Step = make([]canonicalStep, 0, len(cfg.Step))
	for _, s := range cfg.Step {
		out.Step = append(out.Step, canonicalStep{Name: string(s.Name)})
	}
	out.MatchOutput = make([]canonicalMatch, 0, len(cfg.MatchOutput))
	for _, m := range cfg.MatchOutput {
		out.MatchOutput = append(out.MatchOutput, canonicalMatch{Pattern: m.Pattern, Output: m.Output, Multiline: m.Multiline})
	}
	out.Section = make([]canonicalSection, 0, len(cfg.Section))
	for _, s := range cfg.Section {
		out.Section = append(out.Section, canonicalSection{Name: s.Name, Start: s.Start, End: s.End, Keep: s.Keep})
	}
	out.Replace = make([]canonicalReplace, 0, len(cfg.Replace))
	for _, r := range cfg.Replace {
		out.Replace = append(out.Replace, canonicalReplace{Pattern: r.Pattern, With: r.With, Multiline: r.Multiline})
	}
	out.Variant = make([]canonicalVariant, 0, len(cfg.Variant))
	for _, v := range cfg.Variant {
		cv := canonicalVariant{Condition: string(v.Condition), ExitCode: v.ExitCode}
		if v.Output != nil {
			cv.Output = *v.Output
		}
		if v.Pipeline != nil {
			sub := normalize(*v.Pipeline)
			cv.Pipeline = &sub
		}
		out.Variant = append(out.Variant, cv)
	}

	if cfg.Parse != nil && cfg.Parse.Group != nil {
		g := cfg.Parse.Group
		labels := g.Labels
		if labels == nil {
			labels = map[string]string{}
		}
		out.Parse = &canonicalParse{Group: &canonicalGroup{
			Key:    canonicalExtract{Pattern: g.Key.Pattern, Output: g.Key.Output},
			Labels: labels,
		}}
	}

	if cfg.Script != nil {
		cs := canonicalScript{Lang: string(cfg.Script.Lang)}
		if cfg.Script.Source != nil {
			cs.Source = *cfg.Script.Source
		}
		if cfg.Script.File != nil {
			cs.File = *cfg.Script.File
		}
		out.Script = &cs
	}

	return out
}

// Canonical computes the 64-character lowercase hex SHA-256 digest of a
// filter's canonical JSON encoding. Identical in meaning to the same config
// loaded from a different path, or with defaults spelled out explicitly.
func Canonical(cfg filterdef.FilterConfig) (string, error) {
	norm := normalize(cfg)
	encoded, err := json.Marshal(norm)
	if err != nil {
		return "", &HashError{Op: "marshal", Err: err}
	}
	sum := sha256.Sum256(encoded)
	return hex.EncodeToString(sum[:]), nil
}
