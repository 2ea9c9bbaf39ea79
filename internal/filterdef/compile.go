package filterdef

import (
	"fmt"
	"regexp"
)

// compileFilter pre-compiles every regex-bearing field of a FilterConfig so
// the pipeline engine never compiles a pattern twice. Mirrors the teacher's
// preference for package-level compiled regexes in formatting/normalize.go,
// generalized here to per-filter compiled state since patterns are
// data-driven rather than fixed at compile time.
func compileFilter(cfg *FilterConfig) error {
	for i := range cfg.Skip {
		if err := cfg.Skip[i].compile(); err != nil {
			return fmt.Errorf("skip[%d]: %w", i, err)
		}
	}
	for i := range cfg.Keep {
		if err := cfg.Keep[i].compile(); err != nil {
			return fmt.Errorf("keep[%d]: %w", i, err)
		}
	}
	for i := range cfg.MatchOutput {
		if err := cfg.MatchOutput[i].compile(); err != nil {
			return fmt.Errorf("match_output[%d]: %w", i, err)
		}
	}
	for i := range cfg.Section {
		if err := cfg.Section[i].compile(); err != nil {
			return fmt.Errorf("section[%d]: %w", i, err)
		}
	}
	for i := range cfg.Replace {
		if err := cfg.Replace[i].compile(); err != nil {
			return fmt.Errorf("replace[%d]: %w", i, err)
		}
	}
	for i := range cfg.Variant {
		if cfg.Variant[i].Pipeline != nil {
			if err := compileFilter(cfg.Variant[i].Pipeline); err != nil {
				return fmt.Errorf("variant[%d].pipeline: %w", i, err)
			}
		}
	}
	if cfg.Parse != nil && cfg.Parse.Group != nil {
		if err := cfg.Parse.Group.Key.compile(); err != nil {
			return fmt.Errorf("parse.group.key: %w", err)
		}
	}
	return nil
}

func mustFlags(pattern string, multiline bool) string {
	if multiline {
		return "(?m)" + pattern
	}
	return pattern
}

func (p *LinePredicate) compile() error {
	if p.Kind != MatchRegex && p.Kind != "" {
		return nil
	}
	re, err := regexp.Compile(mustFlags(p.Pattern, p.Multiline))
	if err != nil {
		return err
	}
	p.compiled = re
	return nil
}

// Compiled exposes the pre-compiled regex for callers outside the package
// (the pipeline engine) without re-parsing the pattern string.
func (p *LinePredicate) Compiled() *regexp.Regexp { return p.compiled }

func (m *MatchRule) compile() error {
	re, err := regexp.Compile(mustFlags(m.Pattern, m.Multiline))
	if err != nil {
		return err
	}
	m.compiled = re
	return nil
}

func (m *MatchRule) Compiled() *regexp.Regexp { return m.compiled }

func (s *SectionRule) compile() error {
	start, err := regexp.Compile(s.Start)
	if err != nil {
		return fmt.Errorf("start: %w", err)
	}
	end, err := regexp.Compile(s.End)
	if err != nil {
		return fmt.Errorf("end: %w", err)
	}
	s.startRe, s.endRe = start, end
	return nil
}

func (s *SectionRule) StartRe() *regexp.Regexp { return s.startRe }
func (s *SectionRule) EndRe() *regexp.Regexp   { return s.endRe }

func (r *ReplaceRule) compile() error {
	re, err := regexp.Compile(mustFlags(r.Pattern, r.Multiline))
	if err != nil {
		return err
	}
	r.compiled = re
	return nil
}

func (r *ReplaceRule) Compiled() *regexp.Regexp { return r.compiled }

func (e *ExtractRule) compile() error {
	re, err := regexp.Compile(e.Pattern)
	if err != nil {
		return err
	}
	e.compiled = re
	return nil
}

func (e *ExtractRule) Compiled() *regexp.Regexp { return e.compiled }

func (e *ExpectRule) compile() error {
	if e.Kind != ExpectMatches {
		return nil
	}
	re, err := regexp.Compile(e.Matches)
	if err != nil {
		return err
	}
	e.compiled = re
	return nil
}

func (e *ExpectRule) Compiled() *regexp.Regexp { return e.compiled }
