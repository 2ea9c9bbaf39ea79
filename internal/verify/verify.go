// Package verify replays a filter's declarative TOML test cases against
// its pipeline and reports pass/fail per case and per filter.
package verify

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/mpecan/tokf-sub002/internal/filterdef"
	"github.com/mpecan/tokf-sub002/internal/pipeline"
)

// CaseResult is the outcome of one TestCase.
type CaseResult struct {
	Name    string
	Passed  bool
	Failure string
}

// SuiteResult is every case's outcome for a single filter.
type SuiteResult struct {
	FilterName string       `json:"filter_name"`
	Cases      []CaseResult `json:"cases"`
}

// Passed reports whether every case in the suite passed.
func (s SuiteResult) Passed() bool {
	for _, c := range s.Cases {
		if !c.Passed {
			return false
		}
	}
	return true
}

// Suite is one filter's config plus the test cases to replay against it.
type Suite struct {
	Name   string
	Config filterdef.FilterConfig
	Cases  []filterdef.TestCase
}

// RunCase replays one case against cfg and returns its result. argv is the
// command line to pass to the pipeline; if tc.Argv is empty, it defaults to
// cfg.Command split on whitespace, per spec §4.7.
func RunCase(cfg filterdef.FilterConfig, tc filterdef.TestCase, script pipeline.ScriptHost) CaseResult {
	input := tc.Inline
	result := filterdef.CommandResult{Combined: input, ExitCode: tc.ExitCode}

	argv := tc.Argv
	if len(argv) == 0 {
		argv = strings.Fields(cfg.Command)
	}

	out, err := pipeline.Apply(cfg, result, argv, script)
	if err != nil {
		return CaseResult{Name: tc.Name, Passed: false, Failure: fmt.Sprintf("pipeline error: %v", err)}
	}

	for _, rule := range tc.Expect {
		if ok, msg := evaluate(rule, out.Output); !ok {
			return CaseResult{Name: tc.Name, Passed: false, Failure: msg}
		}
	}
	return CaseResult{Name: tc.Name, Passed: true}
}

func evaluate(rule filterdef.ExpectRule, output string) (bool, string) {
	switch rule.Kind {
	case filterdef.ExpectEquals:
		if output != rule.Equals {
			return false, fmt.Sprintf("expected output to equal %q, got %q", rule.Equals, output)
		}
	case filterdef.ExpectContains:
		if !strings.Contains(output, rule.Contains) {
			return false, fmt.Sprintf("expected output to contain %q, got %q", rule.Contains, output)
		}
	case filterdef.ExpectNotContain:
		if strings.Contains(output, rule.NotContains) {
			return false, fmt.Sprintf("expected output to not contain %q, got %q", rule.NotContains, output)
		}
	case filterdef.ExpectMatches:
		re := rule.Compiled()
		if re == nil || !re.MatchString(output) {
			return false, fmt.Sprintf("expected output to match %q, got %q", rule.Matches, output)
		}
	case filterdef.ExpectLinesEq:
		n := lineCount(output)
		if rule.LinesEq == nil || n != *rule.LinesEq {
			return false, fmt.Sprintf("expected %d lines, got %d", derefInt(rule.LinesEq), n)
		}
	default:
		return false, fmt.Sprintf("unknown expect kind %q", rule.Kind)
	}
	return true, ""
}

func derefInt(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}

func lineCount(s string) int {
	if s == "" {
		return 0
	}
	return len(strings.Split(strings.TrimRight(s, "\n"), "\n"))
}

// RunSuite replays every case in a suite, in declaration order.
func RunSuite(s Suite, script pipeline.ScriptHost) SuiteResult {
	out := SuiteResult{FilterName: s.Name}
	for _, tc := range s.Cases {
		out.Cases = append(out.Cases, RunCase(s.Config, tc, script))
	}
	return out
}

// RunAll replays every suite concurrently, bounded by concurrency workers --
// the same bounded-channel-plus-WaitGroup shape the teacher's job runner
// uses, generalized here from a long-lived worker pool to a single
// fan-out/fan-in batch since verification runs to completion rather than
// staying resident.
func RunAll(ctx context.Context, suites []Suite, script pipeline.ScriptHost, concurrency int) []SuiteResult {
	if concurrency <= 0 {
		concurrency = 1
	}
	results := make([]SuiteResult, len(suites))
	jobs := make(chan int)
	var wg sync.WaitGroup

	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				select {
				case <-ctx.Done():
					results[i] = SuiteResult{FilterName: suites[i].Name}
					continue
				default:
				}
				results[i] = RunSuite(suites[i], script)
			}
		}()
	}

	for i := range suites {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	sort.Slice(results, func(i, j int) bool { return results[i].FilterName < results[j].FilterName })
	return results
}

// ExitCode maps verification results to a process exit code: 0 when every
// suite passed (including an empty result list), 1 when at least one case
// failed. It never returns 2; the "no such filter" exit code 2 is produced
// by the caller, which detects that case before calling RunAll.
func ExitCode(results []SuiteResult) int {
	for _, r := range results {
		if !r.Passed() {
			return 1
		}
	}
	return 0
}
