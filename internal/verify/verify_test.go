package verify

import (
	"context"
	"testing"

	"github.com/mpecan/tokf-sub002/internal/filterdef"
)

func TestRunCasePassesWhenExpectationsHold(t *testing.T) {
	cfg, err := filterdef.TryLoadFromString(`
command = "git push"
[[skip]]
pattern = "noise"
kind = "contains"
`)
	if err != nil {
		t.Fatalf("TryLoadFromString: %v", err)
	}
	tc := filterdef.TestCase{
		Name:   "drops noise",
		Inline: "noise\nkeep\n",
	}
	tc.Expect = []filterdef.ExpectRule{{Kind: filterdef.ExpectNotContain, NotContains: "noise"}}

	res := RunCase(cfg, tc, nil)
	if !res.Passed {
		t.Fatalf("expected pass, got failure: %s", res.Failure)
	}
}

func TestRunCaseFailsWithMessageOnMismatch(t *testing.T) {
	cfg, err := filterdef.TryLoadFromString(`command = "echo"`)
	if err != nil {
		t.Fatalf("TryLoadFromString: %v", err)
	}
	tc := filterdef.TestCase{Name: "never matches", Inline: "hello\n"}
	tc.Expect = []filterdef.ExpectRule{{Kind: filterdef.ExpectEquals, Equals: "this will never match"}}

	res := RunCase(cfg, tc, nil)
	if res.Passed {
		t.Fatal("expected failure")
	}
	if res.Failure == "" {
		t.Fatal("expected a failure message")
	}
}

func TestRunAllAggregatesAcrossSuites(t *testing.T) {
	passCfg, _ := filterdef.TryLoadFromString(`command = "echo"`)
	failCfg, _ := filterdef.TryLoadFromString(`command = "echo"`)

	suites := []Suite{
		{
			Name:   "pass/suite",
			Config: passCfg,
			Cases: []filterdef.TestCase{{
				Name:   "ok",
				Inline: "hi\n",
				Expect: []filterdef.ExpectRule{{Kind: filterdef.ExpectContains, Contains: "hi"}},
			}},
		},
		{
			Name:   "fail/suite",
			Config: failCfg,
			Cases: []filterdef.TestCase{{
				Name:   "broken",
				Inline: "hi\n",
				Expect: []filterdef.ExpectRule{{Kind: filterdef.ExpectEquals, Equals: "nope"}},
			}},
		},
	}

	results := RunAll(context.Background(), suites, nil, 2)
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if ExitCode(results) != 1 {
		t.Fatalf("expected exit code 1 when a suite fails")
	}
}

func TestExitCodeZeroWhenAllPass(t *testing.T) {
	results := []SuiteResult{
		{FilterName: "a", Cases: []CaseResult{{Name: "x", Passed: true}}},
	}
	if ExitCode(results) != 0 {
		t.Fatal("expected exit code 0 when every suite passes")
	}
}
