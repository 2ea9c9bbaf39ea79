package hashutil

import (
	"testing"

	"github.com/mpecan/tokf-sub002/internal/filterdef"
)

func TestCanonicalIsLowercaseHex64(t *testing.T) {
	cfg := filterdef.FilterConfig{Command: "git push"}
	sum, err := Canonical(cfg)
	if err != nil {
		t.Fatalf("Canonical: %v", err)
	}
	if len(sum) != 64 {
		t.Fatalf("want 64 chars, got %d (%s)", len(sum), sum)
	}
	for _, r := range sum {
		isLowerHex := (r >= '0' && r <= '9') || (r >= 'a' && r <= 'f')
		if !isLowerHex {
			t.Fatalf("non lowercase-hex char %q in %s", r, sum)
		}
	}
}

func TestCanonicalIsStableAcrossCalls(t *testing.T) {
	cfg := filterdef.FilterConfig{Command: "cargo build", Tail: 40}
	a, err := Canonical(cfg)
	if err != nil {
		t.Fatalf("Canonical: %v", err)
	}
	b, err := Canonical(cfg)
	if err != nil {
		t.Fatalf("Canonical: %v", err)
	}
	if a != b {
		t.Fatalf("hash not stable: %s != %s", a, b)
	}
}

func TestDifferentConfigsProduceDifferentHashes(t *testing.T) {
	a, err := Canonical(filterdef.FilterConfig{Command: "git push"})
	if err != nil {
		t.Fatalf("Canonical: %v", err)
	}
	b, err := Canonical(filterdef.FilterConfig{Command: "git pull"})
	if err != nil {
		t.Fatalf("Canonical: %v", err)
	}
	if a == b {
		t.Fatalf("expected different hashes, got same: %s", a)
	}
}

func TestExplicitDefaultsSameAsImplicit(t *testing.T) {
	minimal := filterdef.FilterConfig{Command: "docker build"}
	explicit := filterdef.FilterConfig{
		Command:            "docker build",
		Skip:               []filterdef.LinePredicate{},
		Keep:                []filterdef.LinePredicate{},
		Step:                []filterdef.StepPass{},
		MatchOutput:         []filterdef.MatchRule{},
		Section:             []filterdef.SectionRule{},
		Replace:             []filterdef.ReplaceRule{},
		Variant:             []filterdef.VariantRule{},
		Dedup:               false,
		StripANSI:           false,
		TrimLines:           false,
		StripEmptyLines:     false,
		CollapseEmptyLines:  false,
	}

	a, err := Canonical(minimal)
	if err != nil {
		t.Fatalf("Canonical: %v", err)
	}
	b, err := Canonical(explicit)
	if err != nil {
		t.Fatalf("Canonical: %v", err)
	}
	if a != b {
		t.Fatalf("minimal and explicit-defaults configs should hash the same: %s != %s", a, b)
	}
}

func TestLabelKeyOrderInvariance(t *testing.T) {
	group := func(labels map[string]string) filterdef.FilterConfig {
		return filterdef.FilterConfig{
			Command: "cargo test",
			Parse: &filterdef.ParseConfig{
				Group: &filterdef.GroupConfig{
					Key:    filterdef.ExtractRule{Pattern: `^(\w+)`, Output: "$1"},
					Labels: labels,
				},
			},
		}
	}

	a, err := Canonical(group(map[string]string{"M": "modified", "A": "added"}))
	if err != nil {
		t.Fatalf("Canonical: %v", err)
	}
	b, err := Canonical(group(map[string]string{"A": "added", "M": "modified"}))
	if err != nil {
		t.Fatalf("Canonical: %v", err)
	}
	if a != b {
		t.Fatalf("label map key order should not affect hash: %s != %s", a, b)
	}
}

func TestWhitespaceInvariance(t *testing.T) {
	// Canonical hashes the decoded struct, not the source text, so
	// whitespace differences in the originating TOML never reach here --
	// this asserts the same FilterConfig value always normalizes
	// identically regardless of slice capacity/allocation history.
	a := filterdef.FilterConfig{Command: "git push", Tail: 10}
	b := filterdef.FilterConfig{Command: "git push", Tail: 10}
	ah, _ := Canonical(a)
	bh, _ := Canonical(b)
	if ah != bh {
		t.Fatalf("identical configs should hash identically: %s != %s", ah, bh)
	}
}
