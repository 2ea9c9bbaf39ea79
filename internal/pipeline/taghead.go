package pipeline

import "github.com/mpecan/tokf-sub002/internal/filterdef"

// applyTailHead trims the line stream to cfg.Head leading lines and/or
// cfg.Tail trailing lines. When both are set and together they cover
// fewer lines than the input, both ends survive and the lines between them
// are dropped -- the two slices are taken independently and then
// concatenated, never overlapping the same line twice.
func applyTailHead(cfg filterdef.FilterConfig, text string) string {
	if cfg.Head <= 0 && cfg.Tail <= 0 {
		return text
	}
	lines := splitLines(text)
	n := len(lines)
	if cfg.Head > 0 && cfg.Tail > 0 {
		head := cfg.Head
		if head > n {
			head = n
		}
		tail := cfg.Tail
		if tail > n-head {
			tail = n - head
		}
		if tail < 0 {
			tail = 0
		}
		out := append([]string{}, lines[:head]...)
		out = append(out, lines[n-tail:]...)
		return joinLines(out)
	}
	if cfg.Head > 0 {
		head := cfg.Head
		if head > n {
			head = n
		}
		return joinLines(lines[:head])
	}
	tail := cfg.Tail
	if tail > n {
		tail = n
	}
	return joinLines(lines[n-tail:])
}
