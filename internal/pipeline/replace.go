package pipeline

import "github.com/mpecan/tokf-sub002/internal/filterdef"

// applyReplace runs each ReplaceRule's regex substitution over the whole
// buffer in order, the same ReplaceAllString idiom formatting/normalize.go
// uses for its suffix/township rewrites.
func applyReplace(cfg filterdef.FilterConfig, text string) string {
	for i := range cfg.Replace {
		r := &cfg.Replace[i]
		re := r.Compiled()
		if re == nil {
			continue
		}
		text = re.ReplaceAllString(text, r.With)
	}
	return text
}
