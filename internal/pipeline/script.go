package pipeline

import "github.com/mpecan/tokf-sub002/internal/filterdef"

// runScript invokes the sandboxed script hook, if any, as the final pass.
// A nil return from the host means "use the pipeline output unchanged";
// a non-nil string replaces it outright.
func runScript(cfg *filterdef.ScriptConfig, output string, exitCode int, argv []string, host ScriptHost) (*string, error) {
	if cfg.Source == nil {
		return nil, nil
	}
	return host.Run(*cfg.Source, output, exitCode, argv)
}
