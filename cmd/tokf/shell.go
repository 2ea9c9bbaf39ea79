package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	shellquote "github.com/kballard/go-shellquote"
	"github.com/spf13/cobra"

	"github.com/mpecan/tokf-sub002/internal/config"
	"github.com/mpecan/tokf-sub002/internal/filterdef"
	"github.com/mpecan/tokf-sub002/internal/hashutil"
	"github.com/mpecan/tokf-sub002/internal/pipeline"
	"github.com/mpecan/tokf-sub002/internal/resolver"
	"github.com/mpecan/tokf-sub002/internal/script"
	"github.com/mpecan/tokf-sub002/internal/store"
	"github.com/mpecan/tokf-sub002/internal/tokfapp"
)

// shellMetachars marks a command line as "compound" -- anything a plain
// argv split can't represent faithfully (pipes, redirects, lists,
// substitutions). Those lines are hosted out to $SHELL unfiltered; only a
// simple argv is resolved against the filter set.
const shellMetachars = "|&;<>(){}*?$`\n"

func shellCmd() *cobra.Command {
	var command string

	cmd := &cobra.Command{
		Use:   "shell",
		Short: "Run a command and filter its output through the resolved filter",
		RunE: func(cmd *cobra.Command, args []string) error {
			if command == "" {
				return fmt.Errorf("shell: -c CMD is required")
			}
			return runShell(command)
		},
	}
	cmd.Flags().StringVarP(&command, "command", "c", "", "the command line to run and filter")
	return cmd
}

func runShell(line string) error {
	if isCompound(line) {
		return runCompound(line)
	}

	argv, err := shellquote.Split(line)
	if err != nil {
		// Not cleanly splittable as a simple argv (unbalanced quotes and
		// the like) -- fall back to the host shell rather than failing.
		return runCompound(line)
	}
	if len(argv) == 0 {
		return nil
	}

	result, err := runCaptured(argv)
	if err != nil {
		return err
	}

	cfg := config.Load()
	table, _, derr := tokfapp.DiscoverFilters(tokfapp.ScopeAll)
	if derr != nil {
		fmt.Fprintf(os.Stderr, "[tokf] discover filters: %v\n", derr)
		fmt.Print(result.Combined)
		os.Exit(result.ExitCode)
	}

	rf, name, _, matched := resolver.Resolve(argv, table)
	if !matched {
		fmt.Print(result.Combined)
		os.Exit(result.ExitCode)
	}

	out, perr := pipeline.Apply(rf.Config, filterdef.CommandResult{
		Stdout:   result.Stdout,
		Stderr:   result.Stderr,
		Combined: result.Combined,
		ExitCode: result.ExitCode,
	}, argv, script.LuaHost{})
	if perr != nil {
		fmt.Fprintf(os.Stderr, "[tokf] pipeline failure for %s: %v\n", name, perr)
		recordEvent(cfg, line, nil, nil, result, out)
		fmt.Print(result.Combined)
		os.Exit(result.ExitCode)
	}

	hash, herr := hashutil.Canonical(rf.Config)
	if herr != nil {
		fmt.Fprintf(os.Stderr, "[tokf] hash failure for %s: %v\n", name, herr)
	}
	out.FilterName = name
	out.FilterHash = hash

	recordEvent(cfg, line, &name, &hash, result, out)
	fmt.Print(out.Output)
	os.Exit(result.ExitCode)
	return nil
}

// runCompound hosts a pipe/redirect/compound line out to $SHELL, with
// stdio passed straight through -- no filtering applies, matching spec
// §6's "compound/pipe/redirect lines are delegated to the host shell".
func runCompound(line string) error {
	shell := os.Getenv("SHELL")
	if shell == "" {
		shell = "/bin/sh"
	}
	c := exec.Command(shell, "-c", line)
	c.Stdin = os.Stdin
	c.Stdout = os.Stdout
	c.Stderr = os.Stderr
	err := c.Run()
	if exitErr, ok := err.(*exec.ExitError); ok {
		os.Exit(exitErr.ExitCode())
	}
	if err != nil {
		return fmt.Errorf("shell: run %q: %w", line, err)
	}
	os.Exit(0)
	return nil
}

// capturedResult is the captured shape runCaptured hands to the pipeline.
type capturedResult struct {
	Stdout   string
	Stderr   string
	Combined string
	ExitCode int
}

// runCaptured executes argv directly (no shell involved), capturing stdout
// and stderr independently plus an interleaved combined buffer the
// pipeline filters against -- spawning and I/O collection are the CLI's
// job; the engine itself never touches a process.
func runCaptured(argv []string) (capturedResult, error) {
	var stdout, stderr, combined bytes.Buffer
	c := exec.Command(argv[0], argv[1:]...)
	c.Stdin = os.Stdin
	c.Stdout = io.MultiWriter(&stdout, &combined)
	c.Stderr = io.MultiWriter(&stderr, &combined)

	runErr := c.Run()
	exitCode := 0
	if exitErr, ok := runErr.(*exec.ExitError); ok {
		exitCode = exitErr.ExitCode()
	} else if runErr != nil {
		return capturedResult{}, fmt.Errorf("shell: run %q: %w", argv[0], runErr)
	}

	return capturedResult{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Combined: combined.String(),
		ExitCode: exitCode,
	}, nil
}

func isCompound(line string) bool {
	return strings.ContainsAny(line, shellMetachars) || strings.Contains(line, "&&") || strings.Contains(line, "||")
}

func recordEvent(cfg config.Config, command string, filterName, filterHash *string, result capturedResult, out filterdef.FilteredOutput) {
	s, err := store.Open(cfg.DBPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "[tokf] open usage store: %v\n", err)
		return
	}
	defer s.Close()

	ctx := context.Background()
	if _, err := s.RecordEvent(ctx, store.UsageEvent{
		RecordedAt:      config.Now(),
		Command:         command,
		FilterName:      filterName,
		FilterHash:      filterHash,
		InputBytes:      out.BytesIn,
		OutputBytes:     out.BytesOut,
		InputTokensEst:  out.TokensInEst,
		OutputTokensEst: out.TokensOutEst,
		FilterTimeMS:    out.FilterTimeMS,
		ExitCode:        result.ExitCode,
		PipeOverride:    out.PipeOverride,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "[tokf] record usage event: %v\n", err)
		return
	}

	project := "unknown"
	if wd, err := os.Getwd(); err == nil {
		project = filepath.Base(wd)
	}
	_ = s.AppendHistory(ctx, store.HistoryRecord{
		Timestamp:      config.Now(),
		Project:        project,
		Command:        command,
		FilterName:     filterName,
		RawOutput:      result.Combined,
		FilteredOutput: out.Output,
		ExitCode:       result.ExitCode,
	}, cfg.HistoryRetention)
}
