package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mpecan/tokf-sub002/internal/assets"
	"github.com/mpecan/tokf-sub002/internal/config"
	"github.com/mpecan/tokf-sub002/internal/devwatch"
	"github.com/mpecan/tokf-sub002/internal/filterdef"
	"github.com/mpecan/tokf-sub002/internal/script"
	"github.com/mpecan/tokf-sub002/internal/tokfapp"
	"github.com/mpecan/tokf-sub002/internal/verify"
)

func verifyCmd() *cobra.Command {
	var scope string
	var list bool
	var asJSON bool
	var watch bool

	cmd := &cobra.Command{
		Use:   "verify [FILTER]...",
		Short: "Replay a filter's declarative test cases against its pipeline",
		RunE: func(cmd *cobra.Command, args []string) error {
			if list {
				return runVerifyList(tokfapp.Scope(scope), asJSON)
			}
			exitCode, err := runVerify(args, tokfapp.Scope(scope), asJSON)
			if err != nil {
				if exitCode == 2 {
					fmt.Fprintln(os.Stderr, err)
					os.Exit(2)
				}
				return err
			}
			if watch {
				return runVerifyWatch(args, tokfapp.Scope(scope), asJSON)
			}
			os.Exit(exitCode)
			return nil
		},
	}
	cmd.Flags().StringVar(&scope, "scope", "", "limit discovery to project|stdlib|global")
	cmd.Flags().BoolVar(&list, "list", false, "list discovered filters and case counts instead of running them")
	cmd.Flags().BoolVar(&asJSON, "json", false, "emit machine-readable JSON output")
	cmd.Flags().BoolVar(&watch, "watch", false, "re-run verification whenever a filter or fixture file changes")
	return cmd
}

func runVerifyList(scope tokfapp.Scope, asJSON bool) error {
	table, _, err := tokfapp.DiscoverFilters(scope)
	if err != nil {
		return err
	}
	type entry struct {
		Name  string `json:"name"`
		Cases int    `json:"cases"`
	}
	var entries []entry
	for _, name := range filterdef.SortedNames(table) {
		cases, _ := filterdef.LoadTestCasesForResolved(table[name], assets.Stdlib)
		entries = append(entries, entry{Name: name, Cases: len(cases)})
	}
	if asJSON {
		return json.NewEncoder(os.Stdout).Encode(entries)
	}
	for _, e := range entries {
		fmt.Printf("%s (%d case(s))\n", e.Name, e.Cases)
	}
	return nil
}

func buildSuites(names []string, scope tokfapp.Scope) ([]verify.Suite, int, error) {
	table, _, err := tokfapp.DiscoverFilters(scope)
	if err != nil {
		return nil, 0, err
	}
	if len(names) == 0 {
		names = filterdef.SortedNames(table)
	}

	var suites []verify.Suite
	for _, name := range names {
		rf, ok := table[name]
		if !ok {
			return nil, 2, fmt.Errorf("verify: filter %q not found", name)
		}
		cases, err := filterdef.LoadTestCasesForResolved(rf, assets.Stdlib)
		if err != nil {
			return nil, 2, fmt.Errorf("verify: loading test cases for %q: %w", name, err)
		}
		suites = append(suites, verify.Suite{Name: name, Config: rf.Config, Cases: cases})
	}
	return suites, 0, nil
}

func runVerify(names []string, scope tokfapp.Scope, asJSON bool) (int, error) {
	suites, exitCode, err := buildSuites(names, scope)
	if err != nil {
		return exitCode, err
	}

	cfg := config.Load()
	host := script.LuaHost{}
	results := verify.RunAll(context.Background(), suites, host, cfg.VerifyConcurrency)

	if asJSON {
		if err := json.NewEncoder(os.Stdout).Encode(results); err != nil {
			return 1, err
		}
	} else {
		for _, r := range results {
			for _, c := range r.Cases {
				status := "ok"
				if !c.Passed {
					status = "FAIL: " + c.Failure
				}
				fmt.Printf("%s :: %s ... %s\n", r.FilterName, c.Name, status)
			}
		}
	}
	return verify.ExitCode(results), nil
}

func runVerifyWatch(names []string, scope tokfapp.Scope, asJSON bool) error {
	dirs := []string{tokfapp.ProjectFiltersDir(), tokfapp.GlobalFiltersDir()}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	w := devwatch.New(dirs, func(path string) {
		fmt.Printf("-- change detected: %s --\n", path)
		if _, err := runVerify(names, scope, asJSON); err != nil {
			fmt.Fprintf(os.Stderr, "verify: %v\n", err)
		}
	})
	if err := w.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	return nil
}
