package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/mpecan/tokf-sub002/internal/config"
	"github.com/mpecan/tokf-sub002/internal/store"
)

func gainCmd() *cobra.Command {
	var daily bool
	var byFilter bool
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "gain",
		Short: "Report estimated tokens saved by filtering, from the usage store",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			s, err := store.Open(cfg.DBPath)
			if err != nil {
				return fmt.Errorf("gain: open store: %w", err)
			}
			defer s.Close()

			ctx := context.Background()
			switch {
			case daily:
				rows, err := s.GainDaily(ctx)
				if err != nil {
					return err
				}
				return printDailyGain(rows, asJSON)
			case byFilter:
				rows, err := s.GainByFilter(ctx)
				if err != nil {
					return err
				}
				return printFilterGain(rows, asJSON)
			default:
				summary, err := s.GainSummary(ctx)
				if err != nil {
					return err
				}
				return printSummaryGain(summary, asJSON)
			}
		},
	}
	cmd.Flags().BoolVar(&daily, "daily", false, "break gain down by calendar day")
	cmd.Flags().BoolVar(&byFilter, "by-filter", false, "break gain down by filter name")
	cmd.Flags().BoolVar(&asJSON, "json", false, "emit machine-readable JSON output")
	return cmd
}

func printSummaryGain(g store.GainSummary, asJSON bool) error {
	if asJSON {
		return json.NewEncoder(os.Stdout).Encode(g)
	}
	fmt.Printf("%s commands filtered, %s tokens saved\n",
		humanize.Comma(g.CommandCount), humanize.Comma(g.Saved()))
	return nil
}

func printFilterGain(rows []store.FilterGain, asJSON bool) error {
	if asJSON {
		return json.NewEncoder(os.Stdout).Encode(rows)
	}
	for _, r := range rows {
		fmt.Printf("%-24s %8s commands  %10s tokens saved\n",
			r.FilterName, humanize.Comma(r.CommandCount), humanize.Comma(r.Saved()))
	}
	return nil
}

func printDailyGain(rows []store.DailyGain, asJSON bool) error {
	if asJSON {
		return json.NewEncoder(os.Stdout).Encode(rows)
	}
	for _, r := range rows {
		fmt.Printf("%-12s %8s commands  %10s tokens saved\n",
			r.Date, humanize.Comma(r.CommandCount), humanize.Comma(r.Saved()))
	}
	return nil
}
