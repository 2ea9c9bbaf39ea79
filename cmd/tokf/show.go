package main

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"github.com/mpecan/tokf-sub002/internal/hashutil"
	"github.com/mpecan/tokf-sub002/internal/tokfapp"
)

func showCmd() *cobra.Command {
	var hashOnly bool

	cmd := &cobra.Command{
		Use:   "show FILTER",
		Short: "Print a filter's resolved definition, or just its canonical hash",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := strings.TrimSuffix(args[0], ".toml")
			table, _, err := tokfapp.DiscoverFilters(tokfapp.ScopeAll)
			if err != nil {
				return err
			}
			rf, ok := table[name]
			if !ok {
				return fmt.Errorf("show: filter %q not found", name)
			}

			if hashOnly {
				hash, err := hashutil.Canonical(rf.Config)
				if err != nil {
					return fmt.Errorf("show: hash %q: %w", name, err)
				}
				fmt.Println(hash)
				return nil
			}

			enc := toml.NewEncoder(cmd.OutOrStdout())
			return enc.Encode(rf.Config)
		},
	}
	cmd.Flags().BoolVar(&hashOnly, "hash", false, "print only the canonical hash")
	return cmd
}
