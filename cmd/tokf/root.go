package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

var rootCmd = &cobra.Command{
	Use:   "tokf",
	Short: "tokf — filter noisy command output before it reaches an LLM context window",
	Long: "tokf wraps a command, runs its output through a declarative filter pipeline, and\n" +
		"reports how many tokens that saved. Filters live in .tokf/filters/, the user\n" +
		"config directory, or the built-in table, and can be replayed offline with\n" +
		"`tokf verify`.",
}

func init() {
	rootCmd.AddCommand(verifyCmd())
	rootCmd.AddCommand(syncCmd())
	rootCmd.AddCommand(gainCmd())
	rootCmd.AddCommand(showCmd())
	rootCmd.AddCommand(shellCmd())
	rootCmd.AddCommand(versionCmd())
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("tokf " + version)
		},
	}
}

// Execute runs the root cobra command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
