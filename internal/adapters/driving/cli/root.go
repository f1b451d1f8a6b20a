// Package cli implements the docquery command line interface.
package cli

import (
	"github.com/spf13/cobra"
)

// version is set at build time via -ldflags.
var version = "dev"

// configPath is the --config flag value.
var configPath string

var rootCmd = &cobra.Command{
	Use:   "docquery",
	Short: "Ask questions about your documents",
	Long: `docquery indexes CSV, XLSX, PDF and plain text files into
per-document vector collections and answers questions about them with
cited evidence.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config.toml")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
