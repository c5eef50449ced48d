// Command injectorctl is the reference entrypoint for a di-based
// deployment: it loads a module manifest, validates the graph it describes,
// and can launch a container with its diagnostics exporters wired up.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version = "0.1.0"
	commit  = "dev"
)

func main() {
	rootCmd := &cobra.Command{
		Use:     "injectorctl",
		Short:   "Inspect and launch di containers",
		Long:    `injectorctl loads a module manifest, validates the dependency graph it describes, and can launch the resulting container.`,
		Version: fmt.Sprintf("%s (commit: %s)", version, commit),
	}

	rootCmd.PersistentFlags().StringP("config", "c", "", "Path to a YAML deployment config")
	rootCmd.PersistentFlags().StringP("manifest", "m", "", "Path to a YAML module manifest")
	rootCmd.PersistentFlags().StringP("output", "o", "json", "Output format (json, yaml)")

	rootCmd.AddCommand(newValidateCmd())
	rootCmd.AddCommand(newModulesCmd())
	rootCmd.AddCommand(newServeCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
