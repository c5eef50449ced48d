package main

import (
	"github.com/spf13/cobra"

	"github.com/oja-gamez/oja-injection/internal/config"
)

func newModulesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "modules",
		Short: "List the modules a manifest enables, in load order",
		RunE:  runModulesCmd,
	}
	return cmd
}

func runModulesCmd(cmd *cobra.Command, args []string) error {
	manifestPath, _ := cmd.Flags().GetString("manifest")
	output, _ := cmd.Flags().GetString("output")

	if manifestPath == "" {
		return printOutput(map[string]any{"modules": []string{}}, output)
	}

	manifest, err := config.LoadManifest(manifestPath)
	if err != nil {
		return err
	}

	ordered := manifest.EnabledInOrder()
	entries := make([]map[string]any, 0, len(ordered))
	for _, name := range ordered {
		entry := manifest.Modules[name]
		entries = append(entries, map[string]any{
			"name":     name,
			"factory":  entry.Factory,
			"priority": entry.Priority,
		})
	}

	return printOutput(map[string]any{"modules": entries}, output)
}
