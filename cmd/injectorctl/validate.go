package main

import (
	"github.com/spf13/cobra"

	"github.com/oja-gamez/oja-injection/internal/config"
)

func newValidateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate the dependency graph a manifest describes",
		RunE:  runValidateCmd,
	}
	return cmd
}

func runValidateCmd(cmd *cobra.Command, args []string) error {
	manifestPath, _ := cmd.Flags().GetString("manifest")
	output, _ := cmd.Flags().GetString("output")

	var manifest *config.Manifest
	if manifestPath != "" {
		m, err := config.LoadManifest(manifestPath)
		if err != nil {
			return err
		}
		manifest = m
	}

	container, err := buildContainer(manifest, moduleRegistry())
	if err != nil {
		return printOutput(map[string]any{"valid": false, "error": err.Error()}, output)
	}

	if err := container.Validate(); err != nil {
		return printOutput(map[string]any{"valid": false, "error": err.Error()}, output)
	}

	return printOutput(map[string]any{"valid": true}, output)
}
