package main

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/nao1215/leadscan/internal/config"
	"github.com/spf13/cobra"
)

//go:embed templates/leadscan.yaml
var configTemplate embed.FS

// NewInitCmd creates the init command.
func NewInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a leadscan configuration file",
		Long: `Init writes a commented .leadscan.yaml into the current directory.

The generated file lists every setting with its default value:
- crawl depth, delays and thread count
- HTTP timeout, user agent and proxy
- email, phone and social network patterns
- export format, output folder and cleanup
- the run history database

Examples:
  # Create .leadscan.yaml in the current directory
  leadscan init

  # Create the file at a specific path
  leadscan init -o ~/.config/leadscan/config.yaml

  # Overwrite an existing file
  leadscan init -f`,
		Args: cobra.NoArgs,
		RunE: runInitCmd,
	}

	cmd.Flags().StringP("output", "o", config.DefaultConfigFile,
		"Output file path for the configuration")
	cmd.Flags().BoolP("force", "f", false,
		"Overwrite existing configuration file")

	return cmd
}

func runInitCmd(cmd *cobra.Command, _ []string) error {
	outputPath, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}

	force, err := cmd.Flags().GetBool("force")
	if err != nil {
		return err
	}

	if !force {
		if _, err := os.Stat(outputPath); err == nil {
			return fmt.Errorf("configuration file already exists: %s (use -f to overwrite)", outputPath)
		}
	}

	content, err := configTemplate.ReadFile("templates/leadscan.yaml")
	if err != nil {
		return fmt.Errorf("failed to read config template: %w", err)
	}

	if dir := filepath.Dir(outputPath); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	if err := os.WriteFile(outputPath, content, 0600); err != nil {
		return fmt.Errorf("failed to write configuration file: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Created configuration file: %s\n", outputPath)
	fmt.Fprintln(out, "\nEdit this file to adjust, for example:")
	fmt.Fprintln(out, "  - Crawl depth, delays and thread count")
	fmt.Fprintln(out, "  - Phone patterns for your region")
	fmt.Fprintln(out, "  - Export format and output folder")

	return nil
}
