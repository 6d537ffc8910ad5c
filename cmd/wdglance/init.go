package main

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/nao1215/wdglance/internal/config"
)

//go:embed templates/conf.json templates/wdglance.json
var configTemplates embed.FS

// templateFiles are written by init, in this order.
var templateFiles = []string{config.DefaultServerConfFile, config.DefaultClientConfFile}

// NewInitCmd creates the init command.
func NewInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create example configuration files",
		Long: `Initialize creates conf.json (server) and wdglance.json (tiles and
layout) in the given directory.

The generated files include:
- Listening address, UI languages and the word distribution database
- A concordance tile the other tiles wait for
- Genre, time distribution and word form tiles arranged in a layout

Examples:
  # Create both files in the current directory
  wdglance init

  # Create them in the XDG configuration directory
  wdglance init --xdg

  # Force overwrite existing files
  wdglance init -f`,
		Args: cobra.NoArgs,
		RunE: runInitCmd,
	}

	cmd.Flags().StringP("dir", "d", ".", "Output directory of the configuration files")
	cmd.Flags().Bool("xdg", false, "Write to the XDG configuration directory")
	cmd.Flags().BoolP("force", "f", false, "Overwrite existing configuration files")

	return cmd
}

// runInitCmd executes the init command.
func runInitCmd(cmd *cobra.Command, _ []string) error {
	dir, err := cmd.Flags().GetString("dir")
	if err != nil {
		return err
	}
	useXDG, err := cmd.Flags().GetBool("xdg")
	if err != nil {
		return err
	}
	if useXDG {
		dir = config.XDGConfigDir()
	}
	force, err := cmd.Flags().GetBool("force")
	if err != nil {
		return err
	}

	// Nothing is written when any of the files exists.
	if !force {
		for _, name := range templateFiles {
			p := filepath.Join(dir, name)
			if _, err := os.Stat(p); err == nil {
				return fmt.Errorf("configuration file already exists: %s (use -f to overwrite)", p)
			}
		}
	}

	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	out := cmd.OutOrStdout()
	for _, name := range templateFiles {
		content, err := configTemplates.ReadFile("templates/" + name)
		if err != nil {
			return fmt.Errorf("failed to read config template: %w", err)
		}
		p := filepath.Join(dir, name)
		if err := os.WriteFile(p, content, 0600); err != nil {
			return fmt.Errorf("failed to write configuration file: %w", err)
		}
		fmt.Fprintf(out, "Created configuration file: %s\n", p)
	}

	fmt.Fprintln(out, "\nEdit these files to configure:")
	fmt.Fprintln(out, "  - The corpus backends (apiType, apiURL, corpname) of each tile")
	fmt.Fprintln(out, "  - The word distribution databases of conf.json")
	fmt.Fprintln(out, "  - Secrets through WDGLANCE_KORPUS_TOKEN instead of conf.json")

	return nil
}
