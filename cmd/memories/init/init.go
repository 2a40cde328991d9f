// Package initcmder provides the init command for initializing a local
// .memories directory in the current working directory.
package initcmder

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/memories/pkg/cliui"
	"github.com/papercomputeco/memories/pkg/config"
)

const dirName = ".memories"

const initLongDesc string = `Initialize a new .memories/ directory in the current working directory.

Creates a local .memories/ directory, which takes precedence over ~/.memories/,
and writes a config.toml from a preset. An existing config.toml is left alone.

Presets:
  local    random embeddings, sqlite vector store (default)
  ollama   ollama embeddings, sqlite vector store
  qdrant   ollama embeddings, qdrant vector store on localhost:6334

Examples:
  memories init
  memories init --preset ollama`

const initShortDesc string = "Initialize a local .memories/ directory"

func NewInitCmd() *cobra.Command {
	var preset string

	cmd := &cobra.Command{
		Use:   "init",
		Short: initShortDesc,
		Long:  initLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cwd, err := os.Getwd()
			if err != nil {
				return fmt.Errorf("getting current directory: %w", err)
			}
			return runInit(cmd.OutOrStdout(), filepath.Join(cwd, dirName), preset)
		},
	}

	cmd.Flags().StringVarP(&preset, "preset", "p", "local",
		fmt.Sprintf("Configuration preset (%s)", strings.Join(config.ValidPresetNames(), ", ")))

	return cmd
}

func runInit(out io.Writer, dir, preset string) error {
	cfg, err := config.PresetConfig(preset)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating .memories directory: %w", err)
	}

	cfger, err := config.NewConfiger(dir)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if _, err := os.Stat(cfger.GetTarget()); err == nil {
		fmt.Fprintf(out, "Already initialized: %s\n", dir)
		return nil
	}

	if err := cfger.SaveConfig(cfg); err != nil {
		return err
	}

	fmt.Fprintf(out, "  %s Initialized %s %s\n",
		cliui.SuccessMark,
		cliui.KeyStyle.Render(dir),
		cliui.DimStyle.Render("(preset "+strings.ToLower(preset)+")"),
	)
	return nil
}
