// Package configcmder provides the config command for managing persistent
// memories configuration stored in the .memories/ directory.
package configcmder

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/memories/pkg/cliui"
	"github.com/papercomputeco/memories/pkg/config"
)

const configLongDesc string = `Manage persistent memories configuration.

Configuration is stored as config.toml in the .memories/ directory and provides
default values for command flags. MEMORIES_* environment variables and CLI
flags take precedence over config file values.

Keys use dotted notation matching the TOML section structure:
  api.listen, api.body_limit,
  client.api_target,
  vector_store.provider, vector_store.target, vector_store.collection, vector_store.fallback,
  embedding.provider, embedding.target, embedding.model, embedding.dimensions,
  events.provider, events.brokers, events.topic,
  search.top_k

Use subcommands to get, set, or list configuration values:
  memories config set <key> <value>    Set a configuration value
  memories config get <key>            Get a configuration value
  memories config list                 List all configuration values

Examples:
  memories config set vector_store.provider qdrant
  memories config set events.brokers kafka-1:9092,kafka-2:9092
  memories config get embedding.dimensions
  memories config list`

const configShortDesc string = "Manage persistent memories configuration"

func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: configShortDesc,
		Long:  configLongDesc,
	}

	cmd.AddCommand(newSetCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newListCmd())

	return cmd
}

func unknownKeyError(key string) error {
	return fmt.Errorf("unknown config key: %q\n\nValid keys: %s",
		key, strings.Join(config.ValidConfigKeys(), ", "))
}

func printTarget(out io.Writer, target string) {
	if target != "" {
		fmt.Fprintf(out, "\n  %s %s\n\n",
			cliui.KeyStyle.Render("Config file:"),
			cliui.DimStyle.Render(target),
		)
		return
	}
	fmt.Fprintf(out, "\n  %s\n\n", cliui.DimStyle.Render("No config file found. Using defaults."))
}

func completeKeys(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
	if len(args) == 0 {
		return config.ValidConfigKeys(), cobra.ShellCompDirectiveNoFileComp
	}
	return nil, cobra.ShellCompDirectiveNoFileComp
}
