// Package memoriescmder
package memoriescmder

import (
	"github.com/spf13/cobra"

	configcmder "github.com/papercomputeco/memories/cmd/memories/config"
	initcmder "github.com/papercomputeco/memories/cmd/memories/init"
	searchcmder "github.com/papercomputeco/memories/cmd/memories/search"
	servecmder "github.com/papercomputeco/memories/cmd/memories/serve"
	versioncmder "github.com/papercomputeco/memories/cmd/version"
)

const memoriesLongDesc string = `Memories stores text, audio, image, video and spatial memories as
embeddings and finds them again by similarity.

Run the service using:
  memories serve                 Run the API server
  memories search <query>        Search a running server
  memories config list           Show the active configuration`

const memoriesShortDesc string = "Memories - multimodal memory search"

func NewMemoriesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "memories",
		Short:         memoriesShortDesc,
		Long:          memoriesLongDesc,
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Override path to the .memories/ config directory")

	cmd.AddCommand(servecmder.NewServeCmd())
	cmd.AddCommand(searchcmder.NewSearchCmd())
	cmd.AddCommand(configcmder.NewConfigCmd())
	cmd.AddCommand(initcmder.NewInitCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}
