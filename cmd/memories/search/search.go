// Package searchcmder provides the search command for similarity search over
// stored memories.
package searchcmder

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"charm.land/lipgloss/v2"
	"github.com/spf13/cobra"

	"github.com/papercomputeco/memories/api"
	apisearch "github.com/papercomputeco/memories/api/search"
	"github.com/papercomputeco/memories/pkg/cliui"
	"github.com/papercomputeco/memories/pkg/config"
	"github.com/papercomputeco/memories/pkg/utils"
)

var (
	rankStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("82")).Bold(true)
	scoreStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	idStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	typeStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("213"))
	previewStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
)

// previewKeys are the metadata fields shown for each modality, in order of
// preference.
var previewKeys = []string{"content", "transcription", "filename", "videoData", "spatialData", "title"}

const previewLen = 77

type searchCommander struct {
	query      string
	memoryType string
	topK       int
	quiet      bool

	apiTarget string
}

const searchLongDesc string = `Search stored memories via the memories API.

Embeds the query on the server and returns the most similar memories,
optionally restricted to one modality. Requires a running memories server.

Use --quiet to output only memory ids, one per line.

Example:
  memories search "buy milk"
  memories search "buy milk" --type text --top 10
  memories search "kitchen scan" --api-target http://localhost:9000
  memories search "meeting" --quiet`

const searchShortDesc string = "Search stored memories"

func NewSearchCmd() *cobra.Command {
	cmder := &searchCommander{}

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: searchShortDesc,
		Long:  searchLongDesc,
		Args:  cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			cfger, err := config.NewConfiger(configDir)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			cfg, err := cfger.LoadConfig()
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			if !cmd.Flags().Changed("api-target") {
				cmder.apiTarget = cfg.Client.APITarget
			}
			if !cmd.Flags().Changed("top") {
				cmder.topK = cfg.Search.TopK
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cmder.query = args[0]
			return cmder.run(cmd.Context(), cmd.OutOrStdout())
		},
	}

	defaults := config.NewDefaultConfig()
	cmd.Flags().StringVarP(&cmder.memoryType, "type", "t", "", "Restrict results to one memory type (text, audio, image, video, spatial)")
	cmd.Flags().IntVarP(&cmder.topK, "top", "k", defaults.Search.TopK, "Number of results to return")
	cmd.Flags().BoolVarP(&cmder.quiet, "quiet", "q", false, "Output only memory ids, one per line (for piping)")
	config.AddStringFlag(cmd, config.Flags, config.FlagAPITarget, &cmder.apiTarget)

	return cmd
}

func (c *searchCommander) run(ctx context.Context, out io.Writer) error {
	results, err := SearchAPI(ctx, c.apiTarget, c.query, c.memoryType, c.topK)
	if err != nil {
		return err
	}

	if c.quiet {
		for _, result := range results {
			fmt.Fprintln(out, result.ID)
		}
		return nil
	}

	if len(results) == 0 {
		fmt.Fprintln(out, "No results found.")
		return nil
	}

	fmt.Fprintf(out, "\n%s %s\n\n",
		cliui.HeaderStyle.Render("Search Results for:"),
		idStyle.Render(fmt.Sprintf("%q", c.query)),
	)

	for i, result := range results {
		printResult(out, i+1, result)
	}

	return nil
}

func printResult(out io.Writer, rank int, result apisearch.SearchResult) {
	fmt.Fprintf(out, "  %s  %s  %s  %s\n",
		rankStyle.Render(fmt.Sprintf("#%d", rank)),
		scoreStyle.Render(fmt.Sprintf("score: %.4f", result.Score)),
		typeStyle.Render(string(result.Type)),
		idStyle.Render(result.ID),
	)

	if preview := Preview(result.Metadata); preview != "" {
		fmt.Fprintf(out, "  %s\n", previewStyle.Render(preview))
	} else {
		fmt.Fprintf(out, "  %s\n", cliui.DimStyle.Render("(no preview)"))
	}

	fmt.Fprintln(out)
}

// Preview returns a single line summary of a memory's metadata.
func Preview(metadata map[string]any) string {
	for _, key := range previewKeys {
		s, ok := metadata[key].(string)
		if !ok || s == "" {
			continue
		}
		s = strings.ReplaceAll(s, "\n", " ")
		return utils.Truncate(s, previewLen)
	}
	return ""
}

// SearchAPI calls the memories search endpoint and returns the ranked results.
func SearchAPI(ctx context.Context, apiTarget, query, memoryType string, topK int) ([]apisearch.SearchResult, error) {
	searchURL, err := url.Parse(apiTarget)
	if err != nil {
		return nil, fmt.Errorf("invalid API target URL: %w", err)
	}
	searchURL.Path = "/search"
	q := searchURL.Query()
	q.Set("q", query)
	if topK > 0 {
		q.Set("k", strconv.Itoa(topK))
	}
	if memoryType != "" {
		q.Set("memory_type", memoryType)
	}
	searchURL.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating search request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to memories API at %s: %w", apiTarget, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr api.ErrorResponse
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Error != "" {
			return nil, fmt.Errorf("search request failed (HTTP %d): %s", resp.StatusCode, apiErr.Error)
		}
		return nil, fmt.Errorf("search request failed (HTTP %d): %s", resp.StatusCode, string(body))
	}

	var output api.SearchResponse
	if err := json.Unmarshal(body, &output); err != nil {
		return nil, fmt.Errorf("failed to parse search response: %w", err)
	}

	return output.Results, nil
}
