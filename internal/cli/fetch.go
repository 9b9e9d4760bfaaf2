package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dhuston/livingmap/internal/config"
	"github.com/dhuston/livingmap/pkg/errors"
	"github.com/dhuston/livingmap/pkg/graph"
	"github.com/dhuston/livingmap/pkg/httputil"
)

// fetchCommand creates the fetch command for pulling a view's graph from the
// KnowledgePlane API.
func (c *CLI) fetchCommand() *cobra.Command {
	var (
		configPath string
		baseURL    string
		token      string
		output     string
	)

	cmd := &cobra.Command{
		Use:   "fetch [view-id]",
		Short: "Fetch a view's graph from the KnowledgePlane API",
		Long: `Fetch a view's graph from the KnowledgePlane API.

Downloads the graph for a view id as graph.json, ready for 'layout' and
'render'. The API base URL and token come from the config file's [source]
section; flags override them.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if baseURL == "" {
				baseURL = cfg.Source.BaseURL
			}
			if token == "" {
				token = cfg.Source.Token
			}
			if baseURL == "" {
				return errors.New(errors.ErrCodeInvalidInput,
					"no API base URL: pass --base-url or set source.base_url in the config")
			}
			return c.runFetch(cmd, args[0], baseURL, token, output)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "path to livingmap.toml")
	cmd.Flags().StringVar(&baseURL, "base-url", "", "API base URL (overrides config)")
	cmd.Flags().StringVar(&token, "token", "", "bearer token (overrides config)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <view-id>.json)")

	return cmd
}

func (c *CLI) runFetch(cmd *cobra.Command, viewID, baseURL, token, output string) error {
	client := httputil.NewGraphClient(baseURL, token)

	spinner := newSpinnerWithContext(cmd.Context(), "Fetching graph...")
	spinner.Start()
	g, err := client.FetchGraph(cmd.Context(), viewID)
	if err != nil {
		spinner.StopWithError("Fetch failed")
		return err
	}
	spinner.Stop()

	if output == "" {
		output = viewID + ".json"
	}
	if err := graph.WriteFile(g, output); err != nil {
		return fmt.Errorf("write graph %s: %w", output, err)
	}

	printSuccess("Fetched %d nodes, %d edges", len(g.Nodes), len(g.Edges))
	printFile(output)
	printNewline()
	printNextStep("Layout", "livingmap layout "+output)

	return nil
}
