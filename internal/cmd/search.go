package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nikbrunner/spotlight/internal/engine"
	"github.com/nikbrunner/spotlight/internal/model"
	"github.com/nikbrunner/spotlight/internal/palette"
	"github.com/nikbrunner/spotlight/internal/relay"
	"github.com/nikbrunner/spotlight/internal/transport"
)

var (
	searchJSON  bool
	searchLimit int
)

var searchCmd = &cobra.Command{
	Use:     "search <query>",
	Short:   "Print ranked suggestions for a query",
	GroupID: groupCore,
	Long: `Print what the palette would list for a query, best match first.

The first line is always what typing the query and pressing enter does:
go to the address, or search the web for it.

Examples:
  spotlight search golang           # tabs, bookmarks and history about golang
  spotlight search go.dev           # the address first, then matches
  spotlight search --json news      # output as JSON`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 0, "maximum number of results (0 = no limit)")
	searchCmd.Flags().BoolVarP(&newTab, "new-tab", "t", false, "rank for a new tab")

	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	return printSuggestions(cmd, strings.Join(args, " "))
}

// suggest runs the full pipeline for query, locally or against the
// server named by --socket.
func suggest(cmd *cobra.Command, query string) ([]model.Result, error) {
	ctx := cmd.Context()
	if socketPath != "" {
		remote := relay.New(transport.SocketConn{Path: socketPath})
		return remote.Suggestions(ctx, query, modeFlag())
	}

	a, err := newApp(ctx, appOptions{})
	if err != nil {
		return nil, err
	}
	defer a.Close()
	return a.engine.Suggestions(ctx, query, modeFlag()), nil
}

func printSuggestions(cmd *cobra.Command, query string) error {
	results, err := suggest(cmd, query)
	if err != nil {
		return err
	}
	results = engine.WithInstant(query, results)
	if searchLimit > 0 && len(results) > searchLimit {
		results = results[:searchLimit]
	}

	out := cmd.OutOrStdout()
	if searchJSON {
		return writeResultsJSON(out, results)
	}
	if len(results) == 0 {
		fmt.Fprintln(out, "No results found.")
		return nil
	}
	for i, r := range results {
		fmt.Fprintf(out, "%2d. %-9s %s", i+1, palette.KindLabel(r.Type), r.Title)
		if space := r.Metadata.Space; space != nil {
			fmt.Fprintf(out, " [%s]", space.SpaceName)
		}
		fmt.Fprintln(out)
		if r.URL != "" {
			fmt.Fprintf(out, "    %s\n", r.URL)
		}
	}
	return nil
}

func writeResultsJSON(w io.Writer, results []model.Result) error {
	if results == nil {
		results = []model.Result{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(results)
}
