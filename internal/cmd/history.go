package cmd

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/nikbrunner/spotlight/internal/urlnorm"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:     "history",
	Short:   "Record and list visits",
	GroupID: groupData,
}

var historyAddCmd = &cobra.Command{
	Use:   "add <url> [title]",
	Short: "Record a visit",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), appOptions{})
		if err != nil {
			return err
		}
		defer a.Close()

		url := urlnorm.EnsureScheme(args[0])
		title := ""
		if len(args) == 2 {
			title = args[1]
		}
		return a.profile.AddVisit(cmd.Context(), url, title)
	},
}

var historyListCmd = &cobra.Command{
	Use:   "list [query]",
	Short: "List recent visits, optionally filtered",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), appOptions{})
		if err != nil {
			return err
		}
		defer a.Close()

		records, err := a.profile.SearchHistory(cmd.Context(), strings.Join(args, " "), historyLimit)
		if err != nil {
			return err
		}
		if len(records) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No history.")
			return nil
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		for _, r := range records {
			fmt.Fprintf(w, "%s\t%d\t%s\t%s\n", r.LastVisitTime.Format("2006-01-02 15:04"), r.VisitCount, r.Title, r.URL)
		}
		return w.Flush()
	},
}

func init() {
	historyListCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "maximum number of entries")

	historyCmd.AddCommand(historyAddCmd)
	historyCmd.AddCommand(historyListCmd)

	rootCmd.AddCommand(historyCmd)
}
