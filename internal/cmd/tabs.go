package cmd

import (
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/nikbrunner/spotlight/internal/model"
	"github.com/nikbrunner/spotlight/internal/urlnorm"
)

var tabsUnpin bool

var tabsCmd = &cobra.Command{
	Use:     "tabs",
	Short:   "List and manage open tabs",
	GroupID: groupData,
}

var tabsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List open tabs",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), appOptions{})
		if err != nil {
			return err
		}
		defer a.Close()

		tabs, err := a.profile.Tabs(cmd.Context())
		if err != nil {
			return err
		}
		if len(tabs) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No open tabs.")
			return nil
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		for _, t := range tabs {
			flags := ""
			if t.Active {
				flags += "*"
			}
			if t.Pinned {
				flags += "P"
			}
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", t.ID, flags, t.Title, t.URL)
		}
		return w.Flush()
	},
}

var tabsOpenCmd = &cobra.Command{
	Use:   "open <url>",
	Short: "Open a new tab",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), appOptions{})
		if err != nil {
			return err
		}
		defer a.Close()

		url := urlnorm.EnsureScheme(args[0])
		if err := a.env.CreateTab(cmd.Context(), url); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Opened: %s\n", url)
		return nil
	},
}

var tabsCloseCmd = &cobra.Command{
	Use:   "close <id>",
	Short: "Close a tab",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid tab id %q", args[0])
		}

		a, err := newApp(cmd.Context(), appOptions{})
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.profile.CloseTab(cmd.Context(), id); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Closed tab %d\n", id)
		return nil
	},
}

var tabsPinCmd = &cobra.Command{
	Use:   "pin <id>",
	Short: "Pin a tab, into its collection when the URL is bookmarked in one",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		id, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid tab id %q", args[0])
		}

		a, err := newApp(ctx, appOptions{})
		if err != nil {
			return err
		}
		defer a.Close()

		if tabsUnpin {
			return a.profile.SetTabPinned(ctx, id, false, nil)
		}

		tab, err := a.profile.Tab(ctx, id)
		if err != nil {
			return err
		}
		space, inSpace := a.spaces.SpaceForURL(ctx, tab.URL)
		var meta *model.SpaceMeta
		if inSpace {
			meta = &space
		}
		if err := a.profile.SetTabPinned(ctx, id, true, meta); err != nil {
			return err
		}
		if inSpace {
			fmt.Fprintf(cmd.OutOrStdout(), "Pinned tab %d in %s\n", id, space.SpaceName)
		} else {
			fmt.Fprintf(cmd.OutOrStdout(), "Pinned tab %d\n", id)
		}
		return nil
	},
}

func init() {
	tabsPinCmd.Flags().BoolVar(&tabsUnpin, "off", false, "unpin instead")

	tabsCmd.AddCommand(tabsListCmd)
	tabsCmd.AddCommand(tabsOpenCmd)
	tabsCmd.AddCommand(tabsCloseCmd)
	tabsCmd.AddCommand(tabsPinCmd)

	rootCmd.AddCommand(tabsCmd)
}
