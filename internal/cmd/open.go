package cmd

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nikbrunner/spotlight/internal/engine"
	"github.com/nikbrunner/spotlight/internal/model"
	"github.com/nikbrunner/spotlight/internal/relay"
	"github.com/nikbrunner/spotlight/internal/storage"
	"github.com/nikbrunner/spotlight/internal/transport"
)

var openCmd = &cobra.Command{
	Use:     "open <tab-id|address|text>",
	Short:   "Switch to a tab, go to an address or search",
	GroupID: groupCore,
	Long: `Act on input the way pressing enter in the palette would.

A number switches to the open tab with that id. An address is visited and
anything else is searched for. Without --new-tab the current tab is reused.

Examples:
  spotlight open 12                 # switch to tab 12
  spotlight open go.dev             # visit https://go.dev in the current tab
  spotlight open -t go generics     # search in a new tab`,
	Args: cobra.MinimumNArgs(1),
	RunE: runOpen,
}

func init() {
	openCmd.Flags().BoolVarP(&newTab, "new-tab", "t", false, "open in a new tab")

	rootCmd.AddCommand(openCmd)
}

func runOpen(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	input := strings.Join(args, " ")

	if socketPath != "" {
		remote := relay.New(transport.SocketConn{Path: socketPath})
		r, err := resolveInput(ctx, input, func(ctx context.Context, id int) (*model.TabRecord, error) {
			return findTab(ctx, remote, id)
		})
		if err != nil {
			return err
		}
		return report(cmd, r, remote.Execute(ctx, r, modeFlag()))
	}

	a, err := newApp(ctx, appOptions{})
	if err != nil {
		return err
	}
	defer a.Close()

	r, err := resolveInput(ctx, input, a.profile.Tab)
	if err != nil {
		return err
	}
	return report(cmd, r, a.dispatcher.Dispatch(ctx, r, modeFlag(), nil))
}

// resolveInput turns command line input into the result to act on.
func resolveInput(ctx context.Context, input string, tab func(context.Context, int) (*model.TabRecord, error)) (model.Result, error) {
	if id, err := strconv.Atoi(strings.TrimSpace(input)); err == nil {
		t, err := tab(ctx, id)
		if err != nil {
			return model.Result{}, err
		}
		return engine.TabResult(*t), nil
	}
	r, ok := engine.InstantSuggestion(input)
	if !ok {
		return model.Result{}, errors.New("nothing to open")
	}
	return r, nil
}

func findTab(ctx context.Context, remote *relay.Provider, id int) (*model.TabRecord, error) {
	tabs, err := remote.OpenTabs(ctx, "")
	if err != nil {
		return nil, err
	}
	pinned, err := remote.PinnedTabs(ctx, "")
	if err != nil {
		return nil, err
	}
	for _, p := range pinned {
		tabs = append(tabs, p.TabRecord)
	}
	for _, t := range tabs {
		if t.ID == id {
			return &t, nil
		}
	}
	return nil, fmt.Errorf("tab %d: %w", id, storage.ErrNotFound)
}

func report(cmd *cobra.Command, r model.Result, err error) error {
	if err != nil {
		return err
	}
	target := r.URL
	if target == "" {
		target = r.Title
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Opened: %s\n", target)
	return nil
}
