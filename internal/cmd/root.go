// Package cmd implements the spotlight command line.
package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/nikbrunner/spotlight/internal/browser"
	"github.com/nikbrunner/spotlight/internal/model"
	"github.com/nikbrunner/spotlight/internal/palette"
)

const (
	groupCore = "core"
	groupData = "data"
)

var (
	configPath string
	socketPath string
	newTab     bool
)

var rootCmd = &cobra.Command{
	Use:   "spotlight [query]",
	Short: "search tabs, bookmarks and history from one box",
	Long: `spotlight - one search box for the browser
  - open tabs, pinned tabs, bookmarks, history and top sites ranked together
  - type an address to go there, anything else to search the web`,
	Args:          cobra.ArbitraryArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runRoot,
}

// Execute runs the root command
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	return err
}

func init() {
	rootCmd.AddGroup(
		&cobra.Group{ID: groupCore, Title: "Search:"},
		&cobra.Group{ID: groupData, Title: "Browser data:"},
	)

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ~/.config/spotlight/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&socketPath, "socket", "", "talk to a running 'spotlight serve' on this socket")
	rootCmd.Flags().BoolVarP(&newTab, "new-tab", "t", false, "start the palette in new-tab mode")
}

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w io.Writer) bool {
	if f, ok := w.(*os.File); ok {
		return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return false
}

func modeFlag() model.Mode {
	if newTab {
		return model.ModeNewTab
	}
	return model.ModeCurrentTab
}

// runRoot shows the palette on a terminal and prints the ranked list
// otherwise.
func runRoot(cmd *cobra.Command, args []string) error {
	query := strings.Join(args, " ")
	if !isTerminal(cmd.OutOrStdout()) || socketPath != "" {
		return printSuggestions(cmd, query)
	}

	a, err := newApp(cmd.Context(), appOptions{quiet: true, watch: true})
	if err != nil {
		return err
	}
	defer a.Close()

	r, mode, ok, err := palette.Run(palette.Params{
		Context: cmd.Context(),
		Source:  a.scheduler,
		Mode:    modeFlag(),
		Query:   query,
	})
	if err != nil {
		return fmt.Errorf("palette: %w", err)
	}
	if !ok {
		return nil
	}
	return a.dispatcher.Dispatch(cmd.Context(), r, mode, nil)
}

func openExternal(enabled bool) func(string) error {
	if !enabled {
		return nil
	}
	return browser.OpenExternal
}
