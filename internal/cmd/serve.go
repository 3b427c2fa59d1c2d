package cmd

import (
	"context"
	"errors"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/nikbrunner/spotlight/internal/transport"
)

// DefaultSocketName is the socket created in the config directory.
const DefaultSocketName = "spotlight.sock"

var serveCmd = &cobra.Command{
	Use:     "serve",
	Short:   "Answer suggestion and action requests on a unix socket",
	GroupID: groupCore,
	Long: `Keep the pipeline warm and serve it on a unix socket.

Other spotlight invocations reach it with --socket. Writes to the profile
by other processes invalidate cached collections and results.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := newApp(ctx, appOptions{watch: true})
	if err != nil {
		return err
	}
	defer a.Close()

	path := socketPath
	if path == "" {
		path = filepath.Join(a.configDir, DefaultSocketName)
	}

	a.spaces.Warm(ctx)

	handler := transport.NewHandler(a.scheduler, a.dispatcher, a.provider, a.logger)
	server := transport.NewServer(path, handler, a.logger)

	err = server.ListenAndServe(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
