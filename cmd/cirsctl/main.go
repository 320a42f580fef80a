// Command cirsctl runs maintenance tasks against the configured store.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/cirs/cirs-api/internal/app"
	"github.com/cirs/cirs-api/internal/config"
	"github.com/cirs/cirs-api/pkg/logger"
)

// opener builds the application for a command. Tests swap it for an in-memory one.
type opener func(ctx context.Context, configDir string) (*app.App, error)

func openApp(ctx context.Context, configDir string) (*app.App, error) {
	var paths []string
	if configDir != "" {
		paths = []string{configDir}
	}
	cfg, err := config.Load(paths...)
	if err != nil {
		return nil, err
	}
	l := logger.New(logger.Config{Level: cfg.Log.Level, Format: "console", Output: os.Stderr})
	return app.New(ctx, cfg, l, prometheus.NewRegistry())
}

func newRootCmd(open opener) *cobra.Command {
	var configDir string

	root := &cobra.Command{
		Use:           "cirsctl",
		Short:         "Maintenance tool for the immunization records service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configDir, "config", "", "Directory containing config.yml")

	withApp := func(run func(cmd *cobra.Command, a *app.App, args []string) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			a, err := open(cmd.Context(), configDir)
			if err != nil {
				return err
			}
			defer a.Close()
			return run(cmd, a, args)
		}
	}

	root.AddCommand(
		newSeedCmd(withApp),
		newReportCmd(withApp),
		newRegistrationsCmd(withApp),
	)
	return root
}

type appRunner func(run func(cmd *cobra.Command, a *app.App, args []string) error) func(*cobra.Command, []string) error

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func main() {
	if err := newRootCmd(openApp).ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
