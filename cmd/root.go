// Package cmd implements the harvester command-line interface.
package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/resakss/harvester/internal/app"
)

var (
	cfgFile string

	// version is injected by main.
	version = "dev"

	rootCmd = &cobra.Command{
		Use:   "harvester",
		Short: "Harvest articles, events and publications and post them to a CMS",
		Long: `Harvester crawls a fixed set of development-news sources, stores new
items in PostgreSQL with duplicate suppression, and posts pending items to a
Drupal site as unpublished nodes.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
)

// Execute runs the root command with a signal-aware context.
func Execute(v string) error {
	version = v

	ctx, stop := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer stop()

	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "config.yml",
		"path to the configuration file")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Printf("harvester %s\n", version)
		},
	})
}

// newApp builds the application for a command invocation.
func newApp() (*app.App, error) {
	return app.New(app.Options{
		ConfigPath: cfgFile,
		Version:    version,
	})
}
