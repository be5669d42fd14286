package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/resakss/harvester/internal/app"
	"github.com/resakss/harvester/internal/logger"
)

func init() {
	rootCmd.AddCommand(&cobra.Command{
		Use:   "crawl [source...]",
		Short: "Run a crawl pass over the named sources (default: all)",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()

			return runCrawl(cmd.Context(), a, args)
		},
	})
}

// runCrawl runs one pass per adapter, sequentially. A failed pass is logged
// and the run moves on; one broken site must not starve the rest.
func runCrawl(ctx context.Context, a *app.App, names []string) error {
	adapters, err := a.Adapters(names)
	if err != nil {
		return err
	}

	engine := a.Engine()
	log := a.Logger()

	failed := 0
	for _, adapter := range adapters {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := engine.Run(ctx, adapter); err != nil {
			failed++
			log.Error("crawl pass failed",
				logger.String("source", adapter.Name()),
				logger.Error(err))
		}
	}

	if failed > 0 && failed == len(adapters) {
		return fmt.Errorf("all %d crawl passes failed", failed)
	}
	if failed > 0 {
		log.Warn("crawl finished with failed passes",
			logger.Int("failed", failed),
			logger.Int("total", len(adapters)))
	}
	return nil
}
