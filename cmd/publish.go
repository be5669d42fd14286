package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/resakss/harvester/internal/app"
	"github.com/resakss/harvester/internal/domain"
	"github.com/resakss/harvester/internal/logger"
)

func init() {
	var limit int

	publishCmd := &cobra.Command{
		Use:   "publish",
		Short: "Post pending records to the CMS",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()

			return runPublish(cmd.Context(), a, limit)
		},
	}
	publishCmd.Flags().IntVar(&limit, "limit", 0,
		"max records to post per kind (0 uses the configured limit)")

	rootCmd.AddCommand(publishCmd)
}

// runPublish logs in once and drains each kind in order. Login failure is
// fatal before anything is posted.
func runPublish(ctx context.Context, a *app.App, limit int) error {
	publisher, err := a.Publisher(ctx)
	if err != nil {
		return err
	}

	if limit == 0 {
		limit = a.Config().CMS.PublishLimit
	}

	total := 0
	for _, kind := range domain.Kinds {
		posted, err := publisher.PublishPending(ctx, kind, limit)
		total += posted
		if err != nil {
			return err
		}
	}

	a.Logger().Info("publish run complete", logger.Int("posted", total))
	return nil
}
