package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/resakss/harvester/internal/domain"
	"github.com/resakss/harvester/internal/logger"
)

func init() {
	rootCmd.AddCommand(&cobra.Command{
		Use:   "reset <kind>",
		Short: "Mark every record of a kind as pending again",
		Long: `Reset clears the posted timestamp on every record of the given kind so
the next publish run posts them all again. Useful after wiping the CMS side.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := domain.ParseKind(args[0])
			if err != nil {
				return err
			}

			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()

			n, err := a.Store().SetAllPending(cmd.Context(), kind)
			if err != nil {
				return fmt.Errorf("reset %s records: %w", kind, err)
			}
			if err := a.Store().Commit(cmd.Context()); err != nil {
				return err
			}

			a.Logger().Info("records reset to pending",
				logger.String("kind", string(kind)),
				logger.Int64("count", n))
			return nil
		},
	})
}
