package cmd

import (
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(&cobra.Command{
		Use:   "run",
		Short: "Crawl all sources, then publish pending records",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()

			if err := runCrawl(cmd.Context(), a, nil); err != nil {
				return err
			}
			return runPublish(cmd.Context(), a, 0)
		},
	})
}
