package cli

import (
	"github.com/spf13/cobra"
)

func newCatalogCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "catalog",
		Short: "Show skills, talents and weapons",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result Catalog

			if err := client.Get("/api/v1/catalog", &result); err != nil {
				return err
			}

			NewOutput(cfg.Output).Print(result)
			return nil
		},
	}
}
