// cmd/covidvisor/seed.go
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/o-richard/covidvisor/internal/casestats"
	apperrors "github.com/o-richard/covidvisor/internal/common/errors"
)

func newSeedCmd(a *app) *cobra.Command {
	var csvPath string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load the case statistics CSV into the store",
		Long:  "Imports the CSV into covid_data. Nothing is imported when the table already has rows.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			records, err := casestats.LoadCSV(csvPath)
			if err != nil {
				return apperrors.NewSeedFailedError(err)
			}

			store, db, err := openStore(ctx, a.cfg, a.log)
			if err != nil {
				return err
			}
			defer db.Close()

			inserted, err := store.Seed(ctx, records)
			if err != nil {
				return apperrors.NewSeedFailedError(err)
			}

			a.log.Info("seed finished", map[string]interface{}{
				"csv":      csvPath,
				"parsed":   len(records),
				"inserted": inserted,
			})
			fmt.Fprintf(cmd.OutOrStdout(), "inserted %d records\n", inserted)
			return nil
		},
	}

	cmd.Flags().StringVar(&csvPath, "csv", "", "path to the case statistics CSV")
	_ = cmd.MarkFlagRequired("csv")
	return cmd
}
