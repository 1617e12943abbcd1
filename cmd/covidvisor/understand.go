// cmd/covidvisor/understand.go
package main

import (
	"github.com/spf13/cobra"

	"github.com/o-richard/covidvisor/internal/console"
)

func newUnderstandCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "understand",
		Short: "Read queries from stdin and write one {intent, entities} record per line",
		Long: "Reads one question per line from stdin and writes its JSON record to stdout\n" +
			"without a trailing newline. A line containing only \"q\" ends the session.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			pipeline, rdb, err := newPipeline(ctx, a.cfg, a.log)
			if err != nil {
				return err
			}
			if rdb != nil {
				defer rdb.Close()
			}

			loop := console.NewLoop(cmd.InOrStdin(), cmd.OutOrStdout(), pipeline.ProcessJSON, a.log)
			return loop.Run(ctx)
		},
	}
}
