package main

import (
	"context"
	"fmt"

	"open-factcheck/internal/events"
	"open-factcheck/internal/services"

	"github.com/spf13/cobra"
)

var rescoreCmd = &cobra.Command{
	Use:   "rescore",
	Short: "Rebuild like/bookmark counts and viral scores from stored engagement",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := bootstrap()
		if err != nil {
			return err
		}
		defer a.close()

		changed, err := services.NewEngagementService(a.db, a.log, events.Nop{}).Rescore(context.Background())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "rescored %d claims\n", changed)
		return nil
	},
}
