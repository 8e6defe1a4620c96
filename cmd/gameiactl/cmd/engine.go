package cmd

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/gameia/engine/internal/app"
	"github.com/spf13/cobra"
)

func SweepCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Fail expired goals and settle every unsettled terminal goal once",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				failed, err := a.GoalService.FailExpired(ctx)
				if err != nil {
					return err
				}

				settled, err := a.SettlementService.SettlePending(ctx)
				if err != nil {
					return err
				}

				fmt.Fprintf(cmd.OutOrStdout(), "failed %d expired goals, settled %d goals\n", len(failed), settled)
				return nil
			})
		},
	}
}

func SettleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "settle <goal-id>",
		Short: "Settle a terminal goal and print its payout",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				payout, err := a.SettlementService.SettleWithRetry(ctx, args[0])
				if err != nil {
					return err
				}

				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(payout)
			})
		},
	}
}
