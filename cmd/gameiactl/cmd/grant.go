package cmd

import (
	"context"
	"fmt"

	"github.com/gameia/engine/internal/app"
	"github.com/gameia/engine/internal/model"
	"github.com/gameia/engine/internal/service"
	"github.com/spf13/cobra"
)

func GrantCmd() *cobra.Command {
	var input service.GrantInput

	cmd := &cobra.Command{
		Use:   "grant <user-id>",
		Short: "Credit coins and XP to a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input.UserID = args[0]

			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				balance, err := a.LedgerService.Grant(ctx, model.SystemActor, input)
				if err != nil {
					return err
				}

				fmt.Fprintf(cmd.OutOrStdout(), "%s: %d coins, %d xp\n", balance.UserID, balance.Coins, balance.XP)
				return nil
			})
		},
	}

	cmd.Flags().Int64Var(&input.Coins, "coins", 0, "coins to credit")
	cmd.Flags().Int64Var(&input.XP, "xp", 0, "XP to credit")

	return cmd
}
