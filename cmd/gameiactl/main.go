package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/gameia/engine/cmd/gameiactl/cmd"

	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "gameiactl",
		Short:        "Operator tools for the Gameia engine",
		SilenceUsage: true,
	}

	rootCmd.AddCommand(cmd.MigrateCmd())
	rootCmd.AddCommand(cmd.SweepCmd())
	rootCmd.AddCommand(cmd.SettleCmd())
	rootCmd.AddCommand(cmd.TokenCmd())
	rootCmd.AddCommand(cmd.GrantCmd())
	rootCmd.AddCommand(cmd.ImportContentCmd())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
