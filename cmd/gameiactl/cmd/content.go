package cmd

import (
	"context"
	"fmt"

	"github.com/gameia/engine/internal/app"
	"github.com/spf13/cobra"
)

func ImportContentCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import-content <module-id>",
		Short: "Import a training module from markdown files under CONTENT_PATH",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				contents, err := a.ContentService.ImportModule(ctx, args[0])
				if err != nil {
					return err
				}

				for _, c := range contents {
					fmt.Fprintf(cmd.OutOrStdout(), "%3d  %-6s  %s\n", c.Position, c.ContentType, c.Title)
				}
				return nil
			})
		},
	}
}
