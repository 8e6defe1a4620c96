package cmd

import (
	"fmt"
	"time"

	"github.com/gameia/engine/internal/config"
	"github.com/gameia/engine/internal/model"
	"github.com/gameia/engine/internal/service"
	"github.com/spf13/cobra"
)

// TokenCmd mints a bearer token for local testing and service accounts.
// Production tokens are issued by the identity provider.
func TokenCmd() *cobra.Command {
	var (
		role   string
		expiry time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token <user-id>",
		Short: "Sign a bearer token for a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch role {
			case model.RoleUser, model.RoleAdmin, model.RoleSystem:
			default:
				return fmt.Errorf("unknown role %q", role)
			}

			cfg := config.Load()
			if expiry == 0 {
				expiry = cfg.JWTExpiry
			}

			auth := service.NewAuthService(cfg.JWTSecret, expiry)
			token, err := auth.GenerateJWT(model.Actor{UserID: args[0], Role: role})
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&role, "role", model.RoleUser, "user, admin or system")
	cmd.Flags().DurationVar(&expiry, "expiry", 0, "token lifetime (default JWT_EXPIRY)")

	return cmd
}
