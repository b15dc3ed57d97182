package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/pixel-beads/api/models"
)

func (a *app) newTokenCmd() *cobra.Command {
	var (
		subject string
		ttl     time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint an admin token signed with JWT_SECRET",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			token, expiry, err := models.NewAdminToken(subject, a.cfg.JwtSecret, ttl)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), token)
			fmt.Fprintf(cmd.ErrOrStderr(), "expires %s\n", expiry.UTC().Format(time.RFC3339))
			return nil
		},
	}

	cmd.Flags().StringVar(&subject, "subject", "admin", "token subject")
	cmd.Flags().DurationVar(&ttl, "ttl", time.Duration(a.cfg.JwtAdminDuration)*time.Second, "token lifetime")

	return cmd
}
