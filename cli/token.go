package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"tubeseed/server"
)

// TokenCmd prints a signed admin token for POST /api/runs
func TokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Print an admin token for triggering runs over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			ttl, _ := cmd.Flags().GetDuration("ttl")
			if ttl <= 0 {
				return fmt.Errorf("ttl must be positive, got %s", ttl)
			}

			token, err := server.IssueToken(cfg.AdminSecret, ttl, timeNow())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().Duration("ttl", 24*time.Hour, "Token lifetime")
	return cmd
}
