package cli

import (
	"time"

	"github.com/spf13/cobra"

	"tubeseed/channels"
	"tubeseed/convert"
)

var timeNow = time.Now

// SeedCmd converts the ranking and live exports into the dual module
func SeedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Write RANKING_DATA and LIVE_DATA from the ranking and live exports",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			overrideString(cmd, "ranking", &cfg.RankingPath)
			overrideString(cmd, "live", &cfg.LivePath)
			overrideString(cmd, "output", &cfg.OutputPath)

			s, err := newSession(cmd, cfg)
			if err != nil {
				return err
			}
			defer s.close()

			s.converter(cmd).Seed(cmd.Context(), cfg.RankingPath, cfg.LivePath, cfg.OutputPath)
			return nil
		},
	}
	cmd.Flags().String("ranking", "", "Ranking export (overrides TUBESEED_RANKING_CSV)")
	cmd.Flags().String("live", "", "Live-candidate export (overrides TUBESEED_LIVE_CSV)")
	cmd.Flags().String("output", "", "Module to write (overrides TUBESEED_OUTPUT_JS)")
	return cmd
}

// DefaultsCmd converts a single ranking export into DEFAULT_CHANNELS
func DefaultsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "defaults",
		Short: "Write DEFAULT_CHANNELS from a single ranking export",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			overrideString(cmd, "input", &cfg.DefaultsPath)
			overrideString(cmd, "output", &cfg.OutputPath)

			s, err := newSession(cmd, cfg)
			if err != nil {
				return err
			}
			defer s.close()

			s.converter(cmd).Defaults(cmd.Context(), cfg.DefaultsPath, cfg.OutputPath)
			return nil
		},
	}
	cmd.Flags().String("input", "", "Ranking export (overrides TUBESEED_DEFAULTS_CSV)")
	cmd.Flags().String("output", "", "Module to write (overrides TUBESEED_OUTPUT_JS)")
	return cmd
}

// LoadCmd stores the ranking and live exports in the channel database
func LoadCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "load",
		Short: "Store the ranking and live exports in the channel database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			overrideString(cmd, "ranking", &cfg.RankingPath)
			overrideString(cmd, "live", &cfg.LivePath)
			overrideString(cmd, "db", &cfg.DatabasePath)

			s, err := newSession(cmd, cfg)
			if err != nil {
				return err
			}
			defer s.close()

			conn, err := s.db()
			if err != nil {
				return err
			}
			store, err := channels.NewStore(conn)
			if err != nil {
				return err
			}

			s.converter(cmd, convert.WithStore(store)).Load(cmd.Context(), cfg.RankingPath, cfg.LivePath)
			return nil
		},
	}
	cmd.Flags().String("ranking", "", "Ranking export (overrides TUBESEED_RANKING_CSV)")
	cmd.Flags().String("live", "", "Live-candidate export (overrides TUBESEED_LIVE_CSV)")
	cmd.Flags().String("db", "", "SQLite database (overrides TUBESEED_DB_PATH)")
	return cmd
}
