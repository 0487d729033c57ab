// Package cli wires configuration, storage and the converters into cobra commands.
package cli

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"tubeseed/common"
	"tubeseed/config"
	"tubeseed/convert"
)

const (
	flagEnvFile  = "env-file"
	flagLogLevel = "log-level"
)

// RootCmd returns the tubeseed command tree
func RootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "tubeseed",
		Short:         "Convert TubeTrend exports into the frontend channel module",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().String(flagEnvFile, ".env", "Env file read before the environment")
	root.PersistentFlags().String(flagLogLevel, "", "Log level (overrides LOG_LEVEL)")

	root.AddCommand(
		SeedCmd(),
		DefaultsCmd(),
		LoadCmd(),
		ServeCmd(),
		TokenCmd(),
	)

	return root
}

// loadConfig reads the configuration and applies the persistent flags
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	envFile, _ := cmd.Flags().GetString(flagEnvFile)
	cfg, err := config.Load(envFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if level, _ := cmd.Flags().GetString(flagLogLevel); level != "" {
		cfg.LogLevel = level
	}
	return cfg, nil
}

// overrideString replaces *target with the flag value when the flag was set
func overrideString(cmd *cobra.Command, name string, target *string) {
	if cmd.Flags().Changed(name) {
		*target, _ = cmd.Flags().GetString(name)
	}
}

// session is what a conversion command needs once its config is validated
type session struct {
	cfg  *config.Config
	log  zerolog.Logger
	fs   afero.Fs
	conn *gorm.DB
	opts []convert.Option
}

func newSession(cmd *cobra.Command, cfg *config.Config) (*session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	s := &session{
		cfg: cfg,
		log: common.InitConsoleLogger(cfg.LogLevel, cmd.ErrOrStderr()),
		fs:  afero.NewOsFs(),
	}
	s.opts = append(s.opts, convert.WithClock(timeNow, cfg.Location()))

	if cfg.RecordRuns {
		runs, err := s.runStore()
		if err != nil {
			return nil, err
		}
		s.opts = append(s.opts, convert.WithRecorder(runs))
	}
	return s, nil
}

// db opens the database once per session
func (s *session) db() (*gorm.DB, error) {
	if s.conn != nil {
		return s.conn, nil
	}
	conn, err := common.Init(s.cfg.DatabasePath)
	if err != nil {
		return nil, err
	}
	s.conn = conn
	return conn, nil
}

func (s *session) runStore() (*common.RunStore, error) {
	conn, err := s.db()
	if err != nil {
		return nil, err
	}
	return common.NewRunStore(conn)
}

func (s *session) converter(cmd *cobra.Command, extra ...convert.Option) *convert.Converter {
	opts := append(append([]convert.Option{}, s.opts...), extra...)
	return convert.New(s.fs, cmd.OutOrStdout(), s.log, opts...)
}

func (s *session) close() {
	if s.conn == nil {
		return
	}
	if err := common.Close(s.conn); err != nil {
		s.log.Warn().Err(err).Msg("close database")
	}
}
