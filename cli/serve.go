package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"tubeseed/channels"
	"tubeseed/common"
	"tubeseed/convert"
	"tubeseed/server"
)

const shutdownTimeout = 10 * time.Second

// ServeCmd starts the HTTP API
func ServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the ranking API, the generated module and run triggers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			overrideString(cmd, "port", &cfg.Port)
			overrideString(cmd, "db", &cfg.DatabasePath)
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid config: %w", err)
			}

			log := common.InitLogger(cfg.LogLevel, cmd.ErrOrStderr())
			if log.GetLevel() > zerolog.DebugLevel {
				gin.SetMode(gin.ReleaseMode)
			}

			conn, err := common.Init(cfg.DatabasePath)
			if err != nil {
				return err
			}
			defer common.Close(conn)

			store, err := channels.NewStore(conn)
			if err != nil {
				return err
			}
			runs, err := common.NewRunStore(conn)
			if err != nil {
				return err
			}

			fsys := afero.NewOsFs()
			paths := convert.Paths{
				Ranking:  cfg.RankingPath,
				Live:     cfg.LivePath,
				Defaults: cfg.DefaultsPath,
				Output:   cfg.OutputPath,
			}
			run := func(ctx context.Context, kind string, out io.Writer) (convert.Report, error) {
				c := convert.New(fsys, out, log,
					convert.WithRecorder(runs),
					convert.WithStore(store),
					convert.WithClock(timeNow, cfg.Location()),
				)
				return c.Run(ctx, kind, paths)
			}

			router := server.NewRouter(server.Options{
				DB:          conn,
				Store:       store,
				Runs:        runs,
				Run:         run,
				AdminSecret: cfg.AdminSecret,
				Logger:      log,
			})

			srv := &http.Server{
				Addr:              ":" + cfg.Port,
				Handler:           router,
				ReadHeaderTimeout: 10 * time.Second,
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() {
				log.Info().Str("port", cfg.Port).Bool("run_triggers", cfg.AdminSecret != "").Msg("server starting")
				errCh <- srv.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			case <-ctx.Done():
			}

			log.Info().Msg("server shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}
	cmd.Flags().String("port", "", "Listen port (overrides PORT)")
	cmd.Flags().String("db", "", "SQLite database (overrides TUBESEED_DB_PATH)")
	return cmd
}
