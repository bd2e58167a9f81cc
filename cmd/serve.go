package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/marcus/tdash/internal/api"
	"github.com/marcus/tdash/internal/serverdb"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the remote task API",
	Long: `Run the HTTP task API backed by postgres. Configuration comes from the
environment (SERVER_ADDR, DB_HOST, DB_PORT, DB_USER, DB_PASSWORD, DB_NAME,
JWT_SECRET, LOG_LEVEL, LOG_FORMAT) and an optional .env file.`,
	GroupID: "system",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := api.LoadConfig()
		slog.SetDefault(slog.New(serverLogHandler(cfg)))

		store, err := serverdb.Open(cfg.DSN())
		if err != nil {
			return fmt.Errorf("open server db: %w", err)
		}
		defer store.Close()

		srv, err := api.NewServer(cfg, store.Tasks(), store)
		if err != nil {
			return fmt.Errorf("create server: %w", err)
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if err := srv.Start(); err != nil {
			return fmt.Errorf("start server: %w", err)
		}
		slog.Info("server started", "addr", srv.Addr())

		<-ctx.Done()
		slog.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown", "err", err)
		}
		return nil
	},
}

func serverLogHandler(cfg api.Config) slog.Handler {
	var level slog.Level
	switch strings.ToLower(cfg.LogLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if strings.ToLower(cfg.LogFormat) == "text" {
		return slog.NewTextHandler(os.Stderr, opts)
	}
	return slog.NewJSONHandler(os.Stderr, opts)
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
