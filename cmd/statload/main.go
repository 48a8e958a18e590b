package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/statload/backend/internal/bootstrap"
	"github.com/statload/backend/internal/infrastructure/config"
	"github.com/statload/backend/internal/infrastructure/logger"
	"github.com/statload/backend/internal/interfaces/cli"
)

type globalFlags struct {
	logLevel    string
	skipMigrate bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}
	root := &cobra.Command{
		Use:          "statload",
		Short:        "Load Eurostat, ISTAT and MUR catalogues into PostgreSQL",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "Log level (debug, info, warn, error); defaults to log.level")
	root.PersistentFlags().BoolVar(&flags.skipMigrate, "skip-migrate", false, "Do not apply pending migrations before loading")

	root.AddCommand(
		newEurostatCmd(flags),
		newIstatCmd(flags),
		newMURCmd(flags),
		newReportCmd(flags),
		newHashPasswordCmd(),
	)
	return root
}

// session is the state of one command run
type session struct {
	app     *bootstrap.App
	log     *zap.Logger
	console *cli.Console
}

// open loads the configuration and builds the application. withDB connects
// the database and, unless --skip-migrate, migrates it.
func open(cmd *cobra.Command, flags *globalFlags, withDB bool) (*session, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}
	level := flags.logLevel
	if level == "" {
		level = cfg.Log.Level
	}
	log, err := logger.New(logger.CLIConfig(level))
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	app, err := bootstrap.Open(cmd.Context(), cfg, log, bootstrap.Options{
		Database: withDB,
		Migrate:  withDB && !flags.skipMigrate,
	})
	if err != nil {
		_ = logger.Sync(log)
		return nil, err
	}
	return &session{
		app:     app,
		log:     log,
		console: cli.NewConsole(cmd.InOrStdin(), cmd.OutOrStdout()),
	}, nil
}

func (s *session) close() {
	if err := s.app.Close(context.Background()); err != nil {
		s.log.Warn("Failed to release resources", zap.Error(err))
	}
	_ = logger.Sync(s.log)
}

func ignoreEOF(err error) error {
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}
