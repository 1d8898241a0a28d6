package main

import (
	"context"
	"io"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/uptrace/bun"
	"go.uber.org/zap"

	"github.com/padraicbc/golfstats/config"
	"github.com/padraicbc/golfstats/db"
	applog "github.com/padraicbc/golfstats/logger"
)

// app carries what the commands share. Tests swap fs and out.
type app struct {
	fs  afero.Fs
	out io.Writer
	v   *viper.Viper
}

func newRootCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:          "ingest",
		Short:        "Import golf course and round workbooks into PostgreSQL",
		SilenceUsage: true,
	}

	flags := cmd.PersistentFlags()
	flags.String("input-dir", "", "directory of workbooks waiting to be imported (INPUT_DIR)")
	flags.String("processed-dir", "", "directory imported workbooks are moved to (PROCESSED_DIR)")
	flags.Bool("debug", false, "log at debug level and print SQL (DEBUG)")
	_ = a.v.BindPFlag("INPUT_DIR", flags.Lookup("input-dir"))
	_ = a.v.BindPFlag("PROCESSED_DIR", flags.Lookup("processed-dir"))
	_ = a.v.BindPFlag("DEBUG", flags.Lookup("debug"))

	cmd.AddCommand(newCoursesCmd(a), newRoundsCmd(a), newTemplateCmd(a))
	return cmd
}

// env is an opened configuration, logger and database for one command run.
type env struct {
	cfg    *config.Config
	logger *zap.Logger
	db     *bun.DB
}

func (a *app) open(ctx context.Context) (*env, error) {
	cfg, err := config.LoadWith(a.v)
	if err != nil {
		return nil, err
	}
	logger, err := applog.New("ingest", cfg.Debug)
	if err != nil {
		return nil, err
	}
	bdb, err := db.Setup(ctx, cfg)
	if err != nil {
		_ = logger.Sync()
		return nil, err
	}
	if err := db.CreateTables(ctx, bdb); err != nil {
		bdb.Close()
		_ = logger.Sync()
		return nil, err
	}
	return &env{cfg: cfg, logger: logger, db: bdb}, nil
}

func (e *env) close() {
	e.db.Close()
	_ = e.logger.Sync()
}
