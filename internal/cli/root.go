// Package cli is the operator command line: seasons, squads, directory
// links, standings and offline ingestion of archived or exported reports.
package cli

import (
	"database/sql"
	"fmt"
	"os"

	"squad-ladder/internal/config"
	fxmodules "squad-ladder/internal/fx"
	"squad-ladder/internal/service"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
)

type options struct {
	dbPath  string
	verbose bool
}

// services is what every command needs from the dependency graph.
type services struct {
	ingest *service.IngestService
	ladder *service.LadderService
	db     *sql.DB
}

func (s *services) Close() error { return s.db.Close() }

// open builds the core graph without the HTTP surface.
func (o *options) open() (*services, error) {
	var s services
	app := fx.New(
		fxmodules.Core,
		fx.NopLogger,
		fx.Decorate(o.cliLogger),
		fx.Decorate(o.overrideConfig),
		fx.Populate(&s.ingest, &s.ladder, &s.db),
	)
	if err := app.Err(); err != nil {
		return nil, fmt.Errorf("init: %w", err)
	}
	return &s, nil
}

// Logs go to stderr so stdout stays parseable.
func (o *options) cliLogger(logger zerolog.Logger) zerolog.Logger {
	level := zerolog.WarnLevel
	if o.verbose {
		level = zerolog.DebugLevel
	}
	return logger.Output(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level)
}

func (o *options) overrideConfig(cfg *config.Config) *config.Config {
	c := *cfg
	if o.dbPath != "" {
		c.DBPath = o.dbPath
	}
	if !o.verbose {
		c.LogLevel = "warn"
	}
	return &c
}

func NewRootCommand() *cobra.Command {
	o := &options{}
	root := &cobra.Command{
		Use:           "ladderctl",
		Short:         "Squad ladder operator tool",
		Long:          "Manage seasons and squads, inspect standings and ingest match reports offline.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&o.dbPath, "db", "", "path to SQLite database (default $DB_PATH)")
	root.PersistentFlags().BoolVarP(&o.verbose, "verbose", "v", false, "debug logging on stderr")

	root.AddCommand(
		newIngestCommand(o),
		newKillCommand(o),
		newReplayCommand(o),
		newSeasonCommand(o),
		newSquadCommand(o),
		newLinkCommand(o),
		newStandingsCommand(o),
	)
	return root
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
