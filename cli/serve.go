package cli

import (
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/pixel-beads/api/api"
	"github.com/pixel-beads/api/datastore"
	"github.com/pixel-beads/api/migrations"
	"github.com/pixel-beads/api/patterns"
)

func (a *app) newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run migrations and start the HTTP API",
		Args:  cobra.NoArgs,
		RunE:  a.runServe,
	}

	cmd.Flags().StringVar(&a.cfg.HTTPPort, "addr", a.cfg.HTTPPort, "listen address")
	cmd.Flags().StringVar(&a.cfg.DatabaseType, "db", a.cfg.DatabaseType, "database type (sqlite3, postgres)")
	cmd.Flags().StringVar(&a.cfg.SQLitePath, "sqlite-path", a.cfg.SQLitePath, "SQLite database file")
	cmd.Flags().IntVar(&a.cfg.ColorsReloadInterval, "reload-interval", a.cfg.ColorsReloadInterval, "seconds between reference table checks (0 disables)")

	return cmd
}

func (a *app) runServe(cmd *cobra.Command, args []string) error {
	log, err := a.logger(cmd)
	if err != nil {
		return err
	}

	if a.cfg.JwtSecret == "" {
		log.Warn("JWT_SECRET is not set; admin endpoints will reject every request")
	}

	dbConn, err := openDB(a.cfg)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer dbConn.Close()

	if err := migrations.RunMigrations(dbConn, a.cfg.DatabaseType, log); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	patternRepo, err := datastore.NewPatternDatabase(dbConn)
	if err != nil {
		return fmt.Errorf("failed to create pattern repository: %w", err)
	}

	tagRepo, err := datastore.NewTagDatabase(dbConn)
	if err != nil {
		return fmt.Errorf("failed to create tag repository: %w", err)
	}

	matcher, reloader, err := a.loadMatcher(log)
	if err != nil {
		return fmt.Errorf("failed to load reference table: %w", err)
	}
	reloader.Interval = time.Duration(a.cfg.ColorsReloadInterval) * time.Second
	reloader.Start()
	defer reloader.Stop()

	application := &api.Application{
		Config:   a.cfg,
		Logger:   log,
		Patterns: patterns.NewService(patternRepo, matcher),
		TagRepo:  tagRepo,
		Colors:   matcher,
		Reloader: reloader,
		DB:       dbConn,
	}

	log.WithField("colors", matcher.Table().Len()).Info("Pixel bead API starting")
	return application.Serve(http.NewServeMux())
}

func (a *app) newMigrateCmd() *cobra.Command {
	var status bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			log, err := a.logger(cmd)
			if err != nil {
				return err
			}

			dbConn, err := openDB(a.cfg)
			if err != nil {
				return fmt.Errorf("failed to connect to database: %w", err)
			}
			defer dbConn.Close()

			if !status {
				return migrations.RunMigrations(dbConn, a.cfg.DatabaseType, log)
			}

			statuses, err := migrations.Statuses(dbConn, a.cfg.DatabaseType)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, st := range statuses {
				state := "pending"
				if st.Applied {
					state = "applied " + st.AppliedAt.UTC().Format(time.RFC3339)
				}
				fmt.Fprintf(out, "%03d_%s\t%s\n", st.Version, st.Name, state)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&status, "status", false, "list migrations and whether they are applied")
	cmd.Flags().StringVar(&a.cfg.DatabaseType, "db", a.cfg.DatabaseType, "database type (sqlite3, postgres)")
	cmd.Flags().StringVar(&a.cfg.SQLitePath, "sqlite-path", a.cfg.SQLitePath, "SQLite database file")

	return cmd
}
