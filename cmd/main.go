package main

import (
	"context"
	"fmt"
	"os"

	"github.com/girohack/jobconnect/internal/api"
	"github.com/girohack/jobconnect/internal/config"
	"github.com/girohack/jobconnect/internal/database"
	"github.com/girohack/jobconnect/internal/repository"
	"github.com/girohack/jobconnect/internal/services"
	"github.com/girohack/jobconnect/internal/storage"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

type app struct {
	configPath string
	cfg        *config.Config
	svc        *services.Service
	close      func()
}

func newRootCmd() *cobra.Command {
	a := &app{close: func() {}}

	root := &cobra.Command{
		Use:          "jobconnect",
		Short:        "JobConnect marketplace backend",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd.Context())
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			a.close()
		},
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "path to a config file (default ./config.yaml if present)")

	root.AddCommand(a.serveCmd(), a.cleanupCmd(), a.seedCmd())
	return root
}

func (a *app) setup(ctx context.Context) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if err := setupLogger(cfg); err != nil {
		return err
	}

	repos, closeFn, err := openRepositories(ctx, cfg)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.svc = services.New(repos)
	a.close = closeFn
	return nil
}

func setupLogger(cfg *config.Config) error {
	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	log.SetLevel(level)
	if cfg.LogFormat == "json" {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
	return nil
}

func openRepositories(ctx context.Context, cfg *config.Config) (repository.Set, func(), error) {
	if cfg.Storage != config.StoragePostgres {
		log.WithField("data_dir", cfg.DataDir).Info("using file storage")
		return storage.Open(cfg.DataDir), func() {}, nil
	}

	db, err := database.NewPostgres(ctx, cfg.PostgresDSN)
	if err != nil {
		return repository.Set{}, nil, err
	}
	if err := db.Migrate(ctx); err != nil {
		db.Close()
		return repository.Set{}, nil, err
	}
	log.Info("using postgres storage")
	return db.Repositories(), db.Close, nil
}

func (a *app) serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Repair user data and start the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := a.svc.CleanupUserData(cmd.Context()); err != nil {
				log.WithError(err).Warn("user data cleanup failed, serving anyway")
			}

			srv, err := api.New(a.svc, api.Options{
				JWTSecret:   a.cfg.JWTSecret,
				TokenTTL:    a.cfg.TokenTTL,
				CORSOrigins: a.cfg.CORSOrigins,
			})
			if err != nil {
				return err
			}
			return srv.Run(a.cfg.Addr)
		},
	}
}

func (a *app) cleanupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cleanup",
		Short: "Repair invalid gender, experience, salary and availability values",
		RunE: func(cmd *cobra.Command, _ []string) error {
			changed, err := a.svc.CleanupUserData(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d user(s) updated\n", changed)
			return nil
		},
	}
}

func (a *app) seedCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Add the postings in a YAML file to the demo job pool",
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := os.Open(file)
			if err != nil {
				return err
			}
			defer f.Close()

			jobs, err := loadSeed(f)
			if err != nil {
				return fmt.Errorf("%s: %w", file, err)
			}
			added, err := seedDemoJobs(cmd.Context(), a.svc, jobs)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d demo job(s) added\n", added)
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "demo.yaml", "YAML file with a top-level jobs list")
	return cmd
}
