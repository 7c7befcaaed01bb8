package cli

import (
	"context"
	"fmt"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/publicsquare/intake/internal/classify"
	"github.com/publicsquare/intake/internal/config"
	"github.com/publicsquare/intake/internal/engine"
	"github.com/publicsquare/intake/internal/gateway"
	"github.com/publicsquare/intake/internal/intake"
	"github.com/publicsquare/intake/internal/logging"
	"github.com/publicsquare/intake/internal/store"
	"github.com/publicsquare/intake/internal/whatsapp"
)

func newServeCmd() *cobra.Command {
	var (
		port int
		bind string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the intake webhook server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(paths.Config)
			if err != nil {
				return err
			}

			if port != 0 {
				cfg.Server.Port = port
			}
			if bind != "" {
				cfg.Server.Bind = bind
			}
			if logLevel == "" && cfg.Logging.Level != "" {
				log = logging.New(nil, cfg.Logging.Level)
			}

			issues := config.Validate(&cfg)
			if len(issues) > 0 {
				for _, issue := range issues {
					log.Error().Str("path", issue.Path).Msg(issue.Message)
				}
				return fmt.Errorf("config validation failed with %d issue(s)", len(issues))
			}

			if err := paths.EnsureDirs(); err != nil {
				return err
			}

			dbPath := cfg.Store.Path
			if dbPath == "" {
				dbPath = filepath.Join(paths.Data, "intake.db")
			}
			db, err := store.Open(dbPath, log)
			if err != nil {
				return fmt.Errorf("opening database: %w", err)
			}
			defer db.Close()

			ttl := time.Duration(cfg.Session.TTLMinutes) * time.Minute
			var sessions engine.SessionStore
			if cfg.Session.Store == "memory" {
				sessions = store.NewMemorySessionStore(ttl, time.Now)
				log.Info().Msg("using in-memory session store")
			} else {
				sessions = store.NewSQLiteSessionStore(db, ttl, time.Now)
				log.Info().Str("path", dbPath).Msg("using SQLite session store")
			}

			pipeline := intake.New(store.NewIssueStore(db), cfg.Classifier.Categories, time.Now, log)
			client := whatsapp.NewClient(cfg.WhatsApp, log)

			eng := engine.New(engine.Deps{
				Ledger:          store.NewLedger(db),
				Sessions:        sessions,
				Gateway:         client,
				Intake:          pipeline,
				Classifier:      classify.New(cfg.Classifier),
				Categories:      cfg.Classifier.Categories,
				DefaultLocation: cfg.Intake.DefaultLocation,
				FrontendURL:     cfg.Intake.FrontendURL,
			}, log)

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			srv := gateway.New(cfg, eng, pipeline, log)
			return srv.Start(ctx)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "override server port")
	cmd.Flags().StringVar(&bind, "bind", "", "override bind mode (loopback, lan, custom)")

	return cmd
}
