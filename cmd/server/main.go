package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	emailPkg "eventtracker/internal/adapters/email"
	web "eventtracker/internal/adapters/http"
	"eventtracker/internal/adapters/http/perf"
	"eventtracker/internal/adapters/imagehost"
	"eventtracker/internal/adapters/storage"
	accountStorePkg "eventtracker/internal/adapters/storage/account"
	eventStorePkg "eventtracker/internal/adapters/storage/event"
	"eventtracker/internal/application/orchestrators"
	"eventtracker/internal/config"
	"eventtracker/internal/domain/account"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

const shutdownTimeout = 10 * time.Second

func main() {
	app := &cli.App{
		Name:    "events",
		Usage:   "Community event tracker.",
		Version: version,
		Commands: []*cli.Command{
			serveCommand(),
			migrateCommand(),
			createAccountCommand(),
		},
		Action: serve,
	}

	if err := app.Run(os.Args); err != nil {
		slog.Error("application_failed", "error", err)
		os.Exit(1)
	}
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:   "serve",
		Usage:  "Migrate the database and start the web server (default).",
		Action: serve,
	}
}

func migrateCommand() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "Apply database migrations and exit.",
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			db, err := openDB(cfg)
			if err != nil {
				return err
			}
			return db.Close()
		},
	}
}

func createAccountCommand() *cli.Command {
	return &cli.Command{
		Name:  "create-account",
		Usage: "Create an account that can sign in and create events.",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "email", Required: true},
			&cli.StringFlag{Name: "password", Required: true, EnvVars: []string{"EVENTS_NEW_PASSWORD"}},
			&cli.BoolFlag{Name: "admin", Usage: "Grant the admin role."},
		},
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			db, err := openDB(cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			role := account.RoleMember
			if c.Bool("admin") {
				role = account.RoleAdmin
			}
			acct, err := orchestrators.ExecuteCreateAccount(c.Context, orchestrators.CreateAccountInput{
				Email:    c.String("email"),
				Password: c.String("password"),
				Role:     role,
			}, orchestrators.CreateAccountDeps{AccountStore: accountStorePkg.NewSQLiteStore(storage.NewTimedDB(db, nil, cfg.SlowQuery))})
			if err != nil {
				return fmt.Errorf("create account: %w", err)
			}
			fmt.Fprintf(c.App.Writer, "created %s account %s (%s)\n", acct.Role, acct.Email, acct.ID)
			return nil
		},
	}
}

func loadConfig() (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, err
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel})))
	return cfg, nil
}

// openDB opens and migrates the configured database.
func openDB(cfg config.Config) (*sql.DB, error) {
	db, err := storage.Open(cfg.DBPath)
	if err != nil {
		return nil, err
	}
	if err := storage.MigrateDB(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

func serve(c *cli.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	collector := perf.NewCollector(perf.DefaultWindow)
	plain, err := openDB(cfg)
	if err != nil {
		return err
	}
	db := storage.NewTimedDB(plain, collector, cfg.SlowQuery)
	defer db.Close()

	stores := &web.Stores{
		AccountStore: accountStorePkg.NewSQLiteStore(db),
		EventStore:   eventStorePkg.NewSQLiteStore(db),
	}

	if err := orchestrators.ExecuteSeedAdmin(c.Context, orchestrators.CreateAccountDeps{AccountStore: stores.AccountStore},
		cfg.AdminEmail, cfg.AdminPassword); err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := web.Options{
		Context:       ctx,
		Categories:    cfg.Categories,
		Location:      cfg.Location,
		CSRFKey:       cfg.CSRFKey,
		Production:    cfg.IsProduction(),
		RateLimit:     cfg.RateLimit,
		MaxImageBytes: cfg.MaxImageBytes,
		SlowRequest:   cfg.SlowRequest,
		NotifyTo:      cfg.NotifyTo,
		Health:        db.PingContext,
	}

	if cfg.ResendKey != "" {
		opts.Sender = emailPkg.NewResendSender(cfg.ResendKey, cfg.ResendFrom)
		slog.Info("startup", "event", "email_sender", "provider", "resend")
	} else {
		opts.Sender = emailPkg.NewNoopSender()
		if cfg.IsProduction() && len(cfg.NotifyTo) > 0 {
			slog.Warn("startup", "event", "email_disabled", "reason", "EVENTS_RESEND_KEY is not set")
		}
	}

	if cfg.CloudinaryURL != "" {
		host, err := imagehost.NewCloudinary(cfg.CloudinaryURL, imagehost.DefaultFolder)
		if err != nil {
			return fmt.Errorf("cloudinary: %w", err)
		}
		opts.ImageHost = host
		slog.Info("startup", "event", "image_host", "provider", "cloudinary")
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           web.NewMux(stores, collector, opts),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("startup", "event", "listening", "addr", cfg.Addr, "version", version,
			"env", cfg.Env, "schema", storage.LatestSchemaVersion)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	slog.Info("shutdown", "event", "draining")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	stats := db.Unwrap().Stats()
	slog.Info("shutdown", "event", "closing_db", "open_connections", stats.OpenConnections,
		"wait_count", stats.WaitCount)
	return nil
}
