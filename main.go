// Command shortlink runs the account service of the Shortlink URL shortener.
//
// @title Shortlink API
// @version 1.0
// @description Account registration and login for the Shortlink URL shortener.
// @contact.name API Support
// @license.name MIT
// @license.url https://opensource.org/licenses/MIT
// @BasePath /api
package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/user/shortlink-go/auth"
	"github.com/user/shortlink-go/config"
	"github.com/user/shortlink-go/db"
	"github.com/user/shortlink-go/logging"
	"github.com/user/shortlink-go/metrics"
	"github.com/user/shortlink-go/users"
)

const serviceName = "shortlink"

func main() {
	// A missing .env is normal outside development.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("failed to load .env", slog.Any("error", err))
	}

	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	serveCmd := &cli.Command{
		Name:   "serve",
		Usage:  "run the HTTP API",
		Flags:  []cli.Flag{migrateFlag()},
		Action: serve,
	}

	return &cli.App{
		Name:   serviceName,
		Usage:  "Shortlink account service",
		Flags:  []cli.Flag{migrateFlag()},
		Action: serve,
		Commands: []*cli.Command{
			serveCmd,
			{
				Name:  "migrate",
				Usage: "apply or roll back the database schema",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "database-url",
						Usage:    "PostgreSQL connection string",
						EnvVars:  []string{"DB"},
						Required: true,
					},
				},
				Subcommands: []*cli.Command{
					{
						Name:  "up",
						Usage: "apply all pending migrations",
						Action: func(c *cli.Context) error {
							return db.MigrateUp(c.String("database-url"), cliLogger())
						},
					},
					{
						Name:  "down",
						Usage: "roll back every migration",
						Action: func(c *cli.Context) error {
							return db.MigrateDown(c.String("database-url"), cliLogger())
						},
					},
				},
			},
		},
	}
}

func migrateFlag() cli.Flag {
	return &cli.BoolFlag{
		Name:    "migrate",
		Usage:   "apply pending migrations before serving",
		EnvVars: []string{"AUTO_MIGRATE"},
	}
}

func cliLogger() *slog.Logger {
	return logging.Setup(serviceName, "text", "info", os.Stderr)
}

func serve(c *cli.Context) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	logger := logging.Setup(serviceName, cfg.Log.Format, cfg.Log.Level, os.Stderr)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if c.Bool("migrate") {
		if err := db.MigrateUp(cfg.Database.URL, logger); err != nil {
			return err
		}
	}

	pool, err := db.NewPool(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer pool.Close()

	tokens, err := auth.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenExpiry)
	if err != nil {
		return fmt.Errorf("failed to create token issuer: %w", err)
	}

	registry := metrics.NewRegistry()
	authService := auth.NewAuthService(
		users.NewPostgresStore(pool),
		auth.NewBcryptHasher(cfg.Auth.BcryptCost),
		tokens,
		metrics.NewAuthMetrics(registry),
		logger,
	)

	srv := newHTTPServer(":"+cfg.Server.Port, newRouter(routes{
		auth:           auth.NewHandlers(authService),
		registry:       registry,
		allowedOrigins: cfg.Server.AllowedOrigins,
		logger:         logger,
	}))

	return runServer(ctx, srv, logger)
}
