package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/urfave/cli/v2"

	"taskboard/internal/config"
	"taskboard/internal/database"
	"taskboard/internal/handler"
	"taskboard/internal/logger"
	"taskboard/internal/middleware"
	"taskboard/internal/store"
)

func main() {
	app := &cli.App{
		Name:  "taskboard",
		Usage: "Task notes with public sharing and realtime sync",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Value:   "info",
				Usage:   "Log level (debug, info, warn, error)",
				EnvVars: []string{"LOG_LEVEL"},
			},
		},
		Before: func(c *cli.Context) error {
			logger.Setup(logger.ParseLevel(c.String("log-level")))
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:  "serve",
				Usage: "Start the web server",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "port",
						Aliases: []string{"p"},
						Value:   config.DefaultPort,
						Usage:   "HTTP server port",
						EnvVars: []string{"PORT"},
					},
					&cli.StringFlag{
						Name:    "database-url",
						Aliases: []string{"d"},
						Value:   config.DefaultDatabaseURL,
						Usage:   "PostgreSQL database URL",
						EnvVars: []string{"DATABASE_URL"},
					},
					&cli.StringFlag{
						Name:    "redis-url",
						Value:   config.DefaultRedisURL,
						Usage:   "Redis URL for change notifications",
						EnvVars: []string{"REDIS_URL"},
					},
					&cli.StringFlag{
						Name:    "base-url",
						Value:   config.DefaultBaseURL,
						Usage:   "Public base URL for shareable task links",
						EnvVars: []string{"BASE_URL"},
					},
					&cli.StringFlag{
						Name:     "session-secret",
						Usage:    "HMAC secret for session tokens",
						EnvVars:  []string{"SESSION_SECRET"},
						Required: true,
					},
					&cli.BoolFlag{
						Name:  "memory",
						Usage: "Use the in-memory store (no Postgres/redis; data is lost on exit)",
					},
				},
				Action: runServe,
			},
			{
				Name:  "mint-token",
				Usage: "Issue a session token for local development",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "email",
						Usage:    "Identity the token authenticates",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "name",
						Usage: "Display name carried by the token",
					},
					&cli.StringFlag{
						Name:     "session-secret",
						Usage:    "HMAC secret for session tokens",
						EnvVars:  []string{"SESSION_SECRET"},
						Required: true,
					},
					&cli.DurationFlag{
						Name:  "ttl",
						Value: 24 * time.Hour,
						Usage: "Token lifetime",
					},
				},
				Action: runMintToken,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

func runServe(c *cli.Context) error {
	ctx := c.Context

	port := c.String("port")
	if port == "" {
		port = config.DefaultPort
	}

	var client store.Client
	if c.Bool("memory") {
		slog.Warn("using in-memory store, data is not persisted")
		client = store.NewMemoryClient()
	} else {
		databaseURL := c.String("database-url")
		if databaseURL == "" {
			return fmt.Errorf("database-url is required unless --memory is set")
		}

		db, err := database.New(ctx, databaseURL)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer db.Close()

		if err := database.RunMigrations(ctx, db.Pool()); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}

		redisOpts, err := redis.ParseURL(c.String("redis-url"))
		if err != nil {
			return fmt.Errorf("parse redis URL: %w", err)
		}
		rdb := redis.NewClient(redisOpts)
		defer rdb.Close()

		if err := rdb.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("ping redis: %w", err)
		}
		slog.Info("redis connected")

		client = store.NewPostgresClient(db.Pool(), store.NewRedisNotifier(rdb))
	}

	h := handler.New(client, c.String("session-secret"), c.String("base-url"))

	mux := http.NewServeMux()
	h.RegisterRoutes(mux)

	server := &http.Server{
		Addr:    ":" + port,
		Handler: mux,
		// WriteTimeout stays zero: the SSE task stream holds its response
		// open for the life of the client connection.
		ReadTimeout:       15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}

	serverErr := make(chan error, 1)
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		slog.Info("starting server", "server_addr", "http://localhost:"+port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		return fmt.Errorf("server error: %w", err)
	case <-done:
		slog.Info("shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("server stopped")
	return nil
}

func runMintToken(c *cli.Context) error {
	token, err := middleware.MintToken(
		c.String("session-secret"),
		c.String("email"),
		c.String("name"),
		c.Duration("ttl"),
	)
	if err != nil {
		return fmt.Errorf("mint token: %w", err)
	}

	fmt.Println(token)
	return nil
}
