package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/user/starter-go/auth"
	"github.com/user/starter-go/config"
	"github.com/user/starter-go/db"
	"github.com/user/starter-go/items"
	"github.com/user/starter-go/logging"
	"github.com/user/starter-go/memstore"
	"github.com/user/starter-go/seed"
	"github.com/user/starter-go/server"
	"github.com/user/starter-go/users"
)

// @title Starter API
// @version 1.0
// @description Users, items and cookie-based sessions.
// @BasePath /
func main() {
	app := &cli.App{
		Name:  "starter",
		Usage: "Users and items API with cookie sessions",
		Commands: []*cli.Command{
			serveCmd(),
			migrateCmd(),
			seedCmd(),
		},
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := app.RunContext(ctx, os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "starter: %v\n", err)
		os.Exit(1)
	}
}

func serveCmd() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the HTTP API until SIGINT or SIGTERM",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "skip-migrations",
				Usage: "do not apply pending migrations before serving",
			},
		},
		Action: func(c *cli.Context) error {
			cfg, logger, err := bootstrap()
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck

			ctx := logging.WithLogger(c.Context, logger)
			deps, cleanup, err := buildDeps(ctx, cfg, logger, !c.Bool("skip-migrations"))
			if err != nil {
				return err
			}
			defer cleanup()

			return server.Run(ctx, *cfg.Server, server.NewRouter(deps), logger)
		},
	}
}

func migrateCmd() *cli.Command {
	run := func(name string, fn func(*config.PoolConfig) error) *cli.Command {
		return &cli.Command{
			Name:  name,
			Usage: "Apply " + name + " migrations",
			Action: func(c *cli.Context) error {
				cfg, logger, err := bootstrap()
				if err != nil {
					return err
				}
				defer logger.Sync() //nolint:errcheck

				if cfg.DB == nil {
					return errors.New("migrate requires STORAGE=postgres")
				}
				if err := fn(cfg.DB); err != nil {
					return err
				}
				logger.Info("Migrations applied", zap.String("direction", name))
				return nil
			},
		}
	}

	return &cli.Command{
		Name:  "migrate",
		Usage: "Manage the database schema",
		Subcommands: []*cli.Command{
			run("up", db.RunMigrations),
			run("down", db.RollbackMigrations),
		},
	}
}

func seedCmd() *cli.Command {
	return &cli.Command{
		Name:  "seed",
		Usage: "Insert the demo user and items if missing",
		Action: func(c *cli.Context) error {
			cfg, logger, err := bootstrap()
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck

			if cfg.DB == nil {
				return errors.New("seed requires STORAGE=postgres")
			}
			ctx := logging.WithLogger(c.Context, logger)
			pool, err := db.NewPool(ctx, cfg.DB)
			if err != nil {
				return err
			}
			defer pool.Close()

			return seed.Run(ctx,
				users.NewPostgresRepository(pool),
				items.NewPostgresRepository(pool),
				newHasher(cfg.Auth),
			)
		},
	}
}

// bootstrap loads .env and the configuration, then builds the logger and
// installs it as the zap global.
func bootstrap() (*config.AppConfig, *zap.Logger, error) {
	envErr := godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, err
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, nil, err
	}
	zap.ReplaceGlobals(logger)

	if envErr != nil && !errors.Is(envErr, os.ErrNotExist) {
		logger.Warn("Could not load .env file", zap.Error(envErr))
	}
	return cfg, logger, nil
}

func newHasher(cfg *config.AuthConfig) *auth.Hasher {
	return auth.NewHasher(auth.HashParams{
		Memory:      cfg.Hash.MemoryKiB,
		Iterations:  cfg.Hash.Iterations,
		Parallelism: cfg.Hash.Parallelism,
	})
}

// buildDeps picks the storage backend and constructs what the router
// needs. The returned cleanup releases the database pool, if any.
func buildDeps(ctx context.Context, cfg *config.AppConfig, logger *zap.Logger, migrate bool) (server.Deps, func(), error) {
	tokens, err := auth.NewTokenService(cfg.Auth.AppSecret)
	if err != nil {
		return server.Deps{}, nil, err
	}

	deps := server.Deps{
		Hasher: newHasher(cfg.Auth),
		Tokens: tokens,
		Logger: logger,
		Server: *cfg.Server,
	}

	if cfg.Storage == config.StorageMemory {
		logger.Warn("Using in-memory storage; data is lost on exit")
		store := memstore.New()
		deps.Users = store.Users()
		deps.Items = store.Items()
		return deps, func() {}, nil
	}

	if migrate {
		if err := db.RunMigrations(cfg.DB); err != nil {
			return server.Deps{}, nil, err
		}
	}

	pool, err := db.NewPool(ctx, cfg.DB)
	if err != nil {
		return server.Deps{}, nil, err
	}
	logger.Info("Connected to database", zap.String("db", cfg.DB.DBName), zap.Int("maxConns", cfg.DB.MaxSize))

	deps.Users = users.NewPostgresRepository(pool)
	deps.Items = items.NewPostgresRepository(pool)
	deps.Pinger = pool
	return deps, pool.Close, nil
}
