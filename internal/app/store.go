package app

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/eatwhat/eatwhat-api/internal/api/handler"
	"github.com/eatwhat/eatwhat-api/internal/core/ports"
	mongostore "github.com/eatwhat/eatwhat-api/internal/infrastructure/db/mongo"
	pgstore "github.com/eatwhat/eatwhat-api/internal/infrastructure/db/postgres"
	"github.com/eatwhat/eatwhat-api/internal/pkg/config"
)

// store bundles the repositories of one backend with its lifecycle hooks.
type store struct {
	name        string
	users       ports.UserRepository
	sessions    ports.SessionRepository
	restaurants ports.RestaurantRepository
	pinger      handler.Pinger
	close       func(ctx context.Context) error
}

// openStore connects to the configured backend and brings its schema up to
// date: golang-migrate for Postgres, unique indexes for Mongo. Both are
// idempotent, so every command runs them.
func openStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*store, error) {
	switch cfg.StoreDriver {
	case config.DriverPostgres:
		pool, err := pgstore.Connect(ctx, pgstore.Config{URL: cfg.Postgres.URL})
		if err != nil {
			return nil, err
		}
		if err := pgstore.RunMigrations(cfg.Postgres.URL); err != nil {
			pool.Close()
			return nil, err
		}
		log.Info().Msg("postgres connection established, migrations applied")
		return &store{
			name:        "postgres",
			users:       pgstore.NewUserRepository(pool),
			sessions:    pgstore.NewSessionRepository(pool),
			restaurants: pgstore.NewRestaurantRepository(pool),
			pinger:      pgstore.Pinger{Pool: pool},
			close: func(context.Context) error {
				pool.Close()
				return nil
			},
		}, nil

	case config.DriverMongo:
		client, db, err := mongostore.Connect(ctx, mongostore.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
		if err != nil {
			return nil, err
		}
		if err := mongostore.EnsureIndexes(ctx, db); err != nil {
			_ = client.Disconnect(ctx)
			return nil, err
		}
		log.Info().Str("database", cfg.Mongo.Database).Msg("mongodb connection established, indexes ensured")
		return &store{
			name:        "mongodb",
			users:       mongostore.NewUserRepository(db),
			sessions:    mongostore.NewSessionRepository(db),
			restaurants: mongostore.NewRestaurantRepository(db),
			pinger:      mongostore.Pinger{DB: db},
			close:       client.Disconnect,
		}, nil
	}
	return nil, fmt.Errorf("unsupported store driver %q", cfg.StoreDriver)
}
