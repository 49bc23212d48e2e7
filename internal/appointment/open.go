package appointment

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/hackgods/hospital-appointments/internal/config"
	"github.com/hackgods/hospital-appointments/internal/db"
)

// OpenRepository connects the store named by cfg.StoreDriver and makes sure
// its schema and indexes exist. The returned func releases the connection.
func OpenRepository(ctx context.Context, cfg config.Config, logger zerolog.Logger) (Repository, func(), error) {
	connCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	poolOpts := db.PoolOptions{
		MaxConns:        cfg.DBMaxConns,
		MinConns:        cfg.DBMinConns,
		MaxConnIdleTime: cfg.DBMaxConnIdle,
	}

	switch cfg.StoreDriver {
	case config.DriverPostgres:
		pool, err := db.ConnectPostgres(connCtx, cfg.PostgresDSN, poolOpts)
		if err != nil {
			return nil, nil, fmt.Errorf("connect postgres: %w", err)
		}
		if err := db.Migrate(connCtx, pool); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("migrate postgres: %w", err)
		}
		logger.Info().Msg("connected to Postgres")
		return NewPgRepository(pool), pool.Close, nil

	case config.DriverMongo:
		client, database, err := db.ConnectMongo(connCtx, cfg.MongoURI, cfg.MongoDB, poolOpts)
		if err != nil {
			return nil, nil, fmt.Errorf("connect mongo: %w", err)
		}
		if err := db.EnsureMongoIndexes(connCtx, database); err != nil {
			_ = client.Disconnect(context.Background())
			return nil, nil, fmt.Errorf("ensure mongo indexes: %w", err)
		}
		logger.Info().Str("database", cfg.MongoDB).Msg("connected to MongoDB")

		closeFn := func() {
			dctx, dcancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer dcancel()
			if err := client.Disconnect(dctx); err != nil {
				logger.Warn().Err(err).Msg("disconnect mongo")
			}
		}
		return NewMongoRepository(database), closeFn, nil
	}

	return nil, nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
}
