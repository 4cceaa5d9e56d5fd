package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const healthCheckTimeout = 5 * time.Second

// DB bundles the GORM handle used for migrations and ad hoc history reads
// with the pgx pool used by the batch writer's COPY-protocol inserts. Both
// point at the same Postgres instance; pgx is used directly only where bulk
// insert throughput actually matters.
type DB struct {
	Gorm *gorm.DB
	Pool *pgxpool.Pool
}

// Connect opens both handles and runs AutoMigrate for every known model.
func Connect(ctx context.Context, databaseURL string, poolMin, poolMax int) (*DB, error) {
	gdb, err := gorm.Open(postgres.Open(databaseURL), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("database: gorm open failed: %w", err)
	}
	if err := gdb.AutoMigrate(AllModels()...); err != nil {
		return nil, fmt.Errorf("database: automigrate failed: %w", err)
	}

	poolCfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("database: pgxpool config failed: %w", err)
	}
	poolCfg.MinConns = int32(poolMin)
	poolCfg.MaxConns = int32(poolMax)

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("database: pgxpool connect failed: %w", err)
	}

	return &DB{Gorm: gdb, Pool: pool}, nil
}

// HealthCheck verifies the pool can still reach Postgres, with a hard
// timeout so a stalled connection never stalls the /health endpoint.
func (d *DB) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()
	var one int
	return d.Pool.QueryRow(ctx, "SELECT 1").Scan(&one)
}

// PoolStats reports the pool's currently acquired connection count, fed into
// the db_pool_active_connections gauge.
func (d *DB) PoolStats() int32 {
	return d.Pool.Stat().AcquiredConns()
}

func (d *DB) Close() {
	d.Pool.Close()
}
