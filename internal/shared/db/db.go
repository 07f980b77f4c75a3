package db

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cristianortiz/auctionhouse/internal/shared/config"
	"github.com/cristianortiz/auctionhouse/internal/shared/logger"
	"go.uber.org/zap"
)

var (
	dbPool *pgxpool.Pool
	once   sync.Once

	log = logger.GetLogger()
)

// GetPostgresDBPool returns a singleton *pgxpool.Pool built from the database config.
func GetPostgresDBPool(ctx context.Context, cfg config.DBConfig) (*pgxpool.Pool, error) {
	var err error
	once.Do(func() {
		poolConfig, configErr := pgxpool.ParseConfig(cfg.PostgresDSN())
		if configErr != nil {
			err = fmt.Errorf("failed to parse database config: %w", configErr)
			return
		}
		if cfg.MaxConns > 0 {
			poolConfig.MaxConns = cfg.MaxConns
		}
		if cfg.Timeout > 0 {
			poolConfig.ConnConfig.ConnectTimeout = cfg.Timeout
			// bounds every statement server side, requests keep their own ctx
			poolConfig.ConnConfig.RuntimeParams["statement_timeout"] = strconv.FormatInt(cfg.Timeout.Milliseconds(), 10)
		}

		pool, connectErr := pgxpool.NewWithConfig(ctx, poolConfig)
		if connectErr != nil {
			err = fmt.Errorf("unable to connect to DB: %w", connectErr)
			return
		}
		dbPool = pool
	})

	if err != nil {
		return nil, err
	}

	if dbPool == nil {
		return nil, errors.New("database pool was not initialized")
	}
	if pingErr := dbPool.Ping(ctx); pingErr != nil {
		return nil, fmt.Errorf("database pool ping failed: %w", pingErr)
	}

	return dbPool, nil
}

// TxBeginner is satisfied by *pgxpool.Pool.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// RunInTx runs fn inside a transaction, committing when fn returns nil and
// rolling back on error or panic.
func RunInTx(ctx context.Context, beginner TxBeginner, fn func(tx pgx.Tx) error) (err error) {
	tx, err := beginner.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if r := recover(); r != nil {
			log.Error("Recovered from panic during transaction", zap.Any("panic", r))
			_ = tx.Rollback(ctx)
			panic(r)
		}
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
				log.Warn("Failed to roll back transaction", zap.Error(rbErr), zap.NamedError("cause", err))
			}
			return
		}
		if commitErr := tx.Commit(ctx); commitErr != nil {
			log.Error("Failed to commit transaction", zap.Error(commitErr))
			err = fmt.Errorf("failed to commit transaction: %w", commitErr)
		}
	}()

	return fn(tx)
}
