package database

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"shelfstock/pkg/logger"
)

func NewPool(dsn string) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(context.Background(), config)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(context.Background()); err != nil {
		return nil, err
	}

	logger.Info().Msg("database connected")

	return pool, nil
}
