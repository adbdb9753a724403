package database

import (
	"context"
	"fmt"

	"github.com/discovered-games/careerbingo/internal/logging"
	bolt "go.etcd.io/bbolt"
)

type Config struct {
	// Path to the bbolt file holding the event log
	FilePath string `envconfig:"BINGO_DB_FILE_PATH" default:"careerbingo.db"`
}

type DB struct {
	DB *bolt.DB
}

func NewFromEnv(ctx context.Context, config *Config) (*DB, error) {
	logger := logging.FromContext(ctx)
	logger.Infof("creating db connection")

	db, err := bolt.Open(config.FilePath, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("creating connection DB: %w", err)
	}

	return &DB{DB: db}, nil
}

func (db *DB) Close(ctx context.Context) error {
	logger := logging.FromContext(ctx)
	logger.Infof("closing DB connection")

	if err := db.DB.Close(); err != nil {
		return fmt.Errorf("error close DB connection: %w", err)
	}

	return nil
}
