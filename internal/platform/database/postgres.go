package database

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"time"

	_ "github.com/lib/pq"
	"github.com/rs/zerolog"
)

type Config struct {
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"name"`
}

func (c Config) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     c.Host + ":" + c.Port,
		Path:     "/" + c.DBName,
		RawQuery: "sslmode=disable",
	}
	return u.String()
}

const (
	maxRetries    = 10
	retryInterval = 2 * time.Second
)

// NewPostgresDB opens a pool and waits for the server to answer a ping,
// retrying while it starts up.
func NewPostgresDB(ctx context.Context, cfg Config, logger zerolog.Logger) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	for i := 1; i <= maxRetries; i++ {
		logger.Info().Int("attempt", i).Int("max_attempts", maxRetries).Str("host", cfg.Host).Msg("connecting to database")

		if err = db.PingContext(ctx); err == nil {
			logger.Info().Msg("database connected")
			return db, nil
		}

		logger.Warn().Err(err).Dur("retry_in", retryInterval).Msg("database not ready")
		select {
		case <-ctx.Done():
			db.Close()
			return nil, ctx.Err()
		case <-time.After(retryInterval):
		}
	}

	db.Close()
	return nil, fmt.Errorf("connect database after %d attempts: %w", maxRetries, err)
}
