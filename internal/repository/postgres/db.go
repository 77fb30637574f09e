package postgres

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"
)

const (
	maxOpenConns    = 25
	maxIdleConns    = 5
	connMaxLifetime = 30 * time.Minute

	pingAttempts = 5
	pingBackoff  = 2 * time.Second
)

// Connect opens a connection pool to the PostgreSQL database. The initial
// ping is retried a few times so the server survives being started before
// the database is ready to accept connections.
func Connect(databaseURL string) (*sql.DB, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("postgres open: %w", err)
	}
	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxIdleConns)
	db.SetConnMaxLifetime(connMaxLifetime)

	var pingErr error
	for attempt := 1; attempt <= pingAttempts; attempt++ {
		if pingErr = db.Ping(); pingErr == nil {
			return db, nil
		}
		log.Warn().Err(pingErr).Int("attempt", attempt).Msg("Postgres not ready, retrying")
		time.Sleep(pingBackoff)
	}
	db.Close()
	return nil, fmt.Errorf("postgres ping: %w", pingErr)
}
