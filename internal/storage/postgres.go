package storage

import (
	"context"
	"errors"
	"fmt"

	"xjsf/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS xjsf_clients (
		name       TEXT PRIMARY KEY,
		password   TEXT,
		min_limit  INTEGER,
		hour_limit INTEGER,
		day_limit  INTEGER
	)`,
	`CREATE TABLE IF NOT EXISTS xjsf_authentication (
		id              INTEGER PRIMARY KEY CHECK (id = 1),
		name_cookie     TEXT NOT NULL,
		password_cookie TEXT NOT NULL
	)`,
}

// PostgresSource reads the roster from the xjsf_clients and
// xjsf_authentication tables, creating them if they are missing.
type PostgresSource struct {
	pool *pgxpool.Pool
}

func NewPostgresSource(ctx context.Context, dsn string) (*PostgresSource, error) {
	if dsn == "" {
		return nil, fmt.Errorf("connection string is required for PostgreSQL roster")
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%w: failed to ping database: %w", ErrSourceUnavailable, err)
	}

	for _, stmt := range postgresSchema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			pool.Close()
			return nil, fmt.Errorf("failed to create roster tables: %w", err)
		}
	}

	return &PostgresSource{pool: pool}, nil
}

func (ps *PostgresSource) LoadRoster(ctx context.Context) (*models.Roster, error) {
	rows, err := ps.pool.Query(ctx,
		`SELECT name, password, min_limit, hour_limit, day_limit FROM xjsf_clients ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query clients: %w", err)
	}
	clients, err := pgx.CollectRows(rows, pgx.RowToStructByName[clientRow])
	if err != nil {
		return nil, fmt.Errorf("failed to read clients: %w", err)
	}

	var auth *authRow
	var a authRow
	err = ps.pool.QueryRow(ctx,
		`SELECT name_cookie, password_cookie FROM xjsf_authentication WHERE id = 1`).
		Scan(&a.NameCookie, &a.PasswordCookie)
	switch {
	case err == nil:
		auth = &a
	case !errors.Is(err, pgx.ErrNoRows):
		return nil, fmt.Errorf("failed to read authentication: %w", err)
	}

	roster, err := rowsToRoster(auth, clients)
	if err != nil {
		return nil, err
	}
	return roster, nil
}

// SaveRoster replaces the stored roster in one transaction.
func (ps *PostgresSource) SaveRoster(ctx context.Context, roster *models.Roster) error {
	if err := roster.Validate(); err != nil {
		return err
	}
	auth, rows := rosterToRows(roster)

	return pgx.BeginFunc(ctx, ps.pool, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		batch.Queue(`DELETE FROM xjsf_clients`)
		batch.Queue(`DELETE FROM xjsf_authentication`)
		if auth != nil {
			batch.Queue(`INSERT INTO xjsf_authentication (id, name_cookie, password_cookie) VALUES (1, $1, $2)`,
				auth.NameCookie, auth.PasswordCookie)
		}
		for _, row := range rows {
			batch.Queue(`INSERT INTO xjsf_clients (name, password, min_limit, hour_limit, day_limit)
				VALUES ($1, $2, $3, $4, $5)`,
				row.Name, row.Password, row.MinuteLimit, row.HourLimit, row.DayLimit)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("failed to save roster: %w", err)
		}
		return nil
	})
}

func (ps *PostgresSource) Close() error {
	ps.pool.Close()
	return nil
}
