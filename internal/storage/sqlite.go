package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"xjsf/internal/models"

	_ "modernc.org/sqlite"
)

var sqliteSchema = []string{
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

// SQLiteSource reads the roster from a SQLite database with the same
// tables as PostgresSource.
type SQLiteSource struct {
	db *sql.DB
}

func NewSQLiteSource(ctx context.Context, dsn string) (*SQLiteSource, error) {
	if dsn == "" {
		return nil, fmt.Errorf("connection string is required for SQLite roster")
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: failed to ping database: %w", ErrSourceUnavailable, err)
	}

	for _, stmt := range sqliteSchema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to create roster tables: %w", err)
		}
	}

	return &SQLiteSource{db: db}, nil
}

func (ss *SQLiteSource) LoadRoster(ctx context.Context) (*models.Roster, error) {
	rows, err := ss.db.QueryContext(ctx,
		`SELECT name, password, min_limit, hour_limit, day_limit FROM xjsf_clients ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query clients: %w", err)
	}
	defer rows.Close()

	var clients []clientRow
	for rows.Next() {
		var row clientRow
		if err := rows.Scan(&row.Name, &row.Password, &row.MinuteLimit, &row.HourLimit, &row.DayLimit); err != nil {
			return nil, fmt.Errorf("failed to read client: %w", err)
		}
		clients = append(clients, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read clients: %w", err)
	}

	var auth *authRow
	var a authRow
	err = ss.db.QueryRowContext(ctx,
		`SELECT name_cookie, password_cookie FROM xjsf_authentication WHERE id = 1`).
		Scan(&a.NameCookie, &a.PasswordCookie)
	switch {
	case err == nil:
		auth = &a
	case !errors.Is(err, sql.ErrNoRows):
		return nil, fmt.Errorf("failed to read authentication: %w", err)
	}

	roster, err := rowsToRoster(auth, clients)
	if err != nil {
		return nil, err
	}
	return roster, nil
}

// SaveRoster replaces the stored roster in one transaction.
func (ss *SQLiteSource) SaveRoster(ctx context.Context, roster *models.Roster) error {
	if err := roster.Validate(); err != nil {
		return err
	}
	auth, rows := rosterToRows(roster)

	tx, err := ss.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM xjsf_clients`); err != nil {
		return fmt.Errorf("failed to clear clients: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM xjsf_authentication`); err != nil {
		return fmt.Errorf("failed to clear authentication: %w", err)
	}
	if auth != nil {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO xjsf_authentication (id, name_cookie, password_cookie) VALUES (1, ?, ?)`,
			auth.NameCookie, auth.PasswordCookie); err != nil {
			return fmt.Errorf("failed to save authentication: %w", err)
		}
	}
	for _, row := range rows {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO xjsf_clients (name, password, min_limit, hour_limit, day_limit) VALUES (?, ?, ?, ?, ?)`,
			row.Name, row.Password, row.MinuteLimit, row.HourLimit, row.DayLimit); err != nil {
			return fmt.Errorf("failed to save client %q: %w", row.Name, err)
		}
	}

	return tx.Commit()
}

func (ss *SQLiteSource) Close() error {
	return ss.db.Close()
}
