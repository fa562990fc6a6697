package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
)

func Open(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)
	return db, nil
}

func Ping(ctx context.Context, db *sql.DB) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return db.PingContext(ctx)
}

// duplicateDatabase is the SQLSTATE for CREATE DATABASE on an existing name.
const duplicateDatabase = "42P04"

// EnsureDatabase creates the database named in dsn when it does not exist yet,
// going through the cluster's "postgres" maintenance database.
func EnsureDatabase(ctx context.Context, dsn string) error {
	name, err := DatabaseName(dsn)
	if err != nil {
		return err
	}
	if name == "" || name == "postgres" {
		return nil
	}
	rootDSN, err := WithDBName(dsn, "postgres")
	if err != nil {
		return fmt.Errorf("compose maintenance DSN: %w", err)
	}
	meta, err := Open(rootDSN)
	if err != nil {
		return fmt.Errorf("open maintenance db: %w", err)
	}
	defer meta.Close()
	if err := Ping(ctx, meta); err != nil {
		return fmt.Errorf("ping maintenance db: %w", err)
	}

	var exists bool
	q := `SELECT EXISTS (SELECT 1 FROM pg_database WHERE datname = $1)`
	if err := meta.QueryRowContext(ctx, q, name).Scan(&exists); err != nil {
		return fmt.Errorf("lookup database %q: %w", name, err)
	}
	if exists {
		return nil
	}
	// Identifiers cannot be bound as parameters.
	_, err = meta.ExecContext(ctx, "CREATE DATABASE "+quoteIdent(name))
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == duplicateDatabase {
		return nil
	}
	if err != nil {
		return fmt.Errorf("create database %q: %w", name, err)
	}
	return nil
}
