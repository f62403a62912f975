package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

const (
	keyLastLocation = "last_location"
	keyLastCity     = "last_city"
)

var errNotInitialized = errors.New("database not initialized")

// DB wraps a database connection
type DB struct {
	*sqlx.DB
}

// Open connects with the given driver ("sqlite3" or "postgres") and ensures the schema.
func Open(driver, dsn string) (*DB, error) {
	conn, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Verify connection
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := initSchema(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &DB{conn}, nil
}

func initSchema(conn *sqlx.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS preferences (
		visitor_id TEXT NOT NULL,
		name TEXT NOT NULL,
		value TEXT NOT NULL,
		updated_at TIMESTAMP NOT NULL,
		PRIMARY KEY (visitor_id, name)
	)`
	_, err := conn.Exec(schema)
	return err
}

// Prefs is the persisted fallback state of one visitor
type Prefs struct {
	db      *DB
	visitor string
}

// Prefs scopes the store to a visitor. A nil DB yields Prefs that never
// remember anything.
func (db *DB) Prefs(visitor string) *Prefs {
	return &Prefs{db: db, visitor: visitor}
}

func (p *Prefs) get(ctx context.Context, name string) (string, error) {
	if p == nil || p.db == nil || p.db.DB == nil {
		return "", errNotInitialized
	}

	var value string
	query := p.db.Rebind("SELECT value FROM preferences WHERE visitor_id = ? AND name = ?")
	if err := p.db.GetContext(ctx, &value, query, p.visitor, name); err != nil {
		return "", err
	}
	return value, nil
}

func upsert(ctx context.Context, ext sqlx.ExtContext, visitor, name, value string, now time.Time) error {
	query := ext.Rebind(`INSERT INTO preferences (visitor_id, name, value, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (visitor_id, name) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`)
	_, err := ext.ExecContext(ctx, query, visitor, name, value, now)
	return err
}

// LastLocation returns the last successfully queried location, if any.
func (p *Prefs) LastLocation(ctx context.Context) (string, bool) {
	v, err := p.get(ctx, keyLastLocation)
	if err != nil {
		return "", false
	}
	return v, v != ""
}

// LastCity returns the display name stored with the last location.
func (p *Prefs) LastCity(ctx context.Context) (string, bool) {
	v, err := p.get(ctx, keyLastCity)
	if err != nil {
		return "", false
	}
	return v, v != ""
}

// SaveLastLocation overwrites the last location only.
func (p *Prefs) SaveLastLocation(ctx context.Context, location string) error {
	if p == nil || p.db == nil || p.db.DB == nil {
		return errNotInitialized
	}
	if err := upsert(ctx, p.db, p.visitor, keyLastLocation, location, time.Now().UTC()); err != nil {
		return fmt.Errorf("save last location: %w", err)
	}
	return nil
}

// SaveLocation stores the location and its display name together.
func (p *Prefs) SaveLocation(ctx context.Context, location, city string) error {
	if p == nil || p.db == nil || p.db.DB == nil {
		return errNotInitialized
	}

	tx, err := p.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	if err := upsert(ctx, tx, p.visitor, keyLastLocation, location, now); err != nil {
		return fmt.Errorf("save last location: %w", err)
	}
	if err := upsert(ctx, tx, p.visitor, keyLastCity, city, now); err != nil {
		return fmt.Errorf("save last city: %w", err)
	}
	return tx.Commit()
}
