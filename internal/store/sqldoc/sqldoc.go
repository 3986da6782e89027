// Package sqldoc stores each collection as one JSON document row in a SQL
// database. PostgreSQL, SQLite and MySQL share the same table layout and
// differ only in placeholders, upsert syntax and column types.
package sqldoc

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"tabbook/backend/internal/store"
)

type dialect struct {
	name   string
	schema string
	upsert string
	load   string
	txOpts *sql.TxOptions
}

type Store struct {
	db      *sql.DB
	dialect dialect
	now     func() time.Time
}

var _ store.Repository = (*Store)(nil)

func open(ctx context.Context, db *sql.DB, d dialect) (*Store, error) {
	pingCtx, cancel := context.WithTimeout(ctx, 6*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to reach %s: %w", d.name, err)
	}

	if err := runMigrations(ctx, db, d); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to run %s migrations: %w", d.name, err)
	}

	return &Store{db: db, dialect: d, now: time.Now}, nil
}

func runMigrations(ctx context.Context, db *sql.DB, d dialect) error {
	for _, stmt := range strings.Split(d.schema, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Driver names the SQL dialect in use.
func (s *Store) Driver() string {
	return s.dialect.name
}

func (s *Store) Load(ctx context.Context, collection store.Collection, dest any) (bool, error) {
	if !collection.Valid() {
		return false, store.ErrValidation
	}

	var payload string
	err := s.db.QueryRowContext(ctx, s.dialect.load, string(collection)).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("failed to load %s: %w", collection, err)
	}

	if err := json.Unmarshal([]byte(payload), dest); err != nil {
		return true, fmt.Errorf("failed to decode %s: %w", collection, err)
	}
	return true, nil
}

func (s *Store) Save(ctx context.Context, collection store.Collection, value any) error {
	return s.SaveAll(ctx, map[store.Collection]any{collection: value})
}

func (s *Store) SaveAll(ctx context.Context, docs map[store.Collection]any) error {
	if len(docs) == 0 {
		return nil
	}

	payloads := make(map[store.Collection]string, len(docs))
	for collection, value := range docs {
		if !collection.Valid() {
			return store.ErrValidation
		}
		raw, err := json.Marshal(value)
		if err != nil {
			return fmt.Errorf("failed to encode %s: %w", collection, err)
		}
		payloads[collection] = string(raw)
	}

	tx, err := s.db.BeginTx(ctx, s.dialect.txOpts)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stamp := s.now().UTC().UnixMilli()
	for collection, payload := range payloads {
		if _, err := tx.ExecContext(ctx, s.dialect.upsert, string(collection), payload, stamp); err != nil {
			return fmt.Errorf("failed to save %s: %w", collection, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
