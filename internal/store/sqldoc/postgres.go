package sqldoc

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

var postgresDialect = dialect{
	name: "postgres",
	schema: `
CREATE TABLE IF NOT EXISTS documents (
    collection TEXT PRIMARY KEY,
    payload JSONB NOT NULL,
    updated_at BIGINT NOT NULL
)`,
	upsert: `
		INSERT INTO documents (collection, payload, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (collection)
		DO UPDATE SET payload = EXCLUDED.payload, updated_at = EXCLUDED.updated_at
	`,
	load:   `SELECT payload::text FROM documents WHERE collection = $1`,
	txOpts: &sql.TxOptions{Isolation: sql.LevelReadCommitted},
}

func OpenPostgres(ctx context.Context, databaseURL string) (*Store, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, err
	}

	db.SetMaxIdleConns(4)
	db.SetMaxOpenConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	return open(ctx, db, postgresDialect)
}
