package sqldoc

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
)

var mysqlDialect = dialect{
	name: "mysql",
	schema: `
CREATE TABLE IF NOT EXISTS documents (
    collection VARCHAR(64) PRIMARY KEY,
    payload LONGTEXT NOT NULL,
    updated_at BIGINT NOT NULL
)`,
	upsert: `
		INSERT INTO documents (collection, payload, updated_at)
		VALUES (?, ?, ?)
		ON DUPLICATE KEY UPDATE payload = VALUES(payload), updated_at = VALUES(updated_at)
	`,
	load:   `SELECT payload FROM documents WHERE collection = ?`,
	txOpts: &sql.TxOptions{Isolation: sql.LevelReadCommitted},
}

func OpenMySQL(ctx context.Context, dsn string) (*Store, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("invalid mysql dsn: %w", err)
	}
	cfg.ParseTime = true
	if cfg.Params == nil {
		cfg.Params = map[string]string{}
	}
	cfg.Params["charset"] = "utf8mb4"

	connector, err := mysql.NewConnector(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to build mysql connector: %w", err)
	}

	db := sql.OpenDB(connector)
	db.SetMaxIdleConns(4)
	db.SetMaxOpenConns(10)
	db.SetConnMaxLifetime(5 * time.Minute)

	return open(ctx, db, mysqlDialect)
}
