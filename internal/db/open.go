package db

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// OpenSQL opens a database/sql pool for the named engine and checks it is reachable
func OpenSQL(ctx context.Context, engine, dsn string) (*sql.DB, error) {
	var (
		driver string
		err    error
	)

	switch engine {
	case "postgres":
		driver = "pgx"
	case "mysql":
		driver = "mysql"
		if dsn, err = MySQLDSN(dsn); err != nil {
			return nil, err
		}
	case "sqlite":
		driver = "sqlite3"
		dsn = SQLiteDSN(dsn)
	default:
		return nil, fmt.Errorf("unsupported database type: %s", engine)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}
