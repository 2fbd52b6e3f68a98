// Package dialect provides the database driver abstraction for quarry.
//
// It defines the interfaces and types used for database-specific
// operations, allowing quarry to support multiple backends including
// PostgreSQL, MySQL, and SQLite.
//
// # Supported Dialects
//
// Each dialect is identified by a constant string:
//
//	dialect.Postgres = "postgres"
//	dialect.MySQL    = "mysql"
//	dialect.SQLite   = "sqlite"
//
// Dialect-variable SQL rendering does not live here; the feature sets in
// dialect/sql carry it. This package only names the dialect and moves
// statements to and from the database.
//
// # Driver Interface
//
// The package defines the Driver interface for database operations:
//
//	type Driver interface {
//	    Exec(ctx context.Context, query string, args, v any) error
//	    Query(ctx context.Context, query string, args, v any) error
//	    Tx(ctx context.Context) (Tx, error)
//	    Close() error
//	    Dialect() string
//	}
//
// The Tx interface wraps Exec and Query together with Commit and Rollback.
//
// # Logging
//
// Debug wraps any Driver so every outgoing statement is logged through a
// Logger, an interface satisfied by log/slog via SlogLogger:
//
//	drv, _ := sql.Open(dialect.Postgres, dsn)
//	client := quarry.NewClient(dialect.Debug(drv))
package dialect
