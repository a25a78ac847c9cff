package introspect

import (
	"context"
	"fmt"
	"strings"

	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
)

// MySQLClient manages the connection to MySQL.
type MySQLClient struct {
	db *sqlx.DB
}

// NewMySQLClient connects to MySQL and verifies the connection.
func NewMySQLClient(ctx context.Context, connString string) (*MySQLClient, error) {
	db, err := sqlx.Open("mysql", connString)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return &MySQLClient{db: db}, nil
}

// Close closes the database connection.
func (c *MySQLClient) Close() error {
	return c.db.Close()
}

// DB returns the underlying database handle.
func (c *MySQLClient) DB() *sqlx.DB {
	return c.db
}

// ParseDatabaseName extracts the database name from a MySQL DSN of the form
// user:pass@tcp(host:port)/dbname?params.
func ParseDatabaseName(connString string) (string, error) {
	slash := strings.LastIndex(connString, "/")
	if slash < 0 || slash == len(connString)-1 {
		return "", fmt.Errorf("connection string has no database name")
	}
	name := connString[slash+1:]
	if q := strings.Index(name, "?"); q >= 0 {
		name = name[:q]
	}
	if name == "" {
		return "", fmt.Errorf("connection string has no database name")
	}
	return name, nil
}
