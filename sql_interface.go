package magellan

import (
	"context"
	"database/sql"
)

// SqlInterface is the query surface required of a sql database - satisfied by
// *sql.DB, *sql.Tx and *sql.Conn
type SqlInterface interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}
