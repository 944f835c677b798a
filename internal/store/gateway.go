// Package store invokes named database procedures and maps their result
// sets into null-safe rows. All data access in the application goes
// through this gateway; callers never see raw driver errors.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrStore marks any failure originating from the database layer.
// Callers match it with errors.Is and map it to a generic response.
var ErrStore = errors.New("store error")

// callTimeout bounds every procedure call.
const callTimeout = 60 * time.Second

// Gateway executes database procedures over a pgx connection pool.
type Gateway struct {
	db *pgxpool.Pool
}

// New creates a gateway backed by the given pool.
func New(db *pgxpool.Pool) *Gateway {
	return &Gateway{db: db}
}

// Query executes a set-returning procedure and returns its rows.
func (g *Gateway) Query(ctx context.Context, proc string, args ...any) ([]Row, error) {
	ctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	rows, err := g.db.Query(ctx, buildCall(proc, len(args)), args...)
	if err != nil {
		return nil, procError(proc, err)
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	result := make([]Row, 0)

	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, procError(proc, err)
		}

		row := make(Row, len(fields))
		for i, fd := range fields {
			row[fd.Name] = values[i]
		}
		result = append(result, row)
	}

	if err := rows.Err(); err != nil {
		return nil, procError(proc, err)
	}

	return result, nil
}

// QueryValue executes a procedure that returns a single integer value,
// typically the generated id of an inserted row.
func (g *Gateway) QueryValue(ctx context.Context, proc string, args ...any) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	var value int64
	if err := g.db.QueryRow(ctx, buildScalarCall(proc, len(args)), args...).Scan(&value); err != nil {
		return 0, procError(proc, err)
	}

	return value, nil
}

// Exec executes a modifying procedure and returns the number of rows it
// reported as affected.
func (g *Gateway) Exec(ctx context.Context, proc string, args ...any) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	var affected int64
	if err := g.db.QueryRow(ctx, buildScalarCall(proc, len(args)), args...).Scan(&affected); err != nil {
		return 0, procError(proc, err)
	}

	return affected, nil
}

// buildCall renders "SELECT * FROM proc($1, ..., $n)".
func buildCall(proc string, argc int) string {
	return "SELECT * FROM " + proc + placeholders(argc)
}

// buildScalarCall renders "SELECT proc($1, ..., $n)".
func buildScalarCall(proc string, argc int) string {
	return "SELECT " + proc + placeholders(argc)
}

func placeholders(argc int) string {
	if argc == 0 {
		return "()"
	}

	var b strings.Builder
	b.WriteString("(")
	for i := 1; i <= argc; i++ {
		if i > 1 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "$%d", i)
	}
	b.WriteString(")")
	return b.String()
}

// procError wraps a driver failure with the procedure name behind the
// ErrStore sentinel. The driver error text is preserved for logs but
// cannot be matched by callers.
func procError(proc string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrStore, proc, err)
}
