package repo

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// fakeSQL is an infra.SQLExecutor recording statements and answering with
// canned results, in the same spirit as the handler tests upstream of it.
type fakeSQL struct {
	execs   []statement
	queries []statement
	execTag pgconn.CommandTag
	execErr error
	// scanQueue answers successive QueryRow calls in order and takes
	// precedence over scanFunc; scanFunc answers every call the same way.
	scanQueue []func(dest ...any) error
	scanFunc  func(dest ...any) error
}

type statement struct {
	query string
	args  []any
}

func (f *fakeSQL) Exec(_ context.Context, query string, args ...any) (pgconn.CommandTag, error) {
	f.execs = append(f.execs, statement{query: query, args: args})
	return f.execTag, f.execErr
}

func (f *fakeSQL) QueryRow(_ context.Context, query string, args ...any) pgx.Row {
	f.queries = append(f.queries, statement{query: query, args: args})
	if len(f.scanQueue) > 0 {
		scan := f.scanQueue[0]
		f.scanQueue = f.scanQueue[1:]
		return simpleRow{scan: scan}
	}
	return simpleRow{scan: f.scanFunc}
}

func (f *fakeSQL) Query(_ context.Context, query string, args ...any) (pgx.Rows, error) {
	f.queries = append(f.queries, statement{query: query, args: args})
	return nil, pgx.ErrNoRows
}

type simpleRow struct {
	scan func(dest ...any) error
}

func (r simpleRow) Scan(dest ...any) error {
	if r.scan == nil {
		return pgx.ErrNoRows
	}
	return r.scan(dest...)
}
