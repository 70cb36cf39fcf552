package bridge

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/kadedb/kadedb"
	"github.com/kadedb/kadedb/internal/relational"
)

// PgQuerier is the minimal pool surface ImportPostgresTable needs. It
// matches both *pgxpool.Pool and pgxmock-backed pools used in tests.
type PgQuerier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// ImportPostgresTable bulk-loads sourceTable from pool into an
// already-created destTable in dest, column-for-column in destTable's
// schema order. Each source row is scanned into a []any of the right
// width and converted through fromPgValue before being inserted; a row
// that fails schema validation aborts the import and returns the
// number of rows successfully inserted before it.
func (b *Bridge) ImportPostgresTable(ctx context.Context, pool PgQuerier, sourceTable string, dest *relational.Engine, destTable string) (int, error) {
	schema, err := dest.TableSchema(destTable)
	if err != nil {
		return 0, err
	}
	cols := schema.Columns()
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.Name
	}

	imported := 0
	query := fmt.Sprintf("SELECT %s FROM %s", strings.Join(names, ", "), sourceTable)
	err = guard(b.pgBreaker, func() error {
		rows, err := pool.Query(ctx, query)
		if err != nil {
			return kadedb.NewEngineError(kadedb.Internal, "query postgres source table %q: %v", sourceTable, err)
		}
		defer rows.Close()

		for rows.Next() {
			dests := make([]any, len(cols))
			ptrs := make([]any, len(cols))
			for i := range dests {
				ptrs[i] = &dests[i]
			}
			if err := rows.Scan(ptrs...); err != nil {
				return kadedb.NewEngineError(kadedb.Internal, "scan row %d from %q: %v", imported, sourceTable, err)
			}

			cells := make([]kadedb.Value, len(cols))
			for i, c := range cols {
				cells[i] = fromPgValue(dests[i], c.Type)
			}
			if err := dest.InsertRow(destTable, &kadedb.Row{Cells: cells}); err != nil {
				return err
			}
			imported++
		}
		return rows.Err()
	})
	if err != nil {
		return imported, wrapCircuitOpen(err)
	}

	b.log.Infow("imported postgres table", "source", sourceTable, "dest", destTable, "rows", imported)
	return imported, nil
}

// fromPgValue converts a pgx-scanned driver value to the Value type
// want expects, widening/narrowing numerics the way KadeQL's literal
// parser does.
func fromPgValue(v any, want kadedb.ColumnType) kadedb.Value {
	if v == nil {
		return kadedb.NewNull()
	}
	switch want {
	case kadedb.ColInteger:
		switch n := v.(type) {
		case int64:
			return kadedb.NewInteger(n)
		case int32:
			return kadedb.NewInteger(int64(n))
		case float64:
			return kadedb.NewInteger(int64(n))
		}
	case kadedb.ColFloat:
		switch n := v.(type) {
		case float64:
			return kadedb.NewFloat(n)
		case int64:
			return kadedb.NewFloat(float64(n))
		}
	case kadedb.ColBoolean:
		if n, ok := v.(bool); ok {
			return kadedb.NewBoolean(n)
		}
	case kadedb.ColString:
		if s, ok := v.(string); ok {
			return kadedb.NewString(s)
		}
	}
	return kadedb.NewString(fmt.Sprintf("%v", v))
}

// ImportPostgresQuery is the database/sql + lib/pq counterpart to
// ImportPostgresTable, for callers who prefer the standard-library
// driver over pgx's native pool. Unlike ImportPostgresTable it takes
// an arbitrary caller-supplied query rather than a fixed table name,
// so destTable's schema cannot be known in advance: it is created
// fresh, inferring each column's type from the first non-null value
// seen in that column across the query's result rows (columns that
// are all-null default to ColString). destTable must not already
// exist in dest.
func (b *Bridge) ImportPostgresQuery(ctx context.Context, db *sql.DB, query string, dest *relational.Engine, destTable string) (int, error) {
	var colNames []string
	var raw [][]any
	err := guard(b.pgBreaker, func() error {
		rows, err := db.QueryContext(ctx, query)
		if err != nil {
			return kadedb.NewEngineError(kadedb.Internal, "query postgres: %v", err)
		}
		defer rows.Close()

		colNames, err = rows.Columns()
		if err != nil {
			return kadedb.NewEngineError(kadedb.Internal, "read postgres result columns: %v", err)
		}
		for rows.Next() {
			dests := make([]any, len(colNames))
			ptrs := make([]any, len(colNames))
			for i := range dests {
				ptrs[i] = &dests[i]
			}
			if err := rows.Scan(ptrs...); err != nil {
				return kadedb.NewEngineError(kadedb.Internal, "scan postgres row %d: %v", len(raw), err)
			}
			raw = append(raw, dests)
		}
		return rows.Err()
	})
	if err != nil {
		return 0, wrapCircuitOpen(err)
	}

	types := inferColumnTypes(colNames, raw)
	cols := make([]kadedb.Column, len(colNames))
	for i, name := range colNames {
		cols[i] = kadedb.Column{Name: name, Type: types[i], Nullable: true}
	}
	schema := kadedb.NewTableSchema(cols)
	if err := dest.CreateTable(destTable, schema); err != nil {
		return 0, err
	}

	imported := 0
	for _, row := range raw {
		cells := make([]kadedb.Value, len(cols))
		for i, v := range row {
			cells[i] = fromPgValue(v, types[i])
		}
		if err := dest.InsertRow(destTable, &kadedb.Row{Cells: cells}); err != nil {
			return imported, err
		}
		imported++
	}

	b.log.Infow("imported postgres query", "dest", destTable, "rows", imported)
	return imported, nil
}

// inferColumnTypes picks one ColumnType per column from the first
// non-null value observed in that column; an all-null column defaults
// to ColString since kadedb.Column has no untyped/dynamic variant.
func inferColumnTypes(names []string, rows [][]any) []kadedb.ColumnType {
	types := make([]kadedb.ColumnType, len(names))
	decided := make([]bool, len(names))
	for i := range types {
		types[i] = kadedb.ColString
	}
	for _, row := range rows {
		for i, v := range row {
			if decided[i] || v == nil {
				continue
			}
			switch v.(type) {
			case int64, int32, int:
				types[i] = kadedb.ColInteger
			case float64, float32:
				types[i] = kadedb.ColFloat
			case bool:
				types[i] = kadedb.ColBoolean
			default:
				types[i] = kadedb.ColString
			}
			decided[i] = true
		}
	}
	return types
}
