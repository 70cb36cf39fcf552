package bridge

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"

	"github.com/kadedb/kadedb"
	"github.com/kadedb/kadedb/internal/relational"
)

// DuckDBConfig configures an analytics export destination. DBPath
// empty means an in-memory DuckDB database (useful in tests); a
// non-empty path opens (or creates) a DuckDB file on disk.
type DuckDBConfig struct {
	DBPath         string
	MaxConnections int
}

// DuckDBAnalytics wraps a database/sql handle opened with the DuckDB
// driver, used as a one-shot analytics export sink for relational
// tables.
type DuckDBAnalytics struct {
	db *sql.DB
}

// OpenDuckDBAnalytics opens (or creates) a DuckDB database per cfg.
func OpenDuckDBAnalytics(cfg DuckDBConfig) (*DuckDBAnalytics, error) {
	dsn := cfg.DBPath
	if dsn == "" {
		dsn = ":memory:"
	}
	db, err := sql.Open("duckdb", dsn)
	if err != nil {
		return nil, kadedb.NewEngineError(kadedb.Internal, "open duckdb: %v", err)
	}
	db.SetMaxOpenConns(1)
	if cfg.MaxConnections > 0 {
		db.SetMaxOpenConns(cfg.MaxConnections)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, kadedb.NewEngineError(kadedb.Internal, "ping duckdb: %v", err)
	}
	return &DuckDBAnalytics{db: db}, nil
}

// Close closes the underlying DuckDB handle.
func (a *DuckDBAnalytics) Close() error {
	if a == nil || a.db == nil {
		return nil
	}
	return a.db.Close()
}

func duckDBColumnType(t kadedb.ColumnType) string {
	switch t {
	case kadedb.ColInteger:
		return "BIGINT"
	case kadedb.ColFloat:
		return "DOUBLE"
	case kadedb.ColBoolean:
		return "BOOLEAN"
	default:
		return "VARCHAR"
	}
}

// ExportTable mirrors a relational table's current contents into a
// DuckDB table of the same name, for ad hoc analytical SQL: it drops
// any existing table of that name, recreates it from src's schema,
// then bulk-inserts every row.
func (b *Bridge) ExportTable(ctx context.Context, a *DuckDBAnalytics, src *relational.Engine, table string) (int, error) {
	schema, err := src.TableSchema(table)
	if err != nil {
		return 0, err
	}
	rows, err := src.Select(table, nil, nil)
	if err != nil {
		return 0, err
	}

	cols := schema.Columns()
	defs := make([]string, len(cols))
	for i, c := range cols {
		defs[i] = fmt.Sprintf("%q %s", c.Name, duckDBColumnType(c.Type))
	}
	placeholders := make([]string, len(cols))
	for i := range placeholders {
		placeholders[i] = "?"
	}
	insert := fmt.Sprintf("INSERT INTO %q VALUES (%s)", table, strings.Join(placeholders, ", "))

	exported := 0
	err = guard(b.duckDBBreaker, func() error {
		if _, err := a.db.ExecContext(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %q", table)); err != nil {
			return kadedb.NewEngineError(kadedb.Internal, "drop duckdb table %q: %v", table, err)
		}
		if _, err := a.db.ExecContext(ctx, fmt.Sprintf("CREATE TABLE %q (%s)", table, strings.Join(defs, ", "))); err != nil {
			return kadedb.NewEngineError(kadedb.Internal, "create duckdb table %q: %v", table, err)
		}
		for _, r := range rows {
			args := make([]any, len(r.Cells))
			for i, c := range r.Cells {
				args[i] = toDuckDBValue(c)
			}
			if _, err := a.db.ExecContext(ctx, insert, args...); err != nil {
				return kadedb.NewEngineError(kadedb.Internal, "insert into duckdb table %q: %v", table, err)
			}
			exported++
		}
		return nil
	})
	if err != nil {
		return exported, wrapCircuitOpen(err)
	}

	b.log.Infow("exported table to duckdb", "table", table, "rows", exported)
	return exported, nil
}

// Query runs an arbitrary analytical statement against a and renders
// the result as a ResultSet, for joins/window functions/GROUP BY that
// KadeQL itself does not support. Each column's declared ColumnType is
// taken from the first non-null value seen in that column; an
// all-null column defaults to ColString.
func (a *DuckDBAnalytics) Query(ctx context.Context, query string) (*kadedb.ResultSet, error) {
	rows, err := a.db.QueryContext(ctx, query)
	if err != nil {
		return nil, kadedb.NewEngineError(kadedb.Internal, "duckdb query: %v", err)
	}
	defer rows.Close()

	names, err := rows.Columns()
	if err != nil {
		return nil, kadedb.NewEngineError(kadedb.Internal, "read duckdb result columns: %v", err)
	}

	colTypes := make([]kadedb.ColumnType, len(names))
	decided := make([]bool, len(names))
	for i := range colTypes {
		colTypes[i] = kadedb.ColString
	}

	var cellRows [][]kadedb.Value
	for rows.Next() {
		dest := make([]any, len(names))
		ptrs := make([]any, len(names))
		for i := range dest {
			ptrs[i] = &dest[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, kadedb.NewEngineError(kadedb.Internal, "scan duckdb row %d: %v", len(cellRows), err)
		}
		cells := make([]kadedb.Value, len(dest))
		for i, v := range dest {
			if !decided[i] && v != nil {
				colTypes[i] = duckDBGoType(v)
				decided[i] = true
			}
			cells[i] = duckDBValueToKade(v)
		}
		cellRows = append(cellRows, cells)
	}
	if err := rows.Err(); err != nil {
		return nil, kadedb.NewEngineError(kadedb.Internal, "iterate duckdb rows: %v", err)
	}

	rs := kadedb.NewResultSet(names, colTypes)
	for _, cells := range cellRows {
		rs.AddRow(cells...)
	}
	return rs, nil
}

func duckDBGoType(v any) kadedb.ColumnType {
	switch v.(type) {
	case int64, int32, int:
		return kadedb.ColInteger
	case float64, float32:
		return kadedb.ColFloat
	case bool:
		return kadedb.ColBoolean
	default:
		return kadedb.ColString
	}
}

func duckDBValueToKade(v any) kadedb.Value {
	if v == nil {
		return kadedb.NewNull()
	}
	switch n := v.(type) {
	case int64:
		return kadedb.NewInteger(n)
	case int32:
		return kadedb.NewInteger(int64(n))
	case float64:
		return kadedb.NewFloat(n)
	case float32:
		return kadedb.NewFloat(float64(n))
	case bool:
		return kadedb.NewBoolean(n)
	case string:
		return kadedb.NewString(n)
	case []byte:
		return kadedb.NewString(string(n))
	case time.Time:
		return kadedb.NewString(n.Format(time.RFC3339))
	default:
		return kadedb.NewString(fmt.Sprintf("%v", n))
	}
}

func toDuckDBValue(v kadedb.Value) any {
	if v.IsNull() {
		return nil
	}
	switch v.Type() {
	case kadedb.TypeInteger:
		i, _ := v.AsInt()
		return i
	case kadedb.TypeFloat:
		f, _ := v.AsFloat()
		return f
	case kadedb.TypeBoolean:
		bv, _ := v.AsBool()
		return bv
	default:
		s, _ := v.AsString()
		return s
	}
}
