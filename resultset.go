package kadedb

import (
	"encoding/csv"
	"encoding/json"
	"strings"
)

// ResultRow is a single row of a ResultSet, ordered to match its
// ColumnNames/ColumnTypes.
type ResultRow struct {
	Cells []Value
}

// ResultSet is the engine-agnostic output of a query or statement:
// column metadata plus rows, with 1-based cursor iteration matching
// the source engine's Next/Current convention.
type ResultSet struct {
	columnNames []string
	columnTypes []ColumnType
	rows        []ResultRow
	cursor      int // 0 means "before first row"
}

// NewResultSet builds an empty ResultSet with the given column
// metadata.
func NewResultSet(columnNames []string, columnTypes []ColumnType) *ResultSet {
	return &ResultSet{columnNames: columnNames, columnTypes: columnTypes}
}

// ColumnNames returns the result column names in order.
func (rs *ResultSet) ColumnNames() []string { return rs.columnNames }

// ColumnTypes returns the result column types in order.
func (rs *ResultSet) ColumnTypes() []ColumnType { return rs.columnTypes }

// AddRow appends a row. The row's cell count must match ColumnNames;
// callers are responsible for that invariant (AddRow does not
// validate it, mirroring the source's unchecked append).
func (rs *ResultSet) AddRow(cells ...Value) {
	rs.rows = append(rs.rows, ResultRow{Cells: cells})
}

// RowCount returns the number of rows.
func (rs *ResultSet) RowCount() int { return len(rs.rows) }

// Reset rewinds the cursor to before the first row.
func (rs *ResultSet) Reset() { rs.cursor = 0 }

// Next advances the cursor and reports whether a row is now current.
func (rs *ResultSet) Next() bool {
	if rs.cursor >= len(rs.rows) {
		return false
	}
	rs.cursor++
	return rs.cursor <= len(rs.rows)
}

// Current returns the row at the cursor. Valid only after a Next()
// call returned true.
func (rs *ResultSet) Current() ResultRow {
	if rs.cursor < 1 || rs.cursor > len(rs.rows) {
		return ResultRow{}
	}
	return rs.rows[rs.cursor-1]
}

// Row returns the row at 1-based index idx.
func (rs *ResultSet) Row(idx int) (ResultRow, bool) {
	if idx < 1 || idx > len(rs.rows) {
		return ResultRow{}, false
	}
	return rs.rows[idx-1], true
}

// Page returns a zero-based slice of rows [offset, offset+limit) for
// client-side pagination, clamped to the available row count.
func (rs *ResultSet) Page(offset, limit int) []ResultRow {
	if offset < 0 || offset >= len(rs.rows) || limit <= 0 {
		return nil
	}
	end := offset + limit
	if end > len(rs.rows) {
		end = len(rs.rows)
	}
	return rs.rows[offset:end]
}

// CSVOptions configures ToCSV rendering.
type CSVOptions struct {
	Delimiter  rune
	Quote      rune
	AlwaysQuote bool
	Header      bool
}

// DefaultCSVOptions returns comma-delimited, double-quoted CSV with a
// header row, quoting only when required by the field's contents.
func DefaultCSVOptions() CSVOptions {
	return CSVOptions{Delimiter: ',', Quote: '"', Header: true}
}

// ToCSV renders the full result set as CSV text.
func (rs *ResultSet) ToCSV(opts CSVOptions) (string, error) {
	var buf strings.Builder
	w := csv.NewWriter(&buf)
	w.Comma = opts.Delimiter

	if opts.Header {
		if err := w.Write(rs.columnNames); err != nil {
			return "", err
		}
		w.Flush()
	}
	for _, row := range rs.rows {
		record := make([]string, len(row.Cells))
		for i, c := range row.Cells {
			record[i], _ = c.AsString()
		}
		if opts.AlwaysQuote {
			for i, f := range record {
				record[i] = string(opts.Quote) + strings.ReplaceAll(f, string(opts.Quote), string(opts.Quote)+string(opts.Quote)) + string(opts.Quote)
			}
			if _, err := buf.WriteString(strings.Join(record, string(opts.Delimiter)) + "\n"); err != nil {
				return "", err
			}
			continue
		}
		if err := w.Write(record); err != nil {
			return "", err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// JSONMode selects ToJSON's output shape.
type JSONMode int

const (
	// JSONArrayOfObjects renders one JSON object per row, keyed by
	// column name.
	JSONArrayOfObjects JSONMode = iota
	// JSONColumnsAndRows renders {"columns":[...],"types":[...],"rows":[[...]]}.
	JSONColumnsAndRows
)

// ToJSON renders the result set as JSON text in the requested shape.
func (rs *ResultSet) ToJSON(mode JSONMode) ([]byte, error) {
	switch mode {
	case JSONArrayOfObjects:
		out := make([]map[string]any, 0, len(rs.rows))
		for _, row := range rs.rows {
			obj := make(map[string]any, len(rs.columnNames))
			for i, name := range rs.columnNames {
				if i < len(row.Cells) {
					obj[name] = valueToJSONScalar(row.Cells[i])
				}
			}
			out = append(out, obj)
		}
		return json.Marshal(out)
	case JSONColumnsAndRows:
		types := make([]string, len(rs.columnTypes))
		for i, t := range rs.columnTypes {
			types[i] = t.String()
		}
		rows := make([][]any, 0, len(rs.rows))
		for _, row := range rs.rows {
			r := make([]any, len(row.Cells))
			for i, c := range row.Cells {
				r[i] = valueToJSONScalar(c)
			}
			rows = append(rows, r)
		}
		return json.Marshal(map[string]any{
			"columns": rs.columnNames,
			"types":   types,
			"rows":    rows,
		})
	default:
		return nil, NewEngineError(InvalidArgument, "unknown JSON render mode")
	}
}

func valueToJSONScalar(v Value) any {
	switch v.Type() {
	case TypeNull:
		return nil
	case TypeInteger:
		i, _ := v.AsInt()
		return i
	case TypeFloat:
		f, _ := v.AsFloat()
		return f
	case TypeString:
		s, _ := v.AsString()
		return s
	case TypeBoolean:
		b, _ := v.AsBool()
		return b
	default:
		return nil
	}
}
