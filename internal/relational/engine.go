// Package relational implements the in-memory relational storage
// engine: fixed-schema tables of Rows, addressed by name, guarded by a
// single mutex per Engine instance.
package relational

import (
	"sort"
	"sync"

	"github.com/kadedb/kadedb"
)

type table struct {
	schema *kadedb.TableSchema
	rows   []*kadedb.Row
}

// Engine is the in-memory relational storage engine described by the
// embedding contract: one mutex serializes every operation, and a
// failed write leaves the table exactly as it was before the call
// (computed on a copy, then swapped in only on success).
type Engine struct {
	mu     sync.Mutex
	tables map[string]*table
}

// NewEngine returns an empty Engine.
func NewEngine() *Engine {
	return &Engine{tables: make(map[string]*table)}
}

// CreateTable registers a new table under name with the given schema.
func (e *Engine) CreateTable(name string, schema *kadedb.TableSchema) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, exists := e.tables[name]; exists {
		return kadedb.NewEngineError(kadedb.AlreadyExists, "table %q already exists", name).
			WithEntity(kadedb.EntityRef{Store: "relational", Name: name}).
			WithOperation("createTable")
	}
	e.tables[name] = &table{schema: schema}
	return nil
}

// DropTable removes a table and all of its rows.
func (e *Engine) DropTable(name string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, exists := e.tables[name]; !exists {
		return tableNotFound(name, "dropTable")
	}
	delete(e.tables, name)
	return nil
}

// ListTables returns table names in sorted order.
func (e *Engine) ListTables() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]string, 0, len(e.tables))
	for name := range e.tables {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// TableSchema returns the schema registered for name.
func (e *Engine) TableSchema(name string) (*kadedb.TableSchema, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	t, ok := e.tables[name]
	if !ok {
		return nil, tableNotFound(name, "tableSchema")
	}
	return t.schema, nil
}

// InsertRow validates row against the table's schema (including the
// table's uniqueness constraints against existing rows) and appends
// it only if validation succeeds.
func (e *Engine) InsertRow(table_ string, row *kadedb.Row) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	t, ok := e.tables[table_]
	if !ok {
		return tableNotFound(table_, "insertRow")
	}
	if msg := kadedb.ValidateRow(t.schema, row); msg != "" {
		return kadedb.NewEngineError(kadedb.InvalidArgument, "%s", msg).
			WithEntity(kadedb.EntityRef{Store: "relational", Name: table_}).
			WithOperation("insertRow")
	}
	candidate := append(append([]*kadedb.Row{}, t.rows...), row.Clone())
	if msg := kadedb.ValidateUnique(t.schema, candidate, true); msg != "" {
		return kadedb.NewEngineError(kadedb.FailedPrecondition, "%s", msg).
			WithEntity(kadedb.EntityRef{Store: "relational", Name: table_}).
			WithOperation("insertRow")
	}
	t.rows = candidate
	return nil
}

// Select returns a deep copy of every row matching pred (a nil
// predicate matches everything), restricted to the named columns when
// columns is non-empty.
func (e *Engine) Select(table_ string, columns []string, pred *kadedb.Predicate) ([]*kadedb.Row, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	t, ok := e.tables[table_]
	if !ok {
		return nil, tableNotFound(table_, "select")
	}

	var idxs []int
	if len(columns) > 0 {
		idxs = make([]int, len(columns))
		for i, c := range columns {
			idx := t.schema.ColumnIndex(c)
			if idx < 0 {
				return nil, kadedb.NewEngineError(kadedb.InvalidArgument, "unknown column %q", c).
					WithEntity(kadedb.EntityRef{Store: "relational", Name: table_}).
					WithOperation("select")
			}
			idxs[i] = idx
		}
	}

	var out []*kadedb.Row
	for _, r := range t.rows {
		if pred != nil && !pred.Eval(t.schema, r) {
			continue
		}
		if idxs == nil {
			out = append(out, r.Clone())
			continue
		}
		cells := make([]kadedb.Value, len(idxs))
		for i, idx := range idxs {
			cells[i] = r.Cells[idx].Clone()
		}
		out = append(out, &kadedb.Row{Cells: cells})
	}
	return out, nil
}

// UpdateRows applies set (column -> new value) to every row matching
// pred, validating the would-be table as a whole before committing
// any change.
func (e *Engine) UpdateRows(table_ string, pred *kadedb.Predicate, set map[string]kadedb.Value) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	t, ok := e.tables[table_]
	if !ok {
		return 0, tableNotFound(table_, "updateRows")
	}

	idxSet := make(map[int]kadedb.Value, len(set))
	for name, v := range set {
		idx := t.schema.ColumnIndex(name)
		if idx < 0 {
			return 0, kadedb.NewEngineError(kadedb.InvalidArgument, "unknown column %q", name).
				WithEntity(kadedb.EntityRef{Store: "relational", Name: table_}).
				WithOperation("updateRows")
		}
		idxSet[idx] = v
	}

	candidate := make([]*kadedb.Row, len(t.rows))
	affected := 0
	for i, r := range t.rows {
		if pred == nil || pred.Eval(t.schema, r) {
			updated := r.Clone()
			for idx, v := range idxSet {
				updated.Cells[idx] = v.Clone()
			}
			candidate[i] = updated
			affected++
		} else {
			candidate[i] = r
		}
	}
	if msg := kadedb.ValidateRowsAgainstSchema(t.schema, candidate); msg != "" {
		return 0, kadedb.NewEngineError(kadedb.InvalidArgument, "%s", msg).
			WithEntity(kadedb.EntityRef{Store: "relational", Name: table_}).
			WithOperation("updateRows")
	}
	if msg := kadedb.ValidateUnique(t.schema, candidate, true); msg != "" {
		return 0, kadedb.NewEngineError(kadedb.FailedPrecondition, "%s", msg).
			WithEntity(kadedb.EntityRef{Store: "relational", Name: table_}).
			WithOperation("updateRows")
	}
	t.rows = candidate
	return affected, nil
}

// RowUpdater computes replacement cell values for a single matching
// row during UpdateRowsWith. It receives the table's schema and a
// clone of the matching row, and returns the full set of column-index
// to new-value replacements to apply to that row.
type RowUpdater func(schema *kadedb.TableSchema, row *kadedb.Row) (map[int]kadedb.Value, error)

// UpdateRowsWith is the computed-expression counterpart to UpdateRows:
// update is invoked once per row matching pred, and the whole
// candidate table is validated before any change commits.
func (e *Engine) UpdateRowsWith(table_ string, pred *kadedb.Predicate, update RowUpdater) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	t, ok := e.tables[table_]
	if !ok {
		return 0, tableNotFound(table_, "updateRows")
	}

	candidate := make([]*kadedb.Row, len(t.rows))
	affected := 0
	for i, r := range t.rows {
		if pred == nil || pred.Eval(t.schema, r) {
			updated := r.Clone()
			sets, err := update(t.schema, updated)
			if err != nil {
				return 0, err
			}
			for idx, v := range sets {
				updated.Cells[idx] = v.Clone()
			}
			candidate[i] = updated
			affected++
		} else {
			candidate[i] = r
		}
	}
	if msg := kadedb.ValidateRowsAgainstSchema(t.schema, candidate); msg != "" {
		return 0, kadedb.NewEngineError(kadedb.InvalidArgument, "%s", msg).
			WithEntity(kadedb.EntityRef{Store: "relational", Name: table_}).
			WithOperation("updateRows")
	}
	if msg := kadedb.ValidateUnique(t.schema, candidate, true); msg != "" {
		return 0, kadedb.NewEngineError(kadedb.FailedPrecondition, "%s", msg).
			WithEntity(kadedb.EntityRef{Store: "relational", Name: table_}).
			WithOperation("updateRows")
	}
	t.rows = candidate
	return affected, nil
}

// DeleteRows removes every row matching pred (a nil predicate matches
// everything) and reports how many were removed.
func (e *Engine) DeleteRows(table_ string, pred *kadedb.Predicate) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	t, ok := e.tables[table_]
	if !ok {
		return 0, tableNotFound(table_, "deleteRows")
	}
	var kept []*kadedb.Row
	removed := 0
	for _, r := range t.rows {
		if pred == nil || pred.Eval(t.schema, r) {
			removed++
			continue
		}
		kept = append(kept, r)
	}
	t.rows = kept
	return removed, nil
}

// TruncateTable removes every row from table_ without dropping its schema.
func (e *Engine) TruncateTable(table_ string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	t, ok := e.tables[table_]
	if !ok {
		return tableNotFound(table_, "truncateTable")
	}
	t.rows = nil
	return nil
}

func tableNotFound(name, op string) error {
	return kadedb.NewEngineError(kadedb.NotFound, "table %q does not exist", name).
		WithEntity(kadedb.EntityRef{Store: "relational", Name: name}).
		WithOperation(op)
}
