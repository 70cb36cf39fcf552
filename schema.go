package kadedb

import "fmt"

// ColumnType restricts a Column to one of the four scalar Value
// kinds; a column never holds Null as its declared type (nullability
// is controlled separately by Column.Nullable).
type ColumnType int

const (
	ColInteger ColumnType = iota
	ColFloat
	ColString
	ColBoolean
)

func (t ColumnType) String() string {
	switch t {
	case ColInteger:
		return "integer"
	case ColFloat:
		return "float"
	case ColString:
		return "string"
	case ColBoolean:
		return "boolean"
	default:
		return "unknown"
	}
}

// Constraints narrows the set of values a column accepts beyond its
// type. Each field is optional (nil/zero means "not constrained").
type Constraints struct {
	MinLength *int
	MaxLength *int
	OneOf     []Value
	MinValue  *float64
	MaxValue  *float64
}

// Column describes one field of a TableSchema or DocumentSchema.
type Column struct {
	Name        string      `json:"name"`
	Type        ColumnType  `json:"type"`
	Nullable    bool        `json:"nullable"`
	Unique      bool        `json:"unique"`
	Constraints Constraints `json:"constraints,omitempty"`
}

// TableSchema describes the ordered columns of a relational table and,
// optionally, which column is its primary key.
type TableSchema struct {
	columns    []Column
	index      map[string]int
	primaryKey string
	hasPK      bool
}

// NewTableSchema builds a TableSchema from an ordered column list.
func NewTableSchema(columns []Column) *TableSchema {
	ts := &TableSchema{index: make(map[string]int, len(columns))}
	for _, c := range columns {
		ts.columns = append(ts.columns, c)
		ts.index[c.Name] = len(ts.columns) - 1
	}
	return ts
}

// Columns returns the ordered column list. The returned slice must
// not be mutated by the caller.
func (ts *TableSchema) Columns() []Column { return ts.columns }

// ColumnCount returns the number of columns.
func (ts *TableSchema) ColumnCount() int { return len(ts.columns) }

// GetColumn looks up a column by name.
func (ts *TableSchema) GetColumn(name string) (Column, bool) {
	i, ok := ts.index[name]
	if !ok {
		return Column{}, false
	}
	return ts.columns[i], true
}

// ColumnIndex returns the ordinal position of name, or -1.
func (ts *TableSchema) ColumnIndex(name string) int {
	if i, ok := ts.index[name]; ok {
		return i
	}
	return -1
}

// AddColumn appends a new column. Returns an error if the name is
// already used.
func (ts *TableSchema) AddColumn(c Column) error {
	if _, exists := ts.index[c.Name]; exists {
		return fmt.Errorf("column %q already exists", c.Name)
	}
	ts.columns = append(ts.columns, c)
	ts.index[c.Name] = len(ts.columns) - 1
	return nil
}

// RemoveColumn drops a column by name. Clears the primary key marker
// if it pointed at the removed column.
func (ts *TableSchema) RemoveColumn(name string) error {
	i, ok := ts.index[name]
	if !ok {
		return fmt.Errorf("column %q does not exist", name)
	}
	ts.columns = append(ts.columns[:i], ts.columns[i+1:]...)
	delete(ts.index, name)
	for n, idx := range ts.index {
		if idx > i {
			ts.index[n] = idx - 1
		}
	}
	if ts.hasPK && ts.primaryKey == name {
		ts.hasPK = false
		ts.primaryKey = ""
	}
	return nil
}

// SetPrimaryKey marks an existing column as the table's primary key.
func (ts *TableSchema) SetPrimaryKey(name string) error {
	if _, ok := ts.index[name]; !ok {
		return fmt.Errorf("primary key column %q does not exist", name)
	}
	ts.primaryKey = name
	ts.hasPK = true
	return nil
}

// PrimaryKey returns the primary key column name and whether one is set.
func (ts *TableSchema) PrimaryKey() (string, bool) { return ts.primaryKey, ts.hasPK }

// DocumentSchema describes the named, optionally-required fields of a
// document collection. Unlike TableSchema it has no fixed arity or
// ordering: unknown fields on a document are ignored, not rejected.
type DocumentSchema struct {
	fields map[string]Column
	order  []string
}

// NewDocumentSchema builds a DocumentSchema from a field list.
func NewDocumentSchema(fields []Column) *DocumentSchema {
	ds := &DocumentSchema{fields: make(map[string]Column, len(fields))}
	for _, f := range fields {
		ds.fields[f.Name] = f
		ds.order = append(ds.order, f.Name)
	}
	return ds
}

// GetField looks up a field definition by name.
func (ds *DocumentSchema) GetField(name string) (Column, bool) {
	c, ok := ds.fields[name]
	return c, ok
}

// Fields returns the field definitions in declaration order.
func (ds *DocumentSchema) Fields() []Column {
	out := make([]Column, 0, len(ds.order))
	for _, n := range ds.order {
		out = append(out, ds.fields[n])
	}
	return out
}

// AddField adds a new field definition.
func (ds *DocumentSchema) AddField(c Column) error {
	if _, exists := ds.fields[c.Name]; exists {
		return fmt.Errorf("field %q already exists", c.Name)
	}
	ds.fields[c.Name] = c
	ds.order = append(ds.order, c.Name)
	return nil
}

// RemoveField drops a field definition by name.
func (ds *DocumentSchema) RemoveField(name string) error {
	if _, ok := ds.fields[name]; !ok {
		return fmt.Errorf("field %q does not exist", name)
	}
	delete(ds.fields, name)
	for i, n := range ds.order {
		if n == name {
			ds.order = append(ds.order[:i], ds.order[i+1:]...)
			break
		}
	}
	return nil
}

// TimePartition selects how a time-series engine buckets rows by
// timestamp for retention and storage locality.
type TimePartition int

const (
	PartitionHourly TimePartition = iota
	PartitionDaily
)

// RetentionPolicy bounds how long or how much data a time series
// keeps. A zero MaxAge/MaxRows means "unbounded" for that dimension.
// MaxRows is only enforced when DropOldest is set; without it a
// series is allowed to grow past MaxRows rather than silently losing
// rows a caller didn't ask to evict.
type RetentionPolicy struct {
	MaxAge     int64 // seconds; 0 = unbounded
	MaxRows    int   // 0 = unbounded
	DropOldest bool
}

// TimeSeriesSchema describes a time series: its timestamp column name,
// bucketing granularity, tag columns (dimensions, usually Strings),
// value columns (measurements, usually numeric), and retention.
type TimeSeriesSchema struct {
	TimestampColumn string
	Partition       TimePartition
	Retention       RetentionPolicy
	tags            []Column
	values          []Column
}

// NewTimeSeriesSchema builds a TimeSeriesSchema. The timestamp column
// is always Integer and non-nullable regardless of what is passed.
func NewTimeSeriesSchema(timestampColumn string, partition TimePartition, retention RetentionPolicy) *TimeSeriesSchema {
	return &TimeSeriesSchema{
		TimestampColumn: timestampColumn,
		Partition:       partition,
		Retention:       retention,
	}
}

// AddTagColumn appends a dimension column.
func (ts *TimeSeriesSchema) AddTagColumn(c Column) { ts.tags = append(ts.tags, c) }

// AddValueColumn appends a measurement column.
func (ts *TimeSeriesSchema) AddValueColumn(c Column) { ts.values = append(ts.values, c) }

// TagColumns returns the tag (dimension) columns.
func (ts *TimeSeriesSchema) TagColumns() []Column { return ts.tags }

// ValueColumns returns the value (measurement) columns.
func (ts *TimeSeriesSchema) ValueColumns() []Column { return ts.values }

// AllColumns derives the equivalent TableSchema column list: the
// timestamp column (Integer, non-nullable) followed by tags then
// values, in declaration order.
func (ts *TimeSeriesSchema) AllColumns() []Column {
	out := make([]Column, 0, 1+len(ts.tags)+len(ts.values))
	out = append(out, Column{Name: ts.TimestampColumn, Type: ColInteger, Nullable: false})
	out = append(out, ts.tags...)
	out = append(out, ts.values...)
	return out
}

// ToTableSchema derives the relational TableSchema a time series is
// backed by.
func (ts *TimeSeriesSchema) ToTableSchema() *TableSchema {
	return NewTableSchema(ts.AllColumns())
}
