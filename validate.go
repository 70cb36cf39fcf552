package kadedb

import "fmt"

// valueMatchesType reports whether v's dynamic type is acceptable for
// column type t. Float columns additionally accept Integer values
// (widening, never narrowing): an Integer cell in a Float column is
// valid, but not vice versa.
func valueMatchesType(v Value, t ColumnType) bool {
	switch t {
	case ColInteger:
		return v.Type() == TypeInteger
	case ColFloat:
		return v.Type() == TypeFloat || v.Type() == TypeInteger
	case ColString:
		return v.Type() == TypeString
	case ColBoolean:
		return v.Type() == TypeBoolean
	default:
		return false
	}
}

// checkConstraints applies a Column's Constraints to a non-null value
// already known to match the column's type. Returns a description of
// the first violated constraint, or "" if none are violated.
func checkConstraints(v Value, c Constraints) string {
	if v.Type() == TypeString {
		s, _ := v.AsString()
		if c.MinLength != nil && len(s) < *c.MinLength {
			return fmt.Sprintf("length %d is below minLength %d", len(s), *c.MinLength)
		}
		if c.MaxLength != nil && len(s) > *c.MaxLength {
			return fmt.Sprintf("length %d exceeds maxLength %d", len(s), *c.MaxLength)
		}
	}
	if len(c.OneOf) > 0 {
		found := false
		for _, allowed := range c.OneOf {
			if v.Equals(allowed) {
				found = true
				break
			}
		}
		if !found {
			return "value is not one of the allowed values"
		}
	}
	if v.Type() == TypeInteger || v.Type() == TypeFloat {
		f, _ := v.AsFloat()
		if c.MinValue != nil && f < *c.MinValue {
			return fmt.Sprintf("value %v is below minValue %v", f, *c.MinValue)
		}
		if c.MaxValue != nil && f > *c.MaxValue {
			return fmt.Sprintf("value %v exceeds maxValue %v", f, *c.MaxValue)
		}
	}
	return ""
}

// ValidateRow checks row against schema: arity, per-column type
// (with Integer->Float widening), nullability, and constraints.
// Returns "" when the row is valid.
func ValidateRow(schema *TableSchema, row *Row) string {
	cols := schema.Columns()
	if len(row.Cells) != len(cols) {
		return fmt.Sprintf("row has %d cells, schema has %d columns", len(row.Cells), len(cols))
	}
	for i, col := range cols {
		v := row.Cells[i]
		if v.IsNull() {
			if !col.Nullable {
				return fmt.Sprintf("column %q is not nullable", col.Name)
			}
			continue
		}
		if !valueMatchesType(v, col.Type) {
			return fmt.Sprintf("column %q expects %s, got %s", col.Name, col.Type, v.Type())
		}
		if msg := checkConstraints(v, col.Constraints); msg != "" {
			return fmt.Sprintf("column %q: %s", col.Name, msg)
		}
	}
	return ""
}

// ValidateDocument checks doc against schema: required fields present
// and non-null unless nullable, declared fields type/constraint
// checked when present, unknown fields ignored.
func ValidateDocument(schema *DocumentSchema, doc *Document) string {
	for _, col := range schema.Fields() {
		v, present := doc.Fields[col.Name]
		if !present || v.IsNull() {
			if present && v.IsNull() && !col.Nullable {
				return fmt.Sprintf("field %q is not nullable", col.Name)
			}
			if !present && !col.Nullable {
				return fmt.Sprintf("field %q is required", col.Name)
			}
			continue
		}
		if !valueMatchesType(v, col.Type) {
			return fmt.Sprintf("field %q expects %s, got %s", col.Name, col.Type, v.Type())
		}
		if msg := checkConstraints(v, col.Constraints); msg != "" {
			return fmt.Sprintf("field %q: %s", col.Name, msg)
		}
	}
	return ""
}

// ValidateRowsAgainstSchema runs ValidateRow over every row in rows,
// returning the first failure found, or "" if all rows are valid.
// Used by engines that must validate a whole candidate table (e.g.
// after a bulk update) before committing it.
func ValidateRowsAgainstSchema(schema *TableSchema, rows []*Row) string {
	for i, r := range rows {
		if msg := ValidateRow(schema, r); msg != "" {
			return fmt.Sprintf("row %d: %s", i, msg)
		}
	}
	return ""
}

// ValidateUnique checks that no two rows share the same value in any
// column marked Unique. ignoreNulls controls whether two null cells
// in a unique column count as a collision: when false, null is
// treated as a single sentinel value and the first row with a null in
// a unique column "claims" it, so a second null collides; when true,
// nulls are never compared. Returns "" when no collision is found.
func ValidateUnique(schema *TableSchema, rows []*Row, ignoreNulls bool) string {
	for ci, col := range schema.Columns() {
		if !col.Unique {
			continue
		}
		seen := make(map[string]int, len(rows))
		for ri, row := range rows {
			v := row.Cells[ci]
			var key string
			if v.IsNull() {
				if ignoreNulls {
					continue
				}
				key = "<null>"
			} else {
				key = v.Type().String() + ":" + v.String()
			}
			if first, dup := seen[key]; dup {
				return fmt.Sprintf("column %q: rows %d and %d both have value %q", col.Name, first, ri, v.String())
			}
			seen[key] = ri
		}
	}
	return ""
}

// ValidateDocumentUnique is the document-store analogue of
// ValidateUnique, comparing declared-unique fields across documents
// keyed by collection key.
func ValidateDocumentUnique(schema *DocumentSchema, docs map[string]*Document, ignoreNulls bool) string {
	for _, col := range schema.Fields() {
		if !col.Unique {
			continue
		}
		seen := make(map[string]string, len(docs))
		for key, doc := range docs {
			v, present := doc.Fields[col.Name]
			var cmpKey string
			if !present || v.IsNull() {
				if ignoreNulls {
					continue
				}
				cmpKey = "<null>"
			} else {
				cmpKey = v.Type().String() + ":" + v.String()
			}
			if firstKey, dup := seen[cmpKey]; dup {
				return fmt.Sprintf("field %q: documents %q and %q both have value %q", col.Name, firstKey, key, cmpKey)
			}
			seen[cmpKey] = key
		}
	}
	return ""
}
