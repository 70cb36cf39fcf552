package kadedb

import (
	"encoding/json"
	"fmt"
)

// jsonValue is the wire shape for Value's JSON form: a short type tag
// plus the raw value, matching the source serializer's {"t":...,"v":...}
// convention.
type jsonValue struct {
	T string          `json:"t"`
	V json.RawMessage `json:"v,omitempty"`
}

// MarshalJSON implements json.Marshaler for Value.
func (v Value) MarshalJSON() ([]byte, error) {
	jv := jsonValue{T: v.Type().String()}
	switch v.Type() {
	case TypeNull:
		// no payload
	case TypeInteger:
		i, _ := v.AsInt()
		raw, err := json.Marshal(i)
		if err != nil {
			return nil, err
		}
		jv.V = raw
	case TypeFloat:
		f, _ := v.AsFloat()
		raw, err := json.Marshal(f)
		if err != nil {
			return nil, err
		}
		jv.V = raw
	case TypeString:
		s, _ := v.AsString()
		raw, err := json.Marshal(s)
		if err != nil {
			return nil, err
		}
		jv.V = raw
	case TypeBoolean:
		b, _ := v.AsBool()
		raw, err := json.Marshal(b)
		if err != nil {
			return nil, err
		}
		jv.V = raw
	default:
		return nil, fmt.Errorf("marshal: unknown value type %d", v.Type())
	}
	return json.Marshal(jv)
}

// UnmarshalJSON implements json.Unmarshaler for Value.
func (v *Value) UnmarshalJSON(data []byte) error {
	var jv jsonValue
	if err := json.Unmarshal(data, &jv); err != nil {
		return err
	}
	switch jv.T {
	case "null", "":
		*v = NewNull()
	case "integer":
		var i int64
		if err := json.Unmarshal(jv.V, &i); err != nil {
			return err
		}
		*v = NewInteger(i)
	case "float":
		var f float64
		if err := json.Unmarshal(jv.V, &f); err != nil {
			return err
		}
		*v = NewFloat(f)
	case "string":
		var s string
		if err := json.Unmarshal(jv.V, &s); err != nil {
			return err
		}
		*v = NewString(s)
	case "boolean":
		var b bool
		if err := json.Unmarshal(jv.V, &b); err != nil {
			return err
		}
		*v = NewBoolean(b)
	default:
		return fmt.Errorf("unmarshal: unknown value type tag %q", jv.T)
	}
	return nil
}

// jsonRow is Row's JSON wire shape.
type jsonRow struct {
	Cells []Value `json:"cells"`
}

// MarshalJSON implements json.Marshaler for Row.
func (r *Row) MarshalJSON() ([]byte, error) {
	return json.Marshal(jsonRow{Cells: r.Cells})
}

// UnmarshalJSON implements json.Unmarshaler for Row.
func (r *Row) UnmarshalJSON(data []byte) error {
	var jr jsonRow
	if err := json.Unmarshal(data, &jr); err != nil {
		return err
	}
	r.Cells = jr.Cells
	return nil
}

// jsonConstraints mirrors Constraints for JSON purposes; OneOf needs
// its elements marshaled through Value's custom codec, which plain
// struct tags already handle since Value implements Marshaler.
type jsonConstraints struct {
	MinLength *int     `json:"minLength,omitempty"`
	MaxLength *int     `json:"maxLength,omitempty"`
	OneOf     []Value  `json:"oneOf,omitempty"`
	MinValue  *float64 `json:"minValue,omitempty"`
	MaxValue  *float64 `json:"maxValue,omitempty"`
}

type jsonColumn struct {
	Name        string          `json:"name"`
	Type        string          `json:"type"`
	Nullable    bool            `json:"nullable"`
	Unique      bool            `json:"unique"`
	Constraints jsonConstraints `json:"constraints,omitempty"`
}

func columnTypeFromString(s string) (ColumnType, error) {
	switch s {
	case "integer":
		return ColInteger, nil
	case "float":
		return ColFloat, nil
	case "string":
		return ColString, nil
	case "boolean":
		return ColBoolean, nil
	default:
		return 0, fmt.Errorf("unknown column type %q", s)
	}
}

func toJSONColumn(c Column) jsonColumn {
	return jsonColumn{
		Name:     c.Name,
		Type:     c.Type.String(),
		Nullable: c.Nullable,
		Unique:   c.Unique,
		Constraints: jsonConstraints{
			MinLength: c.Constraints.MinLength,
			MaxLength: c.Constraints.MaxLength,
			OneOf:     c.Constraints.OneOf,
			MinValue:  c.Constraints.MinValue,
			MaxValue:  c.Constraints.MaxValue,
		},
	}
}

func fromJSONColumn(jc jsonColumn) (Column, error) {
	t, err := columnTypeFromString(jc.Type)
	if err != nil {
		return Column{}, err
	}
	return Column{
		Name:     jc.Name,
		Type:     t,
		Nullable: jc.Nullable,
		Unique:   jc.Unique,
		Constraints: Constraints{
			MinLength: jc.Constraints.MinLength,
			MaxLength: jc.Constraints.MaxLength,
			OneOf:     jc.Constraints.OneOf,
			MinValue:  jc.Constraints.MinValue,
			MaxValue:  jc.Constraints.MaxValue,
		},
	}, nil
}

type jsonTableSchema struct {
	Columns    []jsonColumn `json:"columns"`
	PrimaryKey string       `json:"primaryKey,omitempty"`
}

// TableSchemaToJSON renders a TableSchema as JSON.
func TableSchemaToJSON(ts *TableSchema) ([]byte, error) {
	cols := ts.Columns()
	out := jsonTableSchema{Columns: make([]jsonColumn, len(cols))}
	for i, c := range cols {
		out.Columns[i] = toJSONColumn(c)
	}
	if pk, ok := ts.PrimaryKey(); ok {
		out.PrimaryKey = pk
	}
	return json.Marshal(out)
}

// TableSchemaFromJSON parses a TableSchema previously rendered by
// TableSchemaToJSON.
func TableSchemaFromJSON(data []byte) (*TableSchema, error) {
	var in jsonTableSchema
	if err := json.Unmarshal(data, &in); err != nil {
		return nil, err
	}
	cols := make([]Column, len(in.Columns))
	for i, jc := range in.Columns {
		c, err := fromJSONColumn(jc)
		if err != nil {
			return nil, err
		}
		cols[i] = c
	}
	ts := NewTableSchema(cols)
	if in.PrimaryKey != "" {
		if err := ts.SetPrimaryKey(in.PrimaryKey); err != nil {
			return nil, err
		}
	}
	return ts, nil
}

type jsonDocumentSchema struct {
	Fields []jsonColumn `json:"fields"`
}

// DocumentSchemaToJSON renders a DocumentSchema as JSON.
func DocumentSchemaToJSON(ds *DocumentSchema) ([]byte, error) {
	fields := ds.Fields()
	out := jsonDocumentSchema{Fields: make([]jsonColumn, len(fields))}
	for i, f := range fields {
		out.Fields[i] = toJSONColumn(f)
	}
	return json.Marshal(out)
}

// DocumentSchemaFromJSON parses a DocumentSchema previously rendered
// by DocumentSchemaToJSON.
func DocumentSchemaFromJSON(data []byte) (*DocumentSchema, error) {
	var in jsonDocumentSchema
	if err := json.Unmarshal(data, &in); err != nil {
		return nil, err
	}
	fields := make([]Column, len(in.Fields))
	for i, jf := range in.Fields {
		f, err := fromJSONColumn(jf)
		if err != nil {
			return nil, err
		}
		fields[i] = f
	}
	return NewDocumentSchema(fields), nil
}

// DocumentToJSON renders a Document as a flat JSON object of its
// fields, each value rendered through Value's tagged JSON form.
func DocumentToJSON(d *Document) ([]byte, error) {
	return json.Marshal(d.Fields)
}

// DocumentFromJSON parses a Document previously rendered by
// DocumentToJSON.
func DocumentFromJSON(data []byte) (*Document, error) {
	var fields map[string]Value
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, err
	}
	return &Document{Fields: fields}, nil
}
