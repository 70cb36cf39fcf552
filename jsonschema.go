package kadedb

import (
	"encoding/json"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
)

// SchemaFromJSONSchema parses an arbitrary JSON Schema "object"
// document into a DocumentSchema: one Column per property, nullable
// unless named in "required", with minLength/maxLength/enum/
// minimum/maximum carried into Constraints. It is one-way (schema
// import only) and is independent of the binary/JSON codecs in
// serialize_binary.go/serialize_json.go, which serialize KadeDB's own
// schemas rather than import foreign ones.
func SchemaFromJSONSchema(doc []byte) (*DocumentSchema, error) {
	var root jsonschema.Schema
	if err := json.Unmarshal(doc, &root); err != nil {
		return nil, fmt.Errorf("parse json schema: %w", err)
	}
	if root.Type != "object" && root.Type != "" {
		return nil, NewEngineError(InvalidArgument, "json schema root type %q is not \"object\"", root.Type)
	}

	required := make(map[string]bool, len(root.Required))
	for _, name := range root.Required {
		required[name] = true
	}

	fields := make([]Column, 0, len(root.Properties))
	for name, prop := range root.Properties {
		col, err := columnFromJSONSchemaProperty(name, prop, required[name])
		if err != nil {
			return nil, err
		}
		fields = append(fields, col)
	}
	return NewDocumentSchema(fields), nil
}

func columnFromJSONSchemaProperty(name string, prop *jsonschema.Schema, required bool) (Column, error) {
	colType, err := columnTypeFromJSONSchemaType(prop.Type)
	if err != nil {
		return Column{}, fmt.Errorf("property %q: %w", name, err)
	}

	col := Column{
		Name:     name,
		Type:     colType,
		Nullable: !required,
	}

	if len(prop.Enum) > 0 {
		oneOf := make([]Value, 0, len(prop.Enum))
		for _, raw := range prop.Enum {
			v, err := jsonRawToValue(colType, raw)
			if err != nil {
				return Column{}, fmt.Errorf("property %q enum: %w", name, err)
			}
			oneOf = append(oneOf, v)
		}
		col.Constraints.OneOf = oneOf
	}
	if prop.MinLength != nil {
		v := int(*prop.MinLength)
		col.Constraints.MinLength = &v
	}
	if prop.MaxLength != nil {
		v := int(*prop.MaxLength)
		col.Constraints.MaxLength = &v
	}
	if prop.Minimum != nil {
		v := float64(*prop.Minimum)
		col.Constraints.MinValue = &v
	}
	if prop.Maximum != nil {
		v := float64(*prop.Maximum)
		col.Constraints.MaxValue = &v
	}
	return col, nil
}

func columnTypeFromJSONSchemaType(t string) (ColumnType, error) {
	switch t {
	case "string":
		return ColString, nil
	case "integer":
		return ColInteger, nil
	case "number":
		return ColFloat, nil
	case "boolean":
		return ColBoolean, nil
	default:
		return 0, fmt.Errorf("unsupported json schema type %q: kadedb has no nested/array value", t)
	}
}

func jsonRawToValue(colType ColumnType, raw any) (Value, error) {
	switch colType {
	case ColString:
		s, ok := raw.(string)
		if !ok {
			return Value{}, fmt.Errorf("expected string enum value, got %T", raw)
		}
		return NewString(s), nil
	case ColInteger:
		f, ok := raw.(float64)
		if !ok {
			return Value{}, fmt.Errorf("expected numeric enum value, got %T", raw)
		}
		return NewInteger(int64(f)), nil
	case ColFloat:
		f, ok := raw.(float64)
		if !ok {
			return Value{}, fmt.Errorf("expected numeric enum value, got %T", raw)
		}
		return NewFloat(f), nil
	case ColBoolean:
		b, ok := raw.(bool)
		if !ok {
			return Value{}, fmt.Errorf("expected boolean enum value, got %T", raw)
		}
		return NewBoolean(b), nil
	default:
		return Value{}, fmt.Errorf("unsupported column type %v", colType)
	}
}
