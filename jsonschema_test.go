package kadedb

import "testing"

func TestSchemaFromJSONSchemaBasicFields(t *testing.T) {
	doc := []byte(`{
		"type": "object",
		"required": ["name"],
		"properties": {
			"name": {"type": "string", "minLength": 1, "maxLength": 64},
			"age": {"type": "integer", "minimum": 0, "maximum": 150},
			"active": {"type": "boolean"}
		}
	}`)

	schema, err := SchemaFromJSONSchema(doc)
	if err != nil {
		t.Fatalf("SchemaFromJSONSchema: %v", err)
	}

	name, ok := schema.GetField("name")
	if !ok {
		t.Fatal("expected a name field")
	}
	if name.Nullable {
		t.Fatal("a required property should map to a non-nullable column")
	}
	if name.Type != ColString {
		t.Fatalf("name.Type = %v, want ColString", name.Type)
	}
	if name.Constraints.MinLength == nil || *name.Constraints.MinLength != 1 {
		t.Fatalf("minLength did not carry over: %+v", name.Constraints)
	}

	age, ok := schema.GetField("age")
	if !ok {
		t.Fatal("expected an age field")
	}
	if !age.Nullable {
		t.Fatal("a property absent from required should map to a nullable column")
	}
	if age.Type != ColInteger {
		t.Fatalf("age.Type = %v, want ColInteger", age.Type)
	}
	if age.Constraints.MaxValue == nil || *age.Constraints.MaxValue != 150 {
		t.Fatalf("maximum did not carry over: %+v", age.Constraints)
	}
}

func TestSchemaFromJSONSchemaRejectsNonObjectRoot(t *testing.T) {
	if _, err := SchemaFromJSONSchema([]byte(`{"type": "array"}`)); err == nil {
		t.Fatal("expected an error for a non-object root schema")
	}
}

func TestSchemaFromJSONSchemaRejectsUnsupportedPropertyType(t *testing.T) {
	doc := []byte(`{"type": "object", "properties": {"tags": {"type": "array"}}}`)
	if _, err := SchemaFromJSONSchema(doc); err == nil {
		t.Fatal("expected an error for an unsupported (array) property type")
	}
}

func TestSchemaFromJSONSchemaEnumConstraint(t *testing.T) {
	doc := []byte(`{
		"type": "object",
		"properties": {
			"status": {"type": "string", "enum": ["open", "closed"]}
		}
	}`)
	schema, err := SchemaFromJSONSchema(doc)
	if err != nil {
		t.Fatalf("SchemaFromJSONSchema: %v", err)
	}
	status, ok := schema.GetField("status")
	if !ok {
		t.Fatal("expected a status field")
	}
	if len(status.Constraints.OneOf) != 2 {
		t.Fatalf("expected 2 enum values, got %d", len(status.Constraints.OneOf))
	}
}
