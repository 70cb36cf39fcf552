package kadedb

import "testing"

func widgetSchema() *TableSchema {
	minLen := 1
	return NewTableSchema([]Column{
		{Name: "id", Type: ColInteger, Unique: true},
		{Name: "name", Type: ColString, Constraints: Constraints{MinLength: &minLen}},
		{Name: "price", Type: ColFloat, Nullable: true},
	})
}

func TestValidateRowTypeAndNullability(t *testing.T) {
	schema := widgetSchema()

	ok := NewRow(NewInteger(1), NewString("widget"), NewFloat(9.99))
	if msg := ValidateRow(schema, ok); msg != "" {
		t.Fatalf("expected valid row, got %q", msg)
	}

	nullablePrice := NewRow(NewInteger(2), NewString("widget"), NewNull())
	if msg := ValidateRow(schema, nullablePrice); msg != "" {
		t.Fatalf("nullable column should accept null, got %q", msg)
	}

	wrongArity := NewRow(NewInteger(1))
	if msg := ValidateRow(schema, wrongArity); msg == "" {
		t.Fatal("expected an arity mismatch error")
	}

	wrongType := NewRow(NewString("not an int"), NewString("widget"), NewFloat(1))
	if msg := ValidateRow(schema, wrongType); msg == "" {
		t.Fatal("expected a type mismatch error")
	}

	notNullable := NewRow(NewNull(), NewString("widget"), NewFloat(1))
	if msg := ValidateRow(schema, notNullable); msg == "" {
		t.Fatal("expected a not-nullable violation for id")
	}
}

func TestValidateRowIntegerWidensIntoFloatColumn(t *testing.T) {
	schema := widgetSchema()
	row := NewRow(NewInteger(1), NewString("widget"), NewInteger(5))
	if msg := ValidateRow(schema, row); msg != "" {
		t.Fatalf("integer should widen into a float column, got %q", msg)
	}
}

func TestValidateRowConstraintViolations(t *testing.T) {
	schema := widgetSchema()
	emptyName := NewRow(NewInteger(1), NewString(""), NewFloat(1))
	if msg := ValidateRow(schema, emptyName); msg == "" {
		t.Fatal("expected minLength violation")
	}
}

func TestValidateUniqueDetectsDuplicates(t *testing.T) {
	schema := widgetSchema()
	rows := []*Row{
		NewRow(NewInteger(1), NewString("a"), NewFloat(1)),
		NewRow(NewInteger(1), NewString("b"), NewFloat(2)),
	}
	if msg := ValidateUnique(schema, rows, false); msg == "" {
		t.Fatal("expected a uniqueness violation on duplicate id")
	}

	rows[1].Cells[0] = NewInteger(2)
	if msg := ValidateUnique(schema, rows, false); msg != "" {
		t.Fatalf("distinct ids should not collide, got %q", msg)
	}
}

func TestValidateDocumentRequiredAndUnknownFields(t *testing.T) {
	schema := NewDocumentSchema([]Column{
		{Name: "title", Type: ColString},
		{Name: "views", Type: ColInteger, Nullable: true},
	})

	doc := NewDocument()
	doc.Set("title", NewString("hello"))
	doc.Set("extra", NewString("ignored"))
	if msg := ValidateDocument(schema, doc); msg != "" {
		t.Fatalf("unknown fields should be ignored, got %q", msg)
	}

	missing := NewDocument()
	if msg := ValidateDocument(schema, missing); msg == "" {
		t.Fatal("expected a required-field violation for missing title")
	}
}

func TestValidateDocumentUniqueAcrossCollection(t *testing.T) {
	schema := NewDocumentSchema([]Column{
		{Name: "slug", Type: ColString, Unique: true},
	})
	docs := map[string]*Document{
		"a": {Fields: map[string]Value{"slug": NewString("same")}},
		"b": {Fields: map[string]Value{"slug": NewString("same")}},
	}
	if msg := ValidateDocumentUnique(schema, docs, false); msg == "" {
		t.Fatal("expected a uniqueness violation across documents")
	}
}
