package kadedb

import "testing"

func TestTableSchemaColumnManagement(t *testing.T) {
	ts := NewTableSchema([]Column{
		{Name: "id", Type: ColInteger},
		{Name: "name", Type: ColString},
	})
	if ts.ColumnCount() != 2 {
		t.Fatalf("ColumnCount() = %d, want 2", ts.ColumnCount())
	}
	if idx := ts.ColumnIndex("name"); idx != 1 {
		t.Fatalf("ColumnIndex(name) = %d, want 1", idx)
	}
	if _, ok := ts.GetColumn("missing"); ok {
		t.Fatal("GetColumn should not find an undeclared column")
	}

	if err := ts.AddColumn(Column{Name: "age", Type: ColInteger}); err != nil {
		t.Fatalf("AddColumn: %v", err)
	}
	if err := ts.AddColumn(Column{Name: "name", Type: ColString}); err == nil {
		t.Fatal("expected error adding a duplicate column name")
	}

	if err := ts.SetPrimaryKey("id"); err != nil {
		t.Fatalf("SetPrimaryKey: %v", err)
	}
	if pk, ok := ts.PrimaryKey(); !ok || pk != "id" {
		t.Fatalf("PrimaryKey() = (%q, %v), want (id, true)", pk, ok)
	}

	if err := ts.RemoveColumn("id"); err != nil {
		t.Fatalf("RemoveColumn: %v", err)
	}
	if _, ok := ts.PrimaryKey(); ok {
		t.Fatal("removing the primary key column should clear the marker")
	}
	if ts.ColumnIndex("age") != 1 {
		t.Fatalf("ColumnIndex(age) after removal = %d, want 1 (shifted down)", ts.ColumnIndex("age"))
	}
}

func TestDocumentSchemaFieldManagement(t *testing.T) {
	ds := NewDocumentSchema([]Column{
		{Name: "title", Type: ColString},
	})
	if err := ds.AddField(Column{Name: "views", Type: ColInteger}); err != nil {
		t.Fatalf("AddField: %v", err)
	}
	fields := ds.Fields()
	if len(fields) != 2 || fields[0].Name != "title" || fields[1].Name != "views" {
		t.Fatalf("Fields() out of declaration order: %+v", fields)
	}
	if err := ds.RemoveField("title"); err != nil {
		t.Fatalf("RemoveField: %v", err)
	}
	if _, ok := ds.GetField("title"); ok {
		t.Fatal("title should be gone after RemoveField")
	}
	if err := ds.RemoveField("title"); err == nil {
		t.Fatal("expected error removing an already-removed field")
	}
}

func TestTimeSeriesSchemaDerivesTableSchema(t *testing.T) {
	tss := NewTimeSeriesSchema("ts", PartitionHourly, RetentionPolicy{MaxAge: 3600})
	tss.AddTagColumn(Column{Name: "host", Type: ColString})
	tss.AddValueColumn(Column{Name: "cpu", Type: ColFloat})

	cols := tss.AllColumns()
	if len(cols) != 3 || cols[0].Name != "ts" || cols[0].Type != ColInteger {
		t.Fatalf("AllColumns() = %+v, want [ts tag:host value:cpu]", cols)
	}

	table := tss.ToTableSchema()
	if table.ColumnCount() != 3 {
		t.Fatalf("ToTableSchema().ColumnCount() = %d, want 3", table.ColumnCount())
	}
	if _, ok := table.GetColumn("cpu"); !ok {
		t.Fatal("derived table schema should carry the value column")
	}
}
