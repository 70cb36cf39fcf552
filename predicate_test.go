package kadedb

import "testing"

func TestPredicateComparisonAgainstRow(t *testing.T) {
	schema := NewTableSchema([]Column{
		{Name: "age", Type: ColInteger},
	})
	row := NewRow(NewInteger(30))

	if !Comparison("age", OpGe, NewInteger(18)).Eval(schema, row) {
		t.Fatal("30 >= 18 should be true")
	}
	if Comparison("age", OpLt, NewInteger(18)).Eval(schema, row) {
		t.Fatal("30 < 18 should be false")
	}
	if Comparison("missing", OpEq, NewInteger(1)).Eval(schema, row) {
		t.Fatal("comparison against a missing column should collapse to false")
	}
}

func TestPredicateNullCollapsesToFalse(t *testing.T) {
	schema := NewTableSchema([]Column{{Name: "age", Type: ColInteger, Nullable: true}})
	row := NewRow(NewNull())
	if Comparison("age", OpEq, NewInteger(1)).Eval(schema, row) {
		t.Fatal("comparing a null cell should collapse to false even for OpEq")
	}
}

func TestPredicateAndOrNot(t *testing.T) {
	schema := NewTableSchema([]Column{
		{Name: "age", Type: ColInteger},
		{Name: "active", Type: ColBoolean},
	})
	row := NewRow(NewInteger(30), NewBoolean(true))

	and := And(Comparison("age", OpGe, NewInteger(18)), Comparison("active", OpEq, NewBoolean(true)))
	if !and.Eval(schema, row) {
		t.Fatal("expected conjunction to hold")
	}

	or := Or(Comparison("age", OpLt, NewInteger(10)), Comparison("active", OpEq, NewBoolean(true)))
	if !or.Eval(schema, row) {
		t.Fatal("expected disjunction to hold via second child")
	}

	not := Not(Comparison("active", OpEq, NewBoolean(false)))
	if !not.Eval(schema, row) {
		t.Fatal("expected negation to flip a false comparison to true")
	}

	if !And().Eval(schema, row) {
		t.Fatal("empty And should be the neutral (true) element")
	}
	if Or().Eval(schema, row) {
		t.Fatal("empty Or should be the neutral (false) element")
	}
}

func TestPredicateKindPredicates(t *testing.T) {
	c := Comparison("x", OpEq, NewInteger(1))
	if !c.IsComparison() || c.IsAnd() || c.IsOr() || c.IsNot() {
		t.Fatal("comparison predicate reported the wrong kind")
	}
	if !And(c).IsAnd() {
		t.Fatal("And predicate should report IsAnd")
	}
}

func TestDocPredicateEvalAgainstDocument(t *testing.T) {
	doc := NewDocument()
	doc.Set("status", NewString("active"))

	if !DocComparison("status", OpEq, NewString("active")).Eval(doc) {
		t.Fatal("expected equality match on document field")
	}
	if DocComparison("missing", OpEq, NewString("x")).Eval(doc) {
		t.Fatal("comparison against a missing field should collapse to false")
	}

	and := DocAnd(DocComparison("status", OpEq, NewString("active")), DocNot(DocComparison("status", OpEq, NewString("inactive"))))
	if !and.Eval(doc) {
		t.Fatal("expected conjunction with negation to hold")
	}
}
