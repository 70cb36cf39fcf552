package kadedb

// CompareOp enumerates the comparison operators a leaf predicate
// tests with.
type CompareOp int

const (
	OpEq CompareOp = iota
	OpNe
	OpLt
	OpLe
	OpGt
	OpGe
)

func (op CompareOp) apply(cmp int) bool {
	switch op {
	case OpEq:
		return cmp == 0
	case OpNe:
		return cmp != 0
	case OpLt:
		return cmp < 0
	case OpLe:
		return cmp <= 0
	case OpGt:
		return cmp > 0
	case OpGe:
		return cmp >= 0
	default:
		return false
	}
}

// Predicate is a boolean expression tree evaluated against a Row,
// addressing cells by column name. Exactly one of the fields below is
// meaningful for a given node, selected by Kind.
type Predicate struct {
	Kind     predicateKind
	Column   string
	Op       CompareOp
	RHS      Value
	Children []Predicate
}

type predicateKind int

const (
	predComparison predicateKind = iota
	predAnd
	predOr
	predNot
)

// Comparison builds a leaf predicate comparing a named column to rhs.
func Comparison(column string, op CompareOp, rhs Value) Predicate {
	return Predicate{Kind: predComparison, Column: column, Op: op, RHS: rhs}
}

// And combines child predicates conjunctively. An empty child list is
// the neutral element and evaluates to true.
func And(children ...Predicate) Predicate {
	return Predicate{Kind: predAnd, Children: children}
}

// Or combines child predicates disjunctively. An empty child list is
// the neutral element and evaluates to false.
func Or(children ...Predicate) Predicate {
	return Predicate{Kind: predOr, Children: children}
}

// Not negates a single child predicate.
func Not(child Predicate) Predicate {
	return Predicate{Kind: predNot, Children: []Predicate{child}}
}

// IsComparison reports whether p is a leaf comparison node.
func (p Predicate) IsComparison() bool { return p.Kind == predComparison }

// IsAnd reports whether p is a conjunction node.
func (p Predicate) IsAnd() bool { return p.Kind == predAnd }

// IsOr reports whether p is a disjunction node.
func (p Predicate) IsOr() bool { return p.Kind == predOr }

// IsNot reports whether p is a negation node.
func (p Predicate) IsNot() bool { return p.Kind == predNot }

// Eval evaluates p against row using schema to resolve column names to
// cell positions. A comparison against a missing column or a null
// cell collapses to false (three-valued logic collapsed to boolean),
// matching the rest of the tree's boolean algebra.
func (p Predicate) Eval(schema *TableSchema, row *Row) bool {
	switch p.Kind {
	case predComparison:
		idx := schema.ColumnIndex(p.Column)
		if idx < 0 || idx >= len(row.Cells) {
			return false
		}
		cell := row.Cells[idx]
		if cell.IsNull() || p.RHS.IsNull() {
			return false
		}
		return p.Op.apply(cell.Compare(p.RHS))
	case predAnd:
		for _, c := range p.Children {
			if !c.Eval(schema, row) {
				return false
			}
		}
		return true
	case predOr:
		for _, c := range p.Children {
			if c.Eval(schema, row) {
				return true
			}
		}
		return false
	case predNot:
		if len(p.Children) == 0 {
			return false
		}
		return !p.Children[0].Eval(schema, row)
	default:
		return false
	}
}

// DocPredicate is the document-store analogue of Predicate, addressing
// fields by name directly against a Document rather than through a
// TableSchema's column index.
type DocPredicate struct {
	Kind     predicateKind
	Field    string
	Op       CompareOp
	RHS      Value
	Children []DocPredicate
}

// DocComparison builds a leaf predicate comparing a named field to rhs.
func DocComparison(field string, op CompareOp, rhs Value) DocPredicate {
	return DocPredicate{Kind: predComparison, Field: field, Op: op, RHS: rhs}
}

// DocAnd combines child predicates conjunctively.
func DocAnd(children ...DocPredicate) DocPredicate {
	return DocPredicate{Kind: predAnd, Children: children}
}

// DocOr combines child predicates disjunctively.
func DocOr(children ...DocPredicate) DocPredicate {
	return DocPredicate{Kind: predOr, Children: children}
}

// DocNot negates a single child predicate.
func DocNot(child DocPredicate) DocPredicate {
	return DocPredicate{Kind: predNot, Children: []DocPredicate{child}}
}

// Eval evaluates p against doc. A comparison against a missing or null
// field collapses to false.
func (p DocPredicate) Eval(doc *Document) bool {
	switch p.Kind {
	case predComparison:
		v, ok := doc.Get(p.Field)
		if !ok || v.IsNull() || p.RHS.IsNull() {
			return false
		}
		return p.Op.apply(v.Compare(p.RHS))
	case predAnd:
		for _, c := range p.Children {
			if !c.Eval(doc) {
				return false
			}
		}
		return true
	case predOr:
		for _, c := range p.Children {
			if c.Eval(doc) {
				return true
			}
		}
		return false
	case predNot:
		if len(p.Children) == 0 {
			return false
		}
		return !p.Children[0].Eval(doc)
	default:
		return false
	}
}
