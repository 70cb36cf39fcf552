package kadeql

import (
	"sort"
	"strings"

	"github.com/kadedb/kadedb"
	"github.com/kadedb/kadedb/internal/relational"
)

// Executor lowers a parsed Statement onto a relational storage engine,
// canonicalizing every WHERE predicate before evaluation.
type Executor struct {
	storage *relational.Engine
}

// NewExecutor returns an Executor bound to storage.
func NewExecutor(storage *relational.Engine) *Executor {
	return &Executor{storage: storage}
}

// Execute runs stmt against the bound storage engine.
func (x *Executor) Execute(stmt Statement) (*kadedb.ResultSet, error) {
	switch s := stmt.(type) {
	case *SelectStatement:
		return x.executeSelect(s)
	case *InsertStatement:
		return x.executeInsert(s)
	case *UpdateStatement:
		return x.executeUpdate(s)
	case *DeleteStatement:
		return x.executeDelete(s)
	default:
		return nil, kadedb.NewEngineError(kadedb.InvalidArgument, "unsupported statement type")
	}
}

func literalToValue(lit *LiteralExpression) kadedb.Value {
	switch lit.Kind {
	case LiteralInteger:
		return kadedb.NewInteger(lit.I)
	case LiteralFloat:
		return kadedb.NewFloat(lit.F)
	default:
		return kadedb.NewString(lit.S)
	}
}

var reverseOp = map[BinaryOperator]BinaryOperator{
	OpLessThan:     OpGreaterThan,
	OpLessEqual:    OpGreaterEqual,
	OpGreaterThan:  OpLessThan,
	OpGreaterEqual: OpLessEqual,
	OpEquals:       OpEquals,
	OpNotEquals:    OpNotEquals,
}

var toCompareOp = map[BinaryOperator]kadedb.CompareOp{
	OpEquals:       kadedb.OpEq,
	OpNotEquals:    kadedb.OpNe,
	OpLessThan:     kadedb.OpLt,
	OpLessEqual:    kadedb.OpLe,
	OpGreaterThan:  kadedb.OpGt,
	OpGreaterEqual: kadedb.OpGe,
}

// buildPredicate lowers a WHERE expression tree to a storage
// Predicate. Each comparison must have an identifier on one side and a
// literal on the other; a reversed order is rewritten by swapping
// operands and mirroring the operator. AND/OR treat a missing side as
// the neutral element. Every AND/OR/NOT node is passed through
// Canonicalize as it is built, so the returned tree is canonical. A
// bare identifier or literal used as a boolean predicate is an error.
func buildPredicate(expr Expression) (*kadedb.Predicate, error) {
	if expr == nil {
		return nil, nil
	}
	switch e := expr.(type) {
	case *UnaryExpression:
		if e.Operator != UnaryNot {
			return nil, kadedb.NewEngineError(kadedb.InvalidArgument, "unsupported unary operator in WHERE")
		}
		child, err := buildPredicate(e.Operand)
		if err != nil {
			return nil, err
		}
		if child == nil {
			p := Canonicalize(kadedb.Not(kadedb.And()))
			return &p, nil
		}
		p := Canonicalize(kadedb.Not(*child))
		return &p, nil

	case *BinaryExpression:
		if e.Operator == OpAnd || e.Operator == OpOr {
			left, err := buildPredicate(e.Left)
			if err != nil {
				return nil, err
			}
			right, err := buildPredicate(e.Right)
			if err != nil {
				return nil, err
			}
			var kids []kadedb.Predicate
			if left != nil {
				kids = append(kids, *left)
			}
			if right != nil {
				kids = append(kids, *right)
			}
			var p kadedb.Predicate
			if e.Operator == OpAnd {
				p = kadedb.And(kids...)
			} else {
				p = kadedb.Or(kids...)
			}
			p = Canonicalize(p)
			return &p, nil
		}

		if !e.Operator.IsComparison() {
			return nil, kadedb.NewEngineError(kadedb.InvalidArgument, "unsupported WHERE predicate: expected a comparison")
		}

		id, ok := e.Left.(*IdentifierExpression)
		lit, litOK := e.Right.(*LiteralExpression)
		op := e.Operator
		if !ok || !litOK {
			id, ok = e.Right.(*IdentifierExpression)
			lit, litOK = e.Left.(*LiteralExpression)
			if !ok || !litOK {
				return nil, kadedb.NewEngineError(kadedb.InvalidArgument,
					"unsupported WHERE predicate: expected identifier compared to literal")
			}
			if mirrored, found := reverseOp[op]; found {
				op = mirrored
			}
		}
		cmp := kadedb.Comparison(id.Name, toCompareOp[op], literalToValue(lit))
		return &cmp, nil

	default:
		return nil, kadedb.NewEngineError(kadedb.InvalidArgument,
			"unsupported WHERE predicate: expected binary expression")
	}
}

func affectedResultSet(affected int, synonym string) *kadedb.ResultSet {
	rs := kadedb.NewResultSet([]string{"affected", synonym}, []kadedb.ColumnType{kadedb.ColInteger, kadedb.ColInteger})
	rs.AddRow(kadedb.NewInteger(int64(affected)), kadedb.NewInteger(int64(affected)))
	return rs
}

// isAggregateCall reports whether name is one of the dialect's
// recognized SELECT aggregate functions.
func isAggregateCall(name string) bool {
	switch strings.ToUpper(name) {
	case "TIME_BUCKET", "FIRST", "LAST", "COUNT", "SUM", "AVG", "MIN", "MAX":
		return true
	default:
		return false
	}
}

func selectHasAggregate(items []ProjectionItem) bool {
	for _, item := range items {
		if call, ok := item.Expr.(*FunctionCallExpression); ok && isAggregateCall(call.Name) {
			return true
		}
	}
	return false
}

func (x *Executor) executeSelect(s *SelectStatement) (*kadedb.ResultSet, error) {
	pred, err := buildPredicate(s.Where)
	if err != nil {
		return nil, err
	}
	if !s.Star && selectHasAggregate(s.Columns) {
		return x.executeAggregateSelect(s, pred)
	}

	var cols []string
	if !s.Star {
		for _, item := range s.Columns {
			id, ok := item.Expr.(*IdentifierExpression)
			if !ok {
				return nil, kadedb.NewEngineError(kadedb.InvalidArgument, "only column names are allowed in a non-aggregate SELECT list")
			}
			cols = append(cols, id.Name)
		}
	}
	rows, err := x.storage.Select(s.Table, cols, pred)
	if err != nil {
		return nil, err
	}
	schema, err := x.storage.TableSchema(s.Table)
	if err != nil {
		return nil, err
	}
	names, types := projectionMetadata(schema, cols)
	rs := kadedb.NewResultSet(names, types)
	for _, r := range rows {
		rs.AddRow(r.Cells...)
	}
	return rs, nil
}

func projectionMetadata(schema *kadedb.TableSchema, cols []string) ([]string, []kadedb.ColumnType) {
	if len(cols) == 0 {
		cols = make([]string, schema.ColumnCount())
		for i, c := range schema.Columns() {
			cols[i] = c.Name
		}
	}
	types := make([]kadedb.ColumnType, len(cols))
	for i, name := range cols {
		if c, ok := schema.GetColumn(name); ok {
			types[i] = c.Type
		}
	}
	return cols, types
}

func (x *Executor) executeInsert(s *InsertStatement) (*kadedb.ResultSet, error) {
	// Read the table schema to learn column names/order.
	schema, err := x.storage.TableSchema(s.Table)
	if err != nil {
		return nil, err
	}
	allCols := schema.Columns()
	if len(allCols) == 0 {
		return nil, kadedb.NewEngineError(kadedb.InvalidArgument, "target table has no columns")
	}

	targetIdx := make([]int, 0, len(allCols))
	if len(s.Columns) == 0 {
		for i := range allCols {
			targetIdx = append(targetIdx, i)
		}
	} else {
		for _, name := range s.Columns {
			idx := schema.ColumnIndex(name)
			if idx < 0 {
				return nil, kadedb.NewEngineError(kadedb.InvalidArgument, "unknown column in INSERT: %s", name)
			}
			targetIdx = append(targetIdx, idx)
		}
	}

	inserted := 0
	for _, tuple := range s.Values {
		if len(tuple) != len(targetIdx) {
			return nil, kadedb.NewEngineError(kadedb.InvalidArgument, "INSERT VALUES arity does not match column list")
		}
		cells := make([]kadedb.Value, len(allCols))
		for i := range cells {
			cells[i] = kadedb.NewNull()
		}
		for j, e := range tuple {
			lit, ok := e.(*LiteralExpression)
			if !ok {
				return nil, kadedb.NewEngineError(kadedb.InvalidArgument, "INSERT VALUES only support literals")
			}
			cells[targetIdx[j]] = literalToValue(lit)
		}
		row := kadedb.NewRow(cells...)
		if err := x.storage.InsertRow(s.Table, row); err != nil {
			return nil, err
		}
		inserted++
	}
	return affectedResultSet(inserted, "inserted"), nil
}

func (x *Executor) executeUpdate(s *UpdateStatement) (*kadedb.ResultSet, error) {
	pred, err := buildPredicate(s.Where)
	if err != nil {
		return nil, err
	}

	allSimple := true
	for _, a := range s.Assignments {
		if _, ok := a.Value.(*LiteralExpression); !ok {
			allSimple = false
			break
		}
	}

	if allSimple {
		set := make(map[string]kadedb.Value, len(s.Assignments))
		for _, a := range s.Assignments {
			set[a.Column] = literalToValue(a.Value.(*LiteralExpression))
		}
		affected, err := x.storage.UpdateRows(s.Table, pred, set)
		if err != nil {
			return nil, err
		}
		return affectedResultSet(affected, "updated"), nil
	}

	updater := func(schema *kadedb.TableSchema, row *kadedb.Row) (map[int]kadedb.Value, error) {
		sets := make(map[int]kadedb.Value, len(s.Assignments))
		for _, a := range s.Assignments {
			v, err := evalExpr(a.Value, schema, row)
			if err != nil {
				return nil, err
			}
			idx := schema.ColumnIndex(a.Column)
			if idx < 0 {
				return nil, kadedb.NewEngineError(kadedb.InvalidArgument, "unknown assignment column: %s", a.Column)
			}
			sets[idx] = v
		}
		return sets, nil
	}
	affected, err := x.storage.UpdateRowsWith(s.Table, pred, updater)
	if err != nil {
		return nil, err
	}
	return affectedResultSet(affected, "updated"), nil
}

func (x *Executor) executeDelete(s *DeleteStatement) (*kadedb.ResultSet, error) {
	pred, err := buildPredicate(s.Where)
	if err != nil {
		return nil, err
	}
	affected, err := x.storage.DeleteRows(s.Table, pred)
	if err != nil {
		return nil, err
	}
	return affectedResultSet(affected, "deleted"), nil
}

// evalExpr is the shared computed-expression interpreter used for
// every assignment of an UPDATE that has at least one non-literal
// assignment: literals, column references, arithmetic, string '+'
// concatenation when either side is String, short-circuit AND/OR, NOT,
// and comparisons returning Boolean.
func evalExpr(expr Expression, schema *kadedb.TableSchema, row *kadedb.Row) (kadedb.Value, error) {
	switch e := expr.(type) {
	case *LiteralExpression:
		return literalToValue(e), nil

	case *IdentifierExpression:
		idx := schema.ColumnIndex(e.Name)
		if idx < 0 {
			return kadedb.Value{}, kadedb.NewEngineError(kadedb.InvalidArgument, "unknown identifier in expression: %s", e.Name)
		}
		return row.Cells[idx].Clone(), nil

	case *UnaryExpression:
		v, err := evalExpr(e.Operand, schema, row)
		if err != nil {
			return kadedb.Value{}, err
		}
		b, err := v.AsBool()
		if err != nil {
			return kadedb.Value{}, kadedb.NewEngineError(kadedb.InvalidArgument, "NOT operand is not boolean-convertible")
		}
		return kadedb.NewBoolean(!b), nil

	case *BinaryExpression:
		return evalBinary(e, schema, row)

	default:
		return kadedb.Value{}, kadedb.NewEngineError(kadedb.InvalidArgument, "unsupported expression in assignment")
	}
}

func evalBinary(e *BinaryExpression, schema *kadedb.TableSchema, row *kadedb.Row) (kadedb.Value, error) {
	if e.Operator == OpAnd || e.Operator == OpOr {
		l, err := evalExpr(e.Left, schema, row)
		if err != nil {
			return kadedb.Value{}, err
		}
		lb, err := l.AsBool()
		if err != nil {
			return kadedb.Value{}, kadedb.NewEngineError(kadedb.InvalidArgument, "AND/OR operand is not boolean-convertible")
		}
		if e.Operator == OpAnd && !lb {
			return kadedb.NewBoolean(false), nil
		}
		if e.Operator == OpOr && lb {
			return kadedb.NewBoolean(true), nil
		}
		r, err := evalExpr(e.Right, schema, row)
		if err != nil {
			return kadedb.Value{}, err
		}
		rb, err := r.AsBool()
		if err != nil {
			return kadedb.Value{}, kadedb.NewEngineError(kadedb.InvalidArgument, "AND/OR operand is not boolean-convertible")
		}
		return kadedb.NewBoolean(rb), nil
	}

	l, err := evalExpr(e.Left, schema, row)
	if err != nil {
		return kadedb.Value{}, err
	}
	r, err := evalExpr(e.Right, schema, row)
	if err != nil {
		return kadedb.Value{}, err
	}

	if e.Operator.IsComparison() {
		cmp := l.Compare(r)
		var out bool
		switch e.Operator {
		case OpEquals:
			out = cmp == 0
		case OpNotEquals:
			out = cmp != 0
		case OpLessThan:
			out = cmp < 0
		case OpLessEqual:
			out = cmp <= 0
		case OpGreaterThan:
			out = cmp > 0
		case OpGreaterEqual:
			out = cmp >= 0
		}
		return kadedb.NewBoolean(out), nil
	}

	if e.Operator == OpAdd && (l.Type() == kadedb.TypeString || r.Type() == kadedb.TypeString) {
		ls, _ := l.AsString()
		rs, _ := r.AsString()
		return kadedb.NewString(ls + rs), nil
	}

	lf, lIsInt, lok := numericOf(l)
	rf, rIsInt, rok := numericOf(r)
	if !lok {
		return kadedb.Value{}, kadedb.NewEngineError(kadedb.InvalidArgument, "non-numeric left-hand side in arithmetic expression")
	}
	if !rok {
		return kadedb.Value{}, kadedb.NewEngineError(kadedb.InvalidArgument, "non-numeric right-hand side in arithmetic expression")
	}
	resultInt := lIsInt && rIsInt && e.Operator != OpDiv

	switch e.Operator {
	case OpAdd:
		if resultInt {
			li, _ := l.AsInt()
			ri, _ := r.AsInt()
			return kadedb.NewInteger(li + ri), nil
		}
		return kadedb.NewFloat(lf + rf), nil
	case OpSub:
		if resultInt {
			li, _ := l.AsInt()
			ri, _ := r.AsInt()
			return kadedb.NewInteger(li - ri), nil
		}
		return kadedb.NewFloat(lf - rf), nil
	case OpMul:
		if resultInt {
			li, _ := l.AsInt()
			ri, _ := r.AsInt()
			return kadedb.NewInteger(li * ri), nil
		}
		return kadedb.NewFloat(lf * rf), nil
	case OpDiv:
		if rf == 0 {
			return kadedb.Value{}, kadedb.NewEngineError(kadedb.InvalidArgument, "division by zero")
		}
		return kadedb.NewFloat(lf / rf), nil
	default:
		return kadedb.Value{}, kadedb.NewEngineError(kadedb.InvalidArgument, "unsupported operator in computed expression")
	}
}

func numericOf(v kadedb.Value) (f float64, isInt bool, ok bool) {
	switch v.Type() {
	case kadedb.TypeInteger:
		i, _ := v.AsInt()
		return float64(i), true, true
	case kadedb.TypeFloat:
		fv, _ := v.AsFloat()
		return fv, false, true
	default:
		return 0, false, false
	}
}

// --- aggregate-mode SELECT: TIME_BUCKET / FIRST / LAST / COUNT / SUM / AVG / MIN / MAX ---
//
// Sufficient only for a single implicit group, or a single bucket
// column per query (no general multi-key GROUP BY). Adding general
// grouping would mean keying aggGroup by the full tuple of non-
// aggregate projection expressions instead of a single optional bucket
// key, which is a local change to groupRows and this function.

type aggGroup struct {
	bucketKey kadedb.Value
	hasBucket bool
	rows      []*kadedb.Row
}

func (x *Executor) executeAggregateSelect(s *SelectStatement, pred *kadedb.Predicate) (*kadedb.ResultSet, error) {
	schema, err := x.storage.TableSchema(s.Table)
	if err != nil {
		return nil, err
	}
	rows, err := x.storage.Select(s.Table, nil, pred)
	if err != nil {
		return nil, err
	}

	bucketCall, bucketAlias, err := findBucketCall(s.Columns)
	if err != nil {
		return nil, err
	}

	groups, err := groupRows(rows, schema, bucketCall)
	if err != nil {
		return nil, err
	}

	names := make([]string, len(s.Columns))
	types := make([]kadedb.ColumnType, len(s.Columns))
	for i, item := range s.Columns {
		names[i] = projectionAlias(item, bucketAlias)
		types[i] = kadedb.ColFloat
	}

	rs := kadedb.NewResultSet(names, types)
	for _, g := range groups {
		cells := make([]kadedb.Value, len(s.Columns))
		for i, item := range s.Columns {
			v, err := evalProjectionOverGroup(item, schema, g)
			if err != nil {
				return nil, err
			}
			cells[i] = v
		}
		rs.AddRow(cells...)
	}
	return rs, nil
}

func findBucketCall(items []ProjectionItem) (*FunctionCallExpression, string, error) {
	for _, item := range items {
		call, ok := item.Expr.(*FunctionCallExpression)
		if !ok || !strings.EqualFold(call.Name, "TIME_BUCKET") {
			continue
		}
		if len(call.Args) != 2 {
			return nil, "", kadedb.NewEngineError(kadedb.InvalidArgument, "TIME_BUCKET requires (column, width)")
		}
		alias := item.Alias
		if alias == "" {
			alias = "TIME_BUCKET"
		}
		return call, alias, nil
	}
	return nil, "", nil
}

func groupRows(rows []*kadedb.Row, schema *kadedb.TableSchema, bucketCall *FunctionCallExpression) ([]*aggGroup, error) {
	if bucketCall == nil {
		return []*aggGroup{{rows: rows}}, nil
	}
	col, ok := bucketCall.Args[0].(*IdentifierExpression)
	if !ok {
		return nil, kadedb.NewEngineError(kadedb.InvalidArgument, "TIME_BUCKET's first argument must be a column")
	}
	width, ok := bucketCall.Args[1].(*LiteralExpression)
	if !ok || width.Kind == LiteralString {
		return nil, kadedb.NewEngineError(kadedb.InvalidArgument, "TIME_BUCKET's second argument must be numeric")
	}
	idx := schema.ColumnIndex(col.Name)
	if idx < 0 {
		return nil, kadedb.NewEngineError(kadedb.InvalidArgument, "unknown column %q", col.Name)
	}
	w := width.I
	if width.Kind == LiteralFloat {
		w = int64(width.F)
	}
	if w <= 0 {
		return nil, kadedb.NewEngineError(kadedb.InvalidArgument, "TIME_BUCKET width must be positive")
	}

	byKey := map[int64]*aggGroup{}
	for _, r := range rows {
		ts, err := r.Cells[idx].AsInt()
		if err != nil {
			return nil, kadedb.NewEngineError(kadedb.InvalidArgument, "TIME_BUCKET column must be an integer timestamp")
		}
		bucket := floorDiv(ts, w) * w
		g, ok := byKey[bucket]
		if !ok {
			g = &aggGroup{bucketKey: kadedb.NewInteger(bucket), hasBucket: true}
			byKey[bucket] = g
		}
		g.rows = append(g.rows, r)
	}
	keys := make([]int64, 0, len(byKey))
	for k := range byKey {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	out := make([]*aggGroup, len(keys))
	for i, k := range keys {
		out[i] = byKey[k]
	}
	return out, nil
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func projectionAlias(item ProjectionItem, bucketAlias string) string {
	if item.Alias != "" {
		return item.Alias
	}
	switch e := item.Expr.(type) {
	case *IdentifierExpression:
		return e.Name
	case *FunctionCallExpression:
		if strings.EqualFold(e.Name, "TIME_BUCKET") {
			return bucketAlias
		}
		return strings.ToUpper(e.Name)
	default:
		return "?"
	}
}

func evalProjectionOverGroup(item ProjectionItem, schema *kadedb.TableSchema, g *aggGroup) (kadedb.Value, error) {
	switch e := item.Expr.(type) {
	case *IdentifierExpression:
		if !g.hasBucket {
			return kadedb.Value{}, kadedb.NewEngineError(kadedb.InvalidArgument,
				"bare column %q is only valid alongside TIME_BUCKET in an aggregate SELECT", e.Name)
		}
		return g.bucketKey.Clone(), nil
	case *FunctionCallExpression:
		return evalAggregateCall(e, schema, g)
	default:
		return kadedb.Value{}, kadedb.NewEngineError(kadedb.InvalidArgument, "unsupported aggregate projection item")
	}
}

func evalAggregateCall(call *FunctionCallExpression, schema *kadedb.TableSchema, g *aggGroup) (kadedb.Value, error) {
	name := strings.ToUpper(call.Name)
	if name == "TIME_BUCKET" {
		return g.bucketKey.Clone(), nil
	}
	if name == "COUNT" {
		return kadedb.NewInteger(int64(len(g.rows))), nil
	}
	if len(call.Args) == 0 {
		return kadedb.Value{}, kadedb.NewEngineError(kadedb.InvalidArgument, "%s requires a column argument", name)
	}
	col, ok := call.Args[0].(*IdentifierExpression)
	if !ok {
		return kadedb.Value{}, kadedb.NewEngineError(kadedb.InvalidArgument, "%s's first argument must be a column", name)
	}
	idx := schema.ColumnIndex(col.Name)
	if idx < 0 {
		return kadedb.Value{}, kadedb.NewEngineError(kadedb.InvalidArgument, "unknown column %q", col.Name)
	}

	switch name {
	case "FIRST":
		rows, err := orderedByOptionalTimestamp(call, schema, g.rows)
		if err != nil {
			return kadedb.Value{}, err
		}
		if len(rows) == 0 {
			return kadedb.NewNull(), nil
		}
		return rows[0].Cells[idx].Clone(), nil
	case "LAST":
		rows, err := orderedByOptionalTimestamp(call, schema, g.rows)
		if err != nil {
			return kadedb.Value{}, err
		}
		if len(rows) == 0 {
			return kadedb.NewNull(), nil
		}
		return rows[len(rows)-1].Cells[idx].Clone(), nil
	case "SUM", "AVG", "MIN", "MAX":
		return reduceNumeric(name, g.rows, idx)
	default:
		return kadedb.Value{}, kadedb.NewEngineError(kadedb.InvalidArgument, "unknown aggregate function %q", call.Name)
	}
}

func orderedByOptionalTimestamp(call *FunctionCallExpression, schema *kadedb.TableSchema, rows []*kadedb.Row) ([]*kadedb.Row, error) {
	if len(call.Args) < 2 {
		return rows, nil
	}
	tsCol, ok := call.Args[1].(*IdentifierExpression)
	if !ok {
		return nil, kadedb.NewEngineError(kadedb.InvalidArgument, "%s's second argument must be a column", call.Name)
	}
	idx := schema.ColumnIndex(tsCol.Name)
	if idx < 0 {
		return nil, kadedb.NewEngineError(kadedb.InvalidArgument, "unknown column %q", tsCol.Name)
	}
	out := append([]*kadedb.Row{}, rows...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Cells[idx].Compare(out[j].Cells[idx]) < 0
	})
	return out, nil
}

func reduceNumeric(name string, rows []*kadedb.Row, idx int) (kadedb.Value, error) {
	if len(rows) == 0 {
		if name == "SUM" {
			return kadedb.NewFloat(0), nil
		}
		return kadedb.NewNull(), nil
	}
	sum, min, max := 0.0, 0.0, 0.0
	for i, r := range rows {
		f, _, ok := numericOf(r.Cells[idx])
		if !ok {
			return kadedb.Value{}, kadedb.NewEngineError(kadedb.InvalidArgument, "aggregate column is not numeric")
		}
		sum += f
		if i == 0 || f < min {
			min = f
		}
		if i == 0 || f > max {
			max = f
		}
	}
	switch name {
	case "SUM":
		return kadedb.NewFloat(sum), nil
	case "AVG":
		return kadedb.NewFloat(sum / float64(len(rows))), nil
	case "MIN":
		return kadedb.NewFloat(min), nil
	case "MAX":
		return kadedb.NewFloat(max), nil
	default:
		return kadedb.Value{}, kadedb.NewEngineError(kadedb.InvalidArgument, "unknown aggregate function %q", name)
	}
}
