package kadeql_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kadedb/kadedb"
	"github.com/kadedb/kadedb/internal/kadeql"
	"github.com/kadedb/kadedb/internal/relational"
)

func usersSchema() *kadedb.TableSchema {
	ts := kadedb.NewTableSchema([]kadedb.Column{
		{Name: "id", Type: kadedb.ColInteger, Unique: true},
		{Name: "name", Type: kadedb.ColString},
		{Name: "age", Type: kadedb.ColInteger},
	})
	_ = ts.SetPrimaryKey("id")
	return ts
}

func seedUsers(t *testing.T) (*relational.Engine, *kadeql.Executor) {
	t.Helper()
	storage := relational.NewEngine()
	require.NoError(t, storage.CreateTable("users", usersSchema()))
	x := kadeql.NewExecutor(storage)

	rows := []struct {
		id   int64
		name string
		age  int64
	}{
		{1, "Ada", 36},
		{2, "Grace", 22},
		{3, "Alice", 40},
		{4, "Linus", 19},
	}
	for _, r := range rows {
		stmt, err := kadeql.Parse("INSERT INTO users (id, name, age) VALUES (" +
			itoa(r.id) + ", '" + r.name + "', " + itoa(r.age) + ")")
		require.NoError(t, err)
		_, err = x.Execute(stmt)
		require.NoError(t, err)
	}
	return storage, x
}

func itoa(v int64) string {
	if v == 0 {
		return "0"
	}
	neg := v < 0
	if neg {
		v = -v
	}
	var digits []byte
	for v > 0 {
		digits = append([]byte{byte('0' + v%10)}, digits...)
		v /= 10
	}
	if neg {
		return "-" + string(digits)
	}
	return string(digits)
}

func resultColumn(t *testing.T, rs *kadedb.ResultSet, name string) []kadedb.Value {
	t.Helper()
	idx := -1
	for i, n := range rs.ColumnNames() {
		if n == name {
			idx = i
			break
		}
	}
	require.GreaterOrEqual(t, idx, 0, "column %q not in result set", name)
	var out []kadedb.Value
	for rs.Next() {
		out = append(out, rs.Current().Cells[idx])
	}
	rs.Reset()
	return out
}

func namesOf(t *testing.T, rs *kadedb.ResultSet) []string {
	t.Helper()
	var out []string
	for _, v := range resultColumn(t, rs, "name") {
		s, err := v.AsString()
		require.NoError(t, err)
		out = append(out, s)
	}
	return out
}

// TestExecuteSelectEquivalentPredicatesAgree exercises the scenario
// where reversing a comparison's operand order and mirroring the
// operator must produce the same result as the original.
func TestExecuteSelectEquivalentPredicatesAgree(t *testing.T) {
	_, x := seedUsers(t)

	stmt1, err := kadeql.Parse("SELECT name FROM users WHERE age > 25")
	require.NoError(t, err)
	rs1, err := x.Execute(stmt1)
	require.NoError(t, err)

	stmt2, err := kadeql.Parse("SELECT name FROM users WHERE 25 < age")
	require.NoError(t, err)
	rs2, err := x.Execute(stmt2)
	require.NoError(t, err)

	assert.ElementsMatch(t, namesOf(t, rs1), namesOf(t, rs2))
	assert.ElementsMatch(t, []string{"Ada", "Alice"}, namesOf(t, rs1))
}

func TestExecuteSelectComplexBooleanPredicate(t *testing.T) {
	_, x := seedUsers(t)

	stmt, err := kadeql.Parse(
		"SELECT name FROM users WHERE (age >= 20 AND name != 'Alice') OR (NOT (age < 30) AND name = 'Alice')")
	require.NoError(t, err)
	rs, err := x.Execute(stmt)
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"Ada", "Grace", "Alice"}, namesOf(t, rs))
}

func TestExecuteSelectStar(t *testing.T) {
	_, x := seedUsers(t)
	stmt, err := kadeql.Parse("SELECT * FROM users WHERE id = 1")
	require.NoError(t, err)
	rs, err := x.Execute(stmt)
	require.NoError(t, err)
	require.Equal(t, 1, rs.RowCount())
	assert.Equal(t, []string{"id", "name", "age"}, rs.ColumnNames())
}

func TestExecuteInsertRejectsNonLiteralValues(t *testing.T) {
	storage := relational.NewEngine()
	require.NoError(t, storage.CreateTable("users", usersSchema()))
	x := kadeql.NewExecutor(storage)

	stmt, err := kadeql.Parse("INSERT INTO users (id, name, age) VALUES (1, 'Ada', 10 + 5)")
	require.NoError(t, err)
	_, err = x.Execute(stmt)
	require.Error(t, err)
	assert.True(t, kadedb.IsInvalidArgument(err))
}

func TestExecuteInsertArityMismatch(t *testing.T) {
	storage := relational.NewEngine()
	require.NoError(t, storage.CreateTable("users", usersSchema()))
	x := kadeql.NewExecutor(storage)

	stmt, err := kadeql.Parse("INSERT INTO users (id, name) VALUES (1, 'Ada', 10)")
	require.NoError(t, err)
	_, err = x.Execute(stmt)
	require.Error(t, err)
}

func TestExecuteUpdateLiteralFastPath(t *testing.T) {
	storage, x := seedUsers(t)

	stmt, err := kadeql.Parse("UPDATE users SET age = 41 WHERE name = 'Ada'")
	require.NoError(t, err)
	rs, err := x.Execute(stmt)
	require.NoError(t, err)
	assert.Equal(t, []kadedb.Value{kadedb.NewInteger(1)}, resultColumn(t, rs, "affected"))

	rows, err := storage.Select("users", []string{"age"}, kadedb.Ptr(kadedb.Comparison("id", kadedb.OpEq, kadedb.NewInteger(1))))
	require.NoError(t, err)
	age, _ := rows[0].Cells[0].AsInt()
	assert.Equal(t, int64(41), age)
}

func TestExecuteUpdateComputedArithmetic(t *testing.T) {
	storage, x := seedUsers(t)

	stmt, err := kadeql.Parse("UPDATE users SET age = age + 1 WHERE name = 'Grace'")
	require.NoError(t, err)
	_, err = x.Execute(stmt)
	require.NoError(t, err)

	rows, err := storage.Select("users", []string{"age"}, kadedb.Ptr(kadedb.Comparison("id", kadedb.OpEq, kadedb.NewInteger(2))))
	require.NoError(t, err)
	age, _ := rows[0].Cells[0].AsInt()
	assert.Equal(t, int64(23), age)
}

func TestExecuteUpdateComputedStringConcat(t *testing.T) {
	storage, x := seedUsers(t)

	stmt, err := kadeql.Parse("UPDATE users SET name = name + ' Lovelace' WHERE id = 1")
	require.NoError(t, err)
	_, err = x.Execute(stmt)
	require.NoError(t, err)

	rows, err := storage.Select("users", []string{"name"}, kadedb.Ptr(kadedb.Comparison("id", kadedb.OpEq, kadedb.NewInteger(1))))
	require.NoError(t, err)
	name, _ := rows[0].Cells[0].AsString()
	assert.Equal(t, "Ada Lovelace", name)
}

func TestExecuteUpdateDivisionByZeroFails(t *testing.T) {
	_, x := seedUsers(t)
	stmt, err := kadeql.Parse("UPDATE users SET age = age / 0 WHERE id = 1")
	require.NoError(t, err)
	_, err = x.Execute(stmt)
	require.Error(t, err)
	assert.True(t, kadedb.IsInvalidArgument(err))
}

func TestExecuteDelete(t *testing.T) {
	storage, x := seedUsers(t)
	stmt, err := kadeql.Parse("DELETE FROM users WHERE age < 20")
	require.NoError(t, err)
	rs, err := x.Execute(stmt)
	require.NoError(t, err)
	assert.Equal(t, []kadedb.Value{kadedb.NewInteger(1)}, resultColumn(t, rs, "affected"))

	remaining, err := storage.Select("users", nil, nil)
	require.NoError(t, err)
	assert.Len(t, remaining, 3)
}

func metricsSchema() *kadedb.TableSchema {
	return kadedb.NewTableSchema([]kadedb.Column{
		{Name: "ts", Type: kadedb.ColInteger},
		{Name: "value", Type: kadedb.ColFloat},
	})
}

func seedMetrics(t *testing.T) (*relational.Engine, *kadeql.Executor) {
	t.Helper()
	storage := relational.NewEngine()
	require.NoError(t, storage.CreateTable("metrics", metricsSchema()))
	x := kadeql.NewExecutor(storage)

	points := []struct {
		ts    int64
		value float64
	}{
		{0, 10}, {30, 20}, {60, 5}, {90, 15}, {120, 8},
	}
	for _, p := range points {
		require.NoError(t, storage.InsertRow("metrics",
			kadedb.NewRow(kadedb.NewInteger(p.ts), kadedb.NewFloat(p.value))))
	}
	return storage, x
}

func TestExecuteAggregateTimeBucket(t *testing.T) {
	_, x := seedMetrics(t)
	stmt, err := kadeql.Parse("SELECT TIME_BUCKET(ts, 60) AS bucket, COUNT(value), AVG(value) FROM metrics")
	require.NoError(t, err)
	rs, err := x.Execute(stmt)
	require.NoError(t, err)

	require.Equal(t, 3, rs.RowCount())
	buckets := resultColumn(t, rs, "bucket")
	b0, _ := buckets[0].AsInt()
	b1, _ := buckets[1].AsInt()
	b2, _ := buckets[2].AsInt()
	assert.Equal(t, int64(0), b0)
	assert.Equal(t, int64(60), b1)
	assert.Equal(t, int64(120), b2)

	counts := resultColumn(t, rs, "COUNT")
	c0, _ := counts[0].AsInt()
	c1, _ := counts[1].AsInt()
	c2, _ := counts[2].AsInt()
	assert.Equal(t, int64(2), c0)
	assert.Equal(t, int64(2), c1)
	assert.Equal(t, int64(1), c2)
}

func TestExecuteAggregateWithoutBucketIsSingleGroup(t *testing.T) {
	_, x := seedMetrics(t)
	stmt, err := kadeql.Parse("SELECT SUM(value), MIN(value), MAX(value) FROM metrics")
	require.NoError(t, err)
	rs, err := x.Execute(stmt)
	require.NoError(t, err)
	require.Equal(t, 1, rs.RowCount())

	sums := resultColumn(t, rs, "SUM")
	s, _ := sums[0].AsFloat()
	assert.Equal(t, 58.0, s)
}

func TestExecuteAggregateFirstLast(t *testing.T) {
	_, x := seedMetrics(t)
	stmt, err := kadeql.Parse("SELECT FIRST(value, ts), LAST(value, ts) FROM metrics WHERE ts < 90")
	require.NoError(t, err)
	rs, err := x.Execute(stmt)
	require.NoError(t, err)
	require.Equal(t, 1, rs.RowCount())

	first := resultColumn(t, rs, "FIRST")
	last := resultColumn(t, rs, "LAST")
	fv, _ := first[0].AsFloat()
	lv, _ := last[0].AsFloat()
	assert.Equal(t, 10.0, fv)
	assert.Equal(t, 5.0, lv)
}
